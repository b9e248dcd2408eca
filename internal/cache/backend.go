package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by a Backend that has never saved a namespace.
var ErrNotFound = errors.New("cache namespace not found")

// Backend persists whole namespaces. Save must replace the previous
// content atomically: a reader sees either the old or the new namespace.
type Backend interface {
	Load(ctx context.Context, ns Namespace) ([]byte, error)
	Save(ctx context.Context, ns Namespace, data []byte) error
	Close() error
}

// FileBackend keeps one JSON file per namespace in a directory.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(ns Namespace) string {
	return filepath.Join(b.dir, string(ns)+".json")
}

func (b *FileBackend) Load(_ context.Context, ns Namespace) ([]byte, error) {
	data, err := os.ReadFile(b.path(ns))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return data, nil
}

func (b *FileBackend) Save(_ context.Context, ns Namespace, data []byte) error {
	if err := writeFileAtomic(b.path(ns), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

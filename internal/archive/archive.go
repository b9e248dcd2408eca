// Package archive keeps the history of every lookup export in a git
// repository, one file per address fingerprint.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var ErrInvalidFingerprint = errors.New("invalid fingerprint")

var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{8,128}$`)

const (
	lookupsDir  = "lookups"
	authorName  = "whorep"
	authorEmail = "whorep@localhost"
)

// Commit describes one archived revision.
type Commit struct {
	Hash    string    `json:"hash"`
	Short   string    `json:"short"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

type Service struct {
	dir    string
	mu     sync.Mutex
	repo   *git.Repository
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dir: dir, logger: logger.With("component", "archive")}
}

// Commit records data as the current export for fingerprint. Content equal
// to the archived version, ignoring JSON formatting, creates no commit and
// reports changed=false.
func (s *Service) Commit(fingerprint string, data []byte, message string) (Commit, bool, error) {
	if !fingerprintPattern.MatchString(fingerprint) {
		return Commit{}, false, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return Commit{}, false, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return Commit{}, false, fmt.Errorf("open worktree: %w", err)
	}

	rel := lookupPath(fingerprint)
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	previous, err := os.ReadFile(abs)
	switch {
	case err == nil && bytes.Equal(normalizeJSON(previous), normalizeJSON(data)):
		return Commit{}, false, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return Commit{}, false, fmt.Errorf("read archived lookup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Commit{}, false, fmt.Errorf("create lookups dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return Commit{}, false, fmt.Errorf("write lookup: %w", err)
	}
	if _, err := worktree.Add(rel); err != nil {
		return Commit{}, false, fmt.Errorf("git add lookup: %w", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return Commit{}, false, fmt.Errorf("commit lookup: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return Commit{}, false, fmt.Errorf("read commit object: %w", err)
	}
	s.logger.Debug("archived lookup", "fingerprint", fingerprint, "commit", hash.String()[:7])
	return toCommit(commitObj), true, nil
}

// History lists the commits touching fingerprint's export, newest first.
// limit <= 0 means all.
func (s *Service) History(fingerprint string, limit int) ([]Commit, error) {
	if !fingerprintPattern.MatchString(fingerprint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	items := make([]Commit, 0)
	if _, err := repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return items, nil
	}

	rel := lookupPath(fingerprint)
	iter, err := repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommit(commitObj))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Read returns fingerprint's export as of the given commit.
func (s *Service) Read(fingerprint, hash string) ([]byte, error) {
	if !fingerprintPattern.MatchString(fingerprint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	resolved, err := resolveHash(repo, hash)
	if err != nil {
		return nil, err
	}
	commitObj, err := repo.CommitObject(resolved)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	file, err := commitObj.File(lookupPath(fingerprint))
	if err != nil {
		return nil, fmt.Errorf("load lookup from commit %s: %w", hash, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read lookup contents: %w", err)
	}
	return []byte(contents), nil
}

// open returns the repository, initializing it with a main branch on first
// use. Callers hold s.mu.
func (s *Service) open() (*git.Repository, error) {
	if s.repo != nil {
		return s.repo, nil
	}
	repo, err := git.PlainOpen(s.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		repo, err = git.PlainInit(s.dir, false)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
		if err := repo.Storer.SetReference(head); err != nil {
			return nil, fmt.Errorf("set HEAD to main: %w", err)
		}
		s.logger.Info("initialized archive", "dir", s.dir)
	} else if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	s.repo = repo
	return repo, nil
}

func lookupPath(fingerprint string) string {
	return path.Join(lookupsDir, fingerprint+".json")
}

func toCommit(commitObj *object.Commit) Commit {
	hash := commitObj.Hash.String()
	return Commit{
		Hash:    hash,
		Short:   hash[:7],
		Message: commitObj.Message,
		Author:  commitObj.Author.Name,
		When:    commitObj.Author.When,
	}
}

func normalizeJSON(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return data
	}
	return buf.Bytes()
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}

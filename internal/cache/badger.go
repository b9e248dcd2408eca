package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores each namespace under one key of an embedded badger
// database.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens a badger database in dir. An empty dir opens an
// in-memory database.
func NewBadgerBackend(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func badgerKey(ns Namespace) []byte {
	return []byte("ns:" + string(ns))
}

func (b *BadgerBackend) Load(_ context.Context, ns Namespace) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(ns))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load namespace %s: %w", ns, err)
	}
	return data, nil
}

func (b *BadgerBackend) Save(_ context.Context, ns Namespace, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(ns), data)
	})
	if err != nil {
		return fmt.Errorf("save namespace %s: %w", ns, err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

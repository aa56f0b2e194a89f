package storage

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// BadgerStore keeps every blob in a single BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

type BadgerOptions struct {
	// Dir is required unless InMemory is set.
	Dir string
	// InMemory runs without disk persistence.
	InMemory bool
}

func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("storage: badger directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at '%s': %w", opts.Dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *BadgerStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// badgerLogger routes warnings and errors to the application logger and
// drops the rest.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	logger.Error(fmt.Sprintf(f, v...), "component", "badger")
}
func (badgerLogger) Warningf(f string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(f, v...), "component", "badger")
}
func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// Package storage persists build artifacts and session memory as encoded
// blobs behind a small key/value interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage: not found")

// BlobStore holds opaque values under slash separated keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

// Open builds the blob store and codec selected by cfg.
func Open(cfg config.StorageConfig) (BlobStore, Codec, error) {
	codec, err := CodecFor(cfg.Format)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Dir, codec.Ext()), codec, nil
	case "badger":
		store, err := NewBadgerStore(BadgerOptions{Dir: cfg.Dir})
		if err != nil {
			return nil, nil, err
		}
		return store, codec, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

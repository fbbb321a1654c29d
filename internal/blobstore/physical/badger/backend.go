// Package badger provides a BadgerDB-backed blob storage backend.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

const keyPrefix = "blob/"

const (
	KeyPath             = "path"
	KeySyncWrites       = "sync_writes"
	KeyValueLogFileSize = "value_log_file_size"
	KeyMemTableSize     = "mem_table_size"
	KeyInMemory         = "in_memory"
)

func init() {
	physical.Register("badger", NewFactory, Defaults)
}

// Defaults returns the default configuration for the BadgerDB backend.
func Defaults() storage.Options {
	return storage.Options{
		KeyPath:             "~/.arc/bench/blobs",
		KeySyncWrites:       "false",
		KeyValueLogFileSize: strconv.FormatInt(1<<30, 10),
		KeyMemTableSize:     strconv.FormatInt(64<<20, 10),
		KeyInMemory:         "false",
	}
}

// NewFactory creates a new BadgerDB backend from its options.
func NewFactory(_ context.Context, opts storage.Options) (physical.Backend, error) {
	inMemory, err := opts.Bool(KeyInMemory, false)
	if err != nil {
		return nil, err
	}
	if inMemory {
		return newInMemory()
	}

	path := opts.Path(KeyPath, "")
	if path == "" {
		return nil, storage.NewConfigError("badger", KeyPath, "cannot be empty")
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, storage.NewConfigErrorWithCause("badger", KeyPath, "failed to create directory", err)
	}

	syncWrites, err := opts.Bool(KeySyncWrites, false)
	if err != nil {
		return nil, err
	}
	valueLogFileSize, err := opts.Size(KeyValueLogFileSize, 1<<30)
	if err != nil {
		return nil, err
	}
	memTableSize, err := opts.Size(KeyMemTableSize, 64<<20)
	if err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions(path).WithLogger(nil).WithSyncWrites(syncWrites)
	if valueLogFileSize > 0 {
		bopts.ValueLogFileSize = valueLogFileSize
	}
	if memTableSize > 0 {
		bopts.MemTableSize = memTableSize
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, storage.NewConfigErrorWithCause("badger", KeyPath, "failed to open database", err)
	}

	slog.Debug("badger blobstore initialized", "path", path, "sync_writes", syncWrites)
	return NewWithDB(db), nil
}

func newInMemory() (*Backend, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, storage.NewConfigErrorWithCause("badger", KeyInMemory, "failed to open in-memory database", err)
	}
	slog.Debug("badger blobstore initialized (in-memory)")
	return NewWithDB(db), nil
}

// Backend is a BadgerDB implementation of physical.Backend.
type Backend struct {
	db     *badger.DB
	closed atomic.Bool
}

// NewWithDB creates a new backend with an existing BadgerDB instance.
func NewWithDB(db *badger.DB) *Backend {
	return &Backend{db: db}
}

// Put stores data under key.
func (b *Backend) Put(_ context.Context, key string, data []byte) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if err := physical.ValidateKey(key); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Get retrieves the blob stored under key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, physical.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return data, nil
}

// Exists checks if a blob exists.
func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	if b.closed.Load() {
		return false, physical.ErrClosed
	}

	var exists bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger exists: %w", err)
	}
	return exists, nil
}

// Delete removes a blob by key.
func (b *Backend) Delete(_ context.Context, key string) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Stats returns storage statistics.
func (b *Backend) Stats(_ context.Context) (*physical.Stats, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	lsm, vlog := b.db.Size()
	return &physical.Stats{
		SizeBytes:   lsm + vlog,
		BackendType: "badger",
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

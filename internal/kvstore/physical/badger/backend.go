// Package badger provides a BadgerDB-backed key-value backend.
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

	"github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

const keyPrefix = "kv/"

const (
	KeyPath         = "path"
	KeySyncWrites   = "sync_writes"
	KeyMemTableSize = "mem_table_size"
	KeyInMemory     = "in_memory"
)

func init() {
	physical.Register("badger", NewFactory, Defaults)
}

// Defaults returns the default configuration for the BadgerDB backend.
func Defaults() storage.Options {
	return storage.Options{
		KeyPath:         "~/.arc/bench/kv",
		KeySyncWrites:   "false",
		KeyMemTableSize: strconv.FormatInt(64<<20, 10),
		KeyInMemory:     "false",
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
	memTableSize, err := opts.Size(KeyMemTableSize, 64<<20)
	if err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions(path).WithLogger(nil).WithSyncWrites(syncWrites)
	if memTableSize > 0 {
		bopts.MemTableSize = memTableSize
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, storage.NewConfigErrorWithCause("badger", KeyPath, "failed to open database", err)
	}

	slog.Debug("badger kvstore initialized", "path", path, "sync_writes", syncWrites)
	return NewWithDB(db), nil
}

func newInMemory() (*Backend, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, storage.NewConfigErrorWithCause("badger", KeyInMemory, "failed to open in-memory database", err)
	}
	slog.Debug("badger kvstore initialized (in-memory)")
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

// Get retrieves the value stored under key.
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

// Apply writes ops through a WriteBatch, which splits oversized
// transactions on its own.
func (b *Backend) Apply(_ context.Context, ops []physical.Op) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, op := range ops {
		key := []byte(keyPrefix + op.Key)
		var err error
		switch op.Kind {
		case physical.OpPut:
			err = wb.Set(key, op.Value)
		case physical.OpDelete:
			err = wb.Delete(key)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("badger apply %s %q: %w", op.Kind, op.Key, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("badger apply: %w", err)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

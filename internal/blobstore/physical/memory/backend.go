// Package memory provides an in-memory blob storage backend.
package memory

import (
	"context"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/blobstore/physical/badger"
	"github.com/gezibash/arc-bench/internal/storage"
)

func init() {
	physical.Register("memory", NewFactory, Defaults)
}

// Defaults returns the default configuration for the memory backend.
func Defaults() storage.Options {
	return storage.Options{badger.KeyInMemory: "true"}
}

// NewFactory creates a new in-memory backend using BadgerDB's in-memory mode.
func NewFactory(ctx context.Context, opts storage.Options) (physical.Backend, error) {
	opts = storage.Merge(opts, storage.Options{badger.KeyInMemory: "true"})
	return badger.NewFactory(ctx, opts)
}

// Package store is the storage client exercised by the benchmarks. It
// exposes key-value, object, distributed object, collection/item and
// database surfaces. Every mutation and lookup is staged into a Batch and
// takes effect when the batch is executed.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	blobphysical "github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/dbstore"
	kvphysical "github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/internal/objectstore"
	"github.com/gezibash/arc-bench/internal/storage"
	arcerrors "github.com/gezibash/arc-bench/pkg/errors"
)

// Config selects and configures the backends of a Client.
type Config struct {
	KVBackend string
	KVOptions storage.Options

	ObjectBackend string
	ObjectOptions storage.Options
	// ObjectServers is the number of logical object servers that
	// distributed objects are striped over.
	ObjectServers int
	// ChunkSize is the blob size objects are split into.
	ChunkSize int

	DBOptions storage.Options
}

// DefaultConfig keeps everything in memory.
func DefaultConfig() Config {
	return Config{
		KVBackend:     "memory",
		ObjectBackend: "memory",
		ObjectServers: 1,
	}
}

// Client holds the opened backends.
type Client struct {
	kv      kvphysical.Backend
	blobs   blobphysical.Backend
	objects *objectstore.Store
	db      *dbstore.Store
}

// Open opens every backend cfg names. On failure the backends opened so
// far are closed.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.KVBackend == "" {
		cfg.KVBackend = "memory"
	}
	if cfg.ObjectBackend == "" {
		cfg.ObjectBackend = "memory"
	}

	c := &Client{}
	var err error
	if c.kv, err = kvphysical.New(ctx, cfg.KVBackend, cfg.KVOptions); err != nil {
		return nil, fmt.Errorf("open kv backend: %w", err)
	}
	if c.blobs, err = blobphysical.New(ctx, cfg.ObjectBackend, cfg.ObjectOptions); err != nil {
		c.Close()
		return nil, fmt.Errorf("open object backend: %w", err)
	}
	c.objects = objectstore.New(c.blobs, objectstore.Config{
		Servers:   cfg.ObjectServers,
		ChunkSize: cfg.ChunkSize,
	})
	if c.db, err = dbstore.Open(ctx, cfg.DBOptions); err != nil {
		c.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}

	slog.DebugContext(ctx, "store client opened",
		"kv", cfg.KVBackend, "object", cfg.ObjectBackend, "servers", c.objects.Servers())
	return c, nil
}

// Close closes every backend.
func (c *Client) Close() error {
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.blobs != nil {
		errs = append(errs, c.blobs.Close())
	}
	if c.kv != nil {
		errs = append(errs, c.kv.Close())
	}
	return errors.Join(errs...)
}

// ObjectServers returns the number of logical object servers.
func (c *Client) ObjectServers() int { return c.objects.Servers() }

// notFound tags backend not-found errors with arcerrors.ErrNotFound.
func notFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kvphysical.ErrNotFound) ||
		errors.Is(err, objectstore.ErrNotFound) ||
		errors.Is(err, dbstore.ErrSchemaNotFound) {
		return fmt.Errorf("%w: %w", arcerrors.ErrNotFound, err)
	}
	if errors.Is(err, dbstore.ErrSchemaExists) {
		return fmt.Errorf("%w: %w", arcerrors.ErrAlreadyExists, err)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{arcerrors.ErrInvalidInput}, args...)...)
}

// Package redis provides a Redis-backed key-value backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

const (
	KeyAddr         = "addr"
	KeyPassword     = "password"
	KeyDB           = "db"
	KeyMaxRetries   = "max_retries"
	KeyDialTimeout  = "dial_timeout"
	KeyReadTimeout  = "read_timeout"
	KeyWriteTimeout = "write_timeout"
	KeyPoolSize     = "pool_size"
	KeyKeyPrefix    = "key_prefix"
)

func init() {
	physical.Register("redis", NewFactory, Defaults)
}

// Defaults returns the default configuration for the Redis backend.
func Defaults() storage.Options {
	return storage.Options{
		KeyAddr:         "localhost:6379",
		KeyPassword:     "",
		KeyDB:           "1",
		KeyMaxRetries:   "3",
		KeyDialTimeout:  "5s",
		KeyReadTimeout:  "3s",
		KeyWriteTimeout: "3s",
		KeyPoolSize:     "0",
		KeyKeyPrefix:    "arc-bench:",
	}
}

// NewFactory creates a new Redis backend and checks the connection.
func NewFactory(ctx context.Context, opts storage.Options) (physical.Backend, error) {
	addr := opts.String(KeyAddr, "")
	if addr == "" {
		return nil, storage.NewConfigError("redis", KeyAddr, "cannot be empty")
	}

	db, err := opts.Int(KeyDB, 1)
	if err != nil {
		return nil, err
	}
	if db < 0 {
		return nil, &storage.ConfigError{Backend: "redis", Field: KeyDB, Value: opts[KeyDB], Message: "must be non-negative"}
	}
	maxRetries, err := opts.Int(KeyMaxRetries, 3)
	if err != nil {
		return nil, err
	}
	dialTimeout, err := opts.Duration(KeyDialTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	readTimeout, err := opts.Duration(KeyReadTimeout, 3*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := opts.Duration(KeyWriteTimeout, 3*time.Second)
	if err != nil {
		return nil, err
	}
	poolSize, err := opts.Int(KeyPoolSize, 0)
	if err != nil {
		return nil, err
	}

	ropts := &redis.Options{
		Addr:         addr,
		Password:     opts.String(KeyPassword, ""),
		DB:           db,
		MaxRetries:   maxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if poolSize > 0 {
		ropts.PoolSize = poolSize
	}
	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, storage.NewConfigErrorWithCause("redis", KeyAddr, "failed to connect", err)
	}

	prefix := opts.String(KeyKeyPrefix, "arc-bench:")
	slog.Debug("redis kvstore initialized", "addr", addr, "db", db, "key_prefix", prefix)
	return NewWithClient(client, prefix), nil
}

// Backend is a Redis implementation of physical.Backend.
type Backend struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// NewWithClient creates a new backend with an existing Redis client.
// Every key is stored under prefix.
func NewWithClient(client *redis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) key(k string) string { return b.prefix + k }

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	data, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, physical.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Apply sends ops in one MULTI/EXEC pipeline.
func (b *Backend) Apply(ctx context.Context, ops []physical.Op) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}

	pipe := b.client.TxPipeline()
	for _, op := range ops {
		switch op.Kind {
		case physical.OpPut:
			pipe.Set(ctx, b.key(op.Key), op.Value, 0)
		case physical.OpDelete:
			pipe.Del(ctx, b.key(op.Key))
		default:
			pipe.Discard()
			return fmt.Errorf("redis apply: unknown op kind %d", op.Kind)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis apply: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.client.Close()
}

// Package physical provides the physical storage backend interface for blob
// storage. Blobs are addressed by slash-separated keys such as
// "srv0/benchmark/benchmark-1/chunk/0".
package physical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gezibash/arc-bench/internal/storage"
)

var (
	// ErrNotFound indicates the requested blob was not found.
	ErrNotFound = errors.New("blob not found")

	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("backend closed")

	// ErrInvalidKey indicates a key that cannot be mapped onto every backend.
	ErrInvalidKey = errors.New("invalid blob key")
)

// Stats contains storage statistics.
type Stats struct {
	SizeBytes   int64
	BackendType string
}

// Backend is the physical storage interface for blob storage.
// All implementations must be thread-safe.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// ValidateKey rejects keys that would escape a filesystem root or map to
// an empty object name.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsRune(key, 0) || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// Registry holds the available blob backends.
var Registry = storage.NewRegistry[Backend]("blobstore")

// Register adds a backend factory to the registry.
func Register(name string, factory storage.Factory[Backend], defaults storage.DefaultsFunc) {
	Registry.Register(name, factory, defaults)
}

// New creates a backend by name.
func New(ctx context.Context, name string, opts storage.Options) (Backend, error) {
	return Registry.New(ctx, name, opts)
}

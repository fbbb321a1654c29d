// Package physical provides the physical storage backend interface for the
// key-value surface.
package physical

import (
	"context"
	"errors"

	"github.com/gezibash/arc-bench/internal/storage"
)

var (
	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("backend closed")
)

// OpKind is the kind of a mutation.
type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	if k == OpDelete {
		return "delete"
	}
	return "put"
}

// Op is one mutation in an Apply call.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// Backend is the physical storage interface for key-value records.
// All implementations must be thread-safe.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Apply performs ops in order in a single round trip. Deleting a
	// missing key is not an error.
	Apply(ctx context.Context, ops []Op) error
	Close() error
}

// Registry holds the available key-value backends.
var Registry = storage.NewRegistry[Backend]("kvstore")

// Register adds a backend factory to the registry.
func Register(name string, factory storage.Factory[Backend], defaults storage.DefaultsFunc) {
	Registry.Register(name, factory, defaults)
}

// New creates a backend by name.
func New(ctx context.Context, name string, opts storage.Options) (Backend, error) {
	return Registry.New(ctx, name, opts)
}

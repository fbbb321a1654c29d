package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Factory creates a backend from its merged options.
type Factory[T io.Closer] func(ctx context.Context, opts Options) (T, error)

// DefaultsFunc returns the default options for a backend.
type DefaultsFunc func() Options

type registryEntry[T io.Closer] struct {
	factory  Factory[T]
	defaults DefaultsFunc
}

// Registry maps backend names to factories. Backends register themselves
// from init, so a registry is normally a package-level variable.
type Registry[T io.Closer] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]registryEntry[T]
}

// NewRegistry creates an empty registry; kind names the family in errors
// and logs ("kvstore", "blobstore").
func NewRegistry[T io.Closer](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, entries: make(map[string]registryEntry[T])}
}

// Register adds a backend factory.
// Panics if a backend with the same name is already registered.
func (r *Registry[T]) Register(name string, factory Factory[T], defaults DefaultsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("%s backend %q already registered", r.kind, name))
	}
	r.entries[name] = registryEntry[T]{factory: factory, defaults: defaults}
}

// Defaults returns the default options of a backend, or nil.
func (r *Registry[T]) Defaults(name string) Options {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok || entry.defaults == nil {
		return nil
	}
	return entry.defaults()
}

// List returns the sorted names of all registered backends.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a backend with the given name exists.
func (r *Registry[T]) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// New creates a backend by name. opts are layered over the backend's
// defaults. Config errors returned by the factory are tagged with the
// backend name.
func (r *Registry[T]) New(ctx context.Context, name string, opts Options) (T, error) {
	var zero T

	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return zero, NewConfigError(name, "", fmt.Sprintf("unknown %s backend %q (available: %v)", r.kind, name, r.List()))
	}

	var defaults Options
	if entry.defaults != nil {
		defaults = entry.defaults()
	}

	backend, err := entry.factory(ctx, Merge(defaults, opts))
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Backend == "" {
			cfgErr.Backend = name
		}
		return zero, err
	}

	slog.DebugContext(ctx, "backend created", "kind", r.kind, "backend", name)
	return backend, nil
}

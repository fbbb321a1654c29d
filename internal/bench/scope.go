package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Releaser is a client-side handle that must be released exactly once.
type Releaser interface {
	Release()
}

// Scope owns the handles a benchmark creates and releases them in LIFO
// order, on success and failure alike.
type Scope struct {
	entries []scopeEntry
}

type scopeEntry struct {
	name string
	fn   func(context.Context) error
}

// Own registers r for release.
func (s *Scope) Own(name string, r Releaser) {
	s.Defer(name, func(context.Context) error {
		r.Release()
		return nil
	})
}

// Defer registers fn to run at release time.
func (s *Scope) Defer(name string, fn func(context.Context) error) {
	s.entries = append(s.entries, scopeEntry{name: name, fn: fn})
}

// Len returns the number of pending entries.
func (s *Scope) Len() int { return len(s.entries) }

// Release runs every entry in reverse order and empties the scope. All
// entries run even when one fails.
func (s *Scope) Release(ctx context.Context) error {
	entries := s.entries
	s.entries = nil

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.fn(ctx); err != nil {
			slog.DebugContext(ctx, "release failed", "resource", e.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

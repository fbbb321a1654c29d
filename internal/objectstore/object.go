package objectstore

import (
	"context"
	"fmt"
)

// Create creates an empty object, replacing any existing metadata.
func (s *Store) Create(ctx context.Context, ns, name string) error {
	if err := ValidateName(ns, name); err != nil {
		return err
	}
	if err := s.part(s.ServerFor(ns, name), ns, name).create(ctx); err != nil {
		return fmt.Errorf("object create: %w", err)
	}
	return nil
}

// Delete removes an object and its data.
func (s *Store) Delete(ctx context.Context, ns, name string) error {
	if err := ValidateName(ns, name); err != nil {
		return err
	}
	if err := s.part(s.ServerFor(ns, name), ns, name).remove(ctx); err != nil {
		return fmt.Errorf("object delete: %w", err)
	}
	return nil
}

// Stat returns the object's size and modification time.
func (s *Store) Stat(ctx context.Context, ns, name string) (Status, error) {
	if err := ValidateName(ns, name); err != nil {
		return Status{}, err
	}
	st, err := s.part(s.ServerFor(ns, name), ns, name).stat(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("object status: %w", err)
	}
	return st, nil
}

// ReadAt reads up to len(buf) bytes at off and returns the count read,
// which is short at the end of the object.
func (s *Store) ReadAt(ctx context.Context, ns, name string, buf []byte, off uint64) (int, error) {
	if err := ValidateName(ns, name); err != nil {
		return 0, err
	}
	p := s.part(s.ServerFor(ns, name), ns, name)
	st, err := p.stat(ctx)
	if err != nil {
		return 0, fmt.Errorf("object read: %w", err)
	}
	n, err := p.readAt(ctx, buf, int64(off), st.Size)
	if err != nil {
		return n, fmt.Errorf("object read: %w", err)
	}
	return n, nil
}

// WriteAt writes data at off, growing the object as needed.
func (s *Store) WriteAt(ctx context.Context, ns, name string, data []byte, off uint64) (int, error) {
	if err := ValidateName(ns, name); err != nil {
		return 0, err
	}
	p := s.part(s.ServerFor(ns, name), ns, name)
	st, err := p.stat(ctx)
	if err != nil {
		return 0, fmt.Errorf("object write: %w", err)
	}
	if _, err := p.writeAt(ctx, data, int64(off), st.Size); err != nil {
		return 0, fmt.Errorf("object write: %w", err)
	}
	return len(data), nil
}

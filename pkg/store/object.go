package store

import (
	"context"
	"time"

	"github.com/gezibash/arc-bench/internal/objectstore"
)

// ObjectStatus is filled in by Status during Execute.
type ObjectStatus struct {
	Size    uint64
	ModTime time.Time
}

// Object is a handle on a flat object stored on a single server.
type Object struct {
	ns   string
	name string
}

// NewObject returns a handle on object name in namespace ns.
func (c *Client) NewObject(ns, name string) *Object {
	return &Object{ns: ns, name: name}
}

func (o *Object) check() error {
	if err := objectstore.ValidateName(o.ns, o.name); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func (o *Object) stage(b *Batch, fn func(ctx context.Context, s *objectstore.Store) error) error {
	if err := o.check(); err != nil {
		return err
	}
	return b.stage(staged{fn: func(ctx context.Context, c *Client) error {
		return fn(ctx, c.objects)
	}})
}

// Create stages creation of an empty object.
func (o *Object) Create(b *Batch) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		return s.Create(ctx, o.ns, o.name)
	})
}

// Delete stages removal of the object and its data.
func (o *Object) Delete(b *Batch) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		return s.Delete(ctx, o.ns, o.name)
	})
}

// Status stages a status lookup into st.
func (o *Object) Status(b *Batch, st *ObjectStatus) error {
	if st == nil {
		return invalid("nil status")
	}
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.Stat(ctx, o.ns, o.name)
		if err != nil {
			return err
		}
		*st = ObjectStatus(got)
		return nil
	})
}

// Read stages a read into buf at off. n receives the bytes read.
func (o *Object) Read(b *Batch, buf []byte, off uint64, n *uint64) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.ReadAt(ctx, o.ns, o.name, buf, off)
		if n != nil {
			*n = uint64(got)
		}
		return err
	})
}

// Write stages a write of data at off. n receives the bytes written.
func (o *Object) Write(b *Batch, data []byte, off uint64, n *uint64) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.WriteAt(ctx, o.ns, o.name, data, off)
		if n != nil {
			*n = uint64(got)
		}
		return err
	})
}

package store

import (
	"context"

	"github.com/gezibash/arc-bench/internal/objectstore"
)

// DistributionKind selects how a distributed object is striped.
type DistributionKind int

const (
	// RoundRobin assigns consecutive blocks to consecutive servers.
	RoundRobin DistributionKind = iota
)

// Distribution describes the striping of a distributed object.
type Distribution struct {
	d objectstore.Distribution
}

// NewDistribution returns a distribution over all object servers.
func (c *Client) NewDistribution(kind DistributionKind, blockSize int64) (*Distribution, error) {
	if kind != RoundRobin {
		return nil, invalid("distribution kind %d", kind)
	}
	d, err := c.objects.Distribution(blockSize)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return &Distribution{d: d}, nil
}

// BlockSize returns the stripe size.
func (d *Distribution) BlockSize() int64 { return d.d.BlockSize }

// DistributedObject is a handle on an object striped over every server.
type DistributedObject struct {
	ns   string
	name string
	dist objectstore.Distribution
}

// NewDistributedObject returns a handle on name in ns striped by dist.
func (c *Client) NewDistributedObject(ns, name string, dist *Distribution) *DistributedObject {
	o := &DistributedObject{ns: ns, name: name}
	if dist != nil {
		o.dist = dist.d
	}
	return o
}

func (o *DistributedObject) stage(b *Batch, fn func(ctx context.Context, s *objectstore.Store) error) error {
	if err := objectstore.ValidateName(o.ns, o.name); err != nil {
		return invalid("%v", err)
	}
	if o.dist.BlockSize <= 0 {
		return invalid("distributed object %s has no distribution", o.name)
	}
	return b.stage(staged{fn: func(ctx context.Context, c *Client) error {
		return fn(ctx, c.objects)
	}})
}

// Create stages creation of an empty part on every server.
func (o *DistributedObject) Create(b *Batch) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		return s.CreateDistributed(ctx, o.ns, o.name, o.dist)
	})
}

// Delete stages removal of every part.
func (o *DistributedObject) Delete(b *Batch) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		return s.DeleteDistributed(ctx, o.ns, o.name, o.dist)
	})
}

// Status stages a status lookup into st. The size is the logical size.
func (o *DistributedObject) Status(b *Batch, st *ObjectStatus) error {
	if st == nil {
		return invalid("nil status")
	}
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.StatDistributed(ctx, o.ns, o.name, o.dist)
		if err != nil {
			return err
		}
		*st = ObjectStatus(got)
		return nil
	})
}

// Read stages a read into buf at off. n receives the bytes read.
func (o *DistributedObject) Read(b *Batch, buf []byte, off uint64, n *uint64) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.ReadDistributed(ctx, o.ns, o.name, o.dist, buf, off)
		if n != nil {
			*n = uint64(got)
		}
		return err
	})
}

// Write stages a write of data at off. n receives the bytes written.
func (o *DistributedObject) Write(b *Batch, data []byte, off uint64, n *uint64) error {
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.WriteDistributed(ctx, o.ns, o.name, o.dist, data, off)
		if n != nil {
			*n = uint64(got)
		}
		return err
	})
}

package store

import (
	"context"
	"fmt"

	"github.com/gezibash/arc-bench/internal/dbstore"
	kvphysical "github.com/gezibash/arc-bench/internal/kvstore/physical"
	arcerrors "github.com/gezibash/arc-bench/pkg/errors"
)

// Op is a staged operation run by Batch.Execute.
type Op func(ctx context.Context, c *Client) error

// staged is one queued operation. Exactly one field is set; kv and db
// mutations are kept apart so runs of them can share a round trip.
type staged struct {
	kv *kvphysical.Op
	db dbstore.Op
	fn Op
}

// Batch queues operations for a single Execute.
type Batch struct {
	c        *Client
	ops      []staged
	released bool
}

// NewBatch creates an empty batch.
func (c *Client) NewBatch() *Batch {
	return &Batch{c: c}
}

// Add stages op.
func (b *Batch) Add(op Op) error {
	if op == nil {
		return invalid("nil op")
	}
	return b.stage(staged{fn: op})
}

func (b *Batch) stage(s staged) error {
	if b.released {
		return arcerrors.ErrReleased
	}
	b.ops = append(b.ops, s)
	return nil
}

// Len returns the number of staged operations.
func (b *Batch) Len() int { return len(b.ops) }

// Execute runs the staged operations in order and empties the batch.
// Consecutive key-value mutations are applied in one backend call and
// consecutive database mutations in one transaction. Execution stops at
// the first failure.
func (b *Batch) Execute(ctx context.Context) error {
	if b.released {
		return arcerrors.ErrReleased
	}
	ops := b.ops
	b.ops = nil

	for i := 0; i < len(ops); {
		j := i + 1
		var err error
		switch {
		case ops[i].kv != nil:
			for j < len(ops) && ops[j].kv != nil {
				j++
			}
			group := make([]kvphysical.Op, 0, j-i)
			for _, s := range ops[i:j] {
				group = append(group, *s.kv)
			}
			err = b.c.kv.Apply(ctx, group)
		case ops[i].db != nil:
			for j < len(ops) && ops[j].db != nil {
				j++
			}
			group := make([]dbstore.Op, 0, j-i)
			for _, s := range ops[i:j] {
				group = append(group, s.db)
			}
			err = b.c.db.Apply(ctx, group)
		default:
			err = ops[i].fn(ctx, b.c)
		}
		if err != nil {
			return fmt.Errorf("batch execute: %w", notFound(err))
		}
		i = j
	}
	return nil
}

// Release discards staged operations. The batch cannot be used afterwards.
func (b *Batch) Release() {
	b.ops = nil
	b.released = true
}

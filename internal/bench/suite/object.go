package suite

import (
	"context"
	"fmt"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/pkg/store"
)

// object is the surface flat and distributed objects share.
type object interface {
	Create(b *store.Batch) error
	Delete(b *store.Batch) error
	Status(b *store.Batch, st *store.ObjectStatus) error
	Read(b *store.Batch, buf []byte, off uint64, n *uint64) error
	Write(b *store.Batch, data []byte, off uint64, n *uint64) error
}

func (s *Suite) flatObject(name string) object {
	return s.client.NewObject(namespace, name)
}

func (s *Suite) distributedObject(name string) object {
	return s.client.NewDistributedObject(namespace, name, s.dist)
}

func (s *Suite) registerObjects(c *bench.Catalog, prefix, surface string, open func(string) object) {
	variants(c, prefix+"create", "-", surface, func(b bool) bench.Func { return s.objectCreate(open, b) })
	variants(c, prefix+"delete", "-", surface, func(b bool) bench.Func { return s.objectDelete(open, b) })
	variants(c, prefix+"status", "-", surface, func(b bool) bench.Func { return s.objectStatus(open, b) })
	variants(c, prefix+"read", "-", surface, func(b bool) bench.Func { return s.objectRead(open, b) })
	variants(c, prefix+"write", "-", surface, func(b bool) bench.Func { return s.objectWrite(open, b) })
	variants(c, prefix+"unordered-create-delete", "-", surface, func(b bool) bench.Func { return s.objectUnordered(open, b) })
}

// batchScale is the multiplier of cheap per-object operations.
func batchScale(useBatch bool) bench.Multiplier {
	if useBatch {
		return bench.Times10
	}
	return bench.Unscaled
}

func (s *Suite) objectCreate(open func(string) object, useBatch bool) bench.Func {
	var deletes *store.Batch
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(_ context.Context, sc *bench.Scope, _ int) error {
			deletes = s.client.NewBatch()
			sc.Own("delete batch", deletes)
			return nil
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			obj := open(bench.KeyName(i))
			if err := obj.Create(b); err != nil {
				return err
			}
			return obj.Delete(deletes)
		},
		Cleanup:  func(ctx context.Context) error { return deletes.Execute(ctx) },
		Teardown: func(ctx context.Context) error { return deletes.Execute(ctx) },
	})
}

func (s *Suite) objectFill(ctx context.Context, open func(string) object, n int) error {
	return s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error { return open(bench.KeyName(i)).Create(b) })
	})
}

func (s *Suite) objectDelete(open func(string) object, useBatch bool) bench.Func {
	var n int
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, _ *bench.Scope, iterations int) error {
			n = iterations
			return s.objectFill(ctx, open, n)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return open(bench.KeyName(i)).Delete(b)
		},
		Cleanup: func(ctx context.Context) error { return s.objectFill(ctx, open, n) },
		Teardown: func(ctx context.Context) error {
			return s.exec(ctx, func(b *store.Batch) error {
				return each(n, func(i int) error { return open(bench.KeyName(i)).Delete(b) })
			})
		},
	})
}

// singleObject creates the object every status/read/write iteration
// targets and deletes it at teardown.
func (s *Suite) singleObject(ctx context.Context, sc *bench.Scope, obj object, fill []byte, blocks int) error {
	err := s.exec(ctx, func(b *store.Batch) error {
		if err := obj.Create(b); err != nil {
			return err
		}
		return each(blocks, func(i int) error {
			return obj.Write(b, fill, uint64(i)*uint64(len(fill)), nil)
		})
	})
	if err != nil {
		return err
	}
	sc.Defer("object", func(ctx context.Context) error {
		return s.exec(ctx, obj.Delete)
	})
	return nil
}

func (s *Suite) objectStatus(open func(string) object, useBatch bool) bench.Func {
	obj := open(namespace)
	var st store.ObjectStatus
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) error {
			return s.singleObject(ctx, sc, obj, []byte("A"), 1)
		},
		Op: func(_ context.Context, _ int, b *store.Batch) error {
			return obj.Status(b, &st)
		},
	})
}

func (s *Suite) objectRead(open func(string) object, useBatch bool) bench.Func {
	obj := open(namespace)
	buf := make([]byte, BlockSize)
	var n uint64
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, iterations int) error {
			return s.singleObject(ctx, sc, obj, make([]byte, BlockSize), iterations)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return obj.Read(b, buf, uint64(i)*BlockSize, &n)
		},
		Teardown: func(context.Context) error {
			if n != BlockSize {
				return fmt.Errorf("short read: %d of %d bytes", n, BlockSize)
			}
			return nil
		},
	})
}

func (s *Suite) objectWrite(open func(string) object, useBatch bool) bench.Func {
	obj := open(namespace)
	data := make([]byte, BlockSize)
	var n uint64
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) error {
			return s.singleObject(ctx, sc, obj, nil, 0)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return obj.Write(b, data, uint64(i)*BlockSize, &n)
		},
	})
}

func (s *Suite) objectUnordered(open func(string) object, useBatch bool) bench.Func {
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:        useBatch,
		OpsPerIteration: 2,
		NewBatch:        s.client.NewBatch,
		Op: func(_ context.Context, i int, b *store.Batch) error {
			obj := open(bench.KeyName(i))
			if err := obj.Create(b); err != nil {
				return err
			}
			return obj.Delete(b)
		},
	})
}

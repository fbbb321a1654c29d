package suite

import (
	"context"
	"errors"
	"fmt"

	"github.com/gezibash/arc-bench/internal/bench"
	arcerrors "github.com/gezibash/arc-bench/pkg/errors"
	"github.com/gezibash/arc-bench/pkg/store"
)

func (s *Suite) registerCollections(c *bench.Catalog) {
	const prefix = "/item/collection/"
	variants(c, prefix+"create", "-", "collection", s.collectionCreate)
	variants(c, prefix+"delete", "-", "collection", s.collectionDelete)
	register(c, prefix+"delete-batch-without-get", "collection", true, s.collectionDeleteWithoutGet())
	variants(c, prefix+"unordered-create-delete", "-", "collection", s.collectionUnordered)
}

func (s *Suite) registerItems(c *bench.Catalog) {
	const prefix = "/item/item/"
	variants(c, prefix+"create", "-", "item", s.itemCreate)
	variants(c, prefix+"delete", "-", "item", s.itemDelete)
	register(c, prefix+"delete-batch-without-get", "item", true, s.itemDeleteWithoutGet())
	variants(c, prefix+"get-status", "-", "item", s.itemGetStatus)
	variants(c, prefix+"read", "-", "item", s.itemRead)
	variants(c, prefix+"write", "-", "item", s.itemWrite)
	variants(c, prefix+"unordered-create-delete", "-", "item", s.itemUnordered)
}

// createCollections creates n collections and returns their handles. When
// deletes is set the deletion of each one is staged into it.
func (s *Suite) createCollections(ctx context.Context, n int, deletes *store.Batch) ([]*store.Collection, error) {
	colls := make([]*store.Collection, 0, n)
	err := s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error {
			coll, err := s.client.CreateCollection(b, bench.KeyName(i))
			if err != nil {
				return err
			}
			colls = append(colls, coll)
			if deletes == nil {
				return nil
			}
			return coll.Delete(deletes)
		})
	})
	return colls, err
}

// dropCollections removes the records of colls. Missing ones are skipped.
func (s *Suite) dropCollections(ctx context.Context, colls []*store.Collection) error {
	return s.exec(ctx, func(b *store.Batch) error {
		return each(len(colls), func(i int) error { return colls[i].Delete(b) })
	})
}

func (s *Suite) collectionCreate(useBatch bool) bench.Func {
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
			coll, err := s.client.CreateCollection(b, bench.KeyName(i))
			if err != nil {
				return err
			}
			return coll.Delete(deletes)
		},
		Cleanup:  func(ctx context.Context) error { return deletes.Execute(ctx) },
		Teardown: func(ctx context.Context) error { return deletes.Execute(ctx) },
	})
}

// collectionDelete looks every collection up before deleting it. The
// lookup round trip is part of the measurement.
func (s *Suite) collectionDelete(useBatch bool) bench.Func {
	var colls []*store.Collection
	refill := func(ctx context.Context) (err error) {
		colls, err = s.createCollections(ctx, len(colls), nil)
		return err
	}
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, _ *bench.Scope, n int) (err error) {
			colls, err = s.createCollections(ctx, n, nil)
			return err
		},
		Op: func(ctx context.Context, i int, b *store.Batch) error {
			var coll *store.Collection
			err := s.exec(ctx, func(get *store.Batch) error {
				return s.client.GetCollection(get, bench.KeyName(i), &coll)
			})
			if err != nil {
				return err
			}
			return coll.Delete(b)
		},
		Cleanup:  refill,
		Teardown: func(ctx context.Context) error { return s.dropCollections(ctx, colls) },
	})
}

// collectionDeleteWithoutGet measures the flush of a delete batch built
// from the creation handles, so no lookup is involved.
func (s *Suite) collectionDeleteWithoutGet() bench.Func {
	var (
		colls   []*store.Collection
		measure *store.Batch
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: true,
		NewBatch: func() *store.Batch {
			measure = s.client.NewBatch()
			return measure
		},
		Setup: func(ctx context.Context, _ *bench.Scope, n int) (err error) {
			colls, err = s.createCollections(ctx, n, measure)
			return err
		},
		Op: func(context.Context, int, *store.Batch) error { return nil },
		Cleanup: func(ctx context.Context) (err error) {
			colls, err = s.createCollections(ctx, len(colls), measure)
			return err
		},
		Teardown: func(ctx context.Context) error { return s.dropCollections(ctx, colls) },
	})
}

func (s *Suite) collectionUnordered(useBatch bool) bench.Func {
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:        useBatch,
		OpsPerIteration: 2,
		NewBatch:        s.client.NewBatch,
		Op: func(_ context.Context, i int, b *store.Batch) error {
			coll, err := s.client.CreateCollection(b, bench.KeyName(i))
			if err != nil {
				return err
			}
			return coll.Delete(b)
		},
	})
}

// withCollection creates the collection the item benchmarks work in. It
// is deleted when the scope is released.
func (s *Suite) withCollection(ctx context.Context, sc *bench.Scope) (*store.Collection, error) {
	var coll *store.Collection
	err := s.exec(ctx, func(b *store.Batch) (err error) {
		coll, err = s.client.CreateCollection(b, namespace)
		return err
	})
	if err != nil {
		return nil, err
	}
	sc.Defer("collection", func(ctx context.Context) error {
		return s.exec(ctx, coll.Delete)
	})
	return coll, nil
}

// createItems creates n items in coll and returns their handles. When
// deletes is set the deletion of each one is staged into it.
func (s *Suite) createItems(ctx context.Context, coll *store.Collection, n int, deletes *store.Batch) ([]*store.Item, error) {
	items := make([]*store.Item, 0, n)
	err := s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error {
			item, err := coll.CreateItem(b, bench.KeyName(i), s.dist)
			if err != nil {
				return err
			}
			items = append(items, item)
			if deletes == nil {
				return nil
			}
			return item.Delete(deletes)
		})
	})
	return items, err
}

// dropItems deletes items one at a time, skipping those already gone.
func (s *Suite) dropItems(ctx context.Context, items []*store.Item) error {
	for _, item := range items {
		err := s.exec(ctx, item.Delete)
		if err != nil && !errors.Is(err, arcerrors.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Suite) itemCreate(useBatch bool) bench.Func {
	var (
		coll    *store.Collection
		deletes *store.Batch
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			coll, err = s.withCollection(ctx, sc)
			deletes = s.client.NewBatch()
			sc.Own("delete batch", deletes)
			return err
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			item, err := coll.CreateItem(b, bench.KeyName(i), s.dist)
			if err != nil {
				return err
			}
			return item.Delete(deletes)
		},
		Cleanup:  func(ctx context.Context) error { return deletes.Execute(ctx) },
		Teardown: func(ctx context.Context) error { return deletes.Execute(ctx) },
	})
}

// itemDelete looks every item up before deleting it. The lookup round trip
// is part of the measurement.
func (s *Suite) itemDelete(useBatch bool) bench.Func {
	var (
		coll  *store.Collection
		items []*store.Item
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, n int) (err error) {
			if coll, err = s.withCollection(ctx, sc); err != nil {
				return err
			}
			items, err = s.createItems(ctx, coll, n, nil)
			return err
		},
		Op: func(ctx context.Context, i int, b *store.Batch) error {
			var item *store.Item
			err := s.exec(ctx, func(get *store.Batch) error {
				return coll.GetItem(get, bench.KeyName(i), &item)
			})
			if err != nil {
				return err
			}
			return item.Delete(b)
		},
		Cleanup: func(ctx context.Context) (err error) {
			items, err = s.createItems(ctx, coll, len(items), nil)
			return err
		},
		Teardown: func(ctx context.Context) error { return s.dropItems(ctx, items) },
	})
}

func (s *Suite) itemDeleteWithoutGet() bench.Func {
	var (
		coll    *store.Collection
		items   []*store.Item
		measure *store.Batch
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: true,
		NewBatch: func() *store.Batch {
			measure = s.client.NewBatch()
			return measure
		},
		Setup: func(ctx context.Context, sc *bench.Scope, n int) (err error) {
			if coll, err = s.withCollection(ctx, sc); err != nil {
				return err
			}
			items, err = s.createItems(ctx, coll, n, measure)
			return err
		},
		Op: func(context.Context, int, *store.Batch) error { return nil },
		Cleanup: func(ctx context.Context) (err error) {
			items, err = s.createItems(ctx, coll, len(items), measure)
			return err
		},
		Teardown: func(ctx context.Context) error { return s.dropItems(ctx, items) },
	})
}

// withItem creates the single item the status, read and write benchmarks
// target, filled with blocks copies of fill.
func (s *Suite) withItem(ctx context.Context, sc *bench.Scope, fill []byte, blocks int) (*store.Item, error) {
	coll, err := s.withCollection(ctx, sc)
	if err != nil {
		return nil, err
	}
	var item *store.Item
	err = s.exec(ctx, func(b *store.Batch) (err error) {
		if item, err = coll.CreateItem(b, namespace, s.dist); err != nil {
			return err
		}
		return each(blocks, func(i int) error {
			return item.Write(b, fill, uint64(i)*uint64(len(fill)), nil)
		})
	})
	if err != nil {
		return nil, err
	}
	sc.Defer("item", func(ctx context.Context) error {
		return s.exec(ctx, item.Delete)
	})
	return item, nil
}

func (s *Suite) itemGetStatus(useBatch bool) bench.Func {
	var (
		item *store.Item
		st   store.ItemStatus
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			item, err = s.withItem(ctx, sc, []byte("A"), 1)
			return err
		},
		Op: func(_ context.Context, _ int, b *store.Batch) error {
			return item.GetStatus(b, &st)
		},
		Teardown: func(context.Context) error {
			if st.Size != 1 {
				return fmt.Errorf("item size %d, want 1", st.Size)
			}
			return nil
		},
	})
}

func (s *Suite) itemRead(useBatch bool) bench.Func {
	var (
		item *store.Item
		n    uint64
	)
	buf := make([]byte, BlockSize)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, blocks int) (err error) {
			item, err = s.withItem(ctx, sc, make([]byte, BlockSize), blocks)
			return err
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return item.Read(b, buf, uint64(i)*BlockSize, &n)
		},
		Teardown: func(context.Context) error {
			if n != BlockSize {
				return fmt.Errorf("short read: %d of %d bytes", n, BlockSize)
			}
			return nil
		},
	})
}

func (s *Suite) itemWrite(useBatch bool) bench.Func {
	var item *store.Item
	data := make([]byte, BlockSize)
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: batchScale(useBatch),
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			item, err = s.withItem(ctx, sc, nil, 0)
			return err
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return item.Write(b, data, uint64(i)*BlockSize, nil)
		},
	})
}

func (s *Suite) itemUnordered(useBatch bool) bench.Func {
	var coll *store.Collection
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:        useBatch,
		OpsPerIteration: 2,
		NewBatch:        s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			coll, err = s.withCollection(ctx, sc)
			return err
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			item, err := coll.CreateItem(b, bench.KeyName(i), s.dist)
			if err != nil {
				return err
			}
			return item.Delete(b)
		},
	})
}

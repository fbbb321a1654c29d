package suite

import (
	"context"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/pkg/store"
)

var emptyValue = []byte("empty\x00")

func (s *Suite) registerKV(c *bench.Catalog) {
	variants(c, "/kv/put", "_", "kv", s.kvPut)
	variants(c, "/kv/get", "-", "kv", s.kvGet)
	variants(c, "/kv/delete", "-", "kv", s.kvDelete)
	variants(c, "/kv/unordered_put_delete", "_", "kv", s.kvUnorderedPutDelete)
}

func (s *Suite) kv(i int) *store.KV {
	return s.client.NewKV(namespace, bench.KeyName(i))
}

func (s *Suite) kvFill(ctx context.Context, n int, value func(i int) []byte) error {
	return s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error { return s.kv(i).Put(b, value(i)) })
	})
}

func (s *Suite) kvClear(ctx context.Context, n int) error {
	return s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error { return s.kv(i).Delete(b) })
	})
}

func empty(int) []byte { return emptyValue }

func (s *Suite) kvPut(useBatch bool) bench.Func {
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
			kv := s.kv(i)
			if err := kv.Put(b, emptyValue); err != nil {
				return err
			}
			return kv.Delete(deletes)
		},
		Cleanup:  func(ctx context.Context) error { return deletes.Execute(ctx) },
		Teardown: func(ctx context.Context) error { return deletes.Execute(ctx) },
	})
}

func (s *Suite) kvGet(useBatch bool) bench.Func {
	var n int
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, _ *bench.Scope, iterations int) error {
			n = iterations
			return s.kvFill(ctx, n, func(i int) []byte { return []byte(bench.KeyName(i)) })
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return s.kv(i).Get(b, func([]byte) {})
		},
		Teardown: func(ctx context.Context) error { return s.kvClear(ctx, n) },
	})
}

// kvDelete re-populates the keys between passes so every pass deletes
// existing records.
func (s *Suite) kvDelete(useBatch bool) bench.Func {
	var n int
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch: useBatch,
		NewBatch: s.client.NewBatch,
		Setup: func(ctx context.Context, _ *bench.Scope, iterations int) error {
			n = iterations
			return s.kvFill(ctx, n, empty)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return s.kv(i).Delete(b)
		},
		Cleanup:  func(ctx context.Context) error { return s.kvFill(ctx, n, empty) },
		Teardown: func(ctx context.Context) error { return s.kvClear(ctx, n) },
	})
}

func (s *Suite) kvUnorderedPutDelete(useBatch bool) bench.Func {
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:        useBatch,
		OpsPerIteration: 2,
		NewBatch:        s.client.NewBatch,
		Op: func(_ context.Context, i int, b *store.Batch) error {
			kv := s.kv(i)
			if err := kv.Put(b, emptyValue); err != nil {
				return err
			}
			return kv.Delete(b)
		},
	})
}

// Package suite registers the storage benchmarks in their fixed order.
// Every benchmark drives pkg/store through bench.Batched.
package suite

import (
	"context"
	"fmt"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/pkg/store"
)

const (
	namespace = "benchmark"
	// BlockSize is the transfer size of read and write benchmarks.
	BlockSize = 4 << 10
)

// Suite builds benchmark bodies against one client.
type Suite struct {
	client *store.Client
	gen    bench.GenConfig
	dist   *store.Distribution
}

// Option configures a Suite.
type Option func(*Suite)

// WithGenConfig replaces the record generator of the database benchmarks.
func WithGenConfig(g bench.GenConfig) Option {
	return func(s *Suite) { s.gen = g }
}

// New creates a suite over client.
func New(client *store.Client, opts ...Option) (*Suite, error) {
	s := &Suite{client: client, gen: bench.DefaultGenConfig()}
	for _, o := range opts {
		o(s)
	}
	dist, err := client.NewDistribution(store.RoundRobin, BlockSize)
	if err != nil {
		return nil, fmt.Errorf("suite distribution: %w", err)
	}
	s.dist = dist
	return s, nil
}

// Catalog returns every benchmark in reporting order.
func (s *Suite) Catalog() *bench.Catalog {
	c := bench.NewCatalog()
	s.registerKV(c)
	s.registerObjects(c, "/object/object/", "object", s.flatObject)
	s.registerObjects(c, "/object/distributed_object/", "distributed_object", s.distributedObject)
	s.registerCollections(c)
	s.registerItems(c)
	s.registerSchemas(c)
	s.registerEntries(c)
	s.registerIterators(c)
	return c
}

func register(c *bench.Catalog, name, surface string, batch bool, fn bench.Func) {
	c.Register(bench.Entry{Name: name, Surface: surface, Batch: batch, Func: fn})
}

// variants registers the immediate benchmark under name and the batched
// one under name+sep+"batch".
func variants(c *bench.Catalog, name, sep, surface string, build func(useBatch bool) bench.Func) {
	register(c, name, surface, false, build(false))
	register(c, name+sep+"batch", surface, true, build(true))
}

// exec stages work into a fresh batch and executes it.
func (s *Suite) exec(ctx context.Context, stage func(b *store.Batch) error) error {
	b := s.client.NewBatch()
	defer b.Release()
	if err := stage(b); err != nil {
		return err
	}
	return b.Execute(ctx)
}

// each stages fn for every index below n.
func each(n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

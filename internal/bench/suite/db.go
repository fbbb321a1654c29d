package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/pkg/store"
)

const schemaNamespace = "benchmark-ns"

// indexing selects the indexes of an entry benchmark table.
type indexing struct {
	suffix string
	all    bool
	single bool
}

var indexings = []indexing{
	{suffix: ""},
	{suffix: "-index-single", single: true},
	{suffix: "-index-all", all: true},
	{suffix: "-index-mixed", all: true, single: true},
}

func (ix indexing) indexed() bool { return ix.all || ix.single }

func batchSuffix(useBatch bool) string {
	if useBatch {
		return "-batch"
	}
	return ""
}

// tableNamespace derives the namespace of a benchmark's table from its
// name so no two benchmarks share a table.
func tableNamespace(name string) string {
	return "benchmark_" + strings.ReplaceAll(name, "-", "_")
}

func (s *Suite) registerSchemas(c *bench.Catalog) {
	variants(c, "/db/schema/create", "-", "schema", s.schemaCreate)
	variants(c, "/db/schema/delete", "-", "schema", s.schemaDelete)
}

func (s *Suite) registerEntries(c *bench.Catalog) {
	kinds := []struct {
		name  string
		build func(ns string, ix indexing, useBatch bool) bench.Func
	}{
		{"insert", s.entryInsert},
		{"delete", s.entryDelete},
		{"update", s.entryUpdate},
	}
	for _, k := range kinds {
		for _, ix := range indexings {
			for _, useBatch := range []bool{false, true} {
				name := k.name + batchSuffix(useBatch) + ix.suffix
				register(c, "/db/entry/"+name, "entry", useBatch, k.build(tableNamespace(name), ix, useBatch))
			}
		}
	}
}

func (s *Suite) registerIterators(c *bench.Catalog) {
	for _, ix := range indexings {
		name := "get-simple" + ix.suffix
		register(c, "/db/iterator/"+name, "iterator", false, s.iteratorGetSimple(tableNamespace(name), ix))
	}
	for _, ix := range indexings {
		name := "get-range" + ix.suffix
		register(c, "/db/iterator/"+name, "iterator", false, s.iteratorGetRange(tableNamespace(name), ix))
	}
}

// benchSchema returns schema i of the schema benchmarks: ten string fields
// and no indexes.
func (s *Suite) benchSchema(i int) (*store.Schema, error) {
	schema := s.client.NewSchema(schemaNamespace, fmt.Sprintf("benchmark-schema-%d", i))
	for j := 0; j < 10; j++ {
		if err := schema.AddField(fmt.Sprintf("field%d", j), store.FieldString); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

func (s *Suite) schemaCreate(useBatch bool) bench.Func {
	var deletes *store.Batch
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: bench.Div10,
		NewBatch:   s.client.NewBatch,
		Setup: func(_ context.Context, sc *bench.Scope, _ int) error {
			deletes = s.client.NewBatch()
			sc.Own("delete batch", deletes)
			return nil
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			schema, err := s.benchSchema(i)
			if err != nil {
				return err
			}
			if err := schema.Create(b); err != nil {
				return err
			}
			return schema.Delete(deletes)
		},
		Cleanup:  func(ctx context.Context) error { return deletes.Execute(ctx) },
		Teardown: func(ctx context.Context) error { return deletes.Execute(ctx) },
	})
}

func (s *Suite) schemaDelete(useBatch bool) bench.Func {
	var n int
	stageAll := func(ctx context.Context, stage func(*store.Schema, *store.Batch) error) error {
		return s.exec(ctx, func(b *store.Batch) error {
			return each(n, func(i int) error {
				schema, err := s.benchSchema(i)
				if err != nil {
					return err
				}
				return stage(schema, b)
			})
		})
	}
	create := func(ctx context.Context) error { return stageAll(ctx, (*store.Schema).Create) }
	return bench.Batched(bench.Spec[*store.Batch]{
		UseBatch:   useBatch,
		Multiplier: bench.Div10,
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, _ *bench.Scope, iterations int) error {
			n = iterations
			return create(ctx)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			schema, err := s.benchSchema(i)
			if err != nil {
				return err
			}
			return schema.Delete(b)
		},
		Cleanup:  create,
		Teardown: func(ctx context.Context) error { return stageAll(ctx, (*store.Schema).Delete) },
	})
}

// entrySchema returns the table of an entry or iterator benchmark.
func (s *Suite) entrySchema(ns string, ix indexing) (*store.Schema, error) {
	schema := s.client.NewSchema(ns, "table")
	fields := []struct {
		name string
		typ  store.FieldType
	}{
		{"string", store.FieldString},
		{"float", store.FieldFloat},
		{"uint", store.FieldUint},
		{"sint", store.FieldSint},
		{"blob", store.FieldBlob},
	}
	for _, f := range fields {
		if err := schema.AddField(f.name, f.typ); err != nil {
			return nil, err
		}
	}
	if ix.all {
		if err := schema.AddIndex("string", "float", "uint", "sint"); err != nil {
			return nil, err
		}
	}
	if ix.single {
		for _, f := range []string{"string", "float", "uint", "sint"} {
			if err := schema.AddIndex(f); err != nil {
				return nil, err
			}
		}
	}
	return schema, nil
}

// withTable creates the table of an entry or iterator benchmark and drops
// it when the scope is released.
func (s *Suite) withTable(ctx context.Context, sc *bench.Scope, ns string, ix indexing) (*store.Schema, error) {
	schema, err := s.entrySchema(ns, ix)
	if err != nil {
		return nil, err
	}
	if err := s.exec(ctx, schema.Create); err != nil {
		return nil, err
	}
	sc.Defer("schema "+ns, func(ctx context.Context) error {
		return s.exec(ctx, schema.Delete)
	})
	return schema, nil
}

// insertRecord stages record i of the generator.
func (s *Suite) insertRecord(schema *store.Schema, i int, b *store.Batch) error {
	e := store.NewEntry(schema)
	fields := []struct {
		name  string
		value any
	}{
		{"string", s.gen.Identifier(i)},
		{"float", s.gen.Float(i)},
		{"sint", s.gen.Signed(i)},
		{"uint", s.gen.Unsigned(i)},
	}
	for _, f := range fields {
		if err := e.Set(f.name, f.value); err != nil {
			return err
		}
	}
	return e.Insert(b)
}

func (s *Suite) insertRecords(ctx context.Context, schema *store.Schema, n int) error {
	return s.exec(ctx, func(b *store.Batch) error {
		return each(n, func(i int) error { return s.insertRecord(schema, i, b) })
	})
}

// byIdentifier selects record i by its string field.
func (s *Suite) byIdentifier(schema *store.Schema, i int) (*store.Selector, error) {
	sel := store.NewSelector(schema, store.ModeAnd)
	if err := sel.Add("string", store.EQ, s.gen.Identifier(i)); err != nil {
		return nil, err
	}
	return sel, nil
}

func (s *Suite) entryInsert(ns string, ix indexing, useBatch bool) bench.Func {
	var schema *store.Schema
	return bench.Batched(bench.Spec[*store.Batch]{
		Iterations: s.gen.N,
		UseBatch:   useBatch,
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			schema, err = s.withTable(ctx, sc, ns, ix)
			return err
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			return s.insertRecord(schema, i, b)
		},
		// Every pass starts from an empty table.
		Cleanup: func(ctx context.Context) error {
			return s.exec(ctx, func(b *store.Batch) error {
				return store.NewEntry(schema).Delete(nil, b)
			})
		},
	})
}

// entryDelete deletes single records by identifier. Unindexed tables are
// scanned per lookup, so fewer records are deleted there.
func (s *Suite) entryDelete(ns string, ix indexing, useBatch bool) bench.Func {
	var (
		schema *store.Schema
		n      int
	)
	return bench.Batched(bench.Spec[*store.Batch]{
		Iterations: s.gen.Lookups(ix.indexed()),
		UseBatch:   useBatch,
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, iterations int) (err error) {
			n = iterations
			if schema, err = s.withTable(ctx, sc, ns, ix); err != nil {
				return err
			}
			return s.insertRecords(ctx, schema, s.gen.N)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			sel, err := s.byIdentifier(schema, i)
			if err != nil {
				return err
			}
			return store.NewEntry(schema).Delete(sel, b)
		},
		Cleanup: func(ctx context.Context) error { return s.insertRecords(ctx, schema, n) },
	})
}

func (s *Suite) entryUpdate(ns string, ix indexing, useBatch bool) bench.Func {
	var schema *store.Schema
	return bench.Batched(bench.Spec[*store.Batch]{
		Iterations: s.gen.Lookups(ix.indexed()),
		UseBatch:   useBatch,
		NewBatch:   s.client.NewBatch,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			if schema, err = s.withTable(ctx, sc, ns, ix); err != nil {
				return err
			}
			return s.insertRecords(ctx, schema, s.gen.N)
		},
		Op: func(_ context.Context, i int, b *store.Batch) error {
			sel, err := s.byIdentifier(schema, i)
			if err != nil {
				return err
			}
			e := store.NewEntry(schema)
			if err := e.Set("sint", s.gen.UpdatedSigned(i)); err != nil {
				return err
			}
			return e.Update(sel, b)
		},
	})
}

// firstString runs the query of sel and reads the string field of the
// first match.
func (s *Suite) firstString(ctx context.Context, schema *store.Schema, sel *store.Selector) error {
	it, err := s.client.NewIterator(ctx, schema, sel)
	if err != nil {
		return err
	}
	if !it.Next() {
		return fmt.Errorf("query on %s matched nothing", schema.Name())
	}
	_, err = it.Get("string")
	return err
}

func (s *Suite) iteratorGetSimple(ns string, ix indexing) bench.Func {
	var schema *store.Schema
	return bench.Batched(bench.Spec[*store.Batch]{
		Iterations: s.gen.Lookups(ix.indexed()),
		Direct:     true,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			if schema, err = s.withTable(ctx, sc, ns, ix); err != nil {
				return err
			}
			return s.insertRecords(ctx, schema, s.gen.N)
		},
		Op: func(ctx context.Context, i int, _ *store.Batch) error {
			sel, err := s.byIdentifier(schema, i)
			if err != nil {
				return err
			}
			return s.firstString(ctx, schema, sel)
		},
	})
}

// iteratorGetRange walks the signed value space in GetDivider slices.
func (s *Suite) iteratorGetRange(ns string, ix indexing) bench.Func {
	var schema *store.Schema
	return bench.Batched(bench.Spec[*store.Batch]{
		Iterations: s.gen.GetDivider,
		Direct:     true,
		Setup: func(ctx context.Context, sc *bench.Scope, _ int) (err error) {
			if schema, err = s.withTable(ctx, sc, ns, ix); err != nil {
				return err
			}
			return s.insertRecords(ctx, schema, s.gen.N)
		},
		Op: func(ctx context.Context, i int, _ *store.Batch) error {
			lo, hi := s.gen.RangeBounds(i)
			sel := store.NewSelector(schema, store.ModeAnd)
			if err := sel.Add("sint", store.GE, lo); err != nil {
				return err
			}
			if err := sel.Add("sint", store.LE, hi); err != nil {
				return err
			}
			return s.firstString(ctx, schema, sel)
		},
	})
}

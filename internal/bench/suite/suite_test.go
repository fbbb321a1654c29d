package suite

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/pkg/store"
)

// stepClock advances by a millisecond on every reading so even the
// fastest run has a positive elapsed time.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func smallGen() bench.GenConfig {
	return bench.GenConfig{
		N:            64,
		Prime:        11971,
		Modulus:      256,
		ClassModulus: 8,
		FloatFactor:  3.1415926,
		GetDivider:   4,
	}
}

func newTestSuite(t *testing.T, servers int) *Suite {
	t.Helper()
	cfg := store.DefaultConfig()
	cfg.ObjectServers = servers
	client, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	s, err := New(client, WithGenConfig(smallGen()))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func runAll(t *testing.T, s *Suite, iterations int) ([]bench.Result, string) {
	t.Helper()
	var out bytes.Buffer
	rn := &bench.Runner{
		Reporter:        bench.NewReporter(&out, true),
		Iterations:      iterations,
		MachineReadable: true,
		Clock:           &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	results, err := rn.Run(context.Background(), s.Catalog().Entries())
	if err != nil {
		t.Fatal(err)
	}
	return results, out.String()
}

func TestCatalogOrder(t *testing.T) {
	s := newTestSuite(t, 1)
	entries := s.Catalog().Entries()
	if len(entries) != 88 {
		t.Fatalf("catalog has %d entries, want 88", len(entries))
	}

	want := []struct {
		at   int
		name string
	}{
		{0, "/kv/put"},
		{1, "/kv/put_batch"},
		{3, "/kv/get-batch"},
		{7, "/kv/unordered_put_delete_batch"},
		{8, "/object/object/create"},
		{19, "/object/object/unordered-create-delete-batch"},
		{20, "/object/distributed_object/create"},
		{32, "/item/collection/create"},
		{36, "/item/collection/delete-batch-without-get"},
		{39, "/item/item/create"},
		{43, "/item/item/delete-batch-without-get"},
		{51, "/item/item/unordered-create-delete-batch"},
		{52, "/db/schema/create"},
		{55, "/db/schema/delete-batch"},
		{56, "/db/entry/insert"},
		{57, "/db/entry/insert-batch"},
		{58, "/db/entry/insert-index-single"},
		{59, "/db/entry/insert-batch-index-single"},
		{63, "/db/entry/insert-batch-index-mixed"},
		{64, "/db/entry/delete"},
		{72, "/db/entry/update"},
		{79, "/db/entry/update-batch-index-mixed"},
		{80, "/db/iterator/get-simple"},
		{84, "/db/iterator/get-range"},
		{87, "/db/iterator/get-range-index-mixed"},
	}
	for _, w := range want {
		if got := entries[w.at].Name; got != w.name {
			t.Errorf("entry %d = %s, want %s", w.at, got, w.name)
		}
	}
}

func TestCatalogBatchFlag(t *testing.T) {
	s := newTestSuite(t, 1)
	for _, e := range s.Catalog().Entries() {
		batched := strings.Contains(e.Name, "batch")
		if e.Batch != batched {
			t.Errorf("%s: Batch = %v", e.Name, e.Batch)
		}
	}
}

func TestCatalogRunsOnMemoryBackends(t *testing.T) {
	for _, servers := range []int{1, 3} {
		s := newTestSuite(t, servers)
		results, out := runAll(t, s, 3)
		if len(results) != 88 {
			t.Fatalf("servers=%d: %d results, want 88", servers, len(results))
		}
		for _, r := range results {
			if !r.OK() {
				t.Errorf("servers=%d: %s failed in %s: %v", servers, r.Name, r.Phase, r.Err)
			}
		}
		if strings.Contains(out, ",-,-") {
			t.Errorf("servers=%d: placeholder rows in output:\n%s", servers, out)
		}
	}
}

// A second run on the same client fails if any benchmark leaves records
// behind, schemas in particular.
func TestCatalogLeavesStoreClean(t *testing.T) {
	s := newTestSuite(t, 2)
	for round := 0; round < 2; round++ {
		results, _ := runAll(t, s, 2)
		for _, r := range results {
			if !r.OK() {
				t.Fatalf("round %d: %s failed in %s: %v", round, r.Name, r.Phase, r.Err)
			}
		}
	}
}

func TestOperationCounts(t *testing.T) {
	s := newTestSuite(t, 1)
	gen := smallGen()
	results, _ := runAll(t, s, 20)

	want := map[string]int64{
		"/kv/put":                          20,
		"/kv/unordered_put_delete":         40,
		"/object/object/read-batch":        200,
		"/item/item/get-status-batch":      200,
		"/db/schema/create":                2,
		"/db/entry/insert":                 int64(gen.N),
		"/db/entry/delete":                 int64(gen.N / gen.GetDivider),
		"/db/entry/delete-index-single":    int64(gen.N),
		"/db/iterator/get-range-index-all": int64(gen.GetDivider),
	}
	for _, r := range results {
		n, ok := want[r.Name]
		if !ok {
			continue
		}
		if r.Operations != n {
			t.Errorf("%s: %d operations, want %d", r.Name, r.Operations, n)
		}
		delete(want, r.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing results: %v", want)
	}
}

func TestTableNamespace(t *testing.T) {
	if got := tableNamespace("insert-batch-index-single"); got != "benchmark_insert_batch_index_single" {
		t.Fatalf("got %q", got)
	}
}

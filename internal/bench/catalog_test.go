package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gezibash/arc-bench/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// loopFunc is a benchmark that stages nothing and advances the clock by
// perIndex for every index.
func loopFunc(clock *fakeClock, perIndex time.Duration) Func {
	return func(ctx context.Context, run *Run) error {
		for run.Next(ctx) {
			clock.Advance(perIndex)
		}
		return run.Err()
	}
}

func failingFlushFunc(clock *fakeClock) Func {
	return Batched(Spec[*fakeBatch]{
		UseBatch: true,
		NewBatch: func() *fakeBatch { return &fakeBatch{clock: clock, cost: time.Millisecond, failAt: 1} },
		Op: func(_ context.Context, _ int, b *fakeBatch) error {
			b.Add()
			return nil
		},
	})
}

func TestCatalogRegister(t *testing.T) {
	c := NewCatalog()
	noop := func(context.Context, *Run) error { return nil }
	c.Register(Entry{Name: "/kv/put", Surface: "kv", Func: noop})
	c.Register(Entry{Name: "/kv/get", Surface: "kv", Func: noop})

	if c.Len() != 2 || c.Entries()[1].Name != "/kv/get" {
		t.Fatalf("entries = %+v", c.Entries())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration did not panic")
		}
	}()
	c.Register(Entry{Name: "/kv/put", Func: noop})
}

func TestCatalogSelect(t *testing.T) {
	c := NewCatalog()
	noop := func(context.Context, *Run) error { return nil }
	for _, n := range []string{"/kv/put", "/kv/get", "/object/object/create", "/kv/put_batch"} {
		c.Register(Entry{Name: n, Func: noop})
	}

	got, err := c.Select(HasPrefix("/kv/put"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "/kv/put" || got[1].Name != "/kv/put_batch" {
		t.Fatalf("selected %+v", got)
	}

	all, _ := c.Select(nil)
	if len(all) != 4 {
		t.Fatalf("nil predicate selected %d entries", len(all))
	}

	boom := errors.New("bad filter")
	_, err = c.Select(func(Entry) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want bad filter", err)
	}
}

func TestRunnerFailureBecomesPlaceholder(t *testing.T) {
	clock := newFakeClock()
	var out bytes.Buffer
	m := observability.NewMetrics()
	rn := &Runner{
		Reporter:    NewReporter(&out, false),
		Metrics:     m,
		Iterations:  10,
		MaxDuration: 50 * time.Millisecond,
		Clock:       clock,
	}

	entries := []Entry{
		{Name: "/kv/put", Surface: "kv", Func: loopFunc(clock, 2*time.Millisecond)},
		{Name: "/kv/put_batch", Surface: "kv", Batch: true, Func: failingFlushFunc(clock)},
		{Name: "/kv/get", Surface: "kv", Func: loopFunc(clock, time.Millisecond)},
	}
	results, err := rn.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].OK() || !results[2].OK() {
		t.Fatalf("healthy benchmarks failed: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].OK() || !errors.Is(results[1].Err, ErrBatchExecutionFailed) {
		t.Fatalf("batch result err = %v", results[1].Err)
	}
	if results[1].Phase != PhaseMeasure {
		t.Fatalf("phase = %s", results[1].Phase)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("output has %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[3], "|        - seconds |          -/s") {
		t.Fatalf("placeholder row = %q", lines[3])
	}
	if strings.Contains(lines[2], " - seconds") || strings.Contains(lines[4], " - seconds") {
		t.Fatalf("healthy rows became placeholders:\n%s", out.String())
	}

	if got := testutil.ToFloat64(m.FailuresTotal.WithLabelValues("/kv/put_batch", "measure")); got != 1 {
		t.Fatalf("failures = %f", got)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("/kv/put", "ok")); got != 1 {
		t.Fatalf("ok count = %f", got)
	}
	if got := testutil.ToFloat64(m.Passes.WithLabelValues("/kv/put")); got != 3 {
		t.Fatalf("passes = %f", got)
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	clock := newFakeClock()
	var out bytes.Buffer
	rn := &Runner{
		Reporter:        NewReporter(&out, true),
		Iterations:      4,
		MachineReadable: true,
		Clock:           clock,
	}

	entries := []Entry{
		{Name: "/broken", Func: func(context.Context, *Run) error { panic("nil handle") }},
		{Name: "/kv/get", Func: loopFunc(clock, time.Millisecond)},
	}
	results, err := rn.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].OK() || !strings.Contains(results[0].Err.Error(), "nil handle") {
		t.Fatalf("panic result = %v", results[0].Err)
	}
	if !results[1].OK() {
		t.Fatalf("second benchmark failed: %v", results[1].Err)
	}
	if !strings.Contains(out.String(), "/broken,-,-\n") {
		t.Fatalf("missing placeholder:\n%s", out.String())
	}
}

func TestRunnerIncompleteRunIsUnavailable(t *testing.T) {
	var out bytes.Buffer
	rn := &Runner{Reporter: NewReporter(&out, true), Iterations: 4, Clock: newFakeClock()}

	// Returns nil without draining the run.
	entries := []Entry{{Name: "/lazy", Func: func(context.Context, *Run) error { return nil }}}
	results, _ := rn.Run(context.Background(), entries)
	if !errors.Is(results[0].Err, ErrUnavailable) {
		t.Fatalf("err = %v, want unavailable", results[0].Err)
	}
}

func TestRunnerStrictPanicsOnTimerMisuse(t *testing.T) {
	rn := &Runner{Reporter: NewReporter(&bytes.Buffer{}, false), Iterations: 2, Clock: newFakeClock(), Strict: true}
	entries := []Entry{{Name: "/misuse", Func: func(ctx context.Context, run *Run) error {
		for run.Next(ctx) {
			if err := run.Timer().Resume(); err != nil {
				run.Fail(err)
			}
		}
		return run.Err()
	}}}

	defer func() {
		p := recover()
		perr, ok := p.(error)
		if !ok || !errors.Is(perr, ErrTimerMisuse) {
			t.Fatalf("recovered %v, want timer misuse", p)
		}
	}()
	_, _ = rn.Run(context.Background(), entries)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	var out bytes.Buffer
	rn := &Runner{Reporter: NewReporter(&out, true), Iterations: 2, Clock: clock}

	entries := []Entry{
		{Name: "/first", Func: func(ctx context.Context, run *Run) error {
			for run.Next(ctx) {
				clock.Advance(time.Millisecond)
			}
			cancel()
			return run.Err()
		}},
		{Name: "/second", Func: func(context.Context, *Run) error {
			ran = true
			return nil
		}},
		{Name: "/third", Func: loopFunc(clock, time.Millisecond)},
	}
	results, err := rn.Run(ctx, entries)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want one per entry", len(results))
	}
	if !results[0].OK() {
		t.Fatalf("first benchmark failed: %v", results[0].Err)
	}
	for _, r := range results[1:] {
		if r.OK() || !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: err = %v, want context.Canceled", r.Name, r.Err)
		}
	}
	if ran {
		t.Error("benchmark ran after cancel")
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header and 3 rows:\n%s", len(lines), out.String())
	}
	if lines[2] != "/second,-,-" || lines[3] != "/third,-,-" {
		t.Errorf("skipped rows = %q, %q", lines[2], lines[3])
	}
}

func TestEntryAttributes(t *testing.T) {
	e := Entry{Name: "/object/distributed_object/read-batch", Surface: "distributed_object", Batch: true}
	a := e.Attributes()
	if a["group"] != "object" || a["variant"] != "read-batch" || a["surface"] != "distributed_object" || a["batch"] != true {
		t.Fatalf("attributes = %v", a)
	}
}

func TestMatching(t *testing.T) {
	c := NewCatalog()
	noop := func(context.Context, *Run) error { return nil }
	c.Register(Entry{Name: "/kv/put", Surface: "kv", Func: noop})
	c.Register(Entry{Name: "/kv/put_batch", Surface: "kv", Batch: true, Func: noop})

	batchOnly := Matching(func(a map[string]any) (bool, error) { return a["batch"] == true, nil })
	got, err := c.Select(HasPrefix("/kv/"), batchOnly)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "/kv/put_batch" {
		t.Fatalf("selected %+v", got)
	}
}

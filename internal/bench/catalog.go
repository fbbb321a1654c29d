package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gezibash/arc-bench/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Entry is one named benchmark.
type Entry struct {
	Name string
	// Surface is the storage surface exercised: kv, object,
	// distributed_object, collection, item, schema, entry or iterator.
	Surface string
	// Batch is set for variants that flush once per pass.
	Batch bool
	Func  Func
}

// Catalog is the ordered set of registered benchmarks.
type Catalog struct {
	entries []Entry
	names   map[string]struct{}
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{names: make(map[string]struct{})}
}

// Register appends e. Panics on an empty or duplicate name.
func (c *Catalog) Register(e Entry) {
	if e.Name == "" || e.Func == nil {
		panic("bench: entry needs a name and a func")
	}
	if _, exists := c.names[e.Name]; exists {
		panic(fmt.Sprintf("bench: benchmark %q already registered", e.Name))
	}
	c.names[e.Name] = struct{}{}
	c.entries = append(c.entries, e)
}

// Len returns the number of registered benchmarks.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns the benchmarks in registration order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Predicate selects entries.
type Predicate func(Entry) (bool, error)

// HasPrefix selects entries whose name starts with prefix.
func HasPrefix(prefix string) Predicate {
	return func(e Entry) (bool, error) {
		return strings.HasPrefix(e.Name, prefix), nil
	}
}

// Select returns the entries matching every predicate, in order. Nil
// predicates are skipped.
func (c *Catalog) Select(preds ...Predicate) ([]Entry, error) {
	var out []Entry
outer:
	for _, e := range c.entries {
		for _, p := range preds {
			if p == nil {
				continue
			}
			ok, err := p(e)
			if err != nil {
				return nil, fmt.Errorf("select %s: %w", e.Name, err)
			}
			if !ok {
				continue outer
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Result is the outcome of one benchmark.
type Result struct {
	Name       string
	Surface    string
	Batch      bool
	Elapsed    time.Duration
	Operations int64
	Passes     int
	Throughput float64
	Phase      Phase
	Err        error
}

// OK reports whether the benchmark produced a measurement.
func (r Result) OK() bool { return r.Err == nil }

// Runner executes catalog entries one after another and reports each.
type Runner struct {
	Reporter *Reporter
	Metrics  *observability.Metrics

	// Iterations is the planned iterations per pass before multipliers.
	Iterations      int
	MaxDuration     time.Duration
	MachineReadable bool
	Clock           Clock
	// Strict lets timer misuse panic out of the runner.
	Strict bool
}

// Run writes the header and then one row per entry. A failing benchmark
// gets a placeholder row and the suite continues. The returned error is
// reserved for failures to write output. Once ctx is cancelled the
// remaining entries are not run but still get a placeholder row.
func (rn *Runner) Run(ctx context.Context, entries []Entry) ([]Result, error) {
	if err := rn.Reporter.Header(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	results := make([]Result, 0, len(entries))
	interrupted := false
	for _, e := range entries {
		var (
			run *Run
			res Result
		)
		if cerr := ctx.Err(); cerr != nil {
			if !interrupted {
				slog.WarnContext(ctx, "suite interrupted", "remaining", len(entries)-len(results))
				interrupted = true
			}
			run, res = rn.skip(e, cerr)
		} else {
			run, res = rn.runOne(ctx, e)
		}
		var werr error
		if res.OK() {
			werr = rn.Reporter.Result(run)
		} else {
			werr = rn.Reporter.Unavailable(run)
		}
		if werr != nil {
			return results, fmt.Errorf("write result %s: %w", e.Name, werr)
		}
		results = append(results, res)
	}
	return results, nil
}

func (rn *Runner) newRun(name string) *Run {
	opts := []RunOption{
		WithMaxDuration(rn.MaxDuration),
		WithMachineReadable(rn.MachineReadable),
	}
	if rn.Clock != nil {
		opts = append(opts, WithClock(rn.Clock))
	}
	if rn.Strict {
		opts = append(opts, WithStrict())
	}
	if rn.Metrics != nil {
		hist := rn.Metrics.FlushDuration
		opts = append(opts, WithFlushObserver(func(batched bool, d time.Duration) {
			mode := "immediate"
			if batched {
				mode = "batched"
			}
			hist.WithLabelValues(mode).Observe(d.Seconds())
		}))
	}
	return NewRun(name, rn.Iterations, opts...)
}

// skip records e as not run because of cause.
func (rn *Runner) skip(e Entry, cause error) (*Run, Result) {
	err := &PhaseError{Benchmark: e.Name, Phase: PhaseSetup, Err: cause}
	return rn.newRun(e.Name), Result{
		Name:    e.Name,
		Surface: e.Surface,
		Batch:   e.Batch,
		Phase:   PhaseSetup,
		Err:     err,
	}
}

func (rn *Runner) runOne(ctx context.Context, e Entry) (*Run, Result) {
	op, ctx := observability.StartOperation(ctx, rn.Metrics, e.Name,
		attribute.String("bench.surface", e.Surface),
		attribute.Bool("bench.batch", e.Batch),
	)

	run := rn.newRun(e.Name)
	err := rn.invoke(ctx, e, run)
	if err == nil && !run.Done() {
		err = &PhaseError{Benchmark: e.Name, Phase: PhaseMeasure, Err: ErrUnavailable}
	}

	res := Result{
		Name:       e.Name,
		Surface:    e.Surface,
		Batch:      e.Batch,
		Operations: run.TotalOperations(),
		Passes:     run.Passes,
		Err:        err,
	}
	if err == nil {
		res.Elapsed, err = run.Elapsed()
		if err == nil {
			res.Throughput, err = run.Throughput()
		}
		if err != nil {
			res.Err = &PhaseError{Benchmark: e.Name, Phase: PhaseMeasure, Err: err}
		}
	}

	if res.Err != nil {
		res.Phase = PhaseOf(res.Err)
		op.Failed(string(res.Phase))
	} else {
		op.Measured(res.Elapsed, res.Throughput, res.Passes)
	}
	op.End(res.Err)
	return run, res
}

// invoke calls the benchmark body, turning a panic into an error so one
// broken benchmark cannot take the suite down.
func (rn *Runner) invoke(ctx context.Context, e Entry, run *Run) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok && rn.Strict && errors.Is(perr, ErrTimerMisuse) {
				panic(p)
			}
			err = &PhaseError{Benchmark: e.Name, Phase: PhaseMeasure, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return e.Func(ctx, run)
}

// Attributes returns the values a filter expression can reference: name,
// group (first path segment), surface, variant (last path segment) and
// batch.
func (e Entry) Attributes() map[string]any {
	parts := strings.Split(strings.Trim(e.Name, "/"), "/")
	return map[string]any{
		"name":    e.Name,
		"group":   parts[0],
		"surface": e.Surface,
		"variant": parts[len(parts)-1],
		"batch":   e.Batch,
	}
}

// Matching adapts an attribute matcher, such as a compiled filter
// expression, into a Predicate.
func Matching(match func(map[string]any) (bool, error)) Predicate {
	return func(e Entry) (bool, error) {
		return match(e.Attributes())
	}
}

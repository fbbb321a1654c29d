package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus registry and the benchmark meters.
type Metrics struct {
	Registry          *prometheus.Registry
	OperationDuration *prometheus.HistogramVec
	OperationTotal    *prometheus.CounterVec
	Throughput        *prometheus.GaugeVec
	Elapsed           *prometheus.GaugeVec
	Passes            *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
	FlushDuration     *prometheus.HistogramVec
}

// NewMetrics creates a custom Prometheus registry with the arc-bench meters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arc_bench_operation_duration_seconds",
		Help:    "Wall time of a benchmark including untimed setup and teardown.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	opTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_bench_operation_total",
		Help: "Total number of benchmarks run.",
	}, []string{"operation", "status"})

	throughput := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arc_bench_throughput_ops",
		Help: "Measured operations per second of the last run.",
	}, []string{"benchmark"})

	elapsed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arc_bench_elapsed_seconds",
		Help: "Measured time of the last run, pauses excluded.",
	}, []string{"benchmark"})

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_bench_passes_total",
		Help: "Completed passes over the planned iterations.",
	}, []string{"benchmark"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arc_bench_failures_total",
		Help: "Benchmarks that produced a placeholder row.",
	}, []string{"benchmark", "phase"})

	flush := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arc_bench_flush_duration_seconds",
		Help:    "Duration of a single batch flush.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"mode"})

	reg.MustRegister(opDuration, opTotal, throughput, elapsed, passes, failures, flush)

	return &Metrics{
		Registry:          reg,
		OperationDuration: opDuration,
		OperationTotal:    opTotal,
		Throughput:        throughput,
		Elapsed:           elapsed,
		Passes:            passes,
		FailuresTotal:     failures,
		FlushDuration:     flush,
	}
}

// WriteTextfile writes a snapshot of the registry in the Prometheus text
// format, suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

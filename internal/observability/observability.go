package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Observability holds all observability components.
type Observability struct {
	Logger         *slog.Logger
	Metrics        *Metrics
	TracerProvider trace.TracerProvider
	Shutdown       *Closers
	ServiceName    string
	ServiceVersion string
	// RunID identifies one invocation of the suite across logs, spans and
	// the summary table.
	RunID string
}

// New initializes logging, tracing, and metrics.
func New(ctx context.Context, cfg ObsConfig, w io.Writer) (*Observability, error) {
	shutdown := &Closers{}
	runID := uuid.NewString()

	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat, w).With("run_id", runID)
	slog.SetDefault(logger)
	metrics := NewMetrics()

	var tp trace.TracerProvider
	if cfg.OTLPEndpoint != "" {
		sdkTP, err := InitTracer(ctx, TracerConfig{
			Endpoint:       cfg.OTLPEndpoint,
			Protocol:       cfg.OTLPProtocol,
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			RunID:          runID,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		shutdown.Register("tracer", sdkTP.Shutdown)
		tp = sdkTP
	} else {
		tp = tracenoop.NewTracerProvider()
		slog.Debug("tracing disabled (no otlp_endpoint configured)")
	}

	if cfg.MetricsFile != "" {
		path := cfg.MetricsFile
		shutdown.Register("metrics-file", func(context.Context) error {
			return metrics.WriteTextfile(path)
		})
	}

	return &Observability{
		Logger:         logger,
		Metrics:        metrics,
		TracerProvider: tp,
		Shutdown:       shutdown,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		RunID:          runID,
	}, nil
}

// Close flushes traces, writes the metrics snapshot and runs the remaining
// shutdown handlers.
func (o *Observability) Close(ctx context.Context) error {
	return o.Shutdown.Close(ctx)
}

// ObsConfig is the config subset needed by the observability package.
type ObsConfig struct {
	LogLevel       string
	LogFormat      string
	OTLPEndpoint   string
	OTLPProtocol   string
	ServiceName    string
	ServiceVersion string
	// MetricsFile, when set, receives a Prometheus text snapshot on Close.
	MetricsFile string
}

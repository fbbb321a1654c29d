package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gezibash/arc-bench/internal/bench"
	"github.com/gezibash/arc-bench/internal/bench/suite"
	"github.com/gezibash/arc-bench/internal/cel"
	"github.com/gezibash/arc-bench/internal/cli"
	"github.com/gezibash/arc-bench/internal/config"
	"github.com/gezibash/arc-bench/internal/observability"
	"github.com/gezibash/arc-bench/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arc-bench [prefix]",
		Short: "Storage client micro-benchmarks",
		Long: `Run the storage client benchmark suite.

Every benchmark prints one row: name, elapsed seconds and operations per
second. A benchmark that fails prints a row with "-" in place of numbers
and the suite continues.

Examples:
  arc-bench                              # whole suite on memory backends
  arc-bench /kv/                         # benchmarks whose name starts with /kv/
  arc-bench -m --duration 5s             # CSV rows, 5s per benchmark
  arc-bench --where 'surface == "item" && batch'
  arc-bench --kv-backend redis --object-backend s3 --config bench.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, v)
			if err != nil {
				return err
			}
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			return runSuite(cmd.Context(), cfg, prefix)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default searches ./config.{yaml,toml,json}, ~/.arc/bench, /etc/arc/bench)")
	config.BindCommonFlags(cmd, v)
	config.BindBenchFlags(cmd, v)
	return cmd
}

func runSuite(ctx context.Context, cfg Config, prefix string) (err error) {
	obs, err := observability.New(ctx, observability.ObsConfig{
		LogLevel:       cfg.Observability.LogLevel,
		LogFormat:      cfg.Observability.LogFormat,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		OTLPProtocol:   cfg.Observability.OTLPProtocol,
		ServiceName:    "arc-bench",
		ServiceVersion: version,
		MetricsFile:    cfg.Observability.MetricsFile,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := obs.Close(shutdownCtx); cerr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", cerr)
		}
	}()

	client, err := store.Open(ctx, cfg.storeConfig())
	if err != nil {
		return err
	}
	obs.Shutdown.Register("store", func(context.Context) error { return client.Close() })

	s, err := suite.New(client)
	if err != nil {
		return err
	}
	entries, err := selectEntries(s.Catalog(), prefix, cfg.Where)
	if err != nil {
		return err
	}
	obs.Logger.Info("suite starting",
		"benchmarks", len(entries),
		"kv", cfg.Store.KV.Backend,
		"object", cfg.Store.Object.Backend,
		"servers", client.ObjectServers(),
	)

	runner := &bench.Runner{
		Reporter:        bench.NewReporter(os.Stdout, cfg.MachineReadable),
		Metrics:         obs.Metrics,
		Iterations:      cfg.Iterations,
		MaxDuration:     cfg.Duration,
		MachineReadable: cfg.MachineReadable,
	}
	results, err := runner.Run(ctx, entries)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			slog.Warn("benchmark failed", "benchmark", r.Name, "phase", r.Phase, "error", r.Err)
		}
	}
	obs.Logger.Info("suite finished", "ran", len(results), "failed", failed)

	out := cli.NewOutput(cli.ParseFormat(cfg.Summary), os.Stderr).WithRunID(obs.RunID)
	return bench.WriteSummary(out, results)
}

// selectEntries applies the name prefix and the filter expression.
func selectEntries(c *bench.Catalog, prefix, where string) ([]bench.Entry, error) {
	var preds []bench.Predicate
	if prefix != "" {
		preds = append(preds, bench.HasPrefix(prefix))
	}
	if where != "" {
		f, err := cel.Compile(where)
		if err != nil {
			return nil, err
		}
		preds = append(preds, bench.Matching(f.Match))
	}
	return c.Select(preds...)
}

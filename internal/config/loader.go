package config

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SetCommonDefaults configures standard defaults on a Viper instance.
func SetCommonDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", Common.DataDir)
	v.SetDefault("observability.log_level", Common.LogLevel)
	v.SetDefault("observability.log_format", Common.LogFormat)
	v.SetDefault("observability.otlp_protocol", Common.OTLPProtocol)
}

// SetBenchDefaults configures suite defaults on a Viper instance.
func SetBenchDefaults(v *viper.Viper) {
	v.SetDefault("duration", BenchDefaults.Duration)
	v.SetDefault("iterations", BenchDefaults.Iterations)
	v.SetDefault("summary", BenchDefaults.Summary)
	v.SetDefault("store.kv.backend", BenchDefaults.KVBackend)
	v.SetDefault("store.object.backend", BenchDefaults.ObjectBackend)
	v.SetDefault("store.object.servers", BenchDefaults.ObjectServers)
	v.SetDefault("store.db.path", BenchDefaults.DBPath)
}

// BindCommonFlags binds standard CLI flags to Viper.
func BindCommonFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()

	f.String("data-dir", "", "data directory (default ~/.arc)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, text)")
	f.String("otlp-endpoint", "", "OTLP collector endpoint; tracing is off when empty")

	_ = v.BindPFlag("data_dir", f.Lookup("data-dir"))
	_ = v.BindPFlag("observability.log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("observability.log_format", f.Lookup("log-format"))
	_ = v.BindPFlag("observability.otlp_endpoint", f.Lookup("otlp-endpoint"))
}

// BindBenchFlags binds the flags that shape a suite run.
func BindBenchFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	f.BoolP("machine-readable", "m", false, "print CSV rows instead of a table")
	f.Duration("duration", 0, "wall-clock budget per benchmark (default 1s)")
	f.Int("iterations", 0, "planned iterations per pass (default 1000)")
	f.String("where", "", "CEL expression selecting benchmarks, e.g. surface == \"kv\" && !batch")
	f.String("summary", "", "summary table after the run (none, text, markdown)")
	f.String("metrics-file", "", "write a Prometheus text snapshot here on exit")
	f.String("kv-backend", "", "kv backend (memory, badger, redis)")
	f.String("object-backend", "", "object backend (memory, badger, fs, s3, seaweedfs)")
	f.Int("object-servers", 0, "number of object servers to stripe over")
	f.String("db-path", "", "sqlite database path (default in memory)")

	_ = v.BindPFlag("machine_readable", f.Lookup("machine-readable"))
	_ = v.BindPFlag("duration", f.Lookup("duration"))
	_ = v.BindPFlag("iterations", f.Lookup("iterations"))
	_ = v.BindPFlag("where", f.Lookup("where"))
	_ = v.BindPFlag("summary", f.Lookup("summary"))
	_ = v.BindPFlag("observability.metrics_file", f.Lookup("metrics-file"))
	_ = v.BindPFlag("store.kv.backend", f.Lookup("kv-backend"))
	_ = v.BindPFlag("store.object.backend", f.Lookup("object-backend"))
	_ = v.BindPFlag("store.object.servers", f.Lookup("object-servers"))
	_ = v.BindPFlag("store.db.path", f.Lookup("db-path"))
}

// Load reads config from flags, env, and file.
// The envPrefix is used for environment variable lookups (e.g., "ARC_BENCH").
// The configPaths are directories to search for config files.
func Load(v *viper.Viper, envPrefix string, configFile string, configPaths ...string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) && configFile != "" {
			return err
		}
		// Config file not found is OK if not explicitly specified
	}

	return nil
}

// LoadInto applies common defaults, loads config from flags/env/file, and
// unmarshals into the provided struct. Use with configs that embed BaseConfig.
func LoadInto(v *viper.Viper, envPrefix, configFile string, cfg any, paths ...string) error {
	SetCommonDefaults(v)
	if err := Load(v, envPrefix, configFile, paths...); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

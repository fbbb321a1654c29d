package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type benchConfig struct {
	BaseConfig      `mapstructure:",squash"`
	MachineReadable bool          `mapstructure:"machine_readable"`
	Duration        time.Duration `mapstructure:"duration"`
	Iterations      int           `mapstructure:"iterations"`
	Where           string        `mapstructure:"where"`
	Store           struct {
		KV struct {
			Backend string `mapstructure:"backend"`
		} `mapstructure:"kv"`
		Object struct {
			Backend string `mapstructure:"backend"`
			Servers int    `mapstructure:"servers"`
		} `mapstructure:"object"`
	} `mapstructure:"store"`
}

func TestBindCommonFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()

	BindCommonFlags(cmd, v)

	err := cmd.PersistentFlags().Parse([]string{
		"--data-dir", "/custom/dir",
		"--log-level", "debug",
		"--log-format", "json",
		"--otlp-endpoint", "localhost:4318",
	})
	if err != nil {
		t.Fatalf("Parse flags: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"data_dir", "/custom/dir"},
		{"observability.log_level", "debug"},
		{"observability.log_format", "json"},
		{"observability.otlp_endpoint", "localhost:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := v.GetString(tt.key); got != tt.want {
				t.Errorf("v.GetString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestBindCommonFlags_defaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()

	BindCommonFlags(cmd, v)
	SetCommonDefaults(v)

	if err := cmd.PersistentFlags().Parse([]string{}); err != nil {
		t.Fatalf("Parse flags: %v", err)
	}

	if got := v.GetString("data_dir"); got != Common.DataDir {
		t.Errorf("data_dir = %q, want %q", got, Common.DataDir)
	}
	if got := v.GetString("observability.log_level"); got != Common.LogLevel {
		t.Errorf("observability.log_level = %q, want %q", got, Common.LogLevel)
	}
	if got := v.GetString("observability.otlp_protocol"); got != "http" {
		t.Errorf("observability.otlp_protocol = %q, want http", got)
	}
}

func TestBindBenchFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()

	BindBenchFlags(cmd, v)
	SetBenchDefaults(v)

	err := cmd.Flags().Parse([]string{
		"-m",
		"--duration", "250ms",
		"--iterations", "64",
		"--kv-backend", "badger",
		"--object-servers", "4",
	})
	if err != nil {
		t.Fatalf("Parse flags: %v", err)
	}

	if !v.GetBool("machine_readable") {
		t.Error("machine_readable = false, want true")
	}
	if got := v.GetDuration("duration"); got != 250*time.Millisecond {
		t.Errorf("duration = %v, want 250ms", got)
	}
	if got := v.GetInt("iterations"); got != 64 {
		t.Errorf("iterations = %d, want 64", got)
	}
	if got := v.GetString("store.kv.backend"); got != "badger" {
		t.Errorf("store.kv.backend = %q, want badger", got)
	}
	if got := v.GetInt("store.object.servers"); got != 4 {
		t.Errorf("store.object.servers = %d, want 4", got)
	}
	// Unset flags fall through to the defaults.
	if got := v.GetString("store.object.backend"); got != BenchDefaults.ObjectBackend {
		t.Errorf("store.object.backend = %q, want %q", got, BenchDefaults.ObjectBackend)
	}
}

func TestLoadInto(t *testing.T) {
	t.Run("sets defaults and unmarshals", func(t *testing.T) {
		v := viper.New()
		SetBenchDefaults(v)
		v.Set("where", `surface == "kv"`)

		var cfg benchConfig
		if err := LoadInto(v, "TEST", "", &cfg); err != nil {
			t.Fatalf("LoadInto() error = %v", err)
		}

		if cfg.DataDir != Common.DataDir {
			t.Errorf("DataDir = %q, want %q", cfg.DataDir, Common.DataDir)
		}
		if cfg.Observability.LogLevel != Common.LogLevel {
			t.Errorf("LogLevel = %q, want %q", cfg.Observability.LogLevel, Common.LogLevel)
		}
		if cfg.Duration != time.Second {
			t.Errorf("Duration = %v, want 1s", cfg.Duration)
		}
		if cfg.Iterations != BenchDefaults.Iterations {
			t.Errorf("Iterations = %d, want %d", cfg.Iterations, BenchDefaults.Iterations)
		}
		if cfg.Where != `surface == "kv"` {
			t.Errorf("Where = %q", cfg.Where)
		}
	})

	t.Run("env prefix", func(t *testing.T) {
		t.Setenv("MYBENCH_ITERATIONS", "77")
		t.Setenv("MYBENCH_STORE_KV_BACKEND", "redis")

		v := viper.New()
		SetBenchDefaults(v)

		var cfg benchConfig
		if err := LoadInto(v, "MYBENCH", "", &cfg); err != nil {
			t.Fatalf("LoadInto() error = %v", err)
		}
		if cfg.Iterations != 77 {
			t.Errorf("Iterations = %d, want 77", cfg.Iterations)
		}
		if cfg.Store.KV.Backend != "redis" {
			t.Errorf("Store.KV.Backend = %q, want redis", cfg.Store.KV.Backend)
		}
	})

	t.Run("explicit config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bench.yaml")
		data := "duration: 2s\nstore:\n  object:\n    backend: fs\n    servers: 3\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}

		v := viper.New()
		SetBenchDefaults(v)

		var cfg benchConfig
		if err := LoadInto(v, "TEST", path, &cfg); err != nil {
			t.Fatalf("LoadInto() error = %v", err)
		}
		if cfg.Duration != 2*time.Second {
			t.Errorf("Duration = %v, want 2s", cfg.Duration)
		}
		if cfg.Store.Object.Backend != "fs" || cfg.Store.Object.Servers != 3 {
			t.Errorf("Store.Object = %+v", cfg.Store.Object)
		}
	})

	t.Run("missing explicit config file fails", func(t *testing.T) {
		v := viper.New()
		var cfg benchConfig
		err := LoadInto(v, "TEST", filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
		if err == nil {
			t.Fatal("expected error for missing explicit config file")
		}
	})
}

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gezibash/arc-bench/internal/bench/suite"
	"github.com/gezibash/arc-bench/pkg/store"
	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Iterations != 1000 {
		t.Errorf("Iterations = %d, want 1000", cfg.Iterations)
	}
	if cfg.Store.KV.Backend != "memory" || cfg.Store.Object.Backend != "memory" {
		t.Errorf("backends = %s/%s, want memory/memory", cfg.Store.KV.Backend, cfg.Store.Object.Backend)
	}
	if cfg.Store.Object.Servers != 1 {
		t.Errorf("Servers = %d, want 1", cfg.Store.Object.Servers)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ARC_BENCH_STORE_OBJECT_SERVERS", "4")
	t.Setenv("ARC_BENCH_SUMMARY", "markdown")
	cfg, err := loadConfig(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Object.Servers != 4 {
		t.Errorf("Servers = %d, want 4", cfg.Store.Object.Servers)
	}
	if cfg.Summary != "markdown" {
		t.Errorf("Summary = %q, want markdown", cfg.Summary)
	}
}

func TestLoadConfigRejectsNonPositiveIterations(t *testing.T) {
	for _, n := range []string{"0", "-5"} {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("ARC_BENCH_ITERATIONS", n)
		if _, err := loadConfig(viper.New(), ""); err == nil {
			t.Errorf("iterations %s: expected config error", n)
		}
	}
}

func TestStoreConfigPaths(t *testing.T) {
	var cfg Config
	cfg.DataDir = "/data"
	cfg.Store.KV.Backend = "badger"
	cfg.Store.Object.Backend = "fs"
	cfg.Store.DB.Path = "/data/bench.db"

	sc := cfg.storeConfig()
	if got := sc.KVOptions["path"]; got != filepath.Join("/data", "bench", "kv") {
		t.Errorf("kv path = %q", got)
	}
	if got := sc.ObjectOptions["path"]; got != filepath.Join("/data", "bench", "objects") {
		t.Errorf("object path = %q", got)
	}
	if got := sc.DBOptions["path"]; got != "/data/bench.db" {
		t.Errorf("db path = %q", got)
	}

	cfg.Store.KV.Config = map[string]string{"path": "/elsewhere"}
	if got := cfg.storeConfig().KVOptions["path"]; got != "/elsewhere" {
		t.Errorf("explicit kv path overridden: %q", got)
	}
}

func TestStoreConfigMemoryHasNoPath(t *testing.T) {
	var cfg Config
	cfg.Store.KV.Backend = "memory"
	cfg.Store.Object.Backend = "memory"
	sc := cfg.storeConfig()
	if _, ok := sc.KVOptions["path"]; ok {
		t.Error("memory kv backend got a path")
	}
	if _, ok := sc.ObjectOptions["path"]; ok {
		t.Error("memory object backend got a path")
	}
}

func TestSelectEntries(t *testing.T) {
	client, err := store.Open(context.Background(), store.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	s, err := suite.New(client)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		prefix string
		where  string
		want   int
	}{
		{"", "", 88},
		{"/kv/", "", 8},
		{"", `surface == "kv" && batch`, 4},
		{"/db/", `variant.endsWith("index-all")`, 8},
		{"/nothing/", "", 0},
	}
	for _, tt := range tests {
		got, err := selectEntries(s.Catalog(), tt.prefix, tt.where)
		if err != nil {
			t.Fatalf("selectEntries(%q, %q): %v", tt.prefix, tt.where, err)
		}
		if len(got) != tt.want {
			t.Errorf("selectEntries(%q, %q) = %d entries, want %d", tt.prefix, tt.where, len(got), tt.want)
		}
	}

	if _, err := selectEntries(s.Catalog(), "", "surface + 1"); err == nil {
		t.Error("expected compile error")
	}
}

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gezibash/arc-bench/internal/config"
	"github.com/gezibash/arc-bench/internal/dbstore"
	"github.com/gezibash/arc-bench/internal/storage"
	"github.com/gezibash/arc-bench/pkg/store"
	"github.com/spf13/viper"
)

// Config represents the arc-bench configuration.
type Config struct {
	config.BaseConfig `mapstructure:",squash"`
	MachineReadable   bool          `mapstructure:"machine_readable"`
	Duration          time.Duration `mapstructure:"duration"`
	Iterations        int           `mapstructure:"iterations"`
	Where             string        `mapstructure:"where"`
	Summary           string        `mapstructure:"summary"`
	Store             StoreConfig   `mapstructure:"store"`
}

// StoreConfig configures the backends the suite runs against.
type StoreConfig struct {
	KV     BackendConfig `mapstructure:"kv"`
	Object ObjectConfig  `mapstructure:"object"`
	DB     DBConfig      `mapstructure:"db"`
}

// BackendConfig names a registered backend and its options.
type BackendConfig struct {
	Backend string            `mapstructure:"backend"`
	Config  map[string]string `mapstructure:"config"`
}

// ObjectConfig configures the object servers.
type ObjectConfig struct {
	BackendConfig `mapstructure:",squash"`
	Servers       int `mapstructure:"servers"`
	ChunkSize     int `mapstructure:"chunk_size"`
}

// DBConfig configures the sqlite database.
type DBConfig struct {
	Path   string            `mapstructure:"path"`
	Config map[string]string `mapstructure:"config"`
}

func loadConfig(v *viper.Viper, configFile string) (Config, error) {
	config.SetBenchDefaults(v)

	var cfg Config
	err := config.LoadInto(v, "ARC_BENCH", configFile, &cfg,
		filepath.Join(config.DefaultDataDir(), "bench"),
		"/etc/arc/bench",
	)
	if err != nil {
		return cfg, err
	}
	if cfg.Iterations < 1 {
		return cfg, fmt.Errorf("iterations must be at least 1, got %d", cfg.Iterations)
	}
	return cfg, nil
}

// storeConfig turns the loaded config into a client config. On-disk
// backends without an explicit path live under the data directory.
func (c Config) storeConfig() store.Config {
	dataDir := filepath.Join(c.ResolvedDataDir(), "bench")

	kvOpts := storage.Options(c.Store.KV.Config)
	if c.Store.KV.Backend == "badger" {
		kvOpts = withPath(kvOpts, filepath.Join(dataDir, "kv"))
	}
	objOpts := storage.Options(c.Store.Object.Config)
	if b := c.Store.Object.Backend; b == "badger" || b == "fs" {
		objOpts = withPath(objOpts, filepath.Join(dataDir, "objects"))
	}
	dbOpts := storage.Merge(storage.Options(c.Store.DB.Config), storage.Options{dbstore.KeyPath: c.Store.DB.Path})

	return store.Config{
		KVBackend:     c.Store.KV.Backend,
		KVOptions:     kvOpts,
		ObjectBackend: c.Store.Object.Backend,
		ObjectOptions: objOpts,
		ObjectServers: c.Store.Object.Servers,
		ChunkSize:     c.Store.Object.ChunkSize,
		DBOptions:     dbOpts,
	}
}

func withPath(opts storage.Options, path string) storage.Options {
	if opts["path"] != "" {
		return opts
	}
	return storage.Merge(opts, storage.Options{"path": path})
}

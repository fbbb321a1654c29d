// Package config provides shared configuration patterns and defaults for arc-bench.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Common contains default values shared across commands.
var Common = struct {
	LogLevel     string
	LogFormat    string
	OTLPProtocol string
	DataDir      string
}{
	LogLevel:     "warn",
	LogFormat:    "text",
	OTLPProtocol: "http",
	DataDir:      DefaultDataDir(),
}

// DefaultDataDir returns the default data directory (~/.arc).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".arc"
	}
	return filepath.Join(home, ".arc")
}

// BenchDefaults contains default values for a suite run.
var BenchDefaults = struct {
	Duration      time.Duration
	Iterations    int
	KVBackend     string
	ObjectBackend string
	ObjectServers int
	DBPath        string
	Summary       string
}{
	Duration:      time.Second,
	Iterations:    1000,
	KVBackend:     "memory",
	ObjectBackend: "memory",
	ObjectServers: 1,
	DBPath:        ":memory:",
	Summary:       "none",
}

package config

// BaseConfig contains configuration fields shared by every arc-bench command.
// Command configs embed this struct with mapstructure:",squash" to get the
// standard fields (data_dir, observability) without redefinition.
type BaseConfig struct {
	DataDir       string              `mapstructure:"data_dir"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ObservabilityConfig holds logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPProtocol string `mapstructure:"otlp_protocol"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// ResolvedDataDir returns the data directory from config, or the default (~/.arc).
func (c BaseConfig) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

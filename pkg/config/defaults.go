package config

import "time"

// Default values applied to fields left unset in the configuration file.
const (
	DefaultBundleDir     = "./bundle"
	DefaultWatchDebounce = 500 * time.Millisecond
	DefaultGitBranch     = "main"

	DefaultAnalysisMode = "full"

	DefaultArchiveBackend    = "memory"
	DefaultSQLitePath        = "./vulcan-archive.db"
	DefaultRetentionSchedule = "0 3 * * *"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsListenAddress = ":9090"
	DefaultMetricsPath          = "/metrics"

	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "vulcan"
	DefaultTracingSampleRate  = 1.0
)

// ApplyDefaults fills zero-valued fields with their defaults. It never
// overrides a value set explicitly in the file.
func ApplyDefaults(cfg *Config) {
	if cfg.Bundle.Dir == "" {
		cfg.Bundle.Dir = DefaultBundleDir
	}
	if cfg.Bundle.WatchDebounce == 0 {
		cfg.Bundle.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Bundle.Git.Repo != "" && cfg.Bundle.Git.Branch == "" {
		cfg.Bundle.Git.Branch = DefaultGitBranch
	}

	if cfg.Review.AnalysisMode == "" {
		cfg.Review.AnalysisMode = DefaultAnalysisMode
	}

	if cfg.Archive.Backend == "" {
		cfg.Archive.Backend = DefaultArchiveBackend
	}
	if cfg.Archive.SQLite.Path == "" {
		cfg.Archive.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Archive.Retention.Schedule == "" {
		cfg.Archive.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRate == 0 {
		cfg.Telemetry.Tracing.SampleRate = DefaultTracingSampleRate
	}
}

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

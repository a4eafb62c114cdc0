package config

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every problem found in a configuration so
// operators can fix them in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid configuration (%d problems):\n  - %s",
		len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

var validAnalysisModes = map[string]struct{}{
	"full":         {},
	"geometry_dfm": {},
	"drawing_spec": {},
}

var validArchiveBackends = map[string]struct{}{
	"memory": {},
	"sqlite": {},
}

// Validate checks the configuration for contradictions and out-of-range
// values. All problems are collected before returning.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Bundle.Dir == "" {
		problems = append(problems, "bundle.dir must not be empty")
	}
	if cfg.Bundle.WatchDebounce < 0 {
		problems = append(problems, "bundle.watch_debounce must not be negative")
	}
	if cfg.Bundle.Git.Repo == "" && (cfg.Bundle.Git.Branch != "" || cfg.Bundle.Git.Path != "") {
		problems = append(problems, "bundle.git.branch and bundle.git.path require bundle.git.repo")
	}
	if cfg.Bundle.Git.SyncInterval < 0 {
		problems = append(problems, "bundle.git.sync_interval must not be negative")
	}

	if _, ok := validAnalysisModes[cfg.Review.AnalysisMode]; !ok {
		problems = append(problems, fmt.Sprintf(
			"review.analysis_mode %q is not one of full, geometry_dfm, drawing_spec",
			cfg.Review.AnalysisMode))
	}

	if _, ok := validArchiveBackends[cfg.Archive.Backend]; !ok {
		problems = append(problems, fmt.Sprintf(
			"archive.backend %q is not one of memory, sqlite", cfg.Archive.Backend))
	}
	if cfg.Archive.Backend == "sqlite" && cfg.Archive.SQLite.Path == "" {
		problems = append(problems, "archive.sqlite.path must be set for the sqlite backend")
	}
	if cfg.Archive.Retention.Days < 0 {
		problems = append(problems, "archive.retention.days must not be negative")
	}

	switch strings.ToLower(cfg.Telemetry.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf(
			"telemetry.logging.level %q is not one of debug, info, warn, error",
			cfg.Telemetry.Logging.Level))
	}
	switch strings.ToLower(cfg.Telemetry.Logging.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf(
			"telemetry.logging.format %q is not one of json, text",
			cfg.Telemetry.Logging.Format))
	}
	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress == "" {
		problems = append(problems, "telemetry.metrics.listen_address must be set when metrics are enabled")
	}
	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		problems = append(problems, "telemetry.tracing.endpoint must be set when tracing is enabled")
	}
	if cfg.Telemetry.Tracing.SampleRate < 0 || cfg.Telemetry.Tracing.SampleRate > 1 {
		problems = append(problems, fmt.Sprintf(
			"telemetry.tracing.sample_rate %v must be within [0, 1]",
			cfg.Telemetry.Tracing.SampleRate))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

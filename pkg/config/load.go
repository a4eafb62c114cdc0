package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies VULCAN_SECTION_FIELD environment overrides, which always take
// precedence over file values. The final configuration is re-validated.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Bundle overrides
	if val := os.Getenv("VULCAN_BUNDLE_DIR"); val != "" {
		cfg.Bundle.Dir = val
	}
	if val := os.Getenv("VULCAN_BUNDLE_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Bundle.Watch = b
		}
	}
	if val := os.Getenv("VULCAN_BUNDLE_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Bundle.WatchDebounce = d
		}
	}
	if val := os.Getenv("VULCAN_BUNDLE_GIT_REPO"); val != "" {
		cfg.Bundle.Git.Repo = val
	}
	if val := os.Getenv("VULCAN_BUNDLE_GIT_BRANCH"); val != "" {
		cfg.Bundle.Git.Branch = val
	}
	if val := os.Getenv("VULCAN_BUNDLE_GIT_PATH"); val != "" {
		cfg.Bundle.Git.Path = val
	}
	if val := os.Getenv("VULCAN_BUNDLE_GIT_SYNC_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Bundle.Git.SyncInterval = d
		}
	}

	// Review overrides
	if val := os.Getenv("VULCAN_REVIEW_ANALYSIS_MODE"); val != "" {
		cfg.Review.AnalysisMode = val
	}
	if val := os.Getenv("VULCAN_REVIEW_RUN_BOTH_IF_MISMATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Review.RunBothIfMismatch = b
		}
	}
	if val := os.Getenv("VULCAN_REVIEW_DEFAULT_ROLE_ID"); val != "" {
		cfg.Review.DefaultRoleID = val
	}
	if val := os.Getenv("VULCAN_REVIEW_DEFAULT_TEMPLATE_ID"); val != "" {
		cfg.Review.DefaultTemplateID = val
	}

	// Archive overrides
	if val := os.Getenv("VULCAN_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if val := os.Getenv("VULCAN_ARCHIVE_BACKEND"); val != "" {
		cfg.Archive.Backend = val
	}
	if val := os.Getenv("VULCAN_ARCHIVE_SQLITE_PATH"); val != "" {
		cfg.Archive.SQLite.Path = val
	}
	if val := os.Getenv("VULCAN_ARCHIVE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Archive.Retention.Days = i
		}
	}
	if val := os.Getenv("VULCAN_ARCHIVE_RETENTION_SCHEDULE"); val != "" {
		cfg.Archive.Retention.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("VULCAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VULCAN_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("VULCAN_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_TRACING_SAMPLE_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRate = f
		}
	}
}

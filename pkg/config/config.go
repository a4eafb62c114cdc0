package config

import "time"

// Config is the root configuration for the vulcan service.
type Config struct {
	Bundle    BundleConfig    `yaml:"bundle"`
	Review    ReviewConfig    `yaml:"review"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// BundleConfig controls where the rule bundle is loaded from and whether
// it is hot-reloaded.
type BundleConfig struct {
	// Dir is the directory holding the bundle's JSON tables.
	Dir string `yaml:"dir"`

	// Watch reloads the bundle when files under Dir change.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces rapid file events into one reload.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Git, when Repo is set, syncs the bundle from a git repository into
	// Dir before loading.
	Git GitConfig `yaml:"git"`
}

// GitConfig describes a git-hosted bundle source.
type GitConfig struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	// Path is the subdirectory within the repository holding the bundle.
	Path string `yaml:"path"`
	// SyncInterval is how often to poll for upstream changes. Zero
	// disables polling after the initial clone.
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// ReviewConfig carries defaults applied to review requests that omit them.
type ReviewConfig struct {
	// AnalysisMode is "full", "geometry_dfm" or "drawing_spec".
	AnalysisMode string `yaml:"analysis_mode"`

	// RunBothIfMismatch evaluates both routes when a user override
	// disagrees with the recommender and the bundle policy allows it.
	RunBothIfMismatch bool `yaml:"run_both_if_mismatch"`

	DefaultRoleID     string `yaml:"default_role_id"`
	DefaultTemplateID string `yaml:"default_template_id"`
}

// ArchiveConfig controls persistence of completed review reports.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig holds the sqlite archive backend settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RetentionConfig controls pruning of archived reports.
type RetentionConfig struct {
	// Days is how long reports are kept. Zero disables pruning.
	Days int `yaml:"days"`

	// Schedule is a cron expression for the prune job.
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig groups logging, metrics and tracing settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

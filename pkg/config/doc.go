// Package config defines vulcan's runtime configuration: the rule bundle
// source, review defaults, archive storage and telemetry. Configuration is
// loaded from a YAML file, defaulted, optionally overridden by VULCAN_*
// environment variables, and validated before use.
package config

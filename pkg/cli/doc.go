// Package cli provides shared helpers for vulcan's command-line
// interface: typed command errors and output formatting.
package cli

// Package manager owns the live rule bundle for a running service. It
// loads and validates bundles from disk, swaps them in atomically, and
// optionally watches the bundle directory so table edits take effect
// without a restart. A reload that fails validation leaves the previous
// bundle serving.
package manager

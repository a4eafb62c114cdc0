// Package rules executes the applicable manufacturability rules for each
// planned route.
//
// Rules iterate pre-indexed by pack in the plan's pack order, filtered by
// the requested analysis mode and, within the overlay pack, by the
// overlay's rule-id prefixes. Each rule classifies as an evidence gap
// (required inputs missing and not marked not-applicable), a violation
// (its registered evaluator fired), a pass, or unresolved (no evaluator
// registered for its rule id).
//
// Violation logic is a closed registry from rule id to a pure
// (facts) -> result function. A rule in the bundle without a registered
// evaluator is silently skipped apart from an unresolved trace tally,
// supporting bundles that describe rules pending implementation. The
// bundle's check_logic field is descriptive metadata, never executed.
//
// Standards provenance is always derived: the standards-used set comes
// from findings only, and manual injection through context keys is
// rejected as an error.
package rules

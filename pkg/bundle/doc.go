// Package bundle loads and cross-validates the versioned rule configuration
// consumed by the review pipeline.
//
// A bundle is a directory of JSON tables: manifest, rules (with their packs),
// the reference catalog, process families with recommendation heuristics,
// overlays, roles, report templates, and the cost model. Load reads every
// table, schema-validates each one, then cross-validates referential
// integrity and the manifest's declared counts, accumulating every violation
// into a single ValidationError instead of stopping at the first.
//
// A successfully loaded Bundle is immutable. The runtime engine never
// mutates it, so one Bundle value may be shared by any number of concurrent
// evaluations without coordination.
package bundle

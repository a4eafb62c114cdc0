// Package planner reconciles a caller's process and overlay selection
// against the recommender's pick and assembles the route(s) a review will
// execute.
//
// A plan names the process, the ordered rule packs (base drawing pack
// always first, then the process defaults, then the overlay pack), the
// resolved report template sections, and the route source. When the caller
// overrides the recommended process and both the request flag and the
// bundle's mismatch policy permit it, the planner emits two routes ordered
// [override, recommendation]; otherwise a single route.
//
// Planning is deterministic: identical bundle, facts, and selections yield
// byte-identical plans. Plan ids are derived from route position and
// source, never generated randomly.
package planner

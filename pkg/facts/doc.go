// Package facts defines the part-fact snapshot consumed by the recommender,
// rule engine, and cost model.
//
// A snapshot is a flat map from fact key to a closed value variant
// (bool, number, string, or list), plus a reserved list of keys the part
// facts provider has marked not-applicable. The truthiness rules on Value
// are load-bearing: rule applicability, heuristic conditions, and
// required-input checks all depend on the exact edge cases (empty string,
// "0", "false", empty lists).
//
// The snapshot itself is produced by an external part-facts provider (CAD
// extraction). This package only defines the contract and a JSON file
// loader for offline use.
package facts

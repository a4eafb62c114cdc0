// Package costing prices each planned route from geometry, process, and
// material inputs.
//
// The model degrades gracefully rather than failing: missing volume and
// surface area are inferred from bounding-box dimensions, a missing body
// count defaults to one, and any remaining gap falls back to a configured
// default. Every fallback is recorded as an assumption and charged as a
// confidence penalty, so a sparse snapshot still prices, just with a
// wider cost range.
//
// Findings feed back into cost: bundle-declared cost impacts multiply the
// affected components for rules that actually fired on the route. When
// exactly two routes are priced the package also produces a pairwise
// comparison; other route counts produce estimates without one.
package costing

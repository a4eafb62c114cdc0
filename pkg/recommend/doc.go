// Package recommend ranks candidate manufacturing processes from part facts.
//
// Every process family in the bundle starts at a baseline score. Each
// heuristic whose conditions all hold against the fact map adds its
// confidence boost to its process (clamped at 1.0) and contributes its
// reasons. Processes rank by descending score with process id as the
// deterministic tie-break, and the winning score maps to a low/medium/high
// confidence level via bundle-configured thresholds.
//
// Heuristic condition strings use a deliberately tiny grammar: tokens joined
// by the literal separators " and " / " or ", evaluated by string splitting
// with no operator precedence. The limited semantics are part of the bundle
// contract, not an accident; do not upgrade this to an expression parser.
package recommend

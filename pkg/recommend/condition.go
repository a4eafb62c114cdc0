package recommend

import (
	"strings"

	"fabrica-hq/vulcan/pkg/facts"
)

// Condition token separators. These are literal substrings: a fact key may
// not contain them.
const (
	sepOr  = " or "
	sepAnd = " and "
)

// evalCondition evaluates one heuristic condition string against the fact
// map. The expression splits on " or " first, then each fragment on
// " and "; remaining tokens are fact keys resolved by truthiness. There is
// no grouping and no precedence beyond the split order.
func evalCondition(expr string, m facts.Map) bool {
	if strings.Contains(expr, sepOr) {
		for _, part := range strings.Split(expr, sepOr) {
			if evalCondition(part, m) {
				return true
			}
		}
		return false
	}

	if strings.Contains(expr, sepAnd) {
		for _, part := range strings.Split(expr, sepAnd) {
			if !evalCondition(part, m) {
				return false
			}
		}
		return true
	}

	return m.Truthy(strings.TrimSpace(expr))
}

// matchAll reports whether every condition holds. An empty list holds.
func matchAll(conditions []string, m facts.Map) bool {
	for _, c := range conditions {
		if !evalCondition(c, m) {
			return false
		}
	}
	return true
}

// matchAny reports whether at least one condition holds. An empty list holds.
func matchAny(conditions []string, m facts.Map) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, c := range conditions {
		if evalCondition(c, m) {
			return true
		}
	}
	return false
}

// matchNone reports whether no condition holds. An empty list holds.
func matchNone(conditions []string, m facts.Map) bool {
	for _, c := range conditions {
		if evalCondition(c, m) {
			return false
		}
	}
	return true
}

package rules

import (
	"fmt"
	"sort"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
)

// EvalResult is what a violation evaluator returns for one rule.
type EvalResult struct {
	Violated bool

	// Evaluation carries the audit detail when Violated is true.
	Evaluation *Evaluation
}

// Evaluator is a pure violation check for one rule id. It runs only after
// all of the rule's required inputs resolved truthy, and must not mutate
// the fact map.
type Evaluator func(m facts.Map, rule bundle.Rule) EvalResult

// Registry is the closed map from rule id to its violation evaluator.
// Extending the rule catalog means registering a new evaluator; the
// iteration engine never changes.
type Registry struct {
	evaluators map[string]Evaluator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Register adds an evaluator for a rule id. Registering the same id twice
// is an error.
func (r *Registry) Register(ruleID string, fn Evaluator) error {
	if _, dup := r.evaluators[ruleID]; dup {
		return &DuplicateEvaluatorError{RuleID: ruleID}
	}
	r.evaluators[ruleID] = fn
	return nil
}

// MustRegister registers an evaluator and panics on a duplicate id.
// For use in package-level default registry construction.
func (r *Registry) MustRegister(ruleID string, fn Evaluator) {
	if err := r.Register(ruleID, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the evaluator for a rule id.
func (r *Registry) Lookup(ruleID string) (Evaluator, bool) {
	fn, ok := r.evaluators[ruleID]
	return fn, ok
}

// RuleIDs returns every registered rule id in sorted order.
func (r *Registry) RuleIDs() []string {
	ids := make([]string, 0, len(r.evaluators))
	for id := range r.evaluators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Comparison operators used by threshold evaluators.
const (
	opLessThan    = "lt"
	opGreaterThan = "gt"
)

// maxEvaluator builds an evaluator that fires when the fact exceeds the
// rule's threshold.
func maxEvaluator(factKey, thresholdKey string) Evaluator {
	return thresholdEvaluator(factKey, thresholdKey, opGreaterThan)
}

// minEvaluator builds an evaluator that fires when the fact falls below
// the rule's threshold.
func minEvaluator(factKey, thresholdKey string) Evaluator {
	return thresholdEvaluator(factKey, thresholdKey, opLessThan)
}

// thresholdEvaluator builds the common numeric-compare evaluator. A fact
// that cannot resolve to a number, or a rule missing the threshold key,
// never fires: required-input gating already classified missing evidence.
func thresholdEvaluator(factKey, thresholdKey, op string) Evaluator {
	return func(m facts.Map, rule bundle.Rule) EvalResult {
		actual, ok := m.Number(factKey)
		if !ok {
			return EvalResult{}
		}
		threshold, ok := rule.Thresholds[thresholdKey]
		if !ok {
			return EvalResult{}
		}

		var violated bool
		var symbol string
		switch op {
		case opLessThan:
			violated = actual < threshold
			symbol = "<"
		case opGreaterThan:
			violated = actual > threshold
			symbol = ">"
		}
		if !violated {
			return EvalResult{}
		}

		return EvalResult{
			Violated: true,
			Evaluation: &Evaluation{
				Operator:   op,
				Actual:     actual,
				Threshold:  threshold,
				Expression: fmt.Sprintf("%s %v %s %v", factKey, actual, symbol, threshold),
			},
		}
	}
}

// boolEvaluator builds an evaluator that fires when the fact is truthy,
// for rules whose check is the presence of a risk signal.
func boolEvaluator(factKey string) Evaluator {
	return func(m facts.Map, rule bundle.Rule) EvalResult {
		if !m.Truthy(factKey) {
			return EvalResult{}
		}
		actual := 1.0
		if n, ok := m.Number(factKey); ok {
			actual = n
		}
		return EvalResult{
			Violated: true,
			Evaluation: &Evaluation{
				Operator:   "truthy",
				Actual:     actual,
				Threshold:  0,
				Expression: fmt.Sprintf("%s is set", factKey),
			},
		}
	}
}

// ratioEvaluator builds an evaluator that fires when numerator/denominator
// exceeds the rule's threshold. Zero denominators never fire.
func ratioEvaluator(numeratorKey, denominatorKey, thresholdKey string) Evaluator {
	return func(m facts.Map, rule bundle.Rule) EvalResult {
		numerator, ok := m.Number(numeratorKey)
		if !ok {
			return EvalResult{}
		}
		denominator, ok := m.Number(denominatorKey)
		if !ok || denominator == 0 {
			return EvalResult{}
		}
		threshold, ok := rule.Thresholds[thresholdKey]
		if !ok {
			return EvalResult{}
		}

		ratio := numerator / denominator
		if ratio <= threshold {
			return EvalResult{}
		}
		return EvalResult{
			Violated: true,
			Evaluation: &Evaluation{
				Operator:   "ratio_gt",
				Actual:     ratio,
				Threshold:  threshold,
				Expression: fmt.Sprintf("%s/%s %.4g > %v", numeratorKey, denominatorKey, ratio, threshold),
			},
		}
	}
}

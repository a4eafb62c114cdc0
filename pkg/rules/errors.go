package rules

import "fmt"

// UnknownReferenceError indicates a finding cited a reference id missing
// from the catalog. The validator prevents this for a coherent bundle, so
// hitting it at evaluation time means catalog/rule drift; it is never
// silently dropped.
type UnknownReferenceError struct {
	RefID  string
	RuleID string
}

// Error returns the error message.
func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("rule %q cites unknown reference %q", e.RuleID, e.RefID)
}

// ManualStandardsError indicates a caller attempted to inject standards
// through a blocked context key. Standards provenance must always be
// derived from findings.
type ManualStandardsError struct {
	Key string
}

// Error returns the error message.
func (e *ManualStandardsError) Error() string {
	return fmt.Sprintf("manual standards injection rejected: context key %q is reserved", e.Key)
}

// DuplicateEvaluatorError indicates two evaluators were registered for the
// same rule id.
type DuplicateEvaluatorError struct {
	RuleID string
}

// Error returns the error message.
func (e *DuplicateEvaluatorError) Error() string {
	return fmt.Sprintf("evaluator already registered for rule %q", e.RuleID)
}

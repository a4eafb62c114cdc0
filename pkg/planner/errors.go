package planner

import "fmt"

// IdentifierKind names which selection a PlanningError refers to.
type IdentifierKind string

const (
	IdentifierRole     IdentifierKind = "role"
	IdentifierTemplate IdentifierKind = "template"
	IdentifierProcess  IdentifierKind = "process"
	IdentifierOverlay  IdentifierKind = "overlay"
)

// PlanningError indicates a selection named an identifier the bundle does
// not define. No partial plan is ever returned alongside one.
type PlanningError struct {
	Kind IdentifierKind
	ID   string
}

// Error returns the error message naming the offending identifier.
func (e *PlanningError) Error() string {
	return fmt.Sprintf("unknown %s id: %q", e.Kind, e.ID)
}

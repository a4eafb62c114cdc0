package bundle

import (
	"fmt"
	"strings"
)

// ViolationKind categorizes one bundle load violation.
type ViolationKind string

const (
	ViolationMissingFile   ViolationKind = "missing_file"
	ViolationBadJSON       ViolationKind = "bad_json"
	ViolationSchema        ViolationKind = "schema"
	ViolationDanglingRef   ViolationKind = "dangling_reference"
	ViolationCountMismatch ViolationKind = "count_mismatch"
)

// Violation is one problem found while loading or cross-validating a bundle.
type Violation struct {
	Kind    ViolationKind // Category of violation
	File    string        // Bundle file the violation was found in
	Subject string        // Offending identifier (rule id, ref id, ...)
	Message string        // Human-readable detail
}

// Error implements the error interface.
func (v *Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", v.Kind))
	if v.File != "" {
		sb.WriteString(" " + v.File)
	}
	if v.Subject != "" {
		sb.WriteString(fmt.Sprintf(" %q", v.Subject))
	}
	sb.WriteString(": " + v.Message)
	return sb.String()
}

// ValidationError aggregates every violation found while loading a bundle.
// A bundle either loads cleanly or not at all; there is no partial load.
type ValidationError struct {
	Dir        string
	Violations []*Violation
}

// Error implements the error interface, listing every violation.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("bundle validation failed for %q: %d violation(s)", e.Dir, len(e.Violations)))
	for _, v := range e.Violations {
		sb.WriteString("\n  - ")
		sb.WriteString(v.Error())
	}
	return sb.String()
}

// HasKind reports whether any violation of the given kind was collected.
func (e *ValidationError) HasKind(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// BySubject returns all violations naming the given identifier.
func (e *ValidationError) BySubject(subject string) []*Violation {
	var out []*Violation
	for _, v := range e.Violations {
		if v.Subject == subject {
			out = append(out, v)
		}
	}
	return out
}

// violationList accumulates violations during load and cross-validation.
type violationList struct {
	violations []*Violation
}

func (l *violationList) add(kind ViolationKind, file, subject, format string, args ...any) {
	l.violations = append(l.violations, &Violation{
		Kind:    kind,
		File:    file,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *violationList) hasErrors() bool { return len(l.violations) > 0 }

func (l *violationList) toError(dir string) error {
	if !l.hasErrors() {
		return nil
	}
	return &ValidationError{Dir: dir, Violations: l.violations}
}

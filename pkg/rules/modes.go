package rules

import (
	"strings"

	"fabrica-hq/vulcan/pkg/bundle"
)

// documentKeyPrefixes mark fact keys derived from documents rather than
// geometry: drawing callouts, BOM entries, and compliance facts.
var documentKeyPrefixes = []string{"drawing_", "bom_", "compliance_"}

// isDocumentKey reports whether a required-input key is document-derived.
func isDocumentKey(key string) bool {
	for _, prefix := range documentKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// hasDocumentInput reports whether any of the rule's required inputs is
// document-derived.
func hasDocumentInput(rule bundle.Rule) bool {
	for _, key := range rule.InputsRequired {
		if isDocumentKey(key) {
			return true
		}
	}
	return false
}

// modeIncludes applies the analysis-mode filter for one rule.
//   - full: every rule.
//   - geometry_dfm: excludes the base drawing pack and any rule requiring a
//     document-derived input.
//   - drawing_spec: only rules with at least one document-derived input.
func modeIncludes(mode string, rule bundle.Rule, packID, baseDrawingPack string) bool {
	switch mode {
	case ModeGeometryDFM:
		if packID == baseDrawingPack {
			return false
		}
		return !hasDocumentInput(rule)
	case ModeDrawingSpec:
		return hasDocumentInput(rule)
	default:
		return true
	}
}

// overlayIncludes applies the overlay rule-prefix filter. It only applies
// to rules in the overlay's own pack; an overlay with no prefixes admits
// every rule of its pack.
func overlayIncludes(overlay *bundle.Overlay, packID, ruleID string) bool {
	if overlay == nil || overlay.AddsRulesPack != packID || len(overlay.RulePrefixes) == 0 {
		return true
	}
	for _, prefix := range overlay.RulePrefixes {
		if strings.HasPrefix(ruleID, prefix) {
			return true
		}
	}
	return false
}

package rules

import "fabrica-hq/vulcan/pkg/bundle"

// Finding types.
const (
	FindingRuleViolation = "rule_violation"
	FindingEvidenceGap   = "evidence_gap"
)

// Analysis modes.
const (
	ModeFull        = "full"
	ModeGeometryDFM = "geometry_dfm"
	ModeDrawingSpec = "drawing_spec"
)

// Evaluation is the audit detail attached to a violation finding.
type Evaluation struct {
	Operator  string  `json:"operator"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`

	// Expression is a free-form rendering of the comparison for audit
	// output, e.g. "min_wall_thickness_mm 0.5 < 1".
	Expression string `json:"expression"`
}

// ExpectedImpact is the qualitative effect of fixing a finding.
type ExpectedImpact struct {
	RiskReduction  string `json:"risk_reduction"`
	CostImpact     string `json:"cost_impact"`
	LeadTimeImpact string `json:"lead_time_impact"`
}

// Finding is the evaluation output for one rule on one route.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	PackID      string   `json:"pack_id"`
	FindingType string   `json:"finding_type"`
	Severity    string   `json:"severity"`
	Refs        []string `json:"refs"`

	// Evidence is a short statement of what was observed.
	Evidence string `json:"evidence"`

	// Evaluation is set for rule violations only.
	Evaluation *Evaluation `json:"evaluation,omitempty"`

	// MissingInputs is set for evidence gaps only.
	MissingInputs []string `json:"missing_inputs,omitempty"`

	RecommendedAction string         `json:"recommended_action"`
	ExpectedImpact    ExpectedImpact `json:"expected_impact"`
}

// FindingCounts summarizes one route's findings.
type FindingCounts struct {
	Total        int `json:"total"`
	Violations   int `json:"violations"`
	EvidenceGaps int `json:"evidence_gaps"`
}

// RouteResult is the evaluation output for one plan.
type RouteResult struct {
	PlanID      string        `json:"plan_id"`
	RouteSource string        `json:"route_source"`
	ProcessID   string        `json:"process_id"`
	Mode        string        `json:"analysis_mode"`
	Findings    []Finding     `json:"findings"`
	Counts      FindingCounts `json:"finding_counts"`

	// Unresolved counts rules skipped for lack of a registered evaluator.
	Unresolved int `json:"unresolved_rules"`
}

// TraceEntry is the per-reference usage bookkeeping, merged across routes
// by summing counters and OR-ing ActiveInMode.
type TraceEntry struct {
	RefID                  string `json:"ref_id"`
	RulesConsidered        int    `json:"rules_considered"`
	DesignRiskFindings     int    `json:"design_risk_findings"`
	EvidenceGapFindings    int    `json:"evidence_gap_findings"`
	BlockedByMissingInputs int    `json:"blocked_by_missing_inputs"`
	ChecksPassed           int    `json:"checks_passed"`
	ChecksUnresolved       int    `json:"checks_unresolved"`
	ActiveInMode           bool   `json:"active_in_mode"`
}

// Result is the full evaluation output across all routes of a review.
type Result struct {
	Routes []RouteResult `json:"routes"`

	// StandardsUsedAuto is the distinct, sorted reference set cited by
	// actual findings, resolved against the catalog.
	StandardsUsedAuto []bundle.Reference `json:"standards_used_auto"`

	// OverlayRefs are the references the selected overlay contributes on
	// its own, independent of findings. Empty without an overlay.
	OverlayRefs []bundle.Reference `json:"overlay_refs,omitempty"`

	// Trace lists per-reference counters for every touched reference,
	// sorted by ref id.
	Trace []TraceEntry `json:"standards_trace"`

	FindingCountTotal int `json:"finding_count_total"`
}

package rules_test

import (
	"errors"
	"testing"

	"fabrica-hq/vulcan/internal/bundletest"
	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/planner"
	"fabrica-hq/vulcan/pkg/rules"
)

func cncPlan() *planner.Plan {
	return &planner.Plan{
		PlanID:      "plan_1_ai_recommendation",
		RouteSource: planner.RouteSourceAIRecommendation,
		ProcessID:   "cnc_milling",
		PackIDs:     []string{"drw_base", "dfm_basic"},
		RoleID:      "design_engineer",
		TemplateID:  "standard_report",
	}
}

func sheetPlan() *planner.Plan {
	return &planner.Plan{
		PlanID:      "plan_2_ai_recommendation",
		RouteSource: planner.RouteSourceAIRecommendation,
		ProcessID:   "sheet_metal",
		PackIDs:     []string{"drw_base", "sheet_metal"},
		RoleID:      "design_engineer",
		TemplateID:  "standard_report",
	}
}

func findTrace(t *testing.T, result *rules.Result, refID string) rules.TraceEntry {
	t.Helper()
	for _, entry := range result.Trace {
		if entry.RefID == refID {
			return entry
		}
	}
	t.Fatalf("no trace entry for %s", refID)
	return rules.TraceEntry{}
}

func TestEvaluateViolationFinding(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, bundletest.MachinedPartFacts(), rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.Routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(result.Routes))
	}
	route := result.Routes[0]
	if route.Counts.Total != 1 || route.Counts.Violations != 1 || route.Counts.EvidenceGaps != 0 {
		t.Errorf("Counts = %+v, want exactly one violation", route.Counts)
	}
	if route.Unresolved != 0 {
		t.Errorf("Unresolved = %d, want 0", route.Unresolved)
	}

	finding := route.Findings[0]
	if finding.RuleID != "dfm_wall_min_thickness" {
		t.Fatalf("finding rule = %q, want dfm_wall_min_thickness", finding.RuleID)
	}
	if finding.FindingType != rules.FindingRuleViolation {
		t.Errorf("FindingType = %q, want %q", finding.FindingType, rules.FindingRuleViolation)
	}
	if finding.Severity != bundle.SeverityMajor {
		t.Errorf("Severity = %q, want major", finding.Severity)
	}
	if finding.Evaluation == nil {
		t.Fatal("Evaluation is nil for a violation")
	}
	if finding.Evaluation.Operator != "lt" || finding.Evaluation.Actual != 0.5 || finding.Evaluation.Threshold != 1.0 {
		t.Errorf("Evaluation = %+v, want lt 0.5 vs 1", finding.Evaluation)
	}
	if finding.Evaluation.Expression != "min_wall_thickness_mm 0.5 < 1" {
		t.Errorf("Expression = %q", finding.Evaluation.Expression)
	}
	if finding.RecommendedAction != "increase thin walls to at least the process minimum" {
		t.Errorf("RecommendedAction = %q, want fix template", finding.RecommendedAction)
	}
	if finding.ExpectedImpact.RiskReduction != "medium" {
		t.Errorf("RiskReduction = %q, want medium for major severity", finding.ExpectedImpact.RiskReduction)
	}

	if len(result.StandardsUsedAuto) != 1 || result.StandardsUsedAuto[0].RefID != "std_dfm_guide" {
		t.Errorf("StandardsUsedAuto = %+v, want only std_dfm_guide", result.StandardsUsedAuto)
	}

	dfmTrace := findTrace(t, result, "std_dfm_guide")
	if dfmTrace.RulesConsidered != 3 || dfmTrace.DesignRiskFindings != 1 || dfmTrace.ChecksPassed != 2 {
		t.Errorf("std_dfm_guide trace = %+v, want 3 considered / 1 risk / 2 passed", dfmTrace)
	}
	if !dfmTrace.ActiveInMode {
		t.Error("std_dfm_guide trace not marked active in mode")
	}
	drwTrace := findTrace(t, result, "std_asme_y14_5")
	if drwTrace.RulesConsidered != 1 || drwTrace.ChecksPassed != 1 || drwTrace.DesignRiskFindings != 0 {
		t.Errorf("std_asme_y14_5 trace = %+v, want 1 considered / 1 passed", drwTrace)
	}
}

func TestEvaluateEvidenceGap(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	tests := []struct {
		name  string
		facts facts.Map
	}{
		{
			name:  "input absent",
			facts: facts.Map{"hole_max_depth_diameter_ratio": facts.Number(4)},
		},
		{
			// Zero resolves falsy, which counts as unavailable evidence.
			name: "input falsy",
			facts: facts.Map{
				"min_wall_thickness_mm":         facts.Number(0),
				"hole_max_depth_diameter_ratio": facts.Number(4),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := facts.NewSnapshot(tt.facts, nil)
			plan := cncPlan()
			plan.PackIDs = []string{"dfm_basic"}

			result, err := engine.Evaluate([]*planner.Plan{plan}, snapshot, rules.ModeFull, nil)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			route := result.Routes[0]
			if route.Counts.EvidenceGaps != 1 || route.Counts.Violations != 0 {
				t.Fatalf("Counts = %+v, want one evidence gap", route.Counts)
			}
			finding := route.Findings[0]
			if finding.RuleID != "dfm_wall_min_thickness" || finding.FindingType != rules.FindingEvidenceGap {
				t.Errorf("finding = %s/%s, want wall rule evidence gap", finding.RuleID, finding.FindingType)
			}
			if len(finding.MissingInputs) != 1 || finding.MissingInputs[0] != "min_wall_thickness_mm" {
				t.Errorf("MissingInputs = %v, want [min_wall_thickness_mm]", finding.MissingInputs)
			}
			if finding.Evidence != "required inputs unavailable: min_wall_thickness_mm" {
				t.Errorf("Evidence = %q", finding.Evidence)
			}
			if finding.Evaluation != nil {
				t.Error("Evaluation set on an evidence gap finding")
			}

			entry := findTrace(t, result, "std_dfm_guide")
			if entry.EvidenceGapFindings != 1 || entry.BlockedByMissingInputs != 1 {
				t.Errorf("trace = %+v, want evidence gap counters incremented", entry)
			}
		})
	}
}

func TestEvaluateNotApplicableSkipsGap(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	// The tolerance fact is absent but explicitly marked not applicable, so
	// the drawing rule passes instead of raising an evidence gap.
	snapshot := facts.NewSnapshot(facts.Map{
		"min_wall_thickness_mm":         facts.Number(2),
		"hole_max_depth_diameter_ratio": facts.Number(4),
	}, []string{"drawing_tightest_tolerance_mm"})

	result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, snapshot, rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	route := result.Routes[0]
	if route.Counts.Total != 0 {
		t.Errorf("Counts = %+v, want no findings", route.Counts)
	}
	entry := findTrace(t, result, "std_asme_y14_5")
	if entry.ChecksPassed != 1 || entry.BlockedByMissingInputs != 0 {
		t.Errorf("trace = %+v, want pass without missing-input block", entry)
	}
}

func TestEvaluateUnresolvedRule(t *testing.T) {
	spec := bundletest.Valid()
	spec.Rules = append(spec.Rules, bundle.Rule{
		RuleID:   "dfm_custom_vendor_check",
		PackID:   "dfm_basic",
		Title:    "Vendor-specific check",
		Severity: "minor",
		Refs:     []string{"std_dfm_guide"},
	})
	spec.Manifest.ExpectedRuleCount++
	spec.Manifest.ExpectedPackRuleCounts["dfm_basic"]++
	engine := rules.NewEngine(spec.Load(t), nil, nil)

	result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, bundletest.MachinedPartFacts(), rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	route := result.Routes[0]
	if route.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", route.Unresolved)
	}
	// The unresolved rule never becomes a finding.
	if route.Counts.Total != 1 {
		t.Errorf("Counts.Total = %d, want 1 (wall violation only)", route.Counts.Total)
	}
	entry := findTrace(t, result, "std_dfm_guide")
	if entry.ChecksUnresolved != 1 || entry.RulesConsidered != 4 {
		t.Errorf("trace = %+v, want 4 considered with 1 unresolved", entry)
	}
}

func TestEvaluateModeGeometryDFM(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, bundletest.MachinedPartFacts(), rules.ModeGeometryDFM, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	route := result.Routes[0]
	if route.Mode != rules.ModeGeometryDFM {
		t.Errorf("Mode = %q, want geometry_dfm", route.Mode)
	}
	if route.Counts.Violations != 1 || route.Findings[0].RuleID != "dfm_wall_min_thickness" {
		t.Errorf("findings = %+v, want only the wall violation", route.Findings)
	}
	// The base drawing pack is out of scope, so its reference is never
	// touched.
	if len(result.Trace) != 1 || result.Trace[0].RefID != "std_dfm_guide" {
		t.Errorf("Trace = %+v, want only std_dfm_guide", result.Trace)
	}
}

func TestEvaluateModeDrawingSpec(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	snapshot := facts.NewSnapshot(facts.Map{
		"min_wall_thickness_mm":         facts.Number(0.5),
		"drawing_tightest_tolerance_mm": facts.Number(0.005),
	}, nil)

	result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, snapshot, rules.ModeDrawingSpec, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	route := result.Routes[0]
	if route.Counts.Total != 1 {
		t.Fatalf("Counts = %+v, want one finding", route.Counts)
	}
	// The thin wall trips in full mode but is geometry-derived, so only the
	// tolerance rule fires here.
	if route.Findings[0].RuleID != "drw_tolerance_capability" {
		t.Errorf("finding = %q, want drw_tolerance_capability", route.Findings[0].RuleID)
	}
	if len(result.StandardsUsedAuto) != 1 || result.StandardsUsedAuto[0].RefID != "std_asme_y14_5" {
		t.Errorf("StandardsUsedAuto = %+v, want only std_asme_y14_5", result.StandardsUsedAuto)
	}
}

func TestEvaluateOverlayPrefixFilter(t *testing.T) {
	spec := bundletest.Valid()
	// A pack rule outside the overlay's declared prefixes is filtered out;
	// it has no registered evaluator, so leaking through would tally as
	// unresolved.
	spec.Rules = append(spec.Rules, bundle.Rule{
		RuleID:   "note_aero_advisory",
		PackID:   "compliance_aero",
		Title:    "Advisory note",
		Severity: "minor",
		Refs:     []string{"std_astm_cert"},
	})
	spec.Manifest.ExpectedRuleCount++
	spec.Manifest.ExpectedPackRuleCounts["compliance_aero"]++
	engine := rules.NewEngine(spec.Load(t), nil, nil)

	snapshot := facts.NewSnapshot(facts.Map{
		"min_wall_thickness_mm":            facts.Number(2),
		"hole_max_depth_diameter_ratio":    facts.Number(4),
		"drawing_tightest_tolerance_mm":    facts.Number(0.05),
		"compliance_material_cert_missing": facts.Bool(true),
	}, nil)

	plan := cncPlan()
	plan.PackIDs = []string{"drw_base", "dfm_basic", "compliance_aero"}
	plan.OverlayID = "aerospace"

	result, err := engine.Evaluate([]*planner.Plan{plan}, snapshot, rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	route := result.Routes[0]
	if route.Unresolved != 0 {
		t.Errorf("Unresolved = %d, want 0 (advisory rule filtered by prefix)", route.Unresolved)
	}
	if route.Counts.Violations != 1 || route.Findings[0].RuleID != "compliance_material_cert" {
		t.Errorf("findings = %+v, want only the missing-cert violation", route.Findings)
	}
	if route.Findings[0].Severity != bundle.SeverityCritical {
		t.Errorf("Severity = %q, want critical", route.Findings[0].Severity)
	}
}

func TestEvaluateOverlayRefsSurfaced(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	// The cert input is marked not applicable, so the compliance rule passes
	// without a finding. The overlay's own references must still surface,
	// separate from the findings-derived standards set.
	snapshot := facts.NewSnapshot(facts.Map{
		"min_wall_thickness_mm":         facts.Number(0.5),
		"hole_max_depth_diameter_ratio": facts.Number(4),
		"drawing_tightest_tolerance_mm": facts.Number(0.05),
	}, []string{"compliance_material_cert_missing"})

	plan := cncPlan()
	plan.PackIDs = []string{"drw_base", "dfm_basic", "compliance_aero"}
	plan.OverlayID = "aerospace"

	result, err := engine.Evaluate([]*planner.Plan{plan}, snapshot, rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.OverlayRefs) != 1 || result.OverlayRefs[0].RefID != "std_astm_cert" {
		t.Fatalf("OverlayRefs = %+v, want [std_astm_cert]", result.OverlayRefs)
	}
	if result.OverlayRefs[0].Title != "ASTM material certification practice" {
		t.Errorf("OverlayRefs[0].Title = %q, want catalog title", result.OverlayRefs[0].Title)
	}
	// Overlay refs never leak into the findings-derived set.
	if len(result.StandardsUsedAuto) != 1 || result.StandardsUsedAuto[0].RefID != "std_dfm_guide" {
		t.Errorf("StandardsUsedAuto = %+v, want only std_dfm_guide", result.StandardsUsedAuto)
	}

	noOverlay, err := engine.Evaluate([]*planner.Plan{cncPlan()}, snapshot, rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() without overlay error = %v", err)
	}
	if len(noOverlay.OverlayRefs) != 0 {
		t.Errorf("OverlayRefs = %+v, want empty without an overlay", noOverlay.OverlayRefs)
	}
}

func TestEvaluateRejectsManualStandards(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	keys := []string{
		"standards_used",
		"standards_used_auto",
		"manual_standards",
		"extra_refs",
		"inject_refs",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			ctx := map[string]any{key: []string{"std_astm_cert"}}
			result, err := engine.Evaluate([]*planner.Plan{cncPlan()}, bundletest.MachinedPartFacts(), rules.ModeFull, ctx)
			if result != nil {
				t.Error("got a result alongside the rejection")
			}
			var merr *rules.ManualStandardsError
			if !errors.As(err, &merr) {
				t.Fatalf("error = %v, want ManualStandardsError", err)
			}
			if merr.Key != key {
				t.Errorf("Key = %q, want %q", merr.Key, key)
			}
		})
	}
}

func TestEvaluateTraceMergesAcrossRoutes(t *testing.T) {
	engine := rules.NewEngine(bundletest.LoadValid(t), nil, nil)

	// Machined facts on the sheet route leave the bend inputs unavailable,
	// producing an evidence gap alongside the cnc route's wall violation.
	result, err := engine.Evaluate([]*planner.Plan{cncPlan(), sheetPlan()}, bundletest.MachinedPartFacts(), rules.ModeFull, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.Routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(result.Routes))
	}
	if result.FindingCountTotal != 2 {
		t.Errorf("FindingCountTotal = %d, want 2", result.FindingCountTotal)
	}

	entry := findTrace(t, result, "std_dfm_guide")
	if entry.RulesConsidered != 4 {
		t.Errorf("RulesConsidered = %d, want 4 summed across routes", entry.RulesConsidered)
	}
	if entry.DesignRiskFindings != 1 || entry.EvidenceGapFindings != 1 {
		t.Errorf("trace = %+v, want one risk and one gap finding", entry)
	}

	// Both routes considered the drawing rule; its counters sum.
	drwTrace := findTrace(t, result, "std_asme_y14_5")
	if drwTrace.RulesConsidered != 2 || drwTrace.ChecksPassed != 2 {
		t.Errorf("std_asme_y14_5 trace = %+v, want counters doubled", drwTrace)
	}
}

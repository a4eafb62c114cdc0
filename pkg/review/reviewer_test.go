package review_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fabrica-hq/vulcan/internal/bundletest"
	"fabrica-hq/vulcan/pkg/review"
	"fabrica-hq/vulcan/pkg/rules"
	"fabrica-hq/vulcan/pkg/telemetry/metrics"
)

func baseRequest() review.Request {
	return review.Request{
		RoleID:     "design_engineer",
		TemplateID: "standard_report",
	}
}

func TestReviewFullPipeline(t *testing.T) {
	b := bundletest.LoadValid(t)
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := review.New(b, nil, review.WithClock(func() time.Time { return fixed }))

	report, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), baseRequest())
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if report.BundleVersion != "2026.08.1" {
		t.Errorf("BundleVersion = %q, want 2026.08.1", report.BundleVersion)
	}
	if report.AnalysisMode != rules.ModeFull {
		t.Errorf("AnalysisMode = %q, want full", report.AnalysisMode)
	}
	if report.GeneratedAt != fixed.Format(time.RFC3339) {
		t.Errorf("GeneratedAt = %q, want fixed clock timestamp", report.GeneratedAt)
	}

	if report.Recommendation == nil || report.Recommendation.ProcessID != "cnc_milling" {
		t.Fatalf("Recommendation = %+v, want cnc_milling", report.Recommendation)
	}
	if len(report.Plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(report.Plans))
	}
	if report.Evaluation == nil || report.Evaluation.FindingCountTotal != 1 {
		t.Fatalf("Evaluation = %+v, want one finding", report.Evaluation)
	}
	if report.Evaluation.Routes[0].Findings[0].RuleID != "dfm_wall_min_thickness" {
		t.Errorf("finding = %q, want dfm_wall_min_thickness", report.Evaluation.Routes[0].Findings[0].RuleID)
	}

	if len(report.Estimates) != 1 {
		t.Fatalf("got %d estimates, want 1", len(report.Estimates))
	}
	estimate := report.Estimates[0]
	if estimate.PlanID != report.Plans[0].PlanID {
		t.Errorf("estimate plan = %q, want %q", estimate.PlanID, report.Plans[0].PlanID)
	}
	// The wall finding feeds the inspection component: 25 base + 6.
	if estimate.Breakdown.Inspection != 31 {
		t.Errorf("Breakdown.Inspection = %v, want 31", estimate.Breakdown.Inspection)
	}
	if report.Comparison != nil {
		t.Error("Comparison set for a single route")
	}
}

func TestReviewRunBothProducesComparison(t *testing.T) {
	b := bundletest.LoadValid(t)
	r := review.New(b, nil)

	req := baseRequest()
	req.ProcessOverride = "sheet_metal"
	req.RunBothIfMismatch = true

	report, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), req)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if !report.HasMismatch || !report.RunBothExecuted {
		t.Fatalf("mismatch flags = %v/%v, want both true", report.HasMismatch, report.RunBothExecuted)
	}
	if report.MismatchBanner == "" {
		t.Error("MismatchBanner empty on a mismatch")
	}
	if len(report.Plans) != 2 || len(report.Estimates) != 2 {
		t.Fatalf("plans/estimates = %d/%d, want 2/2", len(report.Plans), len(report.Estimates))
	}
	if report.Comparison == nil {
		t.Fatal("no Comparison for a dual-route review")
	}
	if report.Comparison.BaselinePlanID != report.Plans[0].PlanID {
		t.Errorf("baseline = %q, want the override route %q", report.Comparison.BaselinePlanID, report.Plans[0].PlanID)
	}
	if len(report.Evaluation.Routes) != 2 {
		t.Errorf("evaluated %d routes, want 2", len(report.Evaluation.Routes))
	}
}

func TestReviewSkipCosting(t *testing.T) {
	b := bundletest.LoadValid(t)
	r := review.New(b, nil)

	req := baseRequest()
	req.SkipCosting = true

	report, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), req)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if report.Estimates != nil || report.Comparison != nil {
		t.Errorf("estimates = %v, comparison = %v, want none with costing skipped", report.Estimates, report.Comparison)
	}
	if report.Evaluation == nil || report.Evaluation.FindingCountTotal != 1 {
		t.Errorf("Evaluation = %+v, want rules still evaluated", report.Evaluation)
	}
}

func TestReviewAnalysisModePropagates(t *testing.T) {
	b := bundletest.LoadValid(t)
	r := review.New(b, nil)

	req := baseRequest()
	req.AnalysisMode = rules.ModeGeometryDFM

	report, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), req)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if report.AnalysisMode != rules.ModeGeometryDFM {
		t.Errorf("AnalysisMode = %q, want geometry_dfm", report.AnalysisMode)
	}
	for _, route := range report.Evaluation.Routes {
		if route.Mode != rules.ModeGeometryDFM {
			t.Errorf("route mode = %q, want geometry_dfm", route.Mode)
		}
	}
}

func TestReviewRepeatedRunsIdentical(t *testing.T) {
	b := bundletest.LoadValid(t)
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := review.New(b, nil, review.WithClock(func() time.Time { return fixed }))

	// Golden-fixture regressions depend on the whole report being
	// reproducible, so the widest shape (dual route, overlay, comparison)
	// must serialize identically across runs.
	req := baseRequest()
	req.ProcessOverride = "sheet_metal"
	req.OverlayID = "aerospace"
	req.RunBothIfMismatch = true

	var runs [][]byte
	for i := 0; i < 2; i++ {
		report, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), req)
		if err != nil {
			t.Fatalf("Review() run %d error = %v", i+1, err)
		}
		data, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("marshaling report %d: %v", i+1, err)
		}
		runs = append(runs, data)
	}

	if !bytes.Equal(runs[0], runs[1]) {
		t.Errorf("repeated Review() output differs:\nfirst:  %s\nsecond: %s", runs[0], runs[1])
	}
}

func TestReviewRejectsManualStandardsContext(t *testing.T) {
	b := bundletest.LoadValid(t)
	r := review.New(b, nil)

	req := baseRequest()
	req.ComponentContext = map[string]any{"manual_standards": []string{"std_astm_cert"}}

	if _, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), req); err == nil {
		t.Fatal("Review() accepted a blocked standards-injection key")
	}
}

func TestReviewRecordsMetrics(t *testing.T) {
	b := bundletest.LoadValid(t)
	reg := prometheus.NewRegistry()
	r := review.New(b, nil, review.WithMetrics(metrics.NewReviewMetrics(reg)))

	if _, err := r.Review(context.Background(), bundletest.MachinedPartFacts(), baseRequest()); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"vulcan_reviews_total", "vulcan_findings_total", "vulcan_estimate_unit_cost"} {
		if !found[name] {
			t.Errorf("metric %s not recorded; gathered %v", name, found)
		}
	}
}

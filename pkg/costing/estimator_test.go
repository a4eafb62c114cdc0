package costing_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"fabrica-hq/vulcan/internal/bundletest"
	"fabrica-hq/vulcan/pkg/costing"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/recommend"
)

func cncRoute() costing.RouteInput {
	return costing.RouteInput{
		PlanID:    "plan_1_ai_recommendation",
		ProcessID: "cnc_milling",
	}
}

func sheetRoute() costing.RouteInput {
	return costing.RouteInput{
		PlanID:    "plan_2_ai_recommendation",
		ProcessID: "sheet_metal",
	}
}

func hasAssumption(estimate *costing.Estimate, substr string) bool {
	for _, a := range estimate.Assumptions {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

func TestPriceMachinedRoute(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	estimates, comparison, err := model.Price([]costing.RouteInput{cncRoute()}, bundletest.MachinedPartFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if comparison != nil {
		t.Error("comparison returned for a single route")
	}
	if len(estimates) != 1 {
		t.Fatalf("got %d estimates, want 1", len(estimates))
	}

	e := estimates[0]
	if e.Currency != "USD" || e.Quantity != 1 {
		t.Errorf("Currency/Quantity = %s/%d, want USD/1", e.Currency, e.Quantity)
	}
	if e.MaterialKey != "aluminum_6061" {
		t.Errorf("MaterialKey = %q, want aluminum_6061 (keyword guess)", e.MaterialKey)
	}

	// Stock-ratio mass: 150 cm3 * 2700 kg/m3 * 1.6 = 0.648 kg, * 6.5/kg
	// * 1.05 scrap = 4.42. Hours 0.25 + 0.3 + 0.15 + 0.12 = 0.82 at 95/h.
	if e.Breakdown.Material != 4.42 {
		t.Errorf("Breakdown.Material = %v, want 4.42", e.Breakdown.Material)
	}
	if e.Breakdown.Process != 77.9 {
		t.Errorf("Breakdown.Process = %v, want 77.90", e.Breakdown.Process)
	}
	if e.Breakdown.Setup != 150 || e.Breakdown.Inspection != 25 {
		t.Errorf("Setup/Inspection = %v/%v, want 150/25", e.Breakdown.Setup, e.Breakdown.Inspection)
	}
	if e.UnitCost != 295.92 || e.TotalCost != 295.92 {
		t.Errorf("UnitCost/TotalCost = %v/%v, want 295.92", e.UnitCost, e.TotalCost)
	}

	// Base 0.9 minus only the missing-supplier-rate penalty.
	if e.Confidence.Value != 0.8 || e.Confidence.Level != recommend.LevelHigh {
		t.Errorf("Confidence = %+v, want 0.8/high", e.Confidence)
	}
	if e.CostRange.Low != 260.41 || e.CostRange.High != 331.43 {
		t.Errorf("CostRange = %+v, want 260.41..331.43 at high uncertainty", e.CostRange)
	}

	wantDrivers := []string{"setup", "process", "inspection", "material"}
	if len(e.CostDrivers) != len(wantDrivers) {
		t.Fatalf("CostDrivers = %v, want %v", e.CostDrivers, wantDrivers)
	}
	for i, d := range wantDrivers {
		if e.CostDrivers[i] != d {
			t.Errorf("CostDrivers[%d] = %q, want %q", i, e.CostDrivers[i], d)
		}
	}

	if !hasAssumption(e, "quantity defaulted to 1") {
		t.Errorf("Assumptions = %v, missing quantity default", e.Assumptions)
	}
}

func TestPriceFindingImpacts(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	route := cncRoute()
	route.FiredRules = map[string]int{"dfm_wall_min_thickness": 1}
	route.FindingTotal = 1

	estimates, _, err := model.Price([]costing.RouteInput{route}, bundletest.MachinedPartFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	e := estimates[0]

	// One finding adds the per-finding inspection charge.
	if e.Breakdown.Inspection != 31 {
		t.Errorf("Breakdown.Inspection = %v, want 31", e.Breakdown.Inspection)
	}
	// The wall-thickness impact raises the process component by its
	// weighted midpoint: 77.90 * (1 + 8.5% * 0.6).
	if e.Breakdown.Process != 81.87 {
		t.Errorf("Breakdown.Process = %v, want 81.87", e.Breakdown.Process)
	}
	if e.UnitCost <= 295.92 {
		t.Errorf("UnitCost = %v, want above the clean-route 295.92", e.UnitCost)
	}
}

func TestPriceCriticalFindingInspection(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	route := cncRoute()
	route.FindingTotal = 2
	route.CriticalFindings = 1

	estimates, _, err := model.Price([]costing.RouteInput{route}, bundletest.MachinedPartFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	// 25 base + 2*6 per finding + 1*18 critical.
	if got := estimates[0].Breakdown.Inspection; got != 55 {
		t.Errorf("Breakdown.Inspection = %v, want 55", got)
	}
}

func TestPriceTwoRouteComparison(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	estimates, comparison, err := model.Price(
		[]costing.RouteInput{cncRoute(), sheetRoute()},
		bundletest.MachinedPartFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if len(estimates) != 2 {
		t.Fatalf("got %d estimates, want 2", len(estimates))
	}
	if comparison == nil {
		t.Fatal("no comparison for two routes")
	}

	if comparison.BaselinePlanID != "plan_1_ai_recommendation" || comparison.CandidatePlanID != "plan_2_ai_recommendation" {
		t.Errorf("comparison plans = %s vs %s", comparison.BaselinePlanID, comparison.CandidatePlanID)
	}
	if comparison.CheaperPlanID != "plan_2_ai_recommendation" {
		t.Errorf("CheaperPlanID = %q, want the sheet route", comparison.CheaperPlanID)
	}
	if comparison.UnitCostDelta >= 0 || comparison.PercentDelta >= 0 {
		t.Errorf("deltas = %v/%v%%, want negative", comparison.UnitCostDelta, comparison.PercentDelta)
	}

	// Dual routes charge the ambiguity penalty on both estimates.
	for _, e := range estimates {
		if e.Confidence.Value > 0.72 {
			t.Errorf("%s Confidence = %v, want ambiguity penalty applied", e.PlanID, e.Confidence.Value)
		}
	}

	// Machined facts lack bend counts and sheet thickness, so the sheet
	// route degrades: skipped coefficient plus stock-ratio fallback.
	sheet := estimates[1]
	if !hasAssumption(sheet, "bend_count") {
		t.Errorf("sheet assumptions = %v, missing skipped coefficient", sheet.Assumptions)
	}
	if !hasAssumption(sheet, "sheet thickness unknown") {
		t.Errorf("sheet assumptions = %v, missing nesting fallback", sheet.Assumptions)
	}
}

func TestPriceComparisonTieFavorsBaseline(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	// Same process on both routes produces identical estimates.
	second := cncRoute()
	second.PlanID = "plan_2_ai_recommendation"

	_, comparison, err := model.Price(
		[]costing.RouteInput{cncRoute(), second},
		bundletest.MachinedPartFacts(), nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if comparison.CheaperPlanID != "plan_1_ai_recommendation" {
		t.Errorf("CheaperPlanID = %q, want the baseline on a tie", comparison.CheaperPlanID)
	}
	if comparison.UnitCostDelta != 0 || comparison.PercentDelta != 0 {
		t.Errorf("deltas = %v/%v, want zero", comparison.UnitCostDelta, comparison.PercentDelta)
	}
}

func TestPriceQuantityResolution(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	tests := []struct {
		name         string
		ctx          map[string]any
		facts        facts.Map
		wantQuantity int
	}{
		{
			name:         "context override wins",
			ctx:          map[string]any{"quantity": 10},
			facts:        facts.Map{"quantity": facts.Number(3), "material": facts.String("aluminum")},
			wantQuantity: 10,
		},
		{
			name:         "facts quantity",
			facts:        facts.Map{"quantity": facts.Number(3), "material": facts.String("aluminum")},
			wantQuantity: 3,
		},
		{
			name:         "fractional context floors at one",
			ctx:          map[string]any{"quantity": 0.4},
			facts:        facts.Map{"material": facts.String("aluminum")},
			wantQuantity: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := facts.NewSnapshot(tt.facts, nil)
			estimates, _, err := model.Price([]costing.RouteInput{cncRoute()}, snapshot, tt.ctx, nil)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			e := estimates[0]
			if e.Quantity != tt.wantQuantity {
				t.Errorf("Quantity = %d, want %d", e.Quantity, tt.wantQuantity)
			}
			// Setup amortizes across the quantity.
			wantSetup := 150.0 / float64(tt.wantQuantity)
			if math.Abs(e.Breakdown.Setup-wantSetup) > 0.01 {
				t.Errorf("Breakdown.Setup = %v, want %v", e.Breakdown.Setup, wantSetup)
			}
		})
	}
}

func TestPriceNegativeQuantityRejected(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	ctx := map[string]any{"quantity": -5}
	_, _, err := model.Price([]costing.RouteInput{cncRoute()}, bundletest.MachinedPartFacts(), ctx, nil)

	var eerr *costing.EstimationError
	if !errors.As(err, &eerr) {
		t.Fatalf("error = %v, want EstimationError", err)
	}
	if eerr.Field != "quantity" {
		t.Errorf("Field = %q, want quantity", eerr.Field)
	}
}

func TestPriceSupplierProfile(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	profile := &costing.SupplierProfile{
		ProcessRates: map[string]costing.ProcessRateOverride{
			"cnc_milling": {HourlyRate: 120, SetupCost: 200},
		},
	}

	estimates, _, err := model.Price([]costing.RouteInput{cncRoute()}, bundletest.MachinedPartFacts(), nil, profile)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	e := estimates[0]

	if e.Breakdown.Process != 98.4 {
		t.Errorf("Breakdown.Process = %v, want 98.40 at the supplier rate", e.Breakdown.Process)
	}
	if e.Breakdown.Setup != 200 {
		t.Errorf("Breakdown.Setup = %v, want supplier setup 200", e.Breakdown.Setup)
	}
	// With a supplier rate and known material, no penalty applies.
	if e.Confidence.Value != 0.9 || e.Confidence.Level != recommend.LevelHigh {
		t.Errorf("Confidence = %+v, want 0.9/high", e.Confidence)
	}
}

func TestPriceRejectsNegativeSupplierRate(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	profile := &costing.SupplierProfile{
		ProcessRates: map[string]costing.ProcessRateOverride{
			"cnc_milling": {HourlyRate: -1},
		},
	}
	_, _, err := model.Price([]costing.RouteInput{cncRoute()}, bundletest.MachinedPartFacts(), nil, profile)

	var eerr *costing.EstimationError
	if !errors.As(err, &eerr) {
		t.Fatalf("error = %v, want EstimationError", err)
	}
}

func TestPriceUnknownMaterialDegrades(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	// An explicit key outside the catalog prices on catalog averages and
	// charges the missing-density penalty.
	ctx := map[string]any{"material_key": "titanium_6al4v"}
	estimates, _, err := model.Price([]costing.RouteInput{cncRoute()}, bundletest.MachinedPartFacts(), ctx, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	e := estimates[0]

	if e.MaterialKey != "titanium_6al4v" {
		t.Errorf("MaterialKey = %q, want the requested key", e.MaterialKey)
	}
	if !hasAssumption(e, "catalog average") {
		t.Errorf("Assumptions = %v, missing catalog-average fallback", e.Assumptions)
	}
	// 0.9 - 0.15 (density) - 0.1 (supplier rate) = 0.65, medium band.
	if e.Confidence.Value != 0.65 || e.Confidence.Level != recommend.LevelMedium {
		t.Errorf("Confidence = %+v, want 0.65/medium", e.Confidence)
	}
}

func TestPriceEmptyFactsStillEstimates(t *testing.T) {
	model := costing.NewModel(bundletest.LoadValid(t), nil)

	snapshot := facts.NewSnapshot(facts.Map{}, nil)
	estimates, _, err := model.Price([]costing.RouteInput{cncRoute()}, snapshot, nil, nil)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	e := estimates[0]

	if e.UnitCost <= 0 {
		t.Errorf("UnitCost = %v, want a positive degraded estimate", e.UnitCost)
	}
	if !hasAssumption(e, "bounding box") {
		t.Errorf("Assumptions = %v, missing geometry inference", e.Assumptions)
	}
	// Defaulted geometry, unmatched material, no supplier rate: the score
	// drops to the low band.
	if e.Confidence.Level == recommend.LevelHigh {
		t.Errorf("Confidence = %+v, want degraded below high", e.Confidence)
	}
}

package recommend_test

import (
	"errors"
	"math"
	"testing"

	"fabrica-hq/vulcan/internal/bundletest"
	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/recommend"
)

func TestRecommendMachinedPart(t *testing.T) {
	b := bundletest.LoadValid(t)
	r := recommend.New(b, nil)

	rec, err := r.Recommend(bundletest.MachinedPartFacts())
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if rec.ProcessID != "cnc_milling" {
		t.Errorf("ProcessID = %q, want cnc_milling", rec.ProcessID)
	}
	// Baseline 0.5 plus the two CNC heuristics (0.3 and 0.05).
	if math.Abs(rec.Score-0.85) > 1e-9 {
		t.Errorf("Score = %v, want 0.85", rec.Score)
	}
	if rec.Level != recommend.LevelHigh {
		t.Errorf("Level = %q, want high", rec.Level)
	}
	if len(rec.Reasons) == 0 || rec.Reasons[0] != "part has machined pockets" {
		t.Errorf("Reasons = %v, want heuristic reasons in firing order", rec.Reasons)
	}
	if len(rec.Ranking) != 2 {
		t.Fatalf("Ranking has %d entries, want 2", len(rec.Ranking))
	}
	if rec.Ranking[1].ProcessID != "sheet_metal" || rec.Ranking[1].Score != 0.5 {
		t.Errorf("Ranking[1] = %+v, want sheet_metal at baseline", rec.Ranking[1])
	}
}

func TestRecommendSheetPart(t *testing.T) {
	b := bundletest.LoadValid(t)
	rec, err := recommend.New(b, nil).Recommend(bundletest.SheetPartFacts())
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if rec.ProcessID != "sheet_metal" {
		t.Errorf("ProcessID = %q, want sheet_metal", rec.ProcessID)
	}
	if rec.Level != recommend.LevelMedium {
		t.Errorf("Level = %q, want medium for score %v", rec.Level, rec.Score)
	}
}

func TestRecommendNoHeuristicsMatched(t *testing.T) {
	b := bundletest.LoadValid(t)
	snapshot := facts.NewSnapshot(facts.Map{}, nil)

	rec, err := recommend.New(b, nil).Recommend(snapshot)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if rec.Score != recommend.BaselineScore {
		t.Errorf("Score = %v, want baseline %v", rec.Score, recommend.BaselineScore)
	}
	if rec.Level != recommend.LevelLow {
		t.Errorf("Level = %q, want low", rec.Level)
	}
	// With every score at baseline, the lexicographically smallest
	// process id wins.
	if rec.ProcessID != "cnc_milling" {
		t.Errorf("ProcessID = %q, want deterministic cnc_milling", rec.ProcessID)
	}
	if len(rec.Reasons) != 1 || rec.Reasons[0] == "" {
		t.Errorf("Reasons = %v, want the single default reason", rec.Reasons)
	}
}

func TestRecommendBoostClamped(t *testing.T) {
	spec := bundletest.Valid()
	spec.Heuristics = append(spec.Heuristics,
		bundle.Heuristic{ProcessID: "cnc_milling", ConditionsAll: []string{"pocket_count"}, ConfidenceBoost: 0.9, Reasons: []string{"heavy machining signature"}},
	)
	b := spec.Load(t)

	rec, err := recommend.New(b, nil).Recommend(bundletest.MachinedPartFacts())
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Score != 1.0 {
		t.Errorf("Score = %v, want clamped to 1.0", rec.Score)
	}
}

func TestRecommendDuplicateReasonsDeduplicated(t *testing.T) {
	spec := bundletest.Valid()
	spec.Heuristics = append(spec.Heuristics,
		bundle.Heuristic{ProcessID: "cnc_milling", ConditionsAll: []string{"hole_count"}, ConfidenceBoost: 0.1, Reasons: []string{"part has machined pockets"}},
	)
	b := spec.Load(t)

	rec, err := recommend.New(b, nil).Recommend(bundletest.MachinedPartFacts())
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	seen := make(map[string]int)
	for _, reason := range rec.Reasons {
		seen[reason]++
	}
	if seen["part has machined pockets"] != 1 {
		t.Errorf("duplicate reason not deduplicated: %v", rec.Reasons)
	}
}

func TestRecommendNoProcessFamilies(t *testing.T) {
	spec := bundletest.Valid()
	spec.Processes = nil
	spec.Heuristics = nil
	spec.CostModel.ProcessModels = nil
	b := spec.Load(t)

	_, err := recommend.New(b, nil).Recommend(bundletest.MachinedPartFacts())
	if !errors.Is(err, recommend.ErrNoProcessFamilies) {
		t.Fatalf("Recommend() error = %v, want ErrNoProcessFamilies", err)
	}
}

package costing

import "math"

// compare produces the pairwise route comparison. The first estimate is
// the baseline; a unit-cost tie favors it.
func compare(baseline, candidate *Estimate) *Comparison {
	cheaper := baseline.PlanID
	if candidate.UnitCost < baseline.UnitCost {
		cheaper = candidate.PlanID
	}

	percentDelta := 0.0
	if baseline.TotalCost != 0 {
		percentDelta = (candidate.TotalCost - baseline.TotalCost) / baseline.TotalCost * 100
	}

	return &Comparison{
		BaselinePlanID:  baseline.PlanID,
		CandidatePlanID: candidate.PlanID,
		UnitCostDelta:   round2(candidate.UnitCost - baseline.UnitCost),
		TotalCostDelta:  round2(candidate.TotalCost - baseline.TotalCost),
		PercentDelta:    math.Round(percentDelta*100) / 100,
		CheaperPlanID:   cheaper,
	}
}

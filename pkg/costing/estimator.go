package costing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/recommend"
)

// Model prices routes against the bundle's cost model. It holds only
// immutable state and is safe for concurrent use.
type Model struct {
	bundle *bundle.Bundle
	logger *slog.Logger
}

// NewModel creates a cost model over a validated bundle.
func NewModel(b *bundle.Bundle, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		bundle: b,
		logger: logger.With("component", "costing"),
	}
}

// Price estimates every route and, when exactly two routes are priced,
// compares them pairwise. Three or more routes return no comparison:
// the planner never emits more than two.
func (m *Model) Price(routes []RouteInput, snapshot *facts.Snapshot, componentContext map[string]any, profile *SupplierProfile) ([]*Estimate, *Comparison, error) {
	if err := validateProfile(profile); err != nil {
		return nil, nil, err
	}

	estimates := make([]*Estimate, 0, len(routes))
	for _, route := range routes {
		estimate, err := m.priceRoute(route, snapshot, componentContext, profile, len(routes) > 1)
		if err != nil {
			return nil, nil, err
		}
		estimates = append(estimates, estimate)
	}

	var comparison *Comparison
	if len(estimates) == 2 {
		comparison = compare(estimates[0], estimates[1])
	}

	return estimates, comparison, nil
}

// priceRoute estimates one route.
func (m *Model) priceRoute(route RouteInput, snapshot *facts.Snapshot, componentContext map[string]any, profile *SupplierProfile, ambiguousRoute bool) (*Estimate, error) {
	defaults := m.bundle.CostModel.GlobalDefaults
	var assumptions []string

	quantity, err := m.resolveQuantity(snapshot.Facts, componentContext, &assumptions)
	if err != nil {
		return nil, err
	}

	geo := deriveGeometry(snapshot.Facts, defaults, &assumptions)
	material := resolveMaterial(m.bundle, snapshot.Facts, componentContext, profile, &assumptions)

	processModel, hasProcessModel := m.bundle.ProcessModel(route.ProcessID)
	if !hasProcessModel {
		assumptions = append(assumptions,
			fmt.Sprintf("no cost model for process %q, pricing with zero-rate placeholder", route.ProcessID))
	}

	hourlyRate := processModel.HourlyRate
	setupCost := processModel.SetupCost
	supplierRateUsed := false
	if profile != nil {
		if override, ok := profile.ProcessRates[route.ProcessID]; ok {
			if override.HourlyRate > 0 {
				hourlyRate = override.HourlyRate
				supplierRateUsed = true
			}
			if override.SetupCost > 0 {
				setupCost = override.SetupCost
			}
		}
	}

	hours, skippedCoefficients := machineHours(processModel, geo, &assumptions)

	mass := purchasedMass(processModel, geo, material, &assumptions)
	materialCost := mass * material.rate * (1 + defaults.ScrapFactor)
	processCost := hours * hourlyRate
	setupPerUnit := setupCost / float64(quantity)
	inspectionCost := defaults.InspectionBase +
		defaults.InspectionFinding*float64(route.FindingTotal) +
		defaults.InspectionCritical*float64(route.CriticalFindings)

	multipliers := m.impactMultipliers(route.FiredRules)
	materialCost *= multipliers[bundle.ImpactMaterial]
	processCost *= multipliers[bundle.ImpactProcess]
	setupPerUnit *= multipliers[bundle.ImpactSetup]
	inspectionCost *= multipliers[bundle.ImpactInspection]

	componentSum := materialCost + processCost + setupPerUnit + inspectionCost
	overheadFactor := defaults.OverheadFactor
	if overheadFactor < 1 {
		overheadFactor = 1
	}
	unitCost := componentSum * overheadFactor
	totalCost := unitCost * float64(quantity)

	confidence := m.confidence(confidenceInputs{
		materialKnown:     material.densityKnown,
		supplierRateUsed:  supplierRateUsed,
		defaultedGeometry: geo.defaulted,
		ambiguousRoute:    ambiguousRoute,
		missingFeatures:   skippedCoefficients > 0,
	})

	uncertainty := uncertaintyFor(confidence.Level)

	estimate := &Estimate{
		PlanID:      route.PlanID,
		ProcessID:   route.ProcessID,
		Currency:    m.bundle.CostModel.Currency,
		Quantity:    quantity,
		MaterialKey: material.key,
		UnitCost:    round2(unitCost),
		TotalCost:   round2(totalCost),
		CostRange: CostRange{
			Low:  round2(totalCost * (1 - uncertainty)),
			High: round2(totalCost * (1 + uncertainty)),
		},
		Confidence:  confidence,
		CostDrivers: costDrivers(materialCost, processCost, setupPerUnit, inspectionCost),
		Breakdown: Breakdown{
			Material:   round2(materialCost),
			Process:    round2(processCost),
			Setup:      round2(setupPerUnit),
			Inspection: round2(inspectionCost),
			Overhead:   round2(componentSum * (overheadFactor - 1)),
		},
		Assumptions: assumptions,
	}

	m.logger.Debug("route priced",
		"plan_id", route.PlanID,
		"process_id", route.ProcessID,
		"unit_cost", estimate.UnitCost,
		"confidence", confidence.Value,
	)

	return estimate, nil
}

// resolveQuantity walks context override > facts > model default, floored
// at one unit.
func (m *Model) resolveQuantity(factMap facts.Map, componentContext map[string]any, assumptions *[]string) (int, error) {
	if n, ok := contextNumber(componentContext, "quantity"); ok {
		if n < 0 {
			return 0, &EstimationError{Field: "quantity", Value: n, Message: "must not be negative"}
		}
		return floorQuantity(n), nil
	}
	if n, ok := factMap.Number("quantity"); ok && n > 0 {
		return floorQuantity(n), nil
	}

	quantity := m.bundle.CostModel.GlobalDefaults.DefaultQuantity
	if quantity < 1 {
		quantity = 1
	}
	*assumptions = append(*assumptions, fmt.Sprintf("quantity defaulted to %d", quantity))
	return quantity, nil
}

func floorQuantity(n float64) int {
	quantity := int(n)
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// machineHours computes base hours plus the coefficient terms. A
// coefficient whose feature is unresolvable for this part is skipped and
// logged; the count of skips feeds the missing-process-features penalty.
func machineHours(pm bundle.ProcessCostModel, geo *geometry, assumptions *[]string) (hours float64, skipped int) {
	hours = pm.BaseHours

	names := make([]string, 0, len(pm.Coefficients))
	for name := range pm.Coefficients {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := geo.feature(name)
		if !ok {
			skipped++
			*assumptions = append(*assumptions,
				fmt.Sprintf("throughput coefficient %q skipped: feature not resolvable", name))
			continue
		}
		hours += pm.Coefficients[name] * value
	}
	return hours, skipped
}

// purchasedMass converts part geometry to purchased material mass in kg via
// the process's mass model.
func purchasedMass(pm bundle.ProcessCostModel, geo *geometry, material resolvedMaterial, assumptions *[]string) float64 {
	// volume cm3 -> m3
	partVolumeM3 := geo.volume / 1e6
	netMass := partVolumeM3 * material.density

	switch pm.MassModel {
	case bundle.MassModelSheetNesting:
		utilization := pm.SheetUtilization
		if utilization <= 0 || utilization > 1 {
			utilization = 0.7
			*assumptions = append(*assumptions, "sheet utilization unset, assumed 0.70")
		}
		thickness := geo.sheetThickness
		if thickness <= 0 {
			*assumptions = append(*assumptions, "sheet thickness unknown, nesting model fell back to stock ratio")
			return netMass * stockRatioOr(pm, assumptions)
		}
		// Nested blank: bbox footprint over utilization.
		blankAreaM2 := geo.bboxX * geo.bboxY / 1e6
		blankVolumeM3 := blankAreaM2 * thickness / 1e3
		return blankVolumeM3 * material.density / utilization

	case bundle.MassModelCutLength:
		allowance := pm.CutAllowance
		if allowance < 0 {
			allowance = 0
		}
		return netMass * (1 + allowance)

	default:
		return netMass * stockRatioOr(pm, assumptions)
	}
}

// stockRatioOr returns the configured stock ratio or a conservative 1.5.
func stockRatioOr(pm bundle.ProcessCostModel, assumptions *[]string) float64 {
	if pm.StockRatio > 0 {
		return pm.StockRatio
	}
	*assumptions = append(*assumptions, "stock ratio unset, assumed 1.5")
	return 1.5
}

// impactMultipliers accumulates the finding-driven cost multipliers per
// component. Only rules that fired on this route contribute.
func (m *Model) impactMultipliers(firedRules map[string]int) map[string]float64 {
	multipliers := map[string]float64{
		bundle.ImpactMaterial:   1,
		bundle.ImpactProcess:    1,
		bundle.ImpactSetup:      1,
		bundle.ImpactInspection: 1,
	}

	for _, impact := range m.bundle.CostModel.FindingImpacts {
		if firedRules[impact.RuleID] == 0 {
			continue
		}
		midpoint := (impact.PercentLow + impact.PercentHigh) / 2 / 100
		multipliers[impact.ImpactType] += midpoint * impact.ImpactWeight
	}
	return multipliers
}

// confidenceInputs flags the degradations a route's estimate suffered.
type confidenceInputs struct {
	materialKnown     bool
	supplierRateUsed  bool
	defaultedGeometry bool
	ambiguousRoute    bool
	missingFeatures   bool
}

// confidence applies the bundle's confidence policy: base minus weighted
// penalties, clamped, then banded.
func (m *Model) confidence(in confidenceInputs) Confidence {
	policy := m.bundle.CostModel.ConfidencePolicy
	value := policy.BaseConfidence
	if value == 0 {
		value = 0.9
	}

	penalty := func(key string) float64 { return policy.Penalties[key] }

	if !in.materialKnown {
		value -= penalty(bundle.PenaltyMissingDensity)
	}
	if !in.supplierRateUsed {
		value -= penalty(bundle.PenaltyMissingSupplierRate)
	}
	if in.defaultedGeometry {
		value -= penalty(bundle.PenaltyDefaultedGeometry)
	}
	if in.ambiguousRoute {
		value -= penalty(bundle.PenaltyRouteAmbiguity)
	}
	if in.missingFeatures {
		value -= penalty(bundle.PenaltyMissingProcessFeatures)
	}

	value = math.Min(math.Max(value, ConfidenceFloor), ConfidenceCeiling)

	high := policy.HighBand
	medium := policy.MediumBand
	if high == 0 {
		high = recommend.DefaultHighThreshold
	}
	if medium == 0 {
		medium = recommend.DefaultMediumThreshold
	}

	level := recommend.LevelLow
	switch {
	case value >= high:
		level = recommend.LevelHigh
	case value >= medium:
		level = recommend.LevelMedium
	}

	return Confidence{Value: round4(value), Level: level}
}

// uncertaintyFor maps a confidence level to its symmetric range fraction.
func uncertaintyFor(level string) float64 {
	switch level {
	case recommend.LevelHigh:
		return UncertaintyHigh
	case recommend.LevelMedium:
		return UncertaintyMedium
	default:
		return UncertaintyLow
	}
}

// costDrivers names the components in descending contribution order.
func costDrivers(material, process, setup, inspection float64) []string {
	type driver struct {
		name  string
		value float64
	}
	drivers := []driver{
		{bundle.ImpactMaterial, material},
		{bundle.ImpactProcess, process},
		{bundle.ImpactSetup, setup},
		{bundle.ImpactInspection, inspection},
	}
	sort.SliceStable(drivers, func(i, j int) bool { return drivers[i].value > drivers[j].value })

	out := make([]string, 0, len(drivers))
	for _, d := range drivers {
		if d.value > 0 {
			out = append(out, d.name)
		}
	}
	return out
}

// validateProfile rejects malformed supplier tuning values.
func validateProfile(profile *SupplierProfile) error {
	if profile == nil {
		return nil
	}
	for processID, override := range profile.ProcessRates {
		if override.HourlyRate < 0 {
			return &EstimationError{Field: "process_rates." + processID + ".hourly_rate", Value: override.HourlyRate, Message: "must not be negative"}
		}
		if override.SetupCost < 0 {
			return &EstimationError{Field: "process_rates." + processID + ".setup_cost", Value: override.SetupCost, Message: "must not be negative"}
		}
	}
	for key, override := range profile.MaterialRates {
		if override.RatePerKg < 0 {
			return &EstimationError{Field: "material_rates." + key + ".rate_per_kg", Value: override.RatePerKg, Message: "must not be negative"}
		}
		if override.DensityKg < 0 {
			return &EstimationError{Field: "material_rates." + key + ".density_kg_m3", Value: override.DensityKg, Message: "must not be negative"}
		}
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

package costing

// Confidence level to symmetric uncertainty fraction applied to unit and
// total cost for the estimate range.
const (
	UncertaintyHigh   = 0.12
	UncertaintyMedium = 0.22
	UncertaintyLow    = 0.38
)

// Confidence clamp bounds.
const (
	ConfidenceFloor   = 0.05
	ConfidenceCeiling = 0.99
)

// materialUnknown is the material key used when nothing in the catalog,
// context, or facts identifies the material.
const materialUnknown = "material_unknown"

// CostRange is the symmetric uncertainty band around the estimate.
type CostRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Confidence is the estimate's continuous score and its coarse band.
type Confidence struct {
	Value float64 `json:"value"`
	Level string  `json:"level"`
}

// Breakdown splits unit cost into its components, after impact multipliers
// and before the overhead factor.
type Breakdown struct {
	Material   float64 `json:"material"`
	Process    float64 `json:"process"`
	Setup      float64 `json:"setup"`
	Inspection float64 `json:"inspection"`
	Overhead   float64 `json:"overhead"`
}

// Estimate is the priced output for one route.
type Estimate struct {
	PlanID      string     `json:"plan_id"`
	ProcessID   string     `json:"process_id"`
	Currency    string     `json:"currency"`
	Quantity    int        `json:"quantity"`
	MaterialKey string     `json:"material_key"`
	UnitCost    float64    `json:"unit_cost"`
	TotalCost   float64    `json:"total_cost"`
	CostRange   CostRange  `json:"cost_range"`
	Confidence  Confidence `json:"confidence"`
	CostDrivers []string   `json:"cost_drivers"`
	Breakdown   Breakdown  `json:"breakdown"`

	// Assumptions logs every graceful-degradation fallback taken.
	Assumptions []string `json:"assumptions"`
}

// Comparison is the pairwise result when exactly two routes are priced.
// Ties favor the baseline (first) route.
type Comparison struct {
	BaselinePlanID  string  `json:"baseline_plan_id"`
	CandidatePlanID string  `json:"candidate_plan_id"`
	UnitCostDelta   float64 `json:"unit_cost_delta"`
	TotalCostDelta  float64 `json:"total_cost_delta"`
	PercentDelta    float64 `json:"percent_delta"`
	CheaperPlanID   string  `json:"cheaper_plan_id"`
}

// SupplierProfile carries optional per-supplier rate overrides, read-only
// input to the model.
type SupplierProfile struct {
	ProcessRates  map[string]ProcessRateOverride `json:"process_rates"`
	MaterialRates map[string]MaterialOverride    `json:"material_rates"`
}

// ProcessRateOverride overrides a process model's rates.
type ProcessRateOverride struct {
	HourlyRate float64 `json:"hourly_rate"`
	SetupCost  float64 `json:"setup_cost"`
}

// MaterialOverride overrides a catalog material's rate or density.
type MaterialOverride struct {
	RatePerKg float64 `json:"rate_per_kg"`
	DensityKg float64 `json:"density_kg_m3"`
}

// RouteInput is what the model needs to price one route: the plan identity
// and the findings that fired on it.
type RouteInput struct {
	PlanID    string
	ProcessID string

	// FiredRules maps rule id to the count of findings that fired for it
	// on this route.
	FiredRules map[string]int

	// FindingTotal and CriticalFindings drive the inspection component.
	FindingTotal     int
	CriticalFindings int
}

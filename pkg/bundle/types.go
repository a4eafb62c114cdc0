package bundle

// Severity levels used by rules. Critical findings carry extra inspection
// cost weight in the cost model.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
)

// validSeverities is the closed severity set accepted at load time.
var validSeverities = map[string]struct{}{
	SeverityCritical: {},
	SeverityMajor:    {},
	SeverityMinor:    {},
}

// Rule is one manufacturability check. Its violation logic is a fixed
// evaluator registered by rule_id in the rules engine; CheckLogic is
// descriptive metadata only and is never executed.
type Rule struct {
	RuleID         string             `json:"rule_id"`
	PackID         string             `json:"pack_id"`
	Title          string             `json:"title"`
	Severity       string             `json:"severity"`
	InputsRequired []string           `json:"inputs_required"`
	Refs           []string           `json:"refs"`
	FixTemplate    string             `json:"fix_template"`
	Thresholds     map[string]float64 `json:"thresholds"`
	CheckLogic     CheckLogic         `json:"check_logic"`
}

// CheckLogic describes a rule's check for report rendering. Descriptive only.
type CheckLogic struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Pack is a named, orderable group of rules.
type Pack struct {
	PackID string `json:"pack_id"`
	Label  string `json:"label"`
}

// Reference is one entry in the standards catalog.
type Reference struct {
	RefID string `json:"ref_id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
	Notes string `json:"notes"`
}

// ProcessFamily is one candidate manufacturing process.
type ProcessFamily struct {
	ProcessID    string   `json:"process_id"`
	Label        string   `json:"label"`
	DefaultPacks []string `json:"default_packs"`
}

// Heuristic is one recommender scoring entry. Condition strings use the
// flat " and "/" or " token grammar evaluated against the fact map.
type Heuristic struct {
	ProcessID       string   `json:"process_id"`
	ConditionsAll   []string `json:"conditions_all"`
	ConditionsAny   []string `json:"conditions_any"`
	ConditionsNot   []string `json:"conditions_not"`
	ConfidenceBoost float64  `json:"confidence_boost"`
	Reasons         []string `json:"reasons"`
}

// Overlay is an optional compliance or industry lens layered on a review.
type Overlay struct {
	OverlayID           string   `json:"overlay_id"`
	Label               string   `json:"label"`
	AddsRulesPack       string   `json:"adds_rules_pack"`
	AddsRefs            []string `json:"adds_refs"`
	RulePrefixes        []string `json:"rule_prefixes"`
	ExtraReportSections []string `json:"extra_report_sections"`
}

// Role identifies the reviewing audience for report shaping.
type Role struct {
	RoleID      string `json:"role_id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ReportTemplate declares the report sections available to a review.
type ReportTemplate struct {
	TemplateID string            `json:"template_id"`
	Label      string            `json:"label"`
	Sections   []TemplateSection `json:"sections"`
}

// TemplateSection is one report section. A section with OverlayRequired is
// suppressed unless that overlay is selected.
type TemplateSection struct {
	SectionID        string `json:"section_id"`
	Title            string `json:"title"`
	OverlayRequired  string `json:"overlay_required,omitempty"`
	EnabledByDefault bool   `json:"enabled_by_default"`
}

// Manifest declares bundle identity, the base drawing pack, expected table
// counts, recommendation thresholds, and the dual-route mismatch policy.
type Manifest struct {
	BundleVersion   string `json:"bundle_version"`
	BaseDrawingPack string `json:"base_drawing_pack"`

	ExpectedRuleCount      int            `json:"expected_rule_count"`
	ExpectedPackRuleCounts map[string]int `json:"expected_pack_rule_counts"`
	ExpectedReferenceCount int            `json:"expected_reference_count"`
	ExpectedRoleCount      int            `json:"expected_role_count"`
	ExpectedTemplateCount  int            `json:"expected_template_count"`

	Recommendation RecommendationPolicy `json:"recommendation"`
	Mismatch       MismatchPolicy       `json:"mismatch_policy"`
}

// RecommendationPolicy holds the confidence banding thresholds for the
// process recommender.
type RecommendationPolicy struct {
	HighThreshold   float64 `json:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold"`
}

// MismatchPolicy governs dual-route evaluation when a user-selected process
// disagrees with the recommender.
type MismatchPolicy struct {
	AllowRunBoth   bool   `json:"allow_run_both"`
	ShowBanner     bool   `json:"show_banner"`
	BannerTemplate string `json:"banner_template"`
}

// CostModel is the pricing configuration table.
type CostModel struct {
	Currency         string                      `json:"currency"`
	GlobalDefaults   GlobalCostDefaults          `json:"global_defaults"`
	ProcessModels    map[string]ProcessCostModel `json:"process_models"`
	Materials        map[string]Material         `json:"materials"`
	ConfidencePolicy ConfidencePolicy            `json:"confidence_policy"`
	FindingImpacts   []FindingCostImpact         `json:"finding_cost_impacts"`
}

// GlobalCostDefaults are the graceful-degradation fallbacks shared by all
// process models.
type GlobalCostDefaults struct {
	DefaultQuantity    int     `json:"default_quantity"`
	ScrapFactor        float64 `json:"scrap_factor"`
	OverheadFactor     float64 `json:"overhead_factor"`
	InspectionBase     float64 `json:"inspection_base"`
	InspectionFinding  float64 `json:"inspection_per_finding"`
	InspectionCritical float64 `json:"inspection_per_critical_finding"`

	// VolumeBBoxRatio and AreaBBoxRatio infer missing part volume and
	// surface area from bounding-box dimensions.
	VolumeBBoxRatio float64 `json:"volume_bbox_ratio"`
	AreaBBoxRatio   float64 `json:"area_bbox_ratio"`

	// DefaultMetric is the last-resort value for any geometry metric that
	// cannot be derived at all.
	DefaultMetric float64 `json:"default_metric"`
}

// Mass models supported by ProcessCostModel.MassModel.
const (
	MassModelStockRatio   = "stock_ratio"
	MassModelSheetNesting = "sheet_nesting"
	MassModelCutLength    = "cut_length"
)

// ProcessCostModel is the per-process throughput and rate configuration.
// Coefficients map geometry feature names to machine-hour contributions.
type ProcessCostModel struct {
	HourlyRate   float64            `json:"hourly_rate"`
	SetupCost    float64            `json:"setup_cost"`
	BaseHours    float64            `json:"base_hours"`
	Coefficients map[string]float64 `json:"coefficients"`

	MassModel        string  `json:"mass_model"`
	StockRatio       float64 `json:"stock_ratio"`
	SheetUtilization float64 `json:"sheet_utilization"`
	CutAllowance     float64 `json:"cut_allowance"`
}

// Material is one entry in the material catalog. Keywords drive free-text
// material guessing when the caller supplies no explicit key.
type Material struct {
	Label     string   `json:"label"`
	DensityKg float64  `json:"density_kg_m3"`
	RatePerKg float64  `json:"rate_per_kg"`
	Keywords  []string `json:"keywords"`
}

// ConfidencePolicy configures the cost confidence score and its banding.
type ConfidencePolicy struct {
	BaseConfidence float64            `json:"base_confidence"`
	Penalties      map[string]float64 `json:"penalties"`
	HighBand       float64            `json:"high_band"`
	MediumBand     float64            `json:"medium_band"`
}

// Confidence penalty keys recognized by the cost model.
const (
	PenaltyMissingDensity         = "missing_material_density"
	PenaltyMissingSupplierRate    = "missing_supplier_rate"
	PenaltyDefaultedGeometry      = "defaulted_geometry"
	PenaltyRouteAmbiguity         = "route_ambiguity"
	PenaltyMissingProcessFeatures = "missing_process_features"
)

// Cost impact types referenced by FindingCostImpact.
const (
	ImpactMaterial   = "material"
	ImpactProcess    = "process"
	ImpactSetup      = "setup"
	ImpactInspection = "inspection"
)

// FindingCostImpact ties a fired rule to a cost component multiplier.
type FindingCostImpact struct {
	RuleID       string  `json:"rule_id"`
	ImpactType   string  `json:"impact_type"`
	PercentLow   float64 `json:"percent_low"`
	PercentHigh  float64 `json:"percent_high"`
	ImpactWeight float64 `json:"impact_weight"`
}

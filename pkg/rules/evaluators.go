package rules

// Default rule catalog evaluator ids. Bundles may carry additional rules
// without evaluators; those tally as unresolved instead of producing
// findings.
const (
	// Geometry / machining
	RuleWallMinThickness     = "dfm_wall_min_thickness"
	RuleHoleDepthRatio       = "dfm_hole_depth_ratio"
	RuleInternalCornerRadius = "dfm_internal_corner_radius"
	RulePocketAspectRatio    = "dfm_pocket_aspect_ratio"
	RuleThinFeatureRisk      = "dfm_thin_feature_risk"

	// Sheet metal
	RuleBendRadiusMin = "sm_bend_radius_min"
	RuleHoleToEdge    = "sm_hole_to_edge_distance"

	// Molding / casting
	RuleDraftAngleMin  = "im_draft_angle_min"
	RuleWallUniformity = "im_wall_uniformity"
	RuleCastMinSection = "cast_min_section"

	// Fabrication
	RuleWeldAccessClearance = "weld_access_clearance"

	// Drawing / document
	RuleToleranceCapability = "drw_tolerance_capability"
	RuleSurfaceFinishLimit  = "drw_surface_finish_limit"
	RuleMaterialCertMissing = "compliance_material_cert"
)

// DefaultRegistry returns the registry holding the built-in DFM rule
// evaluators. Each entry is a pure threshold or signal check over the part
// facts; the thresholds themselves come from the bundle rule.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Walls thinner than the process/material floor tear, warp, or burn
	// through.
	r.MustRegister(RuleWallMinThickness, minEvaluator("min_wall_thickness_mm", "min_wall_mm"))

	// Deep narrow holes exceed practical drill reach.
	r.MustRegister(RuleHoleDepthRatio, maxEvaluator("hole_max_depth_diameter_ratio", "max_ratio"))

	// Sharp internal corners force undersized cutters.
	r.MustRegister(RuleInternalCornerRadius, minEvaluator("min_internal_corner_radius_mm", "min_radius_mm"))

	// Deep pockets relative to their width chatter and need special tooling.
	r.MustRegister(RulePocketAspectRatio, ratioEvaluator("pocket_max_depth_mm", "pocket_min_width_mm", "max_aspect"))

	// Provider-flagged thin unsupported features.
	r.MustRegister(RuleThinFeatureRisk, boolEvaluator("has_thin_unsupported_features"))

	// Bend radius below the material's minimum cracks the outer fiber.
	r.MustRegister(RuleBendRadiusMin, ratioEvaluator("sheet_thickness_mm", "min_bend_radius_mm", "max_thickness_radius_ratio"))

	// Holes too close to an edge distort during bending or punching.
	r.MustRegister(RuleHoleToEdge, minEvaluator("min_hole_edge_distance_mm", "min_distance_mm"))

	// Vertical faces without draft stick in the mold.
	r.MustRegister(RuleDraftAngleMin, minEvaluator("min_draft_angle_deg", "min_deg"))

	// Wall thickness variation causes sink and warp in molded parts.
	r.MustRegister(RuleWallUniformity, maxEvaluator("wall_thickness_variation_ratio", "max_variation"))

	// Sections below the castable minimum misrun.
	r.MustRegister(RuleCastMinSection, minEvaluator("min_section_thickness_mm", "min_section_mm"))

	// Torch/electrode clearance at flagged weld joints.
	r.MustRegister(RuleWeldAccessClearance, minEvaluator("min_weld_access_clearance_mm", "min_clearance_mm"))

	// Drawing tolerances tighter than process capability.
	r.MustRegister(RuleToleranceCapability, minEvaluator("drawing_tightest_tolerance_mm", "min_tolerance_mm"))

	// Surface finish callouts finer than the process can hold.
	r.MustRegister(RuleSurfaceFinishLimit, minEvaluator("drawing_min_surface_finish_ra_um", "min_ra_um"))

	// Compliance overlay: material certification flagged missing.
	r.MustRegister(RuleMaterialCertMissing, boolEvaluator("compliance_material_cert_missing"))

	return r
}

// Package bundletest provides a shared, fully valid bundle fixture for
// package tests. Tests mutate the fixture before writing it to exercise
// specific violations or behaviors.
package bundletest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
)

// Spec holds the content of every bundle table as Go values. WriteDir
// serializes it into the JSON layout the loader reads.
type Spec struct {
	Manifest   bundle.Manifest
	Packs      []bundle.Pack
	Rules      []bundle.Rule
	References []bundle.Reference
	Processes  []bundle.ProcessFamily
	Heuristics []bundle.Heuristic
	Overlays   []bundle.Overlay
	Roles      []bundle.Role
	Templates  []bundle.ReportTemplate
	CostModel  bundle.CostModel
}

// Valid returns a consistent fixture: two process families, four rule
// packs, an aerospace overlay, and a cost model covering both processes.
// Manifest counts match the tables.
func Valid() *Spec {
	return &Spec{
		Manifest: bundle.Manifest{
			BundleVersion:   "2026.08.1",
			BaseDrawingPack: "drw_base",
			ExpectedRuleCount: 6,
			ExpectedPackRuleCounts: map[string]int{
				"dfm_basic":       3,
				"sheet_metal":     1,
				"drw_base":        1,
				"compliance_aero": 1,
			},
			ExpectedReferenceCount: 3,
			ExpectedRoleCount:      1,
			ExpectedTemplateCount:  1,
			Recommendation: bundle.RecommendationPolicy{
				HighThreshold:   0.8,
				MediumThreshold: 0.65,
			},
			Mismatch: bundle.MismatchPolicy{
				AllowRunBoth:   true,
				ShowBanner:     true,
				BannerTemplate: "You selected {override_process}; analysis suggests {ai_process} ({ai_confidence}).",
			},
		},
		Packs: []bundle.Pack{
			{PackID: "dfm_basic", Label: "Machining DFM basics"},
			{PackID: "sheet_metal", Label: "Sheet metal DFM"},
			{PackID: "drw_base", Label: "Drawing completeness"},
			{PackID: "compliance_aero", Label: "Aerospace compliance"},
		},
		Rules: []bundle.Rule{
			{
				RuleID:         "dfm_wall_min_thickness",
				PackID:         "dfm_basic",
				Title:          "Minimum wall thickness",
				Severity:       "major",
				InputsRequired: []string{"min_wall_thickness_mm"},
				Refs:           []string{"std_dfm_guide"},
				FixTemplate:    "increase thin walls to at least the process minimum",
				Thresholds:     map[string]float64{"min_wall_mm": 1.0},
			},
			{
				RuleID:         "dfm_hole_depth_ratio",
				PackID:         "dfm_basic",
				Title:          "Hole depth-to-diameter ratio",
				Severity:       "minor",
				InputsRequired: []string{"hole_max_depth_diameter_ratio"},
				Refs:           []string{"std_dfm_guide"},
				FixTemplate:    "shorten deep holes or drill from both sides",
				Thresholds:     map[string]float64{"max_ratio": 8.0},
			},
			{
				RuleID:      "dfm_thin_feature_risk",
				PackID:      "dfm_basic",
				Title:       "Thin unsupported features",
				Severity:    "minor",
				Refs:        []string{"std_dfm_guide"},
				FixTemplate: "add ribs or gussets to unsupported thin features",
			},
			{
				RuleID:         "sm_bend_radius_min",
				PackID:         "sheet_metal",
				Title:          "Minimum bend radius",
				Severity:       "major",
				InputsRequired: []string{"sheet_thickness_mm", "min_bend_radius_mm"},
				Refs:           []string{"std_dfm_guide"},
				FixTemplate:    "open bend radii to at least one material thickness",
				Thresholds:     map[string]float64{"max_thickness_radius_ratio": 1.0},
			},
			{
				RuleID:         "drw_tolerance_capability",
				PackID:         "drw_base",
				Title:          "Tolerance within process capability",
				Severity:       "major",
				InputsRequired: []string{"drawing_tightest_tolerance_mm"},
				Refs:           []string{"std_asme_y14_5"},
				FixTemplate:    "relax tolerances below process capability or call out secondary ops",
				Thresholds:     map[string]float64{"min_tolerance_mm": 0.01},
			},
			{
				RuleID:         "compliance_material_cert",
				PackID:         "compliance_aero",
				Title:          "Material certification present",
				Severity:       "critical",
				InputsRequired: []string{"compliance_material_cert_missing"},
				Refs:           []string{"std_astm_cert"},
				FixTemplate:    "attach mill certs for all raw material",
			},
		},
		References: []bundle.Reference{
			{RefID: "std_dfm_guide", Title: "DFM guidelines handbook", Type: "handbook"},
			{RefID: "std_asme_y14_5", Title: "ASME Y14.5 dimensioning and tolerancing", Type: "standard"},
			{RefID: "std_astm_cert", Title: "ASTM material certification practice", Type: "standard"},
		},
		Processes: []bundle.ProcessFamily{
			{ProcessID: "cnc_milling", Label: "CNC milling", DefaultPacks: []string{"dfm_basic"}},
			{ProcessID: "sheet_metal", Label: "Sheet metal fabrication", DefaultPacks: []string{"sheet_metal"}},
		},
		Heuristics: []bundle.Heuristic{
			{
				ProcessID:       "cnc_milling",
				ConditionsAll:   []string{"pocket_count"},
				ConfidenceBoost: 0.3,
				Reasons:         []string{"part has machined pockets"},
			},
			{
				ProcessID:       "cnc_milling",
				ConditionsAny:   []string{"hole_count or pocket_count"},
				ConfidenceBoost: 0.05,
				Reasons:         []string{"drilled or milled features present"},
			},
			{
				ProcessID:       "sheet_metal",
				ConditionsAll:   []string{"is_sheet_like"},
				ConditionsNot:   []string{"pocket_count"},
				ConfidenceBoost: 0.2,
				Reasons:         []string{"uniform thin sheet geometry"},
			},
		},
		Overlays: []bundle.Overlay{
			{
				OverlayID:           "aerospace",
				Label:               "Aerospace compliance overlay",
				AddsRulesPack:       "compliance_aero",
				AddsRefs:            []string{"std_astm_cert"},
				RulePrefixes:        []string{"compliance_"},
				ExtraReportSections: []string{"compliance_summary"},
			},
		},
		Roles: []bundle.Role{
			{RoleID: "design_engineer", Label: "Design engineer"},
		},
		Templates: []bundle.ReportTemplate{
			{
				TemplateID: "standard_report",
				Label:      "Standard review report",
				Sections: []bundle.TemplateSection{
					{SectionID: "summary", Title: "Summary", EnabledByDefault: true},
					{SectionID: "findings", Title: "Findings", EnabledByDefault: true},
					{SectionID: "cost", Title: "Cost estimate", EnabledByDefault: true},
					{SectionID: "compliance_summary", Title: "Compliance summary", OverlayRequired: "aerospace"},
				},
			},
		},
		CostModel: bundle.CostModel{
			Currency: "USD",
			GlobalDefaults: bundle.GlobalCostDefaults{
				DefaultQuantity:    1,
				ScrapFactor:        0.05,
				OverheadFactor:     1.15,
				InspectionBase:     25,
				InspectionFinding:  6,
				InspectionCritical: 18,
				VolumeBBoxRatio:    0.45,
				AreaBBoxRatio:      1.4,
				DefaultMetric:      10,
			},
			ProcessModels: map[string]bundle.ProcessCostModel{
				"cnc_milling": {
					HourlyRate: 95,
					SetupCost:  150,
					BaseHours:  0.25,
					Coefficients: map[string]float64{
						"part_volume_cm3": 0.002,
						"pocket_count":    0.05,
						"hole_count":      0.02,
					},
					MassModel:  bundle.MassModelStockRatio,
					StockRatio: 1.6,
				},
				"sheet_metal": {
					HourlyRate: 80,
					SetupCost:  90,
					BaseHours:  0.1,
					Coefficients: map[string]float64{
						"bend_count":       0.03,
						"surface_area_cm2": 0.0004,
					},
					MassModel:        bundle.MassModelSheetNesting,
					SheetUtilization: 0.72,
				},
			},
			Materials: map[string]bundle.Material{
				"aluminum_6061": {
					Label:     "Aluminum 6061-T6",
					DensityKg: 2700,
					RatePerKg: 6.5,
					Keywords:  []string{"aluminum", "aluminium", "6061"},
				},
				"steel_mild": {
					Label:     "Mild steel",
					DensityKg: 7850,
					RatePerKg: 2.1,
					Keywords:  []string{"steel", "mild", "s235"},
				},
			},
			ConfidencePolicy: bundle.ConfidencePolicy{
				BaseConfidence: 0.9,
				Penalties: map[string]float64{
					"missing_material_density": 0.15,
					"missing_supplier_rate":    0.1,
					"defaulted_geometry":       0.12,
					"route_ambiguity":          0.08,
					"missing_process_features": 0.05,
				},
				HighBand:   0.75,
				MediumBand: 0.5,
			},
			FindingImpacts: []bundle.FindingCostImpact{
				{
					RuleID:       "dfm_wall_min_thickness",
					ImpactType:   bundle.ImpactProcess,
					PercentLow:   5,
					PercentHigh:  12,
					ImpactWeight: 0.6,
				},
				{
					RuleID:       "compliance_material_cert",
					ImpactType:   bundle.ImpactInspection,
					PercentLow:   10,
					PercentHigh:  25,
					ImpactWeight: 0.8,
				},
			},
		},
	}
}

// WriteDir serializes the spec into dir using the on-disk table layout.
func (s *Spec) WriteDir(t *testing.T, dir string) {
	t.Helper()

	writeJSON(t, dir, bundle.FileManifest, s.Manifest)
	writeJSON(t, dir, bundle.FileRules, map[string]any{
		"packs": s.Packs,
		"rules": s.Rules,
	})
	writeJSON(t, dir, bundle.FileReferences, map[string]any{
		"references": s.References,
	})
	writeJSON(t, dir, bundle.FileProcesses, map[string]any{
		"process_families": s.Processes,
		"heuristics":       s.Heuristics,
	})
	writeJSON(t, dir, bundle.FileOverlays, map[string]any{
		"overlays": s.Overlays,
	})
	writeJSON(t, dir, bundle.FileRoles, map[string]any{
		"roles": s.Roles,
	})
	writeJSON(t, dir, bundle.FileTemplates, map[string]any{
		"templates": s.Templates,
	})
	writeJSON(t, dir, bundle.FileCostModel, s.CostModel)
}

// Load writes the spec to a temp dir and loads it through the production
// loader, failing the test on any validation error.
func (s *Spec) Load(t *testing.T) *bundle.Bundle {
	t.Helper()

	dir := t.TempDir()
	s.WriteDir(t, dir)
	b, err := bundle.Load(dir)
	if err != nil {
		t.Fatalf("Load() on fixture bundle failed: %v", err)
	}
	return b
}

// LoadValid is shorthand for Valid().Load(t).
func LoadValid(t *testing.T) *bundle.Bundle {
	t.Helper()
	return Valid().Load(t)
}

// MachinedPartFacts returns a fact snapshot for a pocketed aluminum
// machined part with one thin wall, sized to trip the wall thickness rule
// and nothing else.
func MachinedPartFacts() *facts.Snapshot {
	return facts.NewSnapshot(facts.Map{
		"bbox_x_mm":                     facts.Number(120),
		"bbox_y_mm":                     facts.Number(80),
		"bbox_z_mm":                     facts.Number(40),
		"part_volume_cm3":               facts.Number(150),
		"surface_area_cm2":              facts.Number(420),
		"hole_count":                    facts.Number(6),
		"pocket_count":                  facts.Number(3),
		"min_wall_thickness_mm":         facts.Number(0.5),
		"hole_max_depth_diameter_ratio": facts.Number(4),
		"has_thin_unsupported_features": facts.Bool(false),
		"drawing_tightest_tolerance_mm": facts.Number(0.05),
		"material":                      facts.String("aluminum 6061-T6 plate"),
	}, nil)
}

// SheetPartFacts returns a fact snapshot describing a simple sheet metal
// bracket.
func SheetPartFacts() *facts.Snapshot {
	return facts.NewSnapshot(facts.Map{
		"bbox_x_mm":          facts.Number(200),
		"bbox_y_mm":          facts.Number(100),
		"bbox_z_mm":          facts.Number(2),
		"is_sheet_like":      facts.Bool(true),
		"sheet_thickness_mm": facts.Number(2),
		"min_bend_radius_mm": facts.Number(2),
		"bend_count":         facts.Number(4),
		"hole_count":         facts.Number(8),
		"material":           facts.String("mild steel sheet"),
	}, nil)
}

func writeJSON(t *testing.T, dir, file string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshaling %s: %v", file, err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", file, err)
	}
}

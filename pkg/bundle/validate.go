package bundle

import "fmt"

// validateSchema checks each table in isolation: non-empty identifiers,
// duplicate identifiers, and field-level value ranges.
func validateSchema(b *Bundle, violations *violationList) {
	if b.Manifest.BundleVersion == "" {
		violations.add(ViolationSchema, FileManifest, "", "bundle_version must not be empty")
	}
	if b.Manifest.BaseDrawingPack == "" {
		violations.add(ViolationSchema, FileManifest, "", "base_drawing_pack must not be empty")
	}
	if b.Manifest.Recommendation.HighThreshold != 0 || b.Manifest.Recommendation.MediumThreshold != 0 {
		high, medium := b.Manifest.Recommendation.HighThreshold, b.Manifest.Recommendation.MediumThreshold
		if high <= medium || high > 1 || medium <= 0 {
			violations.add(ViolationSchema, FileManifest, "",
				"recommendation thresholds must satisfy 0 < medium < high <= 1, got high=%v medium=%v", high, medium)
		}
	}

	seenPacks := make(map[string]struct{}, len(b.Packs))
	for _, p := range b.Packs {
		if p.PackID == "" {
			violations.add(ViolationSchema, FileRules, "", "pack with empty pack_id")
			continue
		}
		if _, dup := seenPacks[p.PackID]; dup {
			violations.add(ViolationSchema, FileRules, p.PackID, "duplicate pack_id")
		}
		seenPacks[p.PackID] = struct{}{}
	}

	seenRules := make(map[string]struct{}, len(b.Rules))
	for _, r := range b.Rules {
		if r.RuleID == "" {
			violations.add(ViolationSchema, FileRules, "", "rule with empty rule_id")
			continue
		}
		if _, dup := seenRules[r.RuleID]; dup {
			violations.add(ViolationSchema, FileRules, r.RuleID, "duplicate rule_id")
		}
		seenRules[r.RuleID] = struct{}{}

		if _, ok := validSeverities[r.Severity]; !ok {
			violations.add(ViolationSchema, FileRules, r.RuleID,
				"invalid severity %q (want critical, major, or minor)", r.Severity)
		}
		if r.PackID == "" {
			violations.add(ViolationSchema, FileRules, r.RuleID, "rule has empty pack_id")
		}
	}

	seenRefs := make(map[string]struct{}, len(b.References))
	for _, ref := range b.References {
		if ref.RefID == "" {
			violations.add(ViolationSchema, FileReferences, "", "reference with empty ref_id")
			continue
		}
		if _, dup := seenRefs[ref.RefID]; dup {
			violations.add(ViolationSchema, FileReferences, ref.RefID, "duplicate ref_id")
		}
		seenRefs[ref.RefID] = struct{}{}
	}

	seenProcesses := make(map[string]struct{}, len(b.Processes))
	for _, p := range b.Processes {
		if p.ProcessID == "" {
			violations.add(ViolationSchema, FileProcesses, "", "process family with empty process_id")
			continue
		}
		if _, dup := seenProcesses[p.ProcessID]; dup {
			violations.add(ViolationSchema, FileProcesses, p.ProcessID, "duplicate process_id")
		}
		seenProcesses[p.ProcessID] = struct{}{}
	}

	for i, h := range b.Heuristics {
		subject := fmt.Sprintf("heuristics[%d]", i)
		if h.ProcessID == "" {
			violations.add(ViolationSchema, FileProcesses, subject, "heuristic with empty process_id")
		}
		if h.ConfidenceBoost < 0 || h.ConfidenceBoost > 1 {
			violations.add(ViolationSchema, FileProcesses, subject,
				"confidence_boost %v outside [0, 1]", h.ConfidenceBoost)
		}
	}

	seenOverlays := make(map[string]struct{}, len(b.Overlays))
	for _, o := range b.Overlays {
		if o.OverlayID == "" {
			violations.add(ViolationSchema, FileOverlays, "", "overlay with empty overlay_id")
			continue
		}
		if _, dup := seenOverlays[o.OverlayID]; dup {
			violations.add(ViolationSchema, FileOverlays, o.OverlayID, "duplicate overlay_id")
		}
		seenOverlays[o.OverlayID] = struct{}{}
	}

	seenRoles := make(map[string]struct{}, len(b.Roles))
	for _, r := range b.Roles {
		if r.RoleID == "" {
			violations.add(ViolationSchema, FileRoles, "", "role with empty role_id")
			continue
		}
		if _, dup := seenRoles[r.RoleID]; dup {
			violations.add(ViolationSchema, FileRoles, r.RoleID, "duplicate role_id")
		}
		seenRoles[r.RoleID] = struct{}{}
	}

	seenTemplates := make(map[string]struct{}, len(b.Templates))
	for _, t := range b.Templates {
		if t.TemplateID == "" {
			violations.add(ViolationSchema, FileTemplates, "", "template with empty template_id")
			continue
		}
		if _, dup := seenTemplates[t.TemplateID]; dup {
			violations.add(ViolationSchema, FileTemplates, t.TemplateID, "duplicate template_id")
		}
		seenTemplates[t.TemplateID] = struct{}{}
	}

	validateCostModelSchema(b, violations)
}

// validateCostModelSchema checks the cost model's numeric tuning ranges.
func validateCostModelSchema(b *Bundle, violations *violationList) {
	cm := &b.CostModel
	if cm.Currency == "" {
		violations.add(ViolationSchema, FileCostModel, "", "currency must not be empty")
	}
	if cm.GlobalDefaults.OverheadFactor < 1 {
		violations.add(ViolationSchema, FileCostModel, "",
			"overhead_factor must be >= 1, got %v", cm.GlobalDefaults.OverheadFactor)
	}
	if cm.GlobalDefaults.ScrapFactor < 0 {
		violations.add(ViolationSchema, FileCostModel, "",
			"scrap_factor must be >= 0, got %v", cm.GlobalDefaults.ScrapFactor)
	}

	for processID, pm := range cm.ProcessModels {
		if pm.HourlyRate < 0 || pm.SetupCost < 0 || pm.BaseHours < 0 {
			violations.add(ViolationSchema, FileCostModel, processID,
				"process model rates and hours must be >= 0")
		}
		switch pm.MassModel {
		case "", MassModelStockRatio, MassModelSheetNesting, MassModelCutLength:
		default:
			violations.add(ViolationSchema, FileCostModel, processID,
				"unknown mass_model %q", pm.MassModel)
		}
	}

	for key, m := range cm.Materials {
		if m.DensityKg < 0 || m.RatePerKg < 0 {
			violations.add(ViolationSchema, FileCostModel, key,
				"material density and rate must be >= 0")
		}
	}

	cp := cm.ConfidencePolicy
	if cp.BaseConfidence < 0 || cp.BaseConfidence > 1 {
		violations.add(ViolationSchema, FileCostModel, "",
			"base_confidence %v outside [0, 1]", cp.BaseConfidence)
	}

	for i, impact := range cm.FindingImpacts {
		subject := fmt.Sprintf("finding_cost_impacts[%d]", i)
		if impact.RuleID == "" {
			violations.add(ViolationSchema, FileCostModel, subject, "impact with empty rule_id")
		}
		switch impact.ImpactType {
		case ImpactMaterial, ImpactProcess, ImpactSetup, ImpactInspection:
		default:
			violations.add(ViolationSchema, FileCostModel, subject,
				"unknown impact_type %q", impact.ImpactType)
		}
		if impact.PercentLow > impact.PercentHigh {
			violations.add(ViolationSchema, FileCostModel, subject,
				"percent_low %v exceeds percent_high %v", impact.PercentLow, impact.PercentHigh)
		}
		if impact.ImpactWeight < 0 || impact.ImpactWeight > 1 {
			violations.add(ViolationSchema, FileCostModel, subject,
				"impact_weight %v outside [0, 1]", impact.ImpactWeight)
		}
	}
}

// validateCrossReferences enforces referential integrity across tables:
// every identifier one table cites must exist in the table that owns it.
func validateCrossReferences(b *Bundle, violations *violationList) {
	if _, ok := b.packsByID[b.Manifest.BaseDrawingPack]; !ok && b.Manifest.BaseDrawingPack != "" {
		violations.add(ViolationDanglingRef, FileManifest, b.Manifest.BaseDrawingPack,
			"base_drawing_pack does not exist among packs")
	}

	for _, r := range b.Rules {
		if _, ok := b.packsByID[r.PackID]; !ok {
			violations.add(ViolationDanglingRef, FileRules, r.RuleID,
				"rule pack_id %q does not exist among packs", r.PackID)
		}
		for _, refID := range r.Refs {
			if _, ok := b.refsByID[refID]; !ok {
				violations.add(ViolationDanglingRef, FileRules, refID,
					"rule %q cites unknown reference %q", r.RuleID, refID)
			}
		}
	}

	for _, p := range b.Processes {
		for _, packID := range p.DefaultPacks {
			if _, ok := b.packsByID[packID]; !ok {
				violations.add(ViolationDanglingRef, FileProcesses, packID,
					"process %q default pack %q does not exist among packs", p.ProcessID, packID)
			}
		}
	}

	for _, h := range b.Heuristics {
		if _, ok := b.processesByID[h.ProcessID]; !ok && h.ProcessID != "" {
			violations.add(ViolationDanglingRef, FileProcesses, h.ProcessID,
				"heuristic targets unknown process %q", h.ProcessID)
		}
	}

	for _, o := range b.Overlays {
		if o.AddsRulesPack != "" {
			if _, ok := b.packsByID[o.AddsRulesPack]; !ok {
				violations.add(ViolationDanglingRef, FileOverlays, o.OverlayID,
					"overlay adds_rules_pack %q does not exist among packs", o.AddsRulesPack)
			}
		}
		for _, refID := range o.AddsRefs {
			if _, ok := b.refsByID[refID]; !ok {
				violations.add(ViolationDanglingRef, FileOverlays, refID,
					"overlay %q cites unknown reference %q", o.OverlayID, refID)
			}
		}
	}

	for _, t := range b.Templates {
		for _, s := range t.Sections {
			if s.OverlayRequired == "" {
				continue
			}
			if _, ok := b.overlaysByID[s.OverlayRequired]; !ok {
				violations.add(ViolationDanglingRef, FileTemplates, s.OverlayRequired,
					"template %q section %q requires unknown overlay %q", t.TemplateID, s.SectionID, s.OverlayRequired)
			}
		}
	}

	for _, impact := range b.CostModel.FindingImpacts {
		if _, ok := b.rulesByID[impact.RuleID]; !ok && impact.RuleID != "" {
			violations.add(ViolationDanglingRef, FileCostModel, impact.RuleID,
				"finding cost impact targets unknown rule %q", impact.RuleID)
		}
	}

	for processID := range b.CostModel.ProcessModels {
		if _, ok := b.processesByID[processID]; !ok {
			violations.add(ViolationDanglingRef, FileCostModel, processID,
				"cost model targets unknown process %q", processID)
		}
	}
}

// validateManifestCounts checks the manifest's declared table counts against
// the actual loaded tables.
func validateManifestCounts(b *Bundle, violations *violationList) {
	if got := len(b.Rules); b.Manifest.ExpectedRuleCount != got {
		violations.add(ViolationCountMismatch, FileManifest, "expected_rule_count",
			"expected %d rules, found %d", b.Manifest.ExpectedRuleCount, got)
	}
	if got := len(b.References); b.Manifest.ExpectedReferenceCount != got {
		violations.add(ViolationCountMismatch, FileManifest, "expected_reference_count",
			"expected %d references, found %d", b.Manifest.ExpectedReferenceCount, got)
	}
	if got := len(b.Roles); b.Manifest.ExpectedRoleCount != got {
		violations.add(ViolationCountMismatch, FileManifest, "expected_role_count",
			"expected %d roles, found %d", b.Manifest.ExpectedRoleCount, got)
	}
	if got := len(b.Templates); b.Manifest.ExpectedTemplateCount != got {
		violations.add(ViolationCountMismatch, FileManifest, "expected_template_count",
			"expected %d templates, found %d", b.Manifest.ExpectedTemplateCount, got)
	}

	for packID, expected := range b.Manifest.ExpectedPackRuleCounts {
		if _, ok := b.packsByID[packID]; !ok {
			violations.add(ViolationDanglingRef, FileManifest, packID,
				"expected_pack_rule_counts names unknown pack %q", packID)
			continue
		}
		if got := len(b.rulesByPack[packID]); got != expected {
			violations.add(ViolationCountMismatch, FileManifest, packID,
				"expected %d rules in pack %q, found %d", expected, packID, got)
		}
	}
}

package bundle

import "sort"

// Bundle is the fully validated, immutable configuration set shared
// read-only by the recommender, planner, rules engine, and cost model.
type Bundle struct {
	Manifest   Manifest
	Packs      []Pack
	Rules      []Rule
	References []Reference
	Processes  []ProcessFamily
	Heuristics []Heuristic
	Overlays   []Overlay
	Roles      []Role
	Templates  []ReportTemplate
	CostModel  CostModel

	// Lookup indexes, built once at load time.
	packsByID     map[string]Pack
	rulesByPack   map[string][]Rule
	rulesByID     map[string]Rule
	refsByID      map[string]Reference
	processesByID map[string]ProcessFamily
	overlaysByID  map[string]Overlay
	rolesByID     map[string]Role
	templatesByID map[string]ReportTemplate
}

// buildIndexes populates the lookup maps. Called once by Load after all
// tables parsed; rule order within a pack follows the rules table order.
func (b *Bundle) buildIndexes() {
	b.packsByID = make(map[string]Pack, len(b.Packs))
	for _, p := range b.Packs {
		b.packsByID[p.PackID] = p
	}

	b.rulesByID = make(map[string]Rule, len(b.Rules))
	b.rulesByPack = make(map[string][]Rule)
	for _, r := range b.Rules {
		b.rulesByID[r.RuleID] = r
		b.rulesByPack[r.PackID] = append(b.rulesByPack[r.PackID], r)
	}

	b.refsByID = make(map[string]Reference, len(b.References))
	for _, ref := range b.References {
		b.refsByID[ref.RefID] = ref
	}

	b.processesByID = make(map[string]ProcessFamily, len(b.Processes))
	for _, p := range b.Processes {
		b.processesByID[p.ProcessID] = p
	}

	b.overlaysByID = make(map[string]Overlay, len(b.Overlays))
	for _, o := range b.Overlays {
		b.overlaysByID[o.OverlayID] = o
	}

	b.rolesByID = make(map[string]Role, len(b.Roles))
	for _, r := range b.Roles {
		b.rolesByID[r.RoleID] = r
	}

	b.templatesByID = make(map[string]ReportTemplate, len(b.Templates))
	for _, t := range b.Templates {
		b.templatesByID[t.TemplateID] = t
	}
}

// Pack returns the pack for id.
func (b *Bundle) Pack(id string) (Pack, bool) {
	p, ok := b.packsByID[id]
	return p, ok
}

// Rule returns the rule for id.
func (b *Bundle) Rule(id string) (Rule, bool) {
	r, ok := b.rulesByID[id]
	return r, ok
}

// RulesForPack returns the rules of a pack in stable table order.
func (b *Bundle) RulesForPack(packID string) []Rule {
	return b.rulesByPack[packID]
}

// Reference returns the catalog entry for id.
func (b *Bundle) Reference(id string) (Reference, bool) {
	ref, ok := b.refsByID[id]
	return ref, ok
}

// Process returns the process family for id.
func (b *Bundle) Process(id string) (ProcessFamily, bool) {
	p, ok := b.processesByID[id]
	return p, ok
}

// ProcessIDs returns all process family ids in sorted order.
func (b *Bundle) ProcessIDs() []string {
	ids := make([]string, 0, len(b.Processes))
	for _, p := range b.Processes {
		ids = append(ids, p.ProcessID)
	}
	sort.Strings(ids)
	return ids
}

// Overlay returns the overlay for id.
func (b *Bundle) Overlay(id string) (Overlay, bool) {
	o, ok := b.overlaysByID[id]
	return o, ok
}

// Role returns the role for id.
func (b *Bundle) Role(id string) (Role, bool) {
	r, ok := b.rolesByID[id]
	return r, ok
}

// Template returns the report template for id.
func (b *Bundle) Template(id string) (ReportTemplate, bool) {
	t, ok := b.templatesByID[id]
	return t, ok
}

// ProcessModel returns the cost model for a process id.
func (b *Bundle) ProcessModel(processID string) (ProcessCostModel, bool) {
	m, ok := b.CostModel.ProcessModels[processID]
	return m, ok
}

// MaterialKeys returns the material catalog keys in sorted order, giving the
// cost model a deterministic first-key fallback.
func (b *Bundle) MaterialKeys() []string {
	keys := make([]string, 0, len(b.CostModel.Materials))
	for key := range b.CostModel.Materials {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

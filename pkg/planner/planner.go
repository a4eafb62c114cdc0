package planner

import (
	"fmt"
	"log/slog"
	"strings"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/recommend"
)

// Route sources labeling how a plan's process was chosen.
const (
	RouteSourceUserOverride     = "user_override"
	RouteSourceAIRecommendation = "ai_recommendation"
)

// Request is one planning request.
type Request struct {
	RoleID     string `json:"role_id"`
	TemplateID string `json:"template_id"`

	// ProcessOverride, when set, forces the process instead of the
	// recommender's pick.
	ProcessOverride string `json:"process_override,omitempty"`

	// OverlayID, when set, layers the overlay's rule pack and report
	// sections onto every route.
	OverlayID string `json:"overlay_id,omitempty"`

	// RunBothIfMismatch requests dual-route evaluation when the override
	// disagrees with the recommendation. The bundle's mismatch policy must
	// also permit it.
	RunBothIfMismatch bool `json:"run_both_if_mismatch"`
}

// Plan is one resolved route. Ephemeral: the core never persists it.
type Plan struct {
	PlanID      string   `json:"plan_id"`
	RouteSource string   `json:"route_source"`
	ProcessID   string   `json:"process_id"`
	PackIDs     []string `json:"pack_ids"`
	OverlayID   string   `json:"overlay_id,omitempty"`
	RoleID      string   `json:"role_id"`
	TemplateID  string   `json:"template_id"`

	EnabledSections    []string `json:"enabled_sections"`
	SuppressedSections []string `json:"suppressed_sections"`
}

// Result is the planner output: one or two routes plus recommendation and
// mismatch metadata.
type Result struct {
	Plans           []*Plan                   `json:"plans"`
	Recommendation  *recommend.Recommendation `json:"recommendation"`
	HasMismatch     bool                      `json:"has_mismatch"`
	RunBothExecuted bool                      `json:"run_both_executed"`
	MismatchBanner  string                    `json:"mismatch_banner,omitempty"`
}

// Planner assembles execution plans from a validated bundle and the
// recommender. Safe for concurrent use.
type Planner struct {
	bundle      *bundle.Bundle
	recommender *recommend.Recommender
	logger      *slog.Logger
}

// New creates a planner over a validated bundle.
func New(b *bundle.Bundle, r *recommend.Recommender, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		bundle:      b,
		recommender: r,
		logger:      logger.With("component", "planner"),
	}
}

// Plan resolves a request into one or two routes. Unknown role, template,
// process, or overlay ids fail with a PlanningError naming the identifier;
// no partial result is returned.
func (p *Planner) Plan(snapshot *facts.Snapshot, req Request) (*Result, error) {
	if _, ok := p.bundle.Role(req.RoleID); !ok {
		return nil, &PlanningError{Kind: IdentifierRole, ID: req.RoleID}
	}
	template, ok := p.bundle.Template(req.TemplateID)
	if !ok {
		return nil, &PlanningError{Kind: IdentifierTemplate, ID: req.TemplateID}
	}
	if req.ProcessOverride != "" {
		if _, ok := p.bundle.Process(req.ProcessOverride); !ok {
			return nil, &PlanningError{Kind: IdentifierProcess, ID: req.ProcessOverride}
		}
	}
	var overlay *bundle.Overlay
	if req.OverlayID != "" {
		o, ok := p.bundle.Overlay(req.OverlayID)
		if !ok {
			return nil, &PlanningError{Kind: IdentifierOverlay, ID: req.OverlayID}
		}
		overlay = &o
	}

	rec, err := p.recommender.Recommend(snapshot)
	if err != nil {
		return nil, err
	}

	hasMismatch := req.ProcessOverride != "" && req.ProcessOverride != rec.ProcessID
	runBoth := hasMismatch && req.RunBothIfMismatch && p.bundle.Manifest.Mismatch.AllowRunBoth

	var processOrder []string
	switch {
	case runBoth:
		processOrder = []string{req.ProcessOverride, rec.ProcessID}
	case req.ProcessOverride != "":
		processOrder = []string{req.ProcessOverride}
	default:
		processOrder = []string{rec.ProcessID}
	}

	result := &Result{
		Recommendation:  rec,
		HasMismatch:     hasMismatch,
		RunBothExecuted: runBoth,
	}

	for i, processID := range processOrder {
		source := routeSource(i, processID, req, rec)
		plan := p.buildPlan(i, source, processID, overlay, req, template)
		result.Plans = append(result.Plans, plan)
	}

	if hasMismatch && p.bundle.Manifest.Mismatch.ShowBanner {
		result.MismatchBanner = p.formatBanner(req.ProcessOverride, rec)
	}

	p.logger.Debug("plan assembled",
		"routes", len(result.Plans),
		"has_mismatch", hasMismatch,
		"run_both", runBoth,
	)

	return result, nil
}

// routeSource labels a route. In a dual-route pair the first plan is always
// the user override and the second the recommendation; a single route is
// labeled by how its process was chosen.
func routeSource(index int, processID string, req Request, rec *recommend.Recommendation) string {
	if req.ProcessOverride != "" && index == 0 && processID == req.ProcessOverride {
		return RouteSourceUserOverride
	}
	return RouteSourceAIRecommendation
}

// buildPlan assembles a single route for a process.
func (p *Planner) buildPlan(index int, source, processID string, overlay *bundle.Overlay, req Request, template bundle.ReportTemplate) *Plan {
	process, _ := p.bundle.Process(processID)

	packIDs := []string{p.bundle.Manifest.BaseDrawingPack}
	packIDs = append(packIDs, process.DefaultPacks...)
	if overlay != nil && overlay.AddsRulesPack != "" {
		packIDs = append(packIDs, overlay.AddsRulesPack)
	}
	packIDs = dedupe(packIDs)

	enabled, suppressed := resolveSections(template, overlay)

	plan := &Plan{
		PlanID:             fmt.Sprintf("plan_%d_%s", index+1, source),
		RouteSource:        source,
		ProcessID:          processID,
		PackIDs:            packIDs,
		RoleID:             req.RoleID,
		TemplateID:         req.TemplateID,
		EnabledSections:    enabled,
		SuppressedSections: suppressed,
	}
	if overlay != nil {
		plan.OverlayID = overlay.OverlayID
	}
	return plan
}

// resolveSections splits template sections into enabled and suppressed.
// A section gated on an overlay is enabled only when that overlay is
// selected; ungated sections follow their enabled_by_default flag. The
// overlay's extra report sections are appended to the enabled list.
func resolveSections(template bundle.ReportTemplate, overlay *bundle.Overlay) (enabled, suppressed []string) {
	selectedOverlay := ""
	if overlay != nil {
		selectedOverlay = overlay.OverlayID
	}

	for _, s := range template.Sections {
		switch {
		case s.OverlayRequired != "" && s.OverlayRequired != selectedOverlay:
			suppressed = append(suppressed, s.SectionID)
		case s.OverlayRequired != "":
			enabled = append(enabled, s.SectionID)
		case s.EnabledByDefault:
			enabled = append(enabled, s.SectionID)
		default:
			suppressed = append(suppressed, s.SectionID)
		}
	}

	if overlay != nil {
		enabled = append(enabled, overlay.ExtraReportSections...)
	}
	return dedupe(enabled), dedupe(suppressed)
}

// formatBanner renders the bundle's mismatch banner template. Placeholders:
// {override_process}, {ai_process}, {ai_confidence}.
func (p *Planner) formatBanner(override string, rec *recommend.Recommendation) string {
	tpl := p.bundle.Manifest.Mismatch.BannerTemplate
	if tpl == "" {
		return ""
	}
	return strings.NewReplacer(
		"{override_process}", override,
		"{ai_process}", rec.ProcessID,
		"{ai_confidence}", fmt.Sprintf("%.2f", rec.Score),
	).Replace(tpl)
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

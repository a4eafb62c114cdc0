package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/planner"
)

// blockedContextKeys are the context keys through which callers have tried
// to inject standards manually. Provenance must always derive from
// findings, so these are rejected outright.
var blockedContextKeys = []string{
	"standards_used",
	"standards_used_auto",
	"manual_standards",
	"extra_refs",
	"inject_refs",
}

// Engine executes the applicable rules for each planned route. It holds
// only immutable state and is safe for concurrent use.
type Engine struct {
	bundle   *bundle.Bundle
	registry *Registry
	logger   *slog.Logger
}

// NewEngine creates a rule evaluation engine over a validated bundle. A nil
// registry uses the built-in default catalog.
func NewEngine(b *bundle.Bundle, registry *Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		bundle:   b,
		registry: registry,
		logger:   logger.With("component", "rules.engine"),
	}
}

// Evaluate runs every route of a plan set in the given analysis mode,
// merging the per-reference trace across routes and deriving the
// standards-used set from findings.
//
// componentContext is the caller's free-form review context; it is only
// inspected for blocked manual-standards keys and otherwise passed through
// untouched.
func (e *Engine) Evaluate(plans []*planner.Plan, snapshot *facts.Snapshot, mode string, componentContext map[string]any) (*Result, error) {
	for _, key := range blockedContextKeys {
		if _, ok := componentContext[key]; ok {
			return nil, &ManualStandardsError{Key: key}
		}
	}
	if mode == "" {
		mode = ModeFull
	}

	result := &Result{}
	trace := make(map[string]*TraceEntry)

	for _, plan := range plans {
		route, err := e.evaluateRoute(plan, snapshot, mode, trace)
		if err != nil {
			return nil, err
		}
		result.Routes = append(result.Routes, *route)
		result.FindingCountTotal += route.Counts.Total
	}

	standards, err := e.resolveStandards(result.Routes)
	if err != nil {
		return nil, err
	}
	result.StandardsUsedAuto = standards

	overlayRefs, err := e.resolveOverlayRefs(plans)
	if err != nil {
		return nil, err
	}
	result.OverlayRefs = overlayRefs
	result.Trace = flattenTrace(trace)

	e.logger.Debug("evaluation complete",
		"routes", len(result.Routes),
		"findings", result.FindingCountTotal,
		"mode", mode,
	)

	return result, nil
}

// evaluateRoute runs one route's rules in pack order, accumulating the
// shared reference trace.
func (e *Engine) evaluateRoute(plan *planner.Plan, snapshot *facts.Snapshot, mode string, trace map[string]*TraceEntry) (*RouteResult, error) {
	route := &RouteResult{
		PlanID:      plan.PlanID,
		RouteSource: plan.RouteSource,
		ProcessID:   plan.ProcessID,
		Mode:        mode,
	}

	var overlay *bundle.Overlay
	if plan.OverlayID != "" {
		o, ok := e.bundle.Overlay(plan.OverlayID)
		if !ok {
			// The planner validated the id against the same bundle; drift
			// between plan and bundle is catalog drift.
			return nil, &UnknownReferenceError{RefID: plan.OverlayID, RuleID: ""}
		}
		overlay = &o
	}

	for _, packID := range plan.PackIDs {
		for _, rule := range e.bundle.RulesForPack(packID) {
			if !modeIncludes(mode, rule, packID, e.bundle.Manifest.BaseDrawingPack) {
				continue
			}
			if !overlayIncludes(overlay, packID, rule.RuleID) {
				continue
			}

			e.evaluateRule(rule, snapshot, route, trace)
		}
	}

	return route, nil
}

// evaluateRule classifies a single rule and updates findings and trace.
func (e *Engine) evaluateRule(rule bundle.Rule, snapshot *facts.Snapshot, route *RouteResult, trace map[string]*TraceEntry) {
	entries := e.traceEntries(rule, trace)
	for _, entry := range entries {
		entry.RulesConsidered++
		entry.ActiveInMode = true
	}

	missing := missingInputs(rule, snapshot)
	if len(missing) > 0 {
		finding := e.buildFinding(rule, FindingEvidenceGap, nil, missing)
		route.Findings = append(route.Findings, finding)
		route.Counts.Total++
		route.Counts.EvidenceGaps++
		for _, entry := range entries {
			entry.EvidenceGapFindings++
			entry.BlockedByMissingInputs++
		}
		return
	}

	evaluator, registered := e.registry.Lookup(rule.RuleID)
	if !registered {
		route.Unresolved++
		for _, entry := range entries {
			entry.ChecksUnresolved++
		}
		return
	}

	eval := evaluator(snapshot.Facts, rule)
	if !eval.Violated {
		for _, entry := range entries {
			entry.ChecksPassed++
		}
		return
	}

	finding := e.buildFinding(rule, FindingRuleViolation, eval.Evaluation, nil)
	route.Findings = append(route.Findings, finding)
	route.Counts.Total++
	route.Counts.Violations++
	for _, entry := range entries {
		entry.DesignRiskFindings++
	}
}

// missingInputs returns required inputs that are absent or falsy and not
// marked not-applicable by the provider.
func missingInputs(rule bundle.Rule, snapshot *facts.Snapshot) []string {
	var missing []string
	for _, key := range rule.InputsRequired {
		if snapshot.Facts.Truthy(key) || snapshot.NotApplicable(key) {
			continue
		}
		missing = append(missing, key)
	}
	return missing
}

// buildFinding assembles a finding with its recommended action and
// expected impact.
func (e *Engine) buildFinding(rule bundle.Rule, findingType string, eval *Evaluation, missing []string) Finding {
	finding := Finding{
		RuleID:        rule.RuleID,
		PackID:        rule.PackID,
		FindingType:   findingType,
		Severity:      rule.Severity,
		Refs:          append([]string(nil), rule.Refs...),
		Evaluation:    eval,
		MissingInputs: missing,
	}

	switch findingType {
	case FindingEvidenceGap:
		finding.Evidence = fmt.Sprintf("required inputs unavailable: %s", strings.Join(missing, ", "))
		finding.RecommendedAction = fmt.Sprintf("provide evidence for: %s", strings.Join(missing, ", "))
	default:
		if eval != nil {
			finding.Evidence = eval.Expression
		}
		finding.RecommendedAction = rule.FixTemplate
		if finding.RecommendedAction == "" {
			finding.RecommendedAction = fmt.Sprintf("address %s: %s", rule.RuleID, rule.Title)
		}
	}

	finding.ExpectedImpact = expectedImpact(rule.Severity, findingType)
	return finding
}

// expectedImpact derives the qualitative impact of fixing a finding from
// its severity.
func expectedImpact(severity, findingType string) ExpectedImpact {
	impact := ExpectedImpact{}
	switch severity {
	case bundle.SeverityCritical:
		impact.RiskReduction = "high"
		impact.CostImpact = "significant rework avoided"
		impact.LeadTimeImpact = "schedule risk removed"
	case bundle.SeverityMajor:
		impact.RiskReduction = "medium"
		impact.CostImpact = "moderate rework avoided"
		impact.LeadTimeImpact = "minor delay avoided"
	default:
		impact.RiskReduction = "low"
		impact.CostImpact = "minor cost avoided"
		impact.LeadTimeImpact = "negligible"
	}
	if findingType == FindingEvidenceGap {
		impact.CostImpact = "estimate accuracy improved"
		impact.LeadTimeImpact = "review cycle shortened"
	}
	return impact
}

// traceEntries returns the trace entries for every reference a rule cites,
// creating entries on first touch.
func (e *Engine) traceEntries(rule bundle.Rule, trace map[string]*TraceEntry) []*TraceEntry {
	entries := make([]*TraceEntry, 0, len(rule.Refs))
	for _, refID := range rule.Refs {
		entry, ok := trace[refID]
		if !ok {
			entry = &TraceEntry{RefID: refID}
			trace[refID] = entry
		}
		entries = append(entries, entry)
	}
	return entries
}

// resolveStandards derives the distinct, sorted standards set from actual
// findings and resolves each id against the catalog. An unknown id is a
// hard error.
func (e *Engine) resolveStandards(routes []RouteResult) ([]bundle.Reference, error) {
	seen := make(map[string]string) // ref id -> citing rule id
	for _, route := range routes {
		for _, finding := range route.Findings {
			for _, refID := range finding.Refs {
				if _, ok := seen[refID]; !ok {
					seen[refID] = finding.RuleID
				}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for refID := range seen {
		ids = append(ids, refID)
	}
	sort.Strings(ids)

	standards := make([]bundle.Reference, 0, len(ids))
	for _, refID := range ids {
		ref, ok := e.bundle.Reference(refID)
		if !ok {
			return nil, &UnknownReferenceError{RefID: refID, RuleID: seen[refID]}
		}
		standards = append(standards, ref)
	}
	return standards, nil
}

// resolveOverlayRefs collects the adds_refs of every overlay selected on a
// route, distinct and sorted, resolved against the catalog. The validator
// guarantees the ids at load time; a miss here is catalog drift.
func (e *Engine) resolveOverlayRefs(plans []*planner.Plan) ([]bundle.Reference, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, plan := range plans {
		if plan.OverlayID == "" {
			continue
		}
		overlay, ok := e.bundle.Overlay(plan.OverlayID)
		if !ok {
			return nil, &UnknownReferenceError{RefID: plan.OverlayID}
		}
		for _, refID := range overlay.AddsRefs {
			if _, dup := seen[refID]; dup {
				continue
			}
			seen[refID] = struct{}{}
			ids = append(ids, refID)
		}
	}
	sort.Strings(ids)

	var refs []bundle.Reference
	for _, refID := range ids {
		ref, ok := e.bundle.Reference(refID)
		if !ok {
			return nil, &UnknownReferenceError{RefID: refID}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// flattenTrace orders the merged trace by reference id.
func flattenTrace(trace map[string]*TraceEntry) []TraceEntry {
	ids := make([]string, 0, len(trace))
	for refID := range trace {
		ids = append(ids, refID)
	}
	sort.Strings(ids)

	out := make([]TraceEntry, 0, len(ids))
	for _, refID := range ids {
		out = append(out, *trace[refID])
	}
	return out
}

package review

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/costing"
	"fabrica-hq/vulcan/pkg/facts"
	"fabrica-hq/vulcan/pkg/planner"
	"fabrica-hq/vulcan/pkg/recommend"
	"fabrica-hq/vulcan/pkg/rules"
	"fabrica-hq/vulcan/pkg/telemetry/metrics"
	"fabrica-hq/vulcan/pkg/telemetry/tracing"
)

// Request describes one review invocation.
type Request struct {
	RoleID     string `json:"role_id"`
	TemplateID string `json:"template_id"`

	// ProcessOverride pins the manufacturing process instead of using the
	// recommender's pick. Empty means recommend.
	ProcessOverride string `json:"process_override,omitempty"`

	OverlayID         string `json:"overlay_id,omitempty"`
	RunBothIfMismatch bool   `json:"run_both_if_mismatch"`

	// AnalysisMode is one of "full", "geometry_dfm", "drawing_spec".
	// Empty defaults to full.
	AnalysisMode string `json:"analysis_mode,omitempty"`

	// ComponentContext carries per-part overrides such as quantity or
	// material_key. Standards-injection keys are rejected.
	ComponentContext map[string]any `json:"component_context,omitempty"`

	// SupplierProfile optionally overrides catalog rates.
	SupplierProfile *costing.SupplierProfile `json:"supplier_profile,omitempty"`

	// SkipCosting evaluates rules without producing estimates.
	SkipCosting bool `json:"skip_costing,omitempty"`
}

// Report is the aggregated output of one review.
type Report struct {
	BundleVersion string `json:"bundle_version"`
	AnalysisMode  string `json:"analysis_mode"`
	GeneratedAt   string `json:"generated_at"`

	Recommendation *recommend.Recommendation `json:"recommendation"`

	Plans           []*planner.Plan `json:"plans"`
	HasMismatch     bool            `json:"has_mismatch"`
	RunBothExecuted bool            `json:"run_both_executed"`
	MismatchBanner  string          `json:"mismatch_banner,omitempty"`

	Evaluation *rules.Result `json:"evaluation"`

	Estimates  []*costing.Estimate `json:"estimates,omitempty"`
	Comparison *costing.Comparison `json:"comparison,omitempty"`
}

// Reviewer wires the pipeline stages over one loaded bundle.
type Reviewer struct {
	bundle      *bundle.Bundle
	recommender *recommend.Recommender
	planner     *planner.Planner
	engine      *rules.Engine
	model       *costing.Model

	metrics *metrics.ReviewMetrics
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.ReviewMetrics) Option {
	return func(r *Reviewer) { r.metrics = m }
}

// WithTracer attaches span instrumentation.
func WithTracer(t *tracing.Tracer) Option {
	return func(r *Reviewer) { r.tracer = t }
}

// WithRegistry replaces the default rule evaluator registry.
func WithRegistry(reg *rules.Registry) Option {
	return func(r *Reviewer) { r.engine = rules.NewEngine(r.bundle, reg, r.logger) }
}

// WithClock overrides the report timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reviewer) { r.now = now }
}

// New builds a Reviewer over a validated bundle.
func New(b *bundle.Bundle, logger *slog.Logger, opts ...Option) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "review")

	rec := recommend.New(b, logger)
	r := &Reviewer{
		bundle:      b,
		recommender: rec,
		planner:     planner.New(b, rec, logger),
		engine:      rules.NewEngine(b, rules.DefaultRegistry(), logger),
		model:       costing.NewModel(b, logger),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend scores process families for the given part facts.
func (r *Reviewer) Recommend(snapshot *facts.Snapshot) (*recommend.Recommendation, error) {
	return r.recommender.Recommend(snapshot)
}

// Plan builds the execution plan without evaluating rules.
func (r *Reviewer) Plan(snapshot *facts.Snapshot, req Request) (*planner.Result, error) {
	return r.planner.Plan(snapshot, plannerRequest(req))
}

// Review runs the full pipeline and returns the aggregated report.
func (r *Reviewer) Review(ctx context.Context, snapshot *facts.Snapshot, req Request) (*Report, error) {
	mode := req.AnalysisMode
	if mode == "" {
		mode = rules.ModeFull
	}

	ctx, endReview := r.startSpan(ctx, "review",
		attribute.String("analysis_mode", mode),
		attribute.String("template_id", req.TemplateID),
	)
	defer endReview()

	started := r.now()

	planResult, err := r.planner.Plan(snapshot, plannerRequest(req))
	if err != nil {
		r.recordReview(mode, "plan_error", 0, 0)
		return nil, err
	}

	ctx, endEval := r.startSpan(ctx, "review.evaluate")
	evaluation, err := r.engine.Evaluate(planResult.Plans, snapshot, mode, req.ComponentContext)
	endEval()
	if err != nil {
		r.recordReview(mode, "evaluation_error", len(planResult.Plans), r.now().Sub(started))
		return nil, err
	}
	r.recordFindings(evaluation)

	report := &Report{
		BundleVersion:   r.bundle.Manifest.BundleVersion,
		AnalysisMode:    mode,
		GeneratedAt:     started.UTC().Format(time.RFC3339),
		Recommendation:  planResult.Recommendation,
		Plans:           planResult.Plans,
		HasMismatch:     planResult.HasMismatch,
		RunBothExecuted: planResult.RunBothExecuted,
		MismatchBanner:  planResult.MismatchBanner,
		Evaluation:      evaluation,
	}

	if !req.SkipCosting {
		_, endPrice := r.startSpan(ctx, "review.price")
		estimates, comparison, err := r.model.Price(
			routeInputs(evaluation), snapshot, req.ComponentContext, req.SupplierProfile)
		endPrice()
		if err != nil {
			r.recordReview(mode, "costing_error", len(planResult.Plans), r.now().Sub(started))
			return nil, err
		}
		report.Estimates = estimates
		report.Comparison = comparison
		if r.metrics != nil {
			for _, est := range estimates {
				r.metrics.RecordUnitCost(est.ProcessID, est.UnitCost)
			}
		}
	}

	r.recordReview(mode, "success", len(planResult.Plans), r.now().Sub(started))
	r.logger.Info("review completed",
		"mode", mode,
		"routes", len(planResult.Plans),
		"findings", evaluation.FindingCountTotal,
		"mismatch", planResult.HasMismatch)
	return report, nil
}

func plannerRequest(req Request) planner.Request {
	return planner.Request{
		RoleID:            req.RoleID,
		TemplateID:        req.TemplateID,
		ProcessOverride:   req.ProcessOverride,
		OverlayID:         req.OverlayID,
		RunBothIfMismatch: req.RunBothIfMismatch,
	}
}

// routeInputs converts evaluation routes into pricing inputs. Every
// finding on a fired rule contributes to that rule's impact weighting.
func routeInputs(result *rules.Result) []costing.RouteInput {
	inputs := make([]costing.RouteInput, 0, len(result.Routes))
	for _, route := range result.Routes {
		fired := make(map[string]int)
		critical := 0
		for _, f := range route.Findings {
			fired[f.RuleID]++
			if f.Severity == bundle.SeverityCritical {
				critical++
			}
		}
		inputs = append(inputs, costing.RouteInput{
			PlanID:           route.PlanID,
			ProcessID:        route.ProcessID,
			FiredRules:       fired,
			FindingTotal:     route.Counts.Total,
			CriticalFindings: critical,
		})
	}
	return inputs
}

func (r *Reviewer) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if r.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := r.tracer.Start(ctx, name, attrs...)
	return ctx, func() { span.End() }
}

func (r *Reviewer) recordReview(mode, outcome string, routes int, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordReview(mode, outcome, routes, elapsed)
}

func (r *Reviewer) recordFindings(result *rules.Result) {
	if r.metrics == nil {
		return
	}
	for _, route := range result.Routes {
		for _, f := range route.Findings {
			r.metrics.RecordFinding(f.FindingType, f.Severity)
		}
	}
}

// Package metrics exposes Prometheus instrumentation for the review
// pipeline. All collectors register against an injected registry so tests
// can use isolated registries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReviewMetrics tracks review pipeline activity.
type ReviewMetrics struct {
	reviewsTotal       *prometheus.CounterVec
	findingsTotal      *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	planRoutes         prometheus.Histogram
	unitCost           *prometheus.GaugeVec
	bundleReloads      *prometheus.CounterVec
}

// NewReviewMetrics creates and registers review collectors on reg.
func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	m := &ReviewMetrics{
		reviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulcan_reviews_total",
				Help: "Total reviews executed, by analysis mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulcan_findings_total",
				Help: "Findings emitted, by type and severity.",
			},
			[]string{"type", "severity"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulcan_evaluation_duration_seconds",
				Help:    "Wall time of rule evaluation across all routes.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		planRoutes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulcan_plan_routes",
				Help:    "Number of routes produced per execution plan.",
				Buckets: []float64{1, 2},
			},
		),
		unitCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vulcan_estimate_unit_cost",
				Help: "Most recent unit cost estimate, by process.",
			},
			[]string{"process"},
		),
		bundleReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulcan_bundle_reloads_total",
				Help: "Bundle reload attempts, by result.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.reviewsTotal,
		m.findingsTotal,
		m.evaluationDuration,
		m.planRoutes,
		m.unitCost,
		m.bundleReloads,
	)
	return m
}

// RecordReview records one completed review.
func (m *ReviewMetrics) RecordReview(mode, outcome string, routes int, elapsed time.Duration) {
	m.reviewsTotal.WithLabelValues(mode, outcome).Inc()
	m.planRoutes.Observe(float64(routes))
	m.evaluationDuration.Observe(elapsed.Seconds())
}

// RecordFinding records a single finding.
func (m *ReviewMetrics) RecordFinding(findingType, severity string) {
	m.findingsTotal.WithLabelValues(findingType, severity).Inc()
}

// RecordUnitCost records the latest unit cost for a process.
func (m *ReviewMetrics) RecordUnitCost(processID string, cost float64) {
	m.unitCost.WithLabelValues(processID).Set(cost)
}

// RecordBundleReload records a bundle reload attempt.
func (m *ReviewMetrics) RecordBundleReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.bundleReloads.WithLabelValues(result).Inc()
}

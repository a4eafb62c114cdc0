package archive

import (
	"time"

	"github.com/google/uuid"

	"fabrica-hq/vulcan/pkg/review"
)

// Record is one archived review report.
type Record struct {
	// ID is a random UUID assigned at archive time.
	ID string `json:"id"`

	// PartID identifies the reviewed part, as supplied by the caller.
	PartID string `json:"part_id"`

	BundleVersion string    `json:"bundle_version"`
	AnalysisMode  string    `json:"analysis_mode"`
	FindingCount  int       `json:"finding_count"`
	CreatedAt     time.Time `json:"created_at"`

	Report *review.Report `json:"report"`
}

// NewRecord wraps a completed report in an archive record.
func NewRecord(partID string, report *review.Report) *Record {
	return &Record{
		ID:            uuid.NewString(),
		PartID:        partID,
		BundleVersion: report.BundleVersion,
		AnalysisMode:  report.AnalysisMode,
		FindingCount:  report.Evaluation.FindingCountTotal,
		CreatedAt:     time.Now().UTC(),
		Report:        report,
	}
}

// Query filters archived records. Zero values match everything.
type Query struct {
	PartID       string
	AnalysisMode string

	// Before and After bound CreatedAt.
	Before time.Time
	After  time.Time

	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

func (q *Query) matches(r *Record) bool {
	if q.PartID != "" && r.PartID != q.PartID {
		return false
	}
	if q.AnalysisMode != "" && r.AnalysisMode != q.AnalysisMode {
		return false
	}
	if !q.Before.IsZero() && !r.CreatedAt.Before(q.Before) {
		return false
	}
	if !q.After.IsZero() && !r.CreatedAt.After(q.After) {
		return false
	}
	return true
}

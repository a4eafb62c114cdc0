package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"fabrica-hq/vulcan/pkg/review"
	"fabrica-hq/vulcan/pkg/rules"
)

func testRecord(id, partID, mode string, createdAt time.Time) *Record {
	return &Record{
		ID:            id,
		PartID:        partID,
		BundleVersion: "2026.08.1",
		AnalysisMode:  mode,
		FindingCount:  1,
		CreatedAt:     createdAt,
		Report: &review.Report{
			BundleVersion: "2026.08.1",
			AnalysisMode:  mode,
			Evaluation:    &rules.Result{FindingCountTotal: 1},
		},
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := testRecord("r1", "bracket-100", "full", time.Now().UTC())
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PartID != "bracket-100" || got.Report == nil {
		t.Errorf("Get() = %+v, want saved record with report", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	records := []*Record{
		testRecord("r1", "bracket-100", "full", base),
		testRecord("r2", "bracket-100", "geometry_dfm", base.Add(time.Hour)),
		testRecord("r3", "housing-7", "full", base.Add(2*time.Hour)),
	}
	for _, r := range records {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error = %v", r.ID, err)
		}
	}

	tests := []struct {
		name    string
		query   *Query
		wantIDs []string
	}{
		{
			name:    "nil query returns all newest first",
			query:   nil,
			wantIDs: []string{"r3", "r2", "r1"},
		},
		{
			name:    "by part id",
			query:   &Query{PartID: "bracket-100"},
			wantIDs: []string{"r2", "r1"},
		},
		{
			name:    "by analysis mode",
			query:   &Query{AnalysisMode: "full"},
			wantIDs: []string{"r3", "r1"},
		},
		{
			name:    "before bound excludes cutoff",
			query:   &Query{Before: base.Add(time.Hour)},
			wantIDs: []string{"r1"},
		},
		{
			name:    "after bound excludes cutoff",
			query:   &Query{After: base},
			wantIDs: []string{"r3", "r2"},
		},
		{
			name:    "limit caps results",
			query:   &Query{Limit: 2},
			wantIDs: []string{"r3", "r2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("records[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryStoreDeleteOlderThan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, testRecord("old", "p", "full", base.AddDate(0, 0, -60)))
	store.Save(ctx, testRecord("recent", "p", "full", base))

	deleted, err := store.DeleteOlderThan(ctx, base.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old record still present, err = %v", err)
	}
	if _, err := store.Get(ctx, "recent"); err != nil {
		t.Errorf("recent record lost: %v", err)
	}
}

func TestNewRecordDerivesSummary(t *testing.T) {
	report := &review.Report{
		BundleVersion: "2026.08.1",
		AnalysisMode:  "full",
		Evaluation:    &rules.Result{FindingCountTotal: 3},
	}
	record := NewRecord("bracket-100", report)

	if record.ID == "" {
		t.Error("ID not assigned")
	}
	if record.FindingCount != 3 || record.BundleVersion != "2026.08.1" {
		t.Errorf("record = %+v, want summary fields copied from report", record)
	}
	if record.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "archive.db")
	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := testRecord("r1", "bracket-100", "full", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PartID != "bracket-100" || got.FindingCount != 1 {
		t.Errorf("Get() = %+v, want saved fields", got)
	}
	if got.Report == nil || got.Report.Evaluation.FindingCountTotal != 1 {
		t.Errorf("Report = %+v, want decoded report payload", got.Report)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := testRecord("r1", "bracket-100", "full", time.Now().UTC())
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	record.PartID = "bracket-200"
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save() replace error = %v", err)
	}

	records, err := store.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].PartID != "bracket-200" {
		t.Errorf("List() = %+v, want the replaced record only", records)
	}
}

func TestSQLiteStoreListAndPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []*Record{
		testRecord("old", "bracket-100", "full", base.AddDate(0, 0, -45)),
		testRecord("mid", "bracket-100", "geometry_dfm", base.AddDate(0, 0, -10)),
		testRecord("new", "housing-7", "full", base),
	} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error = %v", r.ID, err)
		}
	}

	records, err := store.List(ctx, &Query{PartID: "bracket-100"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 || records[0].ID != "mid" || records[1].ID != "old" {
		t.Errorf("List(bracket-100) = %v records, want [mid old]", len(records))
	}

	records, err = store.List(ctx, &Query{Limit: 1})
	if err != nil {
		t.Fatalf("List(limit) error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "new" {
		t.Errorf("List(limit 1) = %+v, want newest record", records)
	}

	deleted, err := store.DeleteOlderThan(ctx, base.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old record survived pruning, err = %v", err)
	}
}

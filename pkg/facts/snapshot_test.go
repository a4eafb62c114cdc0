package facts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFactsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "part.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileWrappedLayout(t *testing.T) {
	path := writeFactsFile(t, `{
		"facts": {"min_wall_thickness_mm": 1.8, "material": "aluminum"},
		"not_applicable_keys": ["sheet_thickness_mm"]
	}`)

	snap, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got, ok := snap.Facts.Number("min_wall_thickness_mm"); !ok || got != 1.8 {
		t.Errorf("min_wall_thickness_mm = %v (ok=%v), want 1.8", got, ok)
	}
	if !snap.NotApplicable("sheet_thickness_mm") {
		t.Error("sheet_thickness_mm should be not-applicable")
	}
	if snap.NotApplicable("material") {
		t.Error("material should not be not-applicable")
	}
}

func TestLoadFileBareLayout(t *testing.T) {
	path := writeFactsFile(t, `{"hole_count": 4, "is_sheet_like": true}`)

	snap, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !snap.Facts.Truthy("is_sheet_like") {
		t.Error("is_sheet_like should be truthy")
	}
	if got, _ := snap.Facts.Number("hole_count"); got != 4 {
		t.Errorf("hole_count = %v, want 4", got)
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := writeFactsFile(t, `{not json`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile() should fail on invalid JSON")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("LoadFile() should fail on a missing file")
	}
}

func TestMapMissingKeyIsAbsent(t *testing.T) {
	m := Map{"present": Number(1)}
	if !m.Get("missing").IsAbsent() {
		t.Error("missing key should resolve to the absent value")
	}
	if m.Truthy("missing") {
		t.Error("missing key should not be truthy")
	}
}

package recommend

import (
	"testing"

	"fabrica-hq/vulcan/pkg/facts"
)

func TestEvalCondition(t *testing.T) {
	m := facts.Map{
		"pocket_count":  facts.Number(3),
		"hole_count":    facts.Number(0),
		"is_sheet_like": facts.Bool(true),
		"material":      facts.String("aluminum"),
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"pocket_count", true},
		{"hole_count", false},
		{"missing_key", false},
		{"pocket_count and is_sheet_like", true},
		{"pocket_count and hole_count", false},
		{"hole_count or pocket_count", true},
		{"hole_count or missing_key", false},
		// " or " splits before " and ": a and b or c reads as (a and b) or (c).
		{"pocket_count and hole_count or is_sheet_like", true},
		{"hole_count or pocket_count and material", true},
		{"hole_count or hole_count and material", false},
		{"  pocket_count  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalCondition(tt.expr, m); got != tt.want {
				t.Errorf("evalCondition(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestMatchSets(t *testing.T) {
	m := facts.Map{"a": facts.Bool(true), "b": facts.Bool(false)}

	if !matchAll(nil, m) {
		t.Error("matchAll(empty) should hold")
	}
	if !matchAny(nil, m) {
		t.Error("matchAny(empty) should hold")
	}
	if !matchNone(nil, m) {
		t.Error("matchNone(empty) should hold")
	}
	if matchAll([]string{"a", "b"}, m) {
		t.Error("matchAll with one false condition should fail")
	}
	if !matchAny([]string{"b", "a"}, m) {
		t.Error("matchAny with one true condition should hold")
	}
	if matchNone([]string{"b", "a"}, m) {
		t.Error("matchNone with a true condition should fail")
	}
}

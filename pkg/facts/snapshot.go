package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Map is a flat fact map keyed by fact name.
type Map map[string]Value

// Get returns the fact value for key, or the absent value when missing.
func (m Map) Get(key string) Value {
	if v, ok := m[key]; ok {
		return v
	}
	return Absent()
}

// Truthy reports whether the fact for key is truthy. Missing keys are false.
func (m Map) Truthy(key string) bool {
	return m.Get(key).Truthy()
}

// Number returns the numeric value of the fact for key.
func (m Map) Number(key string) (float64, bool) {
	return m.Get(key).AsNumber()
}

// Snapshot is the part-facts contract consumed by the review pipeline:
// a fact map plus the provider's reserved not-applicable key list.
type Snapshot struct {
	Facts Map

	// notApplicable holds keys the provider has declared not applicable to
	// this part. A required input that is absent but not-applicable does not
	// block a rule.
	notApplicable map[string]struct{}
}

// NewSnapshot builds a snapshot from a fact map and not-applicable keys.
func NewSnapshot(m Map, notApplicableKeys []string) *Snapshot {
	na := make(map[string]struct{}, len(notApplicableKeys))
	for _, key := range notApplicableKeys {
		na[key] = struct{}{}
	}
	if m == nil {
		m = Map{}
	}
	return &Snapshot{Facts: m, notApplicable: na}
}

// NotApplicable reports whether the provider marked key as not applicable.
func (s *Snapshot) NotApplicable(key string) bool {
	_, ok := s.notApplicable[key]
	return ok
}

// NotApplicableKeys returns a copy of the reserved key list.
func (s *Snapshot) NotApplicableKeys() []string {
	keys := make([]string, 0, len(s.notApplicable))
	for key := range s.notApplicable {
		keys = append(keys, key)
	}
	return keys
}

// Provider supplies part-fact snapshots. Implementations live outside this
// module (CAD extraction services); the file loader below is the offline one.
type Provider interface {
	Snapshot(ctx context.Context, partRef string) (*Snapshot, error)
}

// snapshotFile is the JSON layout accepted by LoadFile. A bare JSON object
// is also accepted and treated as the fact map itself.
type snapshotFile struct {
	Facts             map[string]any `json:"facts"`
	NotApplicableKeys []string       `json:"not_applicable_keys"`
}

// LoadFile reads a fact snapshot from a JSON file. The file may either be a
// {"facts": {...}, "not_applicable_keys": [...]} document or a bare fact map.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file %q: %w", path, err)
	}

	var doc snapshotFile
	if err := json.Unmarshal(data, &doc); err == nil && doc.Facts != nil {
		return NewSnapshot(FromRaw(doc.Facts), doc.NotApplicableKeys), nil
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse facts file %q: %w", path, err)
	}
	return NewSnapshot(FromRaw(flat), nil), nil
}

// FromRaw converts a decoded JSON object into a fact map.
func FromRaw(raw map[string]any) Map {
	m := make(Map, len(raw))
	for key, value := range raw {
		m[key] = FromAny(value)
	}
	return m
}

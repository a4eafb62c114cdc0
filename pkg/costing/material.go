package costing

import (
	"fmt"
	"strings"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
)

// materialFactKeys are the free-text facts scanned for material keywords,
// in guess priority order.
var materialFactKeys = []string{"material", "material_spec", "drawing_material_note"}

// resolvedMaterial is the material pricing input after the resolution chain.
type resolvedMaterial struct {
	key     string
	density float64 // kg/m3
	rate    float64 // currency per kg

	// densityKnown is false when density fell back to the catalog average.
	densityKnown bool

	// overridden is true when a supplier profile supplied the rate.
	overridden bool
}

// resolveMaterial walks the resolution chain: explicit context key,
// keyword-matched guess from free-text facts, first catalog key, then the
// unknown sentinel. Density and rate each independently fall back to the
// catalog average when the resolved entry lacks them.
func resolveMaterial(b *bundle.Bundle, m facts.Map, componentContext map[string]any, profile *SupplierProfile, assumptions *[]string) resolvedMaterial {
	key := contextString(componentContext, "material_key")

	if key == "" {
		key = guessMaterial(b, m)
		if key != "" {
			*assumptions = append(*assumptions,
				fmt.Sprintf("material %q guessed from part facts keywords", key))
		}
	}

	if key == "" {
		if keys := b.MaterialKeys(); len(keys) > 0 {
			key = keys[0]
			*assumptions = append(*assumptions,
				fmt.Sprintf("material unspecified, defaulted to first catalog entry %q", key))
		} else {
			key = materialUnknown
			*assumptions = append(*assumptions, "material catalog empty, pricing with catalog averages")
		}
	}

	resolved := resolvedMaterial{key: key}

	entry, known := b.CostModel.Materials[key]
	if known {
		resolved.density = entry.DensityKg
		resolved.rate = entry.RatePerKg
	}

	resolved.densityKnown = resolved.density > 0
	if resolved.density <= 0 {
		resolved.density = catalogAverage(b, func(m bundle.Material) float64 { return m.DensityKg })
		*assumptions = append(*assumptions,
			fmt.Sprintf("density for %q unavailable, using catalog average %.0f kg/m3", key, resolved.density))
	}
	if resolved.rate <= 0 {
		resolved.rate = catalogAverage(b, func(m bundle.Material) float64 { return m.RatePerKg })
		*assumptions = append(*assumptions,
			fmt.Sprintf("rate for %q unavailable, using catalog average %.2f/kg", key, resolved.rate))
	}

	if profile != nil {
		if override, ok := profile.MaterialRates[key]; ok {
			if override.RatePerKg > 0 {
				resolved.rate = override.RatePerKg
				resolved.overridden = true
			}
			if override.DensityKg > 0 {
				resolved.density = override.DensityKg
				resolved.densityKnown = true
			}
		}
	}

	return resolved
}

// guessMaterial keyword-matches the material catalog against free-text
// facts. Catalog keys are scanned in sorted order for determinism.
func guessMaterial(b *bundle.Bundle, m facts.Map) string {
	var texts []string
	for _, factKey := range materialFactKeys {
		if s, ok := m.Get(factKey).AsString(); ok && s != "" {
			texts = append(texts, strings.ToLower(s))
		}
	}
	if len(texts) == 0 {
		return ""
	}

	for _, key := range b.MaterialKeys() {
		entry := b.CostModel.Materials[key]
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(keyword)
			for _, text := range texts {
				if strings.Contains(text, keyword) {
					return key
				}
			}
		}
	}
	return ""
}

// catalogAverage averages a material field over the catalog, skipping
// non-positive entries. An empty catalog yields a conservative 1.0 so
// pricing stays finite.
func catalogAverage(b *bundle.Bundle, field func(bundle.Material) float64) float64 {
	var sum float64
	var n int
	for _, entry := range b.CostModel.Materials {
		if v := field(entry); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// contextString reads a string-valued component context key.
func contextString(componentContext map[string]any, key string) string {
	if componentContext == nil {
		return ""
	}
	if s, ok := componentContext[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// contextNumber reads a numeric component context key.
func contextNumber(componentContext map[string]any, key string) (float64, bool) {
	if componentContext == nil {
		return 0, false
	}
	switch v := componentContext[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

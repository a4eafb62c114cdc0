package costing

import (
	"fmt"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
)

// Geometry feature names resolvable by process-model coefficients.
const (
	FeatureBBoxVolume  = "bbox_volume_cm3"
	FeatureVolume      = "part_volume_cm3"
	FeatureSurfaceArea = "surface_area_cm2"
	FeatureHoleCount   = "hole_count"
	FeaturePocketCount = "pocket_count"
	FeatureBendCount   = "bend_count"
	FeatureWeldLength  = "weld_length_mm"
	FeatureBodyCount   = "body_count"
)

// geometry is the derived metrics snapshot for one part.
type geometry struct {
	// Dimensions in mm, volumes in cm3, areas in cm2.
	bboxX, bboxY, bboxZ float64
	volume              float64
	surfaceArea         float64
	bodyCount           float64
	holeCount           float64
	pocketCount         float64
	bendCount           float64
	weldLength          float64
	sheetThickness      float64

	// defaulted is true when any metric fell back rather than coming from
	// the snapshot; it charges the defaulted-geometry confidence penalty.
	defaulted bool
}

// deriveGeometry builds the metrics snapshot with graceful degradation.
// Every fallback taken is appended to assumptions.
func deriveGeometry(m facts.Map, defaults bundle.GlobalCostDefaults, assumptions *[]string) *geometry {
	g := &geometry{}

	g.bboxX = metricOr(m, "bbox_x_mm", defaults, assumptions, &g.defaulted)
	g.bboxY = metricOr(m, "bbox_y_mm", defaults, assumptions, &g.defaulted)
	g.bboxZ = metricOr(m, "bbox_z_mm", defaults, assumptions, &g.defaulted)

	bboxVolume := g.bboxX * g.bboxY * g.bboxZ / 1000.0 // mm3 -> cm3

	if v, ok := m.Number("part_volume_cm3"); ok && v > 0 {
		g.volume = v
	} else {
		g.volume = bboxVolume * defaults.VolumeBBoxRatio
		g.defaulted = true
		*assumptions = append(*assumptions,
			fmt.Sprintf("part volume inferred from bounding box at ratio %.2f", defaults.VolumeBBoxRatio))
	}

	if a, ok := m.Number("surface_area_cm2"); ok && a > 0 {
		g.surfaceArea = a
	} else {
		bboxArea := 2 * (g.bboxX*g.bboxY + g.bboxY*g.bboxZ + g.bboxX*g.bboxZ) / 100.0 // mm2 -> cm2
		g.surfaceArea = bboxArea * defaults.AreaBBoxRatio
		g.defaulted = true
		*assumptions = append(*assumptions,
			fmt.Sprintf("surface area inferred from bounding box at ratio %.2f", defaults.AreaBBoxRatio))
	}

	if n, ok := m.Number("body_count"); ok && n > 0 {
		g.bodyCount = n
	} else {
		g.bodyCount = 1
		*assumptions = append(*assumptions, "body count defaulted to 1")
	}

	g.holeCount = countOr(m, "hole_count")
	g.pocketCount = countOr(m, "pocket_count")
	g.bendCount = countOr(m, "bend_count")
	g.weldLength = countOr(m, "weld_length_mm")

	if t, ok := m.Number("sheet_thickness_mm"); ok && t > 0 {
		g.sheetThickness = t
	}

	return g
}

// metricOr reads a required metric or falls back to the configured default.
func metricOr(m facts.Map, key string, defaults bundle.GlobalCostDefaults, assumptions *[]string, defaulted *bool) float64 {
	if v, ok := m.Number(key); ok && v > 0 {
		return v
	}
	*defaulted = true
	*assumptions = append(*assumptions,
		fmt.Sprintf("%s unavailable, defaulted to %.1f", key, defaults.DefaultMetric))
	return defaults.DefaultMetric
}

// countOr reads an optional count-style metric; absent means zero, which is
// a valid observation rather than a degradation.
func countOr(m facts.Map, key string) float64 {
	if v, ok := m.Number(key); ok && v > 0 {
		return v
	}
	return 0
}

// feature resolves a coefficient's feature name against the derived
// geometry. The second return reports whether the feature is resolvable
// for this part at all.
func (g *geometry) feature(name string) (float64, bool) {
	switch name {
	case FeatureBBoxVolume:
		return g.bboxX * g.bboxY * g.bboxZ / 1000.0, true
	case FeatureVolume:
		return g.volume, true
	case FeatureSurfaceArea:
		return g.surfaceArea, true
	case FeatureHoleCount:
		return g.holeCount, g.holeCount > 0
	case FeaturePocketCount:
		return g.pocketCount, g.pocketCount > 0
	case FeatureBendCount:
		return g.bendCount, g.bendCount > 0
	case FeatureWeldLength:
		return g.weldLength, g.weldLength > 0
	case FeatureBodyCount:
		return g.bodyCount, true
	default:
		return 0, false
	}
}

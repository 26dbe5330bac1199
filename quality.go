package grfnotes

import (
	"math"

	"grf-analyzer/metrics"
)

// Quality bands are data, not logic: each table maps a metric range to an
// ordinal label, and classification is a deterministic lookup.

type qualityBand struct {
	label string
	min   float64
	max   float64
}

// asymmetryBands grade left/right imbalance magnitude in percent.
var asymmetryBands = []qualityBand{
	{label: "excellent", min: 0, max: 5},
	{label: "good", min: 5, max: 10},
	{label: "fair", min: 10, max: 15},
	{label: "poor", min: 15, max: 25},
	{label: "very poor", min: 25, max: math.Inf(1)},
}

// jumpHeightBands grade flight-method jump height in meters.
var jumpHeightBands = []qualityBand{
	{label: "low", min: 0, max: 0.15},
	{label: "moderate", min: 0.15, max: 0.25},
	{label: "good", min: 0.25, max: 0.35},
	{label: "high", min: 0.35, max: 0.45},
	{label: "elite", min: 0.45, max: math.Inf(1)},
}

// relativeForceBands grade peak force as a multiple of bodyweight.
var relativeForceBands = []qualityBand{
	{label: "low", min: 0, max: 1.5},
	{label: "moderate", min: 1.5, max: 2.0},
	{label: "good", min: 2.0, max: 2.5},
	{label: "high", min: 2.5, max: math.Inf(1)},
}

func classify(bands []qualityBand, value float64) string {
	for _, b := range bands {
		if value >= b.min && value < b.max {
			return b.label
		}
	}
	return "unknown"
}

// ClassifyAsymmetry grades an asymmetry percentage.
func ClassifyAsymmetry(percentage float64) string {
	return classify(asymmetryBands, math.Abs(percentage))
}

// ClassifyJumpHeight grades a jump height in meters.
func ClassifyJumpHeight(meters float64) string {
	return classify(jumpHeightBands, meters)
}

// ClassifyRelativeForce grades a bodyweight-normalized peak force.
func ClassifyRelativeForce(ratio float64) string {
	return classify(relativeForceBands, ratio)
}

// classifySession labels the metrics a test type grades. Only metrics that
// were actually computed get a label; absent metric, absent label.
func classifySession(t TestType, m metrics.TestMetrics, bodyweightN float64) map[string]string {
	out := map[string]string{}

	if pct, ok := m[metrics.MetricForceAsymPct]; ok {
		out[metrics.MetricForceAsymPct] = ClassifyAsymmetry(pct)
	}
	if pct, ok := m[metrics.MetricImpulseAsymPct]; ok {
		out[metrics.MetricImpulseAsymPct] = ClassifyAsymmetry(pct)
	}
	if h, ok := m[metrics.MetricJumpHeightFlightM]; ok {
		out[metrics.MetricJumpHeightFlightM] = ClassifyJumpHeight(h)
	}
	if peak, ok := m[metrics.MetricPeakTotalForceN]; ok && bodyweightN > 0 {
		out[metrics.MetricPeakTotalForceN] = ClassifyRelativeForce(peak / bodyweightN)
	}
	return out
}

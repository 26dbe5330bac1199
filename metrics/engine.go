// Package metrics computes the session metric set from a conditioned force
// trace and its phase boundaries. Metrics whose required phase is missing are
// omitted from the result map entirely: a defaulted zero would be
// indistinguishable from a real measurement and would silently corrupt any
// statistics computed downstream.
package metrics

import (
	"fmt"
	"math"

	"grf-analyzer/phase"
	"grf-analyzer/signal"
	"grf-analyzer/stats"
)

// Gravity is the gravitational acceleration used by every height formula.
const Gravity = 9.81

// Metric name keys. Jump height is exposed under both derivations because the
// flight-time and impulse-momentum methods can disagree by several percent;
// the flight-time value is the canonical one.
const (
	MetricBodyWeightN          = "body_weight_n"
	MetricPeakTotalForceN      = "peak_total_force_n"
	MetricAvgTotalForceN       = "avg_total_force_n"
	MetricForceVariabilityN    = "force_variability_n"
	MetricFlightTimeMs         = "flight_time_ms"
	MetricContactTimeMs        = "contact_time_ms"
	MetricMovementTimeMs       = "movement_time_ms"
	MetricJumpHeightFlightM    = "jump_height_flight_m"
	MetricJumpHeightImpulseM   = "jump_height_impulse_m"
	MetricReactiveStrength     = "reactive_strength_index"
	MetricPeakBrakingForceN    = "peak_braking_force_n"
	MetricAvgBrakingForceN     = "avg_braking_force_n"
	MetricPeakPropulsionForceN = "peak_propulsion_force_n"
	MetricAvgPropulsionForceN  = "avg_propulsion_force_n"
	MetricPeakLandingForceN    = "peak_landing_force_n"
	MetricPropulsionImpulseNs  = "propulsion_impulse_ns"
	MetricBrakingImpulseNs     = "braking_impulse_ns"
	MetricRFDBrakingNPerS      = "rfd_braking_n_per_s"
	MetricRFDNPerS             = "rfd_n_per_s"
	MetricDropImpactVelMps     = "drop_impact_velocity_mps"
	MetricCopPathLengthMm      = "cop_path_length_mm"
	MetricForceAsymPct         = "force_asymmetry_pct"
	MetricForceAsymIndex       = "force_asymmetry_index"
	MetricImpulseAsymPct       = "impulse_asymmetry_pct"
	MetricImpulseAsymIndex     = "impulse_asymmetry_index"
	MetricTemporalAsymPct      = "temporal_asymmetry_pct"
	MetricTemporalAsymIndex    = "temporal_asymmetry_index"
	MetricSpatialAsymPct       = "spatial_asymmetry_pct"
	MetricSpatialAsymIndex     = "spatial_asymmetry_index"
)

// RFD derivation methods.
const (
	RFDLinearFit = "linearfit"
	RFDEndpoint  = "endpoint"
)

// TestMetrics maps metric name to a finite value. Produced once per completed
// session; the pipeline holds no reference after handing it off.
type TestMetrics map[string]float64

// Params carries the engine configuration extracted from the test parameters.
type Params struct {
	SamplingRateHz float64
	RFDMethod      string // RFDLinearFit or RFDEndpoint
	RFDWindowMs    float64

	// DropHeightM is the drop-jump box height. Zero means no box, which
	// disables the impact-velocity metric.
	DropHeightM float64
}

// Input bundles everything the engine consumes. Left/Right and the COP
// channels are optional: asymmetry and sway metrics are simply skipped when
// they are absent or misaligned.
type Input struct {
	Total       []float64
	Left, Right []float64

	LeftCopX, LeftCopY   []float64
	RightCopX, RightCopY []float64

	Events      []phase.Event
	BodyweightN float64
}

// Compute derives every metric the supplied data supports. It fails fast on
// an invalid sampling rate; everything else degrades to omitted metrics.
func Compute(p Params, in Input) (TestMetrics, error) {
	if p.SamplingRateHz <= 0 {
		return nil, fmt.Errorf("invalid sampling rate %v Hz", p.SamplingRateHz)
	}
	m := TestMetrics{}
	if len(in.Total) == 0 {
		return m, nil
	}
	dt := 1.0 / p.SamplingRateHz

	if in.BodyweightN > 0 {
		m[MetricBodyWeightN] = in.BodyweightN
	}
	peak, _ := stats.FindMax(in.Total)
	m[MetricPeakTotalForceN] = peak
	m[MetricAvgTotalForceN] = stats.Mean(in.Total)
	m[MetricForceVariabilityN] = stats.StdDev(in.Total)

	ivals := phase.Intervals(in.Events, len(in.Total))

	flight, hasFlight := ivals[phase.Flight]
	landing, hasLanding := ivals[phase.Landing]
	braking, hasBraking := ivals[phase.Braking]
	propulsion, hasPropulsion := ivals[phase.Propulsion]
	unloading, hasUnloading := ivals[phase.Unloading]

	if hasFlight && hasLanding {
		flightS := float64(landing[0]-flight[0]) * dt
		m[MetricFlightTimeMs] = flightS * 1000.0
		m[MetricJumpHeightFlightM] = Gravity * flightS * flightS / 8.0
	}
	if hasBraking && hasFlight {
		contactS := float64(flight[0]-braking[0]) * dt
		m[MetricContactTimeMs] = contactS * 1000.0
		if h, ok := m[MetricJumpHeightFlightM]; ok && contactS > 0 {
			m[MetricReactiveStrength] = h / contactS
		}
	}
	if hasUnloading && hasFlight {
		m[MetricMovementTimeMs] = float64(flight[0]-unloading[0]) * dt * 1000.0
	}

	if hasBraking {
		window := signal.Slice(in.Total, braking[0], braking[1])
		pk, _ := stats.FindMax(window)
		m[MetricPeakBrakingForceN] = pk
		m[MetricAvgBrakingForceN] = stats.Mean(window)
		m[MetricBrakingImpulseNs] = signal.Impulse(window, p.SamplingRateHz)
		if rfd, ok := rfdOverWindow(window, p); ok {
			m[MetricRFDBrakingNPerS] = rfd
		}
	}
	if hasPropulsion {
		window := signal.Slice(in.Total, propulsion[0], propulsion[1])
		pk, _ := stats.FindMax(window)
		m[MetricPeakPropulsionForceN] = pk
		m[MetricAvgPropulsionForceN] = stats.Mean(window)
		m[MetricPropulsionImpulseNs] = signal.Impulse(window, p.SamplingRateHz)
	}
	if hasLanding {
		window := signal.Slice(in.Total, landing[0], landing[1])
		pk, _ := stats.FindMax(window)
		m[MetricPeakLandingForceN] = pk
	}

	// Expected touchdown velocity off the drop box, v = sqrt(2gh). Reported
	// next to the measured impact forces so an implausible landing for the
	// configured box height stands out.
	if p.DropHeightM > 0 {
		m[MetricDropImpactVelMps] = math.Sqrt(2 * Gravity * p.DropHeightM)
	}

	// Impulse-momentum jump height: net impulse from movement onset (where
	// velocity is zero by definition of quiet standing) to takeoff gives the
	// takeoff velocity, then h = v^2 / 2g.
	if hasUnloading && hasFlight && in.BodyweightN > 0 {
		net := 0.0
		for _, f := range signal.Slice(in.Total, unloading[0], flight[0]) {
			net += (f - in.BodyweightN) * dt
		}
		mass := in.BodyweightN / Gravity
		v := net / mass
		if v > 0 {
			m[MetricJumpHeightImpulseM] = v * v / (2 * Gravity)
		}
	}

	// Isometric-style RFD: the athlete loads without leaving the ground, so
	// there is no braking or propulsion boundary to anchor the slope on.
	// Derive it from the load onset instead. A bare Standing event still
	// counts as "no movement" here.
	if !hasBraking && !hasPropulsion && in.BodyweightN > 0 {
		onset := -1
		threshold := in.BodyweightN * 1.05
		for i, f := range in.Total {
			if f > threshold {
				onset = i
				break
			}
		}
		if onset >= 0 {
			end := onset + int(p.RFDWindowMs/1000.0*p.SamplingRateHz)
			if rfd, ok := rfdOverWindow(signal.Slice(in.Total, onset, end), p); ok {
				m[MetricRFDNPerS] = rfd
			}
		}
	}

	computeAsymmetries(m, p, in, ivals)
	computeSway(m, in)

	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(m, k)
		}
	}
	return m, nil
}

// computeAsymmetries fills the left/right imbalance metrics. The comparison
// window is the propulsion phase when it exists and the whole capture
// otherwise, so balance and isometric tests still report imbalance.
func computeAsymmetries(m TestMetrics, p Params, in Input, ivals map[phase.Phase][2]int) {
	if len(in.Left) != len(in.Total) || len(in.Right) != len(in.Total) {
		return
	}
	start, end := 0, len(in.Total)
	if iv, ok := ivals[phase.Propulsion]; ok {
		start, end = iv[0], iv[1]
	}
	left := signal.Slice(in.Left, start, end)
	right := signal.Slice(in.Right, start, end)
	if len(left) == 0 || len(right) == 0 {
		return
	}

	lp, li := stats.FindMax(left)
	rp, ri := stats.FindMax(right)
	force := Asymmetry(ForceAsymmetry, lp, rp)
	m[MetricForceAsymPct] = force.Percentage
	m[MetricForceAsymIndex] = force.AsymmetryIndex

	impulse := Asymmetry(ImpulseAsymmetry,
		signal.Impulse(left, p.SamplingRateHz),
		signal.Impulse(right, p.SamplingRateHz))
	m[MetricImpulseAsymPct] = impulse.Percentage
	m[MetricImpulseAsymIndex] = impulse.AsymmetryIndex

	// Temporal imbalance compares time-to-peak per side within the window.
	dtMs := 1000.0 / p.SamplingRateHz
	temporal := Asymmetry(TemporalAsymmetry, float64(li)*dtMs, float64(ri)*dtMs)
	m[MetricTemporalAsymPct] = temporal.Percentage
	m[MetricTemporalAsymIndex] = temporal.AsymmetryIndex
}

// computeSway adds the center-of-pressure path metrics when COP data is
// present: combined path length for balance protocols plus the spatial
// left/right imbalance. COP does not depend on the per-side force channels.
func computeSway(m TestMetrics, in Input) {
	lPath, rPath, ok := copPaths(in)
	if !ok {
		return
	}
	m[MetricCopPathLengthMm] = lPath + rPath
	spatial := Asymmetry(SpatialAsymmetry, lPath, rPath)
	m[MetricSpatialAsymPct] = spatial.Percentage
	m[MetricSpatialAsymIndex] = spatial.AsymmetryIndex
}

func copPaths(in Input) (left, right float64, ok bool) {
	n := len(in.Total)
	if n == 0 ||
		len(in.LeftCopX) != n || len(in.LeftCopY) != n ||
		len(in.RightCopX) != n || len(in.RightCopY) != n {
		return 0, 0, false
	}
	return pathLength(in.LeftCopX, in.LeftCopY), pathLength(in.RightCopX, in.RightCopY), true
}

func pathLength(xs, ys []float64) float64 {
	total := 0.0
	for i := 1; i < len(xs); i++ {
		dx := xs[i] - xs[i-1]
		dy := ys[i] - ys[i-1]
		total += math.Sqrt(dx*dx + dy*dy)
	}
	return total
}

// rfdOverWindow derives the rate of force development over the early part of
// the supplied window, honoring the configured method and window length.
func rfdOverWindow(window []float64, p Params) (float64, bool) {
	if len(window) < 2 {
		return 0, false
	}
	n := int(p.RFDWindowMs / 1000.0 * p.SamplingRateHz)
	if n > 1 && n < len(window) {
		window = window[:n]
	}
	dt := 1.0 / p.SamplingRateHz
	switch p.RFDMethod {
	case RFDEndpoint:
		span := float64(len(window)-1) * dt
		return (window[len(window)-1] - window[0]) / span, true
	default:
		return linearSlope(window, dt), true
	}
}

// linearSlope is the least-squares slope of value against time.
func linearSlope(values []float64, dt float64) float64 {
	n := float64(len(values))
	sumT, sumV, sumTV, sumT2 := 0.0, 0.0, 0.0, 0.0
	for i, v := range values {
		t := float64(i) * dt
		sumT += t
		sumV += v
		sumTV += t * v
		sumT2 += t * t
	}
	denom := n*sumT2 - sumT*sumT
	if denom == 0 {
		return 0
	}
	return (n*sumTV - sumT*sumV) / denom
}

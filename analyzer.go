// Package grfnotes analyzes bilateral ground-reaction-force captures from a
// dual force plate and turns them into session metrics, phase boundaries,
// quality bands and operator notes. The pipeline is strictly forward: raw
// samples -> signal conditioning -> phase segmentation -> metric computation
// -> quality classification. One Analyze call owns all of its state, so
// concurrent sessions are just concurrent calls.
package grfnotes

import (
	"fmt"
	"math"

	"grf-analyzer/metrics"
	"grf-analyzer/phase"
	"grf-analyzer/signal"
	"grf-analyzer/stats"
)

// Config controls one analysis run.
type Config struct {
	TestType TestType
	// Parameters overrides the per-type defaults when non-nil.
	Parameters *TestParameters
	// BodyweightN is the athlete's quiet-standing force. Zero means estimate
	// it from the capture's initial quiet window.
	BodyweightN float64
}

// Analysis is the complete output for one session. It is handed off
// read-only to the storage and reporting collaborators; session identifiers
// and persistence timestamps are theirs to add, not ours.
type Analysis struct {
	TestType         string              `json:"test_type"`
	SampleCount      int                 `json:"sample_count"`
	DurationSeconds  float64             `json:"duration_seconds"`
	BodyweightN      float64             `json:"bodyweight_n"`
	BodyweightSource string              `json:"bodyweight_source"` // input|estimated|unavailable
	Metrics          metrics.TestMetrics `json:"metrics"`
	Phases           []phase.Event       `json:"phases,omitempty"`
	Conditioned      []float64           `json:"-"`
	Quality          map[string]string   `json:"quality,omitempty"`
	Parameters       TestParameters      `json:"parameters"`
	Warnings         []string            `json:"warnings,omitempty"`
	Notes            string              `json:"notes"`
}

// supportedMetrics maps each test type to the metric subset it reports.
// Everything the engine can compute is filtered through this table so a
// squat jump never reports countermovement braking numbers, and a balance
// test never reports a jump height.
var supportedMetrics = map[TestType][]string{
	CountermovementJump: {
		metrics.MetricBodyWeightN, metrics.MetricPeakTotalForceN, metrics.MetricAvgTotalForceN,
		metrics.MetricFlightTimeMs, metrics.MetricContactTimeMs, metrics.MetricMovementTimeMs,
		metrics.MetricJumpHeightFlightM, metrics.MetricJumpHeightImpulseM,
		metrics.MetricPeakBrakingForceN, metrics.MetricAvgBrakingForceN,
		metrics.MetricPeakPropulsionForceN, metrics.MetricAvgPropulsionForceN,
		metrics.MetricPeakLandingForceN,
		metrics.MetricBrakingImpulseNs, metrics.MetricPropulsionImpulseNs,
		metrics.MetricRFDBrakingNPerS,
		metrics.MetricForceAsymPct, metrics.MetricForceAsymIndex,
		metrics.MetricImpulseAsymPct, metrics.MetricImpulseAsymIndex,
		metrics.MetricTemporalAsymPct, metrics.MetricTemporalAsymIndex,
		metrics.MetricSpatialAsymPct, metrics.MetricSpatialAsymIndex,
	},
	SquatJump: {
		metrics.MetricBodyWeightN, metrics.MetricPeakTotalForceN, metrics.MetricAvgTotalForceN,
		metrics.MetricFlightTimeMs, metrics.MetricMovementTimeMs,
		metrics.MetricJumpHeightFlightM, metrics.MetricJumpHeightImpulseM,
		metrics.MetricPeakPropulsionForceN, metrics.MetricAvgPropulsionForceN,
		metrics.MetricPeakLandingForceN, metrics.MetricPropulsionImpulseNs,
		metrics.MetricForceAsymPct, metrics.MetricForceAsymIndex,
		metrics.MetricImpulseAsymPct, metrics.MetricImpulseAsymIndex,
		metrics.MetricTemporalAsymPct, metrics.MetricTemporalAsymIndex,
		metrics.MetricSpatialAsymPct, metrics.MetricSpatialAsymIndex,
	},
	DropJump: {
		metrics.MetricBodyWeightN, metrics.MetricPeakTotalForceN, metrics.MetricAvgTotalForceN,
		metrics.MetricFlightTimeMs, metrics.MetricContactTimeMs,
		metrics.MetricJumpHeightFlightM, metrics.MetricJumpHeightImpulseM,
		metrics.MetricReactiveStrength, metrics.MetricDropImpactVelMps,
		metrics.MetricPeakBrakingForceN, metrics.MetricAvgBrakingForceN,
		metrics.MetricPeakPropulsionForceN, metrics.MetricAvgPropulsionForceN,
		metrics.MetricPeakLandingForceN,
		metrics.MetricBrakingImpulseNs, metrics.MetricPropulsionImpulseNs,
		metrics.MetricRFDBrakingNPerS,
		metrics.MetricForceAsymPct, metrics.MetricForceAsymIndex,
		metrics.MetricImpulseAsymPct, metrics.MetricImpulseAsymIndex,
		metrics.MetricTemporalAsymPct, metrics.MetricTemporalAsymIndex,
		metrics.MetricSpatialAsymPct, metrics.MetricSpatialAsymIndex,
	},
	IsometricPull: {
		metrics.MetricBodyWeightN, metrics.MetricPeakTotalForceN, metrics.MetricAvgTotalForceN,
		metrics.MetricRFDNPerS,
		metrics.MetricForceAsymPct, metrics.MetricForceAsymIndex,
		metrics.MetricImpulseAsymPct, metrics.MetricImpulseAsymIndex,
		metrics.MetricTemporalAsymPct, metrics.MetricTemporalAsymIndex,
	},
	BalanceTest: {
		metrics.MetricBodyWeightN, metrics.MetricAvgTotalForceN, metrics.MetricForceVariabilityN,
		metrics.MetricCopPathLengthMm,
		metrics.MetricForceAsymPct, metrics.MetricForceAsymIndex,
		metrics.MetricImpulseAsymPct, metrics.MetricImpulseAsymIndex,
		metrics.MetricTemporalAsymPct, metrics.MetricTemporalAsymIndex,
		metrics.MetricSpatialAsymPct, metrics.MetricSpatialAsymIndex,
	},
}

// SupportedMetrics returns the metric names a test type can report.
func SupportedMetrics(t TestType) []string {
	return append([]string(nil), supportedMetrics[t]...)
}

// Analyze runs the full conditioning, segmentation, metric and quality
// pipeline over one captured session. A session with too little usable data
// returns an Analysis with empty metrics and an explanatory warning rather
// than an error: interruption is an expected outcome, not a failure.
func Analyze(samples []ForceSample, cfg Config) (*Analysis, error) {
	params := DefaultParameters(cfg.TestType)
	if cfg.Parameters != nil {
		params = *cfg.Parameters
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("test parameters: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples supplied")
	}

	a := &Analysis{
		TestType:   cfg.TestType.String(),
		Parameters: params,
		Metrics:    metrics.TestMetrics{},
		Quality:    map[string]string{},
	}

	total, left, right, cop, dropped := extractChannels(samples)
	if dropped > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("dropped %d non-finite or out-of-order samples", dropped))
	}
	a.SampleCount = len(total)
	a.DurationSeconds = float64(len(total)) / params.SamplingRateHz

	minSamples := int(params.MinCaptureMs / 1000.0 * params.SamplingRateHz)
	if len(total) < minSamples || len(total) < 2 {
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("insufficient data: %d samples, need at least %d", len(total), minSamples))
		a.Notes = BuildSessionNotes(a)
		return a, nil
	}

	if spikes := countTrue(signal.DetectSpikes(total, params.NoiseSpikeThresholdN)); spikes > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%d noisy samples detected", spikes))
	}

	a.BodyweightN = cfg.BodyweightN
	a.BodyweightSource = "input"
	if a.BodyweightN <= 0 {
		a.BodyweightN = stats.Mean(total[:signal.BaselineWindow(len(total))])
		a.BodyweightSource = "estimated"
		if a.BodyweightN <= 0 {
			a.BodyweightSource = "unavailable"
			a.Warnings = append(a.Warnings, "bodyweight unavailable: no load in the initial window")
		}
	}

	conditioned := signal.LowPass(signal.MovingAverage(total, params.SmoothingWindow), params.LowPassAlpha)
	a.Conditioned = conditioned

	a.Phases = phase.Segment(conditioned, a.BodyweightN, phaseParams(params))
	if len(a.Phases) == 0 && isJumpTest(cfg.TestType) {
		a.Warnings = append(a.Warnings, "no movement phases detected")
	}

	in := metrics.Input{
		Total:       conditioned,
		Left:        signal.MovingAverage(left, params.SmoothingWindow),
		Right:       signal.MovingAverage(right, params.SmoothingWindow),
		Events:      a.Phases,
		BodyweightN: a.BodyweightN,
	}
	if cop != nil {
		in.LeftCopX, in.LeftCopY = cop[0], cop[1]
		in.RightCopX, in.RightCopY = cop[2], cop[3]
	}
	computed, err := metrics.Compute(metrics.Params{
		SamplingRateHz: params.SamplingRateHz,
		RFDMethod:      params.RFDMethod,
		RFDWindowMs:    params.RFDWindowMs,
		DropHeightM:    params.CustomOr("dropHeight", 0),
	}, in)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	allowed := make(map[string]bool, len(supportedMetrics[cfg.TestType]))
	for _, name := range supportedMetrics[cfg.TestType] {
		allowed[name] = true
	}
	for name, value := range computed {
		if allowed[name] {
			a.Metrics[name] = value
		}
	}

	a.Quality = classifySession(cfg.TestType, a.Metrics, a.BodyweightN)
	a.Notes = BuildSessionNotes(a)
	return a, nil
}

// extractChannels validates and splits the raw samples into per-channel
// sequences. Non-finite forces and timestamp regressions are dropped here so
// nothing downstream ever sees them. COP channels are returned only when
// every kept sample carries all four.
func extractChannels(samples []ForceSample) (total, left, right []float64, cop *[4][]float64, dropped int) {
	total = make([]float64, 0, len(samples))
	left = make([]float64, 0, len(samples))
	right = make([]float64, 0, len(samples))

	copOK := true
	var copArr [4][]float64

	var lastTS int64
	haveTS := false
	for _, s := range samples {
		if !isFinite(s.LeftForce) || !isFinite(s.RightForce) {
			dropped++
			continue
		}
		if haveTS && s.TimestampMillis <= lastTS {
			dropped++
			continue
		}
		lastTS = s.TimestampMillis
		haveTS = true

		total = append(total, s.TotalForce())
		left = append(left, s.LeftForce)
		right = append(right, s.RightForce)

		if copOK && s.HasCop() {
			copArr[0] = append(copArr[0], *s.LeftCopX)
			copArr[1] = append(copArr[1], *s.LeftCopY)
			copArr[2] = append(copArr[2], *s.RightCopX)
			copArr[3] = append(copArr[3], *s.RightCopY)
		} else {
			copOK = false
		}
	}
	if copOK && len(copArr[0]) == len(total) && len(total) > 0 {
		cop = &copArr
	}
	return total, left, right, cop, dropped
}

func phaseParams(p TestParameters) phase.Params {
	toSamples := func(ms float64) int {
		n := int(ms / 1000.0 * p.SamplingRateHz)
		if n < 1 {
			n = 1
		}
		return n
	}
	return phase.Params{
		UnloadingBand:      p.UnloadingBand,
		TakeoffThreshold:   p.TakeoffThreshold,
		LandingThreshold:   p.LandingThreshold,
		StableBand:         p.StableBand,
		MinStandingSamples: toSamples(p.MinStandingMs),
		MinStableSamples:   toSamples(p.MinStableMs),
		DebounceSamples:    toSamples(p.DebounceMs),
		MinSamples:         toSamples(p.MinCaptureMs),
	}
}

func isJumpTest(t TestType) bool {
	switch t {
	case CountermovementJump, SquatJump, DropJump:
		return true
	}
	return false
}

func countTrue(mask []bool) int {
	n := 0
	for _, f := range mask {
		if f {
			n++
		}
	}
	return n
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package grfnotes

import (
	"fmt"
	"strings"
)

// ForceSample is one tick of bilateral plate output. Timestamps are strictly
// increasing within a session; forces are Newtons and never negative at the
// acquisition boundary. The center-of-pressure channels are optional and nil
// when the plate does not report them.
type ForceSample struct {
	TimestampMillis int64   `json:"ts_ms"`
	LeftForce       float64 `json:"left_n"`
	RightForce      float64 `json:"right_n"`

	LeftCopX  *float64 `json:"left_cop_x_mm,omitempty"`
	LeftCopY  *float64 `json:"left_cop_y_mm,omitempty"`
	RightCopX *float64 `json:"right_cop_x_mm,omitempty"`
	RightCopY *float64 `json:"right_cop_y_mm,omitempty"`
}

// TotalForce returns the combined vertical ground-reaction force.
func (s ForceSample) TotalForce() float64 {
	return s.LeftForce + s.RightForce
}

// HasCop reports whether all four center-of-pressure channels are present.
func (s ForceSample) HasCop() bool {
	return s.LeftCopX != nil && s.LeftCopY != nil && s.RightCopX != nil && s.RightCopY != nil
}

// TestType is the closed set of supported plate protocols. Per-type defaults
// and supported metric sets live in lookup tables rather than subclass
// hierarchies, so adding a protocol is a table change.
type TestType int

const (
	CountermovementJump TestType = iota
	SquatJump
	DropJump
	IsometricPull
	BalanceTest
)

var testTypeNames = [...]string{
	CountermovementJump: "cmj",
	SquatJump:           "squat_jump",
	DropJump:            "drop_jump",
	IsometricPull:       "isometric_pull",
	BalanceTest:         "balance",
}

func (t TestType) String() string {
	if t < 0 || int(t) >= len(testTypeNames) {
		return "unknown"
	}
	return testTypeNames[t]
}

// ParseTestType maps a protocol name to its TestType.
func ParseTestType(s string) (TestType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range testTypeNames {
		if n == name {
			return TestType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown test type %q (expected one of %s)", s, strings.Join(testTypeNames[:], "|"))
}

// TestParameters configures one session. A value is chosen once at test start
// and read-only afterwards; every downstream component receives the same
// value. Durations are milliseconds so they stay meaningful across sampling
// rates.
type TestParameters struct {
	SamplingRateHz float64 `json:"sampling_rate_hz" yaml:"sampling_rate_hz"`
	DurationS      float64 `json:"duration_s" yaml:"duration_s"`

	// Phase detection thresholds, as bodyweight-normalized ratios.
	UnloadingBand    float64 `json:"unloading_band" yaml:"unloading_band"`
	TakeoffThreshold float64 `json:"takeoff_threshold" yaml:"takeoff_threshold"`
	LandingThreshold float64 `json:"landing_threshold" yaml:"landing_threshold"`
	StableBand       float64 `json:"stable_band" yaml:"stable_band"`

	// Phase detection timing guards.
	MinStandingMs float64 `json:"min_standing_ms" yaml:"min_standing_ms"`
	MinStableMs   float64 `json:"min_stable_ms" yaml:"min_stable_ms"`
	DebounceMs    float64 `json:"debounce_ms" yaml:"debounce_ms"`
	MinCaptureMs  float64 `json:"min_capture_ms" yaml:"min_capture_ms"`

	// Conditioning settings.
	SmoothingWindow      int     `json:"smoothing_window" yaml:"smoothing_window"`
	LowPassAlpha         float64 `json:"low_pass_alpha" yaml:"low_pass_alpha"`
	NoiseSpikeThresholdN float64 `json:"noise_spike_threshold_n" yaml:"noise_spike_threshold_n"`

	// Metric derivation settings.
	RFDMethod   string  `json:"rfd_method" yaml:"rfd_method"` // linearfit|endpoint
	RFDWindowMs float64 `json:"rfd_window_ms" yaml:"rfd_window_ms"`

	// Custom holds protocol-specific named settings (e.g. dropHeight for
	// drop jumps). Absent keys fall back per call site via CustomOr.
	Custom map[string]float64 `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// CustomOr returns the named custom setting or fallback when absent.
func (p TestParameters) CustomOr(key string, fallback float64) float64 {
	if v, ok := p.Custom[key]; ok {
		return v
	}
	return fallback
}

// defaultParameters maps each test type to its protocol defaults. Thresholds
// and guard durations differ across protocols and body sizes; these are
// starting points, overridable per session.
var defaultParameters = map[TestType]TestParameters{
	CountermovementJump: {
		SamplingRateHz: 1000, DurationS: 10,
		UnloadingBand: 0.2, TakeoffThreshold: 0.1, LandingThreshold: 0.5, StableBand: 0.1,
		MinStandingMs: 300, MinStableMs: 100, DebounceMs: 5, MinCaptureMs: 200,
		SmoothingWindow: 5, LowPassAlpha: 0.3, NoiseSpikeThresholdN: 150,
		RFDMethod: "linearfit", RFDWindowMs: 100,
	},
	SquatJump: {
		SamplingRateHz: 1000, DurationS: 10,
		UnloadingBand: 0.1, TakeoffThreshold: 0.1, LandingThreshold: 0.5, StableBand: 0.1,
		MinStandingMs: 300, MinStableMs: 100, DebounceMs: 5, MinCaptureMs: 200,
		SmoothingWindow: 5, LowPassAlpha: 0.3, NoiseSpikeThresholdN: 150,
		RFDMethod: "linearfit", RFDWindowMs: 100,
	},
	DropJump: {
		SamplingRateHz: 1000, DurationS: 15,
		UnloadingBand: 0.3, TakeoffThreshold: 0.1, LandingThreshold: 0.5, StableBand: 0.15,
		MinStandingMs: 300, MinStableMs: 100, DebounceMs: 5, MinCaptureMs: 200,
		SmoothingWindow: 5, LowPassAlpha: 0.3, NoiseSpikeThresholdN: 200,
		RFDMethod: "linearfit", RFDWindowMs: 100,
		Custom: map[string]float64{"dropHeight": 0.30},
	},
	IsometricPull: {
		SamplingRateHz: 1000, DurationS: 8,
		UnloadingBand: 0.2, TakeoffThreshold: 0.1, LandingThreshold: 0.5, StableBand: 0.1,
		MinStandingMs: 300, MinStableMs: 100, DebounceMs: 5, MinCaptureMs: 500,
		SmoothingWindow: 9, LowPassAlpha: 0.2, NoiseSpikeThresholdN: 150,
		RFDMethod: "endpoint", RFDWindowMs: 200,
	},
	BalanceTest: {
		SamplingRateHz: 1000, DurationS: 30,
		UnloadingBand: 0.2, TakeoffThreshold: 0.1, LandingThreshold: 0.5, StableBand: 0.1,
		MinStandingMs: 300, MinStableMs: 100, DebounceMs: 5, MinCaptureMs: 1000,
		SmoothingWindow: 21, LowPassAlpha: 0.1, NoiseSpikeThresholdN: 100,
		RFDMethod: "linearfit", RFDWindowMs: 100,
	},
}

// DefaultParameters returns a copy of the default TestParameters for a test
// type.
func DefaultParameters(t TestType) TestParameters {
	p, ok := defaultParameters[t]
	if !ok {
		p = defaultParameters[CountermovementJump]
	}
	if p.Custom != nil {
		custom := make(map[string]float64, len(p.Custom))
		for k, v := range p.Custom {
			custom[k] = v
		}
		p.Custom = custom
	}
	return p
}

// Validate fails fast on out-of-range configuration.
func (p TestParameters) Validate() error {
	if p.SamplingRateHz <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %v", p.SamplingRateHz)
	}
	if p.LowPassAlpha <= 0 || p.LowPassAlpha > 1 {
		return fmt.Errorf("low-pass alpha must be in (0, 1], got %v", p.LowPassAlpha)
	}
	if p.UnloadingBand <= 0 || p.UnloadingBand >= 1 {
		return fmt.Errorf("unloading band must be in (0, 1), got %v", p.UnloadingBand)
	}
	if p.TakeoffThreshold <= 0 || p.TakeoffThreshold >= p.LandingThreshold {
		return fmt.Errorf("takeoff threshold %v must be positive and below landing threshold %v",
			p.TakeoffThreshold, p.LandingThreshold)
	}
	return nil
}

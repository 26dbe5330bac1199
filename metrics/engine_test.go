package metrics

import (
	"math"
	"testing"

	"grf-analyzer/phase"
)

func TestAsymmetrySignConvention(t *testing.T) {
	res := Asymmetry(ForceAsymmetry, 550, 450)
	if math.Abs(res.Percentage-10.0) > 1e-9 {
		t.Fatalf("percentage = %v, want 10", res.Percentage)
	}
	if math.Abs(res.AsymmetryIndex-(-10.0)) > 1e-9 {
		t.Fatalf("index = %v, want -10 (left-dominant)", res.AsymmetryIndex)
	}

	res = Asymmetry(ForceAsymmetry, 450, 550)
	if math.Abs(res.AsymmetryIndex-10.0) > 1e-9 {
		t.Fatalf("index = %v, want +10 (right-dominant)", res.AsymmetryIndex)
	}
}

func TestAsymmetryZeroLoadIsDefinedZero(t *testing.T) {
	res := Asymmetry(ImpulseAsymmetry, 0, 0)
	if res.Percentage != 0 || res.AsymmetryIndex != 0 {
		t.Fatalf("zero load must yield zero asymmetry, got %+v", res)
	}
}

func TestComputeRejectsInvalidSamplingRate(t *testing.T) {
	if _, err := Compute(Params{SamplingRateHz: 0}, Input{Total: []float64{1}}); err == nil {
		t.Fatal("expected error for zero sampling rate")
	}
	if _, err := Compute(Params{SamplingRateHz: -10}, Input{Total: []float64{1}}); err == nil {
		t.Fatal("expected error for negative sampling rate")
	}
}

// flightInput builds a trace with exact phase boundaries so time-derived
// metrics can be checked against closed-form values.
func flightInput(bw float64, flightSamples int) Input {
	const (
		unloadAt = 100
		brakeAt  = 200
		propAt   = 300
		flightAt = 400
	)
	landAt := flightAt + flightSamples
	total := make([]float64, landAt+200)
	for i := range total {
		switch {
		case i < unloadAt:
			total[i] = bw
		case i < brakeAt:
			total[i] = bw * 0.75
		case i < propAt:
			total[i] = bw * 2.0
		case i < flightAt:
			total[i] = bw * 1.5
		case i < landAt:
			total[i] = 0
		default:
			total[i] = bw * 1.8
		}
	}
	return Input{
		Total:       total,
		BodyweightN: bw,
		Events: []phase.Event{
			{SampleIndex: 0, Phase: phase.Standing},
			{SampleIndex: unloadAt, Phase: phase.Unloading},
			{SampleIndex: brakeAt, Phase: phase.Braking},
			{SampleIndex: propAt, Phase: phase.Propulsion},
			{SampleIndex: flightAt, Phase: phase.Flight},
			{SampleIndex: landAt, Phase: phase.Landing},
		},
	}
}

func TestJumpHeightFlightTimeMethod(t *testing.T) {
	// 400 samples at 1000 Hz = 400 ms of flight.
	in := flightInput(700, 400)
	m, err := Compute(Params{SamplingRateHz: 1000, RFDWindowMs: 100}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	ft, ok := m[MetricFlightTimeMs]
	if !ok {
		t.Fatalf("flight time missing: %v", m)
	}
	if math.Abs(ft-400) > 1e-9 {
		t.Fatalf("flight time = %v ms, want 400", ft)
	}

	h, ok := m[MetricJumpHeightFlightM]
	if !ok {
		t.Fatal("jump height (flight method) missing")
	}
	want := Gravity * 0.4 * 0.4 / 8.0 // ≈ 0.1962 m
	if math.Abs(h-want)/want > 0.01 {
		t.Fatalf("jump height = %v, want %v within 1%%", h, want)
	}
}

func TestPhaseWindowForces(t *testing.T) {
	in := flightInput(700, 400)
	m, err := Compute(Params{SamplingRateHz: 1000, RFDWindowMs: 100}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	if got := m[MetricPeakBrakingForceN]; math.Abs(got-1400) > 1e-9 {
		t.Fatalf("peak braking force = %v, want 1400", got)
	}
	if got := m[MetricAvgPropulsionForceN]; math.Abs(got-1050) > 1e-9 {
		t.Fatalf("avg propulsion force = %v, want 1050", got)
	}
	if got := m[MetricPeakLandingForceN]; math.Abs(got-1260) > 1e-9 {
		t.Fatalf("peak landing force = %v, want 1260", got)
	}
	// Propulsion: 100 samples at 1050 N over 0.1 s.
	if got := m[MetricPropulsionImpulseNs]; math.Abs(got-105) > 1e-9 {
		t.Fatalf("propulsion impulse = %v, want 105", got)
	}
	if got := m[MetricContactTimeMs]; math.Abs(got-200) > 1e-9 {
		t.Fatalf("contact time = %v ms, want 200", got)
	}
}

func TestMissingPhaseOmitsMetric(t *testing.T) {
	bw := 700.0
	total := make([]float64, 600)
	for i := range total {
		total[i] = bw
	}
	in := Input{
		Total:       total,
		BodyweightN: bw,
		Events: []phase.Event{
			{SampleIndex: 0, Phase: phase.Standing},
			{SampleIndex: 300, Phase: phase.Unloading},
		},
	}
	m, err := Compute(Params{SamplingRateHz: 1000}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	for _, key := range []string{
		MetricFlightTimeMs, MetricJumpHeightFlightM, MetricJumpHeightImpulseM,
		MetricPeakPropulsionForceN, MetricPeakLandingForceN, MetricContactTimeMs,
	} {
		if _, present := m[key]; present {
			t.Fatalf("metric %s present despite missing phases", key)
		}
	}
	if _, present := m[MetricPeakTotalForceN]; !present {
		t.Fatal("whole-capture metrics must survive missing phases")
	}
}

func TestTruncatedSessionKeepsCompletedPhaseMetrics(t *testing.T) {
	in := flightInput(700, 400)
	// Truncate: landing happened but the trace never reached recovery, and
	// the session is cut right after landing began.
	m, err := Compute(Params{SamplingRateHz: 1000}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if _, ok := m[MetricPeakPropulsionForceN]; !ok {
		t.Fatal("propulsion metrics should survive a truncated capture")
	}
	if _, ok := m[MetricJumpHeightFlightM]; !ok {
		t.Fatal("flight completed, jump height must be present")
	}
}

func TestImpulseJumpHeightPositiveAndPlausible(t *testing.T) {
	bw := 700.0
	in := flightInput(bw, 400)
	// Reshape the pre-takeoff window so net impulse is positive: strong
	// propulsion after a mild unloading dip.
	m, err := Compute(Params{SamplingRateHz: 1000}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	h, ok := m[MetricJumpHeightImpulseM]
	if !ok {
		t.Fatalf("impulse-method jump height missing: %v", m)
	}
	if h <= 0 || h > 2 {
		t.Fatalf("implausible impulse-method height: %v", h)
	}
}

func TestRFDMethods(t *testing.T) {
	// Ramp from 700 to 1700 N over 100 samples at 1000 Hz: slope 10000 N/s.
	window := make([]float64, 100)
	for i := range window {
		window[i] = 700 + 10*float64(i)
	}
	for _, method := range []string{RFDLinearFit, RFDEndpoint} {
		rfd, ok := rfdOverWindow(window, Params{SamplingRateHz: 1000, RFDMethod: method, RFDWindowMs: 100})
		if !ok {
			t.Fatalf("method %s: no RFD", method)
		}
		if math.Abs(rfd-10000) > 1 {
			t.Fatalf("method %s: RFD = %v, want 10000", method, rfd)
		}
	}
}

// pullTrace is a quiet stand followed by a 4000 N/s ramp and a plateau.
func pullTrace(bw float64) []float64 {
	total := make([]float64, 2000)
	for i := range total {
		switch {
		case i < 500:
			total[i] = bw
		case i < 1000:
			total[i] = bw + 4*float64(i-500) // 4 N per ms = 4000 N/s
		default:
			total[i] = bw + 2000
		}
	}
	return total
}

func TestIsometricRFDFromOnset(t *testing.T) {
	bw := 800.0
	m, err := Compute(Params{SamplingRateHz: 1000, RFDMethod: RFDEndpoint, RFDWindowMs: 200}, Input{
		Total:       pullTrace(bw),
		BodyweightN: bw,
	})
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	rfd, ok := m[MetricRFDNPerS]
	if !ok {
		t.Fatalf("isometric RFD missing: %v", m)
	}
	if math.Abs(rfd-4000) > 100 {
		t.Fatalf("isometric RFD = %v, want ~4000", rfd)
	}
}

// A pull capture always carries the segmenter's Standing event; onset RFD
// must still be derived as long as no movement phases were detected.
func TestIsometricRFDWithStandingEvent(t *testing.T) {
	bw := 800.0
	m, err := Compute(Params{SamplingRateHz: 1000, RFDMethod: RFDEndpoint, RFDWindowMs: 200}, Input{
		Total:       pullTrace(bw),
		Events:      []phase.Event{{SampleIndex: 0, Phase: phase.Standing}},
		BodyweightN: bw,
	})
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	rfd, ok := m[MetricRFDNPerS]
	if !ok {
		t.Fatalf("onset RFD missing with standing event: %v", m)
	}
	if math.Abs(rfd-4000) > 100 {
		t.Fatalf("onset RFD = %v, want ~4000", rfd)
	}

	// A capture with movement phases keeps the branch off.
	mv, err := Compute(Params{SamplingRateHz: 1000, RFDMethod: RFDEndpoint, RFDWindowMs: 200}, flightInput(700, 400))
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if _, ok := mv[MetricRFDNPerS]; ok {
		t.Fatalf("onset RFD computed despite movement phases: %v", mv)
	}
}

func TestAsymmetryMetricsOverPropulsionWindow(t *testing.T) {
	in := flightInput(700, 400)
	n := len(in.Total)
	in.Left = make([]float64, n)
	in.Right = make([]float64, n)
	for i := range in.Total {
		in.Left[i] = in.Total[i] * 0.55
		in.Right[i] = in.Total[i] * 0.45
	}
	m, err := Compute(Params{SamplingRateHz: 1000}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if got := m[MetricForceAsymPct]; math.Abs(got-10) > 1e-9 {
		t.Fatalf("force asymmetry pct = %v, want 10", got)
	}
	if got := m[MetricForceAsymIndex]; math.Abs(got-(-10)) > 1e-9 {
		t.Fatalf("force asymmetry index = %v, want -10", got)
	}
	if got := m[MetricImpulseAsymIndex]; math.Abs(got-(-10)) > 1e-9 {
		t.Fatalf("impulse asymmetry index = %v, want -10", got)
	}
}

func TestCopPathMetrics(t *testing.T) {
	n := 100
	in := Input{Total: make([]float64, n), BodyweightN: 600}
	in.LeftCopX = make([]float64, n)
	in.LeftCopY = make([]float64, n)
	in.RightCopX = make([]float64, n)
	in.RightCopY = make([]float64, n)
	for i := 0; i < n; i++ {
		in.Total[i] = 600
		in.LeftCopX[i] = float64(i) // 1 mm per sample, 99 mm path
		in.RightCopX[i] = float64(i) * 0.5
	}
	m, err := Compute(Params{SamplingRateHz: 1000}, in)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if got := m[MetricCopPathLengthMm]; math.Abs(got-148.5) > 1e-9 {
		t.Fatalf("cop path length = %v, want 148.5", got)
	}
	if got := m[MetricSpatialAsymIndex]; got >= 0 {
		t.Fatalf("left side moved more, index should be negative: %v", got)
	}
}

// Package signal conditions raw force traces before phase detection and
// metric computation. Every operation takes an ordered sequence of finite
// force values and returns a derived sequence; none of them mutate their
// input.
package signal

import (
	"grf-analyzer/stats"
)

// BaselineWindow returns the number of leading samples used as the quiet
// baseline: min(100, n/4).
func BaselineWindow(n int) int {
	w := n / 4
	if w > 100 {
		w = 100
	}
	return w
}

// BaselineCorrect subtracts the mean of the first min(100, n/4) samples from
// every sample. The capture starts with a quiet period whose average defines
// the true zero, so this removes load-cell offset drift without an external
// calibration step. Sequences too short to form a baseline window are
// returned unchanged (copied).
func BaselineCorrect(values []float64) []float64 {
	out := append([]float64(nil), values...)
	w := BaselineWindow(len(values))
	if w == 0 {
		return out
	}
	offset := stats.Mean(values[:w])
	for i := range out {
		out[i] -= offset
	}
	return out
}

// MovingAverage smooths with a centered window of the given size. Samples
// near the edges use a shrinking window instead of padding, so the output has
// the same length as the input. A window of 1 or less is a no-op copy.
func MovingAverage(values []float64, window int) []float64 {
	out := append([]float64(nil), values...)
	if window <= 1 || len(values) == 0 {
		return out
	}
	half := window / 2
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// LowPass applies a single-pole exponential filter:
// y[i] = alpha*x[i] + (1-alpha)*y[i-1], with y[0] = x[0]. Larger alpha tracks
// the input faster but admits more noise. alpha outside (0, 1] is treated as
// a passthrough copy.
func LowPass(values []float64, alpha float64) []float64 {
	out := append([]float64(nil), values...)
	if alpha <= 0 || alpha > 1 || len(values) == 0 {
		return out
	}
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Derivative returns the first difference divided by the sampling interval,
// one sample shorter than the input. This is the instantaneous rate of change
// used for force-development-rate metrics. A non-positive sampling rate
// yields nil.
func Derivative(values []float64, samplingRateHz float64) []float64 {
	if samplingRateHz <= 0 || len(values) < 2 {
		return nil
	}
	dt := 1.0 / samplingRateHz
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = (values[i] - values[i-1]) / dt
	}
	return out
}

// DetectSpikes flags interior samples where either adjacent first-difference
// magnitude exceeds threshold. The first and last samples lack a neighbor on
// one side and are never flagged. The mask is aligned 1:1 with the input.
func DetectSpikes(values []float64, threshold float64) []bool {
	mask := make([]bool, len(values))
	if threshold <= 0 || len(values) < 3 {
		return mask
	}
	for i := 1; i < len(values)-1; i++ {
		prev := values[i] - values[i-1]
		next := values[i+1] - values[i]
		if abs(prev) > threshold || abs(next) > threshold {
			mask[i] = true
		}
	}
	return mask
}

// Impulse integrates the sequence over time using rectangle summation:
// sum(values) * dt. Slice the input first for per-phase impulse. A
// non-positive sampling rate yields 0.
func Impulse(values []float64, samplingRateHz float64) float64 {
	if samplingRateHz <= 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / samplingRateHz
}

// Slice returns values[start:end] clamped to the valid range, for per-phase
// windows derived from segmenter indices.
func Slice(values []float64, start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(values) {
		end = len(values)
	}
	if start >= end {
		return nil
	}
	return values[start:end]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

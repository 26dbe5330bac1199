// Package stats provides the aggregate and outlier helpers shared by the
// signal conditioning and metric computation layers. All functions operate on
// ordered sequences of finite float64 values; aggregates over an empty
// sequence return 0 so that short or missing analysis windows degrade to
// "no signal" instead of failing the whole session.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// ErrPercentileRange is returned when a percentile argument falls outside [0, 100].
var ErrPercentileRange = fmt.Errorf("percentile out of range [0, 100]")

// Mean returns the arithmetic mean, or 0 for an empty sequence.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 divisor).
// Sequences shorter than two samples have no spread and return 0.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	varianceSum := 0.0
	for _, v := range values {
		varianceSum += (v - mean) * (v - mean)
	}
	return math.Sqrt(varianceSum / float64(n-1))
}

// RMS returns the root mean square, or 0 for an empty sequence.
func RMS(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Percentile returns the p-th percentile using linear interpolation between
// order statistics. p must be in [0, 100]; anything else fails fast with
// ErrPercentileRange. An empty sequence yields 0.
func Percentile(values []float64, p float64) (float64, error) {
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: %v", ErrPercentileRange, p)
	}
	if len(values) == 0 {
		return 0, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], nil
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), nil
}

// FindMax returns the maximum value and its index, or (0, -1) on empty input.
func FindMax(values []float64) (float64, int) {
	if len(values) == 0 {
		return 0, -1
	}
	best, at := values[0], 0
	for i, v := range values[1:] {
		if v > best {
			best = v
			at = i + 1
		}
	}
	return best, at
}

// FindMin returns the minimum value and its index, or (0, -1) on empty input.
func FindMin(values []float64) (float64, int) {
	if len(values) == 0 {
		return 0, -1
	}
	best, at := values[0], 0
	for i, v := range values[1:] {
		if v < best {
			best = v
			at = i + 1
		}
	}
	return best, at
}

// Correlation returns the Pearson correlation coefficient between x and y.
// Mismatched lengths, fewer than two pairs, or zero variance on either side
// yield 0.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	n := float64(len(x))
	sumX, sumY, sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0, 0.0, 0.0
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	r := numerator / denominator
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// OutliersIQR flags values outside [Q1 - k*IQR, Q3 + k*IQR]. The returned mask
// is aligned 1:1 with the input. Fewer than four samples give no usable
// quartiles, so the mask is all false. k <= 0 falls back to the conventional
// 1.5.
func OutliersIQR(values []float64, k float64) []bool {
	mask := make([]bool, len(values))
	if len(values) < 4 {
		return mask
	}
	if k <= 0 {
		k = 1.5
	}
	q1, _ := Percentile(values, 25)
	q3, _ := Percentile(values, 75)
	iqr := q3 - q1
	low := q1 - k*iqr
	high := q3 + k*iqr
	for i, v := range values {
		if v < low || v > high {
			mask[i] = true
		}
	}
	return mask
}

// OutliersZScore flags values whose z-score magnitude exceeds threshold. The
// returned mask is aligned 1:1 with the input. Fewer than two samples have a
// zero standard deviation, so the mask is all false. threshold <= 0 falls
// back to 3.0.
func OutliersZScore(values []float64, threshold float64) []bool {
	mask := make([]bool, len(values))
	if len(values) < 2 {
		return mask
	}
	if threshold <= 0 {
		threshold = 3.0
	}
	mean := Mean(values)
	std := StdDev(values)
	if std == 0 {
		return mask
	}
	for i, v := range values {
		if math.Abs((v-mean)/std) > threshold {
			mask[i] = true
		}
	}
	return mask
}

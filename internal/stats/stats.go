// Package stats holds the in-process reductions shared by the aggregation
// engine's fallback path and the offline analyzer.
package stats

import (
	"math"
	"sort"

	"github.com/itsatony/envmon/internal/models"
)

// Summarize computes count, mean, min, max and population standard
// deviation. An empty input yields a result whose statistics are all nil.
func Summarize(values []float64) models.AggregateResult {
	if len(values) == 0 {
		return models.AggregateResult{}
	}
	mean, std := MeanStd(values)
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return models.AggregateResult{
		Avg:    &mean,
		Min:    &lo,
		Max:    &hi,
		StdDev: &std,
		Count:  int64(len(values)),
	}
}

// Mean returns the arithmetic mean, 0 for an empty input
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanStd returns the mean and the population standard deviation
// sqrt(mean((v - mean)^2)). A single value has zero deviation.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Median returns the middle value (mean of the two middle values for an
// even count), 0 for an empty input
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Slope fits value = a*index + b by ordinary least squares and returns a.
// Fewer than two points have no slope.
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := Mean(values)
	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	return num / den
}

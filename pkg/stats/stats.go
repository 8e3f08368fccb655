// Package stats provides the numeric building blocks for rank aggregation:
// order-statistic probabilities, tie-aware rank search and sample summaries.
package stats

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of scores.
type Summary struct {
	N      int     `json:"n" yaml:"n"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P90    float64 `json:"p90" yaml:"p90"`
}

// Percentile calculates the p-th quantile (p in [0,1]) of a sorted slice using
// the empirical CDF. The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Describe summarizes values without modifying them.
// Returns a zero Summary for an empty sample.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Summary{
		N:      len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: Percentile(sorted, 0.5),
		P90:    Percentile(sorted, 0.9),
	}
}

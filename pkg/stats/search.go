package stats

import "sort"

// TieEpsilon is the tolerance within which a queried value matches a stored one.
const TieEpsilon = 1e-9

// CountBelow returns the number of values in sorted strictly less than x.
// sorted must be in ascending order.
func CountBelow(sorted []float64, x float64) int {
	return sort.SearchFloat64s(sorted, x)
}

// TieCounts returns the number of values strictly below v-TieEpsilon and the
// number strictly below v+TieEpsilon. Stored values equal to v within the
// tolerance fall between the two counts.
func TieCounts(sorted []float64, v float64) (lower, upper int) {
	return CountBelow(sorted, v-TieEpsilon), CountBelow(sorted, v+TieEpsilon)
}

// MidRank returns the tie-aware midpoint rank (lower+upper+1)/2 of v in sorted.
// Dividing by len(sorted) yields the empirical percentile of v.
func MidRank(sorted []float64, v float64) float64 {
	lower, upper := TieCounts(sorted, v)
	return float64(lower+upper+1) / 2
}

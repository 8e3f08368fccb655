package lovalue

import "errors"

const (
	// DefaultMaxPercentile is the default percentile cutoff for scored items.
	DefaultMaxPercentile = 0.1

	// DefaultMaxWeightedItems is the default ceiling on group size in weighted
	// mode. Weighted mode evaluates 2^n subsets per group, so 20 items already
	// means about a million lo-value evaluations per group and per null replicate.
	DefaultMaxWeightedItems = 20

	// HardMaxWeightedItems is the largest group weighted mode can enumerate.
	HardMaxWeightedItems = 62
)

var (
	// ErrEmptyGroup is returned when a lo-value is requested for zero items.
	ErrEmptyGroup = errors.New("cannot compute lo-value of an empty group")

	// ErrLengthMismatch is returned when percentiles and probabilities differ in length.
	ErrLengthMismatch = errors.New("percentiles and probabilities differ in length")

	// ErrTooManyWeightedItems is returned when a weighted group exceeds the item ceiling.
	ErrTooManyWeightedItems = errors.New("too many items for probability-weighted lo-value")

	// ErrInvalidProb is returned when an inclusion probability lies outside [0, 1].
	ErrInvalidProb = errors.New("inclusion probability must be within [0, 1]")
)

// Mode selects how a group's lo-value is computed.
type Mode string

const (
	// ModeUniform treats every item as certainly present.
	ModeUniform Mode = "uniform"

	// ModeWeighted takes the expectation over item inclusion subsets.
	ModeWeighted Mode = "weighted"
)

// SelectMode returns ModeUniform when every probability is exactly 1 or the
// group has at most one item, and ModeWeighted otherwise.
func SelectMode(probs []float64) Mode {
	if len(probs) <= 1 {
		return ModeUniform
	}
	for _, p := range probs {
		if p != 1.0 {
			return ModeWeighted
		}
	}
	return ModeUniform
}

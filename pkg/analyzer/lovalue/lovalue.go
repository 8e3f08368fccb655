// Package lovalue computes the robust rank aggregation lo-value of a group:
// the smallest probability, over the group's best-ranked items, that the
// k-th order statistic of n uniform draws is at or below the k-th observed
// percentile.
package lovalue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/panbanda/rra/pkg/stats"
)

// Calculator computes lo-values. A Calculator is immutable after New and safe
// for concurrent use.
type Calculator struct {
	maxPercentile    float64
	maxError         float64
	maxWeightedItems int
	logger           *slog.Logger
}

// Option is a functional option for configuring Calculator.
type Option func(*Calculator)

// WithMaxPercentile sets the percentile cutoff beyond which items are not scored.
// The value must already be validated to lie in [0, 1].
func WithMaxPercentile(p float64) Option {
	return func(c *Calculator) {
		c.maxPercentile = p
	}
}

// WithMaxError sets the convergence tolerance of the beta CDF.
func WithMaxError(e float64) Option {
	return func(c *Calculator) {
		if e > 0 {
			c.maxError = e
		}
	}
}

// WithMaxWeightedItems sets the largest group accepted in weighted mode
// (0 = only the hard limit applies).
func WithMaxWeightedItems(n int) Option {
	return func(c *Calculator) {
		c.maxWeightedItems = n
	}
}

// WithLogger sets the logger receiving per-subset debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new lo-value calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		maxPercentile:    DefaultMaxPercentile,
		maxError:         stats.DefaultMaxError,
		maxWeightedItems: DefaultMaxWeightedItems,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quiet returns a copy of the calculator that discards log output.
func (c *Calculator) Quiet() *Calculator {
	q := *c
	q.logger = slog.New(slog.DiscardHandler)
	return &q
}

// ComputeLoValue returns the uniform-mode lo-value of percentiles.
func ComputeLoValue(percentiles []float64, maxPercentile float64) (float64, error) {
	return New(WithMaxPercentile(maxPercentile)).Uniform(percentiles)
}

// ComputeLoValueWeighted returns the probability-weighted lo-value of percentiles.
func ComputeLoValueWeighted(percentiles, probs []float64, maxPercentile float64) (float64, error) {
	return New(WithMaxPercentile(maxPercentile)).Weighted(percentiles, probs)
}

// Compute selects the mode from probs and returns the lo-value. A nil probs
// slice means every item is certainly present.
func (c *Calculator) Compute(percentiles, probs []float64) (float64, Mode, error) {
	if probs != nil && len(probs) != len(percentiles) {
		return 0, "", fmt.Errorf("%w: %d percentiles, %d probabilities", ErrLengthMismatch, len(percentiles), len(probs))
	}
	mode := SelectMode(probs)
	if mode == ModeUniform {
		lo, err := c.Uniform(percentiles)
		return lo, mode, err
	}
	lo, err := c.Weighted(percentiles, probs)
	return lo, mode, err
}

// Uniform returns the lo-value treating every item as present. The input
// slice is not modified.
func (c *Calculator) Uniform(percentiles []float64) (float64, error) {
	if len(percentiles) == 0 {
		return 0, ErrEmptyGroup
	}
	sorted := slices.Clone(percentiles)
	slices.Sort(sorted)
	return c.scoreSorted(sorted)
}

// Weighted returns the expectation of the uniform-mode lo-value over all 2^n
// inclusion subsets, each weighted by its joint inclusion probability. The
// empty subset scores 1.
func (c *Calculator) Weighted(percentiles, probs []float64) (float64, error) {
	n := len(percentiles)
	if n == 0 {
		return 0, ErrEmptyGroup
	}
	if len(probs) != n {
		return 0, fmt.Errorf("%w: %d percentiles, %d probabilities", ErrLengthMismatch, n, len(probs))
	}
	if limit := c.weightedLimit(); n > limit {
		return 0, fmt.Errorf("%w: %d items, limit %d", ErrTooManyWeightedItems, n, limit)
	}
	for _, p := range probs {
		if !(p >= 0 && p <= 1) {
			return 0, fmt.Errorf("%w: got %g", ErrInvalidProb, p)
		}
	}

	// Sort items by percentile, carrying each probability along, so every
	// subset is already in ascending order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return percentiles[order[a]] < percentiles[order[b]]
	})
	pct := make([]float64, n)
	prob := make([]float64, n)
	for i, j := range order {
		pct[i] = percentiles[j]
		prob[i] = probs[j]
	}

	debug := c.logger.Enabled(context.Background(), slog.LevelDebug)
	if debug {
		c.logger.Debug("weighted lo-value", "items", n, "probs", prob)
	}

	subset := make([]float64, 0, n)
	var total float64
	for mask := uint64(0); mask < uint64(1)<<n; mask++ {
		joint := 1.0
		subset = subset[:0]
		for i := 0; i < n; i++ {
			if mask&(uint64(1)<<i) != 0 {
				joint *= prob[i]
				subset = append(subset, pct[i])
			} else {
				joint *= 1 - prob[i]
			}
		}
		// Zero-weight subsets add nothing to the sum.
		if joint == 0 {
			continue
		}

		lo := 1.0
		if len(subset) > 0 {
			var err error
			lo, err = c.scoreSorted(subset)
			if err != nil {
				return 0, err
			}
		}
		if debug {
			c.logger.Debug("weighted subset", "mask", mask, "prob", joint, "score", lo)
		}
		total += lo * joint
	}

	if debug {
		c.logger.Debug("weighted lo-value total", "lo_value", total)
	}
	return total, nil
}

// scoreSorted walks ascending percentiles and returns the minimum order
// statistic probability. Index 0 is always scored; the walk stops at the first
// later percentile above the cutoff.
func (c *Calculator) scoreSorted(sorted []float64) (float64, error) {
	num := len(sorted)
	lo := 1.0
	for i, p := range sorted {
		if i > 0 && p > c.maxPercentile {
			break
		}
		f, err := stats.BetaCDF(float64(i+1), float64(num-i), p, c.maxError)
		if err != nil {
			return 0, fmt.Errorf("order statistic %d of %d: %w", i+1, num, err)
		}
		if f < lo {
			lo = f
		}
	}
	return lo, nil
}

func (c *Calculator) weightedLimit() int {
	if c.maxWeightedItems <= 0 || c.maxWeightedItems > HardMaxWeightedItems {
		return HardMaxWeightedItems
	}
	return c.maxWeightedItems
}

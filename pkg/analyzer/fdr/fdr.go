// Package fdr calibrates group lo-values against a Monte-Carlo null
// distribution and assigns each group a monotone false discovery rate.
package fdr

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/panbanda/rra/internal/parallel"
	"github.com/panbanda/rra/pkg/analyzer/lovalue"
	"github.com/panbanda/rra/pkg/models"
	"github.com/panbanda/rra/pkg/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultSeed seeds the null percentile streams. Runs are reproducible by design.
	DefaultSeed uint64 = 123456

	// DefaultPassesPerGroup is the number of null groups drawn per real group.
	DefaultPassesPerGroup = 100
)

var (
	// ErrNoGroups is returned when estimating FDR for an empty group set.
	ErrNoGroups = errors.New("no groups to estimate FDR for")

	// ErrInvalidPassCount is returned for a negative target pass count.
	ErrInvalidPassCount = errors.New("target pass count must not be negative")
)

// Estimator assigns FDR values to groups whose lo-values are already computed.
type Estimator struct {
	calc    *lovalue.Calculator
	seed    uint64
	workers int
	logger  *slog.Logger
	onPass  parallel.ProgressFunc
}

// Option is a functional option for configuring Estimator.
type Option func(*Estimator)

// WithSeed sets the seed of the null percentile streams.
func WithSeed(seed uint64) Option {
	return func(e *Estimator) {
		e.seed = seed
	}
}

// WithWorkers sets the number of passes drawn concurrently (0 = 2x NumCPU).
// The result does not depend on the worker count.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		e.workers = n
	}
}

// WithLogger sets the logger for estimation progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress sets a callback invoked after each completed pass.
func WithProgress(fn parallel.ProgressFunc) Option {
	return func(e *Estimator) {
		e.onPass = fn
	}
}

// New creates an estimator that scores null groups with calc. A nil calc
// uses lovalue defaults.
func New(calc *lovalue.Calculator, opts ...Option) *Estimator {
	if calc == nil {
		calc = lovalue.New()
	}
	e := &Estimator{
		calc:   calc,
		seed:   DefaultSeed,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateFDR estimates FDR with default settings and the given cutoff.
func EstimateFDR(groups []*models.Group, maxPercentile float64, targetPassCount int) error {
	calc := lovalue.New(lovalue.WithMaxPercentile(maxPercentile))
	return New(calc).Estimate(context.Background(), groups, targetPassCount)
}

// ScanPasses returns the number of null passes needed to draw at least
// targetPassCount null groups, one per real group per pass.
func ScanPasses(targetPassCount, groupCount int) int {
	return targetPassCount/groupCount + 1
}

// Estimate sorts groups ascending by lo-value in place and sets each group's FDR.
// On error neither the order nor any FDR value is changed.
func (e *Estimator) Estimate(ctx context.Context, groups []*models.Group, targetPassCount int) error {
	if len(groups) == 0 {
		return ErrNoGroups
	}
	if targetPassCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPassCount, targetPassCount)
	}
	for _, g := range groups {
		if len(g.Items) == 0 {
			return fmt.Errorf("group %s: %w", g.Name, lovalue.ErrEmptyGroup)
		}
	}

	passes := ScanPasses(targetPassCount, len(groups))
	e.logger.Debug("estimating fdr", "groups", len(groups), "passes", passes, "null_size", passes*len(groups))

	null, err := e.NullSample(ctx, groups, passes)
	if err != nil {
		return err
	}

	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b *models.Group) int {
		return cmp.Compare(a.LoValue, b.LoValue)
	})
	loValues := make([]float64, len(sorted))
	for i, g := range sorted {
		loValues[i] = g.LoValue
	}

	fdrs := Calibrate(loValues, null)

	copy(groups, sorted)
	for i, g := range groups {
		g.FDR = fdrs[i]
	}
	return nil
}

// NullSample draws passes null replicates of every group and returns their
// lo-values sorted ascending. Each replicate keeps the group's item count and
// inclusion probabilities but draws percentiles from U(0,1). Pass p uses its
// own stream seeded with (seed, p), so the sample is the same for any worker count.
func (e *Estimator) NullSample(ctx context.Context, groups []*models.Group, passes int) ([]float64, error) {
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}

	probs := make([][]float64, len(groups))
	maxItems := 0
	for j, g := range groups {
		probs[j] = g.Probs()
		maxItems = max(maxItems, len(g.Items))
	}

	calc := e.calc.Quiet()
	groupCount := len(groups)
	null := make([]float64, passes*groupCount)

	err := parallel.ForEach(ctx, passes, e.workers, func(_ context.Context, p int) error {
		u := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(e.seed, uint64(p))}
		buf := make([]float64, maxItems)

		for j := range groups {
			pcts := buf[:len(probs[j])]
			for k := range pcts {
				pcts[k] = u.Rand()
			}
			lo, _, err := calc.Compute(pcts, probs[j])
			if err != nil {
				return fmt.Errorf("null replicate of group %s: %w", groups[j].Name, err)
			}
			null[p*groupCount+j] = lo
		}
		return nil
	}, e.onPass)
	if err != nil {
		return nil, err
	}

	slices.Sort(null)
	return null, nil
}

// Calibrate turns ascending lo-values into FDR estimates against an ascending
// null sample. The estimate at rank i is the expected null count at or below
// the lo-value, scaled to the group count, over the i+1 observed groups at or
// below it. The worst group is capped at 1 and values are then made
// non-decreasing in rank.
func Calibrate(sortedLoValues, sortedNull []float64) []float64 {
	groupCount := len(sortedLoValues)
	if groupCount == 0 {
		return nil
	}
	nullCount := float64(len(sortedNull))

	fdrs := make([]float64, groupCount)
	for i, lo := range sortedLoValues {
		fdrs[i] = stats.MidRank(sortedNull, lo) / nullCount / float64(i+1) * float64(groupCount)
	}

	if fdrs[groupCount-1] > 1 {
		fdrs[groupCount-1] = 1
	}
	for i := groupCount - 2; i >= 0; i-- {
		if fdrs[i] > fdrs[i+1] {
			fdrs[i] = fdrs[i+1]
		}
	}
	return fdrs
}

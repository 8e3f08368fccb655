// Package rra runs robust rank aggregation over a dataset: percentiles for
// every item, a lo-value per group, and a permutation-calibrated FDR.
package rra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panbanda/rra/internal/parallel"
	"github.com/panbanda/rra/pkg/analyzer/fdr"
	"github.com/panbanda/rra/pkg/analyzer/lovalue"
	"github.com/panbanda/rra/pkg/analyzer/percentile"
	"github.com/panbanda/rra/pkg/models"
	"github.com/panbanda/rra/pkg/stats"
)

// ErrInvalidMaxPercentile is returned when the percentile cutoff is outside [0, 1].
var ErrInvalidMaxPercentile = errors.New("maxPercentile should be within 0.0 and 1.0")

// Analyzer computes lo-values and FDRs for every group of a dataset.
type Analyzer struct {
	maxPercentile    float64
	maxError         float64
	passesPerGroup   int
	seed             uint64
	workers          int
	maxWeightedItems int
	logger           *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMaxPercentile sets the percentile cutoff for scored items.
func WithMaxPercentile(p float64) Option {
	return func(a *Analyzer) {
		a.maxPercentile = p
	}
}

// WithMaxError sets the beta CDF convergence tolerance.
func WithMaxError(e float64) Option {
	return func(a *Analyzer) {
		a.maxError = e
	}
}

// WithPassesPerGroup sets how many null groups are drawn per real group.
func WithPassesPerGroup(n int) Option {
	return func(a *Analyzer) {
		a.passesPerGroup = n
	}
}

// WithSeed sets the seed of the null distribution.
func WithSeed(seed uint64) Option {
	return func(a *Analyzer) {
		a.seed = seed
	}
}

// WithWorkers sets the worker count (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithMaxWeightedItems sets the group size ceiling for weighted mode.
func WithMaxWeightedItems(n int) Option {
	return func(a *Analyzer) {
		a.maxWeightedItems = n
	}
}

// WithLogger sets the logger used for verbose output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates a new RRA analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxPercentile:    lovalue.DefaultMaxPercentile,
		maxError:         stats.DefaultMaxError,
		passesPerGroup:   fdr.DefaultPassesPerGroup,
		seed:             fdr.DefaultSeed,
		maxWeightedItems: lovalue.DefaultMaxWeightedItems,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) calculator() *lovalue.Calculator {
	return lovalue.New(
		lovalue.WithMaxPercentile(a.maxPercentile),
		lovalue.WithMaxError(a.maxError),
		lovalue.WithMaxWeightedItems(a.maxWeightedItems),
		lovalue.WithLogger(a.logger),
	)
}

// Analyze runs the full computation on ds.
func (a *Analyzer) Analyze(ctx context.Context, ds *models.Dataset) (*Analysis, error) {
	return a.AnalyzeWithProgress(ctx, ds, nil, nil)
}

// AnalyzeWithProgress runs the full computation with optional callbacks after
// each group is scored and after each null pass. ds.Groups is left sorted by
// ascending lo-value with LoValue, FDR and item percentiles filled in.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, ds *models.Dataset, onGroup, onPass parallel.ProgressFunc) (*Analysis, error) {
	if a.maxPercentile < 0 || a.maxPercentile > 1 {
		return nil, fmt.Errorf("%w (got %g)", ErrInvalidMaxPercentile, a.maxPercentile)
	}
	if len(ds.Groups) == 0 {
		return nil, fdr.ErrNoGroups
	}

	modes, err := a.ProcessGroups(ctx, ds, onGroup)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[*models.Group]lovalue.Mode, len(ds.Groups))
	for i, g := range ds.Groups {
		byGroup[g] = modes[i]
	}

	target := a.passesPerGroup * len(ds.Groups)
	est := fdr.New(a.calculator(),
		fdr.WithSeed(a.seed),
		fdr.WithWorkers(a.workers),
		fdr.WithLogger(a.logger),
		fdr.WithProgress(onPass),
	)
	if err := est.Estimate(ctx, ds.Groups, target); err != nil {
		return nil, fmt.Errorf("fdr estimation failed: %w", err)
	}

	analysis := &Analysis{
		GeneratedAt:    time.Now().UTC(),
		MaxPercentile:  a.maxPercentile,
		PassesPerGroup: a.passesPerGroup,
		ScanPasses:     fdr.ScanPasses(target, len(ds.Groups)),
		Seed:           a.seed,
		Groups:         make([]GroupResult, 0, len(ds.Groups)),
	}
	for _, g := range ds.Groups {
		analysis.Groups = append(analysis.Groups, GroupResult{
			Name:    g.Name,
			Items:   len(g.Items),
			LoValue: g.LoValue,
			FDR:     g.FDR,
			Mode:    byGroup[g],
		})
	}
	analysis.CalculateSummary(len(ds.Lists))

	a.logger.Info("analysis complete",
		"groups", analysis.Summary.TotalGroups,
		"weighted_groups", analysis.Summary.WeightedGroups,
		"significant_at_05", analysis.Summary.SignificantAt05)

	return analysis, nil
}

// ProcessGroups prepares every list, then computes item percentiles and the
// lo-value of each group in parallel. It returns the mode used per group, in
// ds.Groups order. Any failing group aborts the run.
func (a *Analyzer) ProcessGroups(ctx context.Context, ds *models.Dataset, onGroup parallel.ProgressFunc) ([]lovalue.Mode, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	a.logger.Debug("scoring groups", "groups", len(ds.Groups), "items", ds.ItemCount(), "lists", len(ds.Lists))

	// Lists are read-only once prepared, so groups can be scored concurrently.
	for _, l := range ds.Lists {
		percentile.Prepare(l)
	}

	calc := a.calculator()
	modes := make([]lovalue.Mode, len(ds.Groups))

	err := parallel.ForEach(ctx, len(ds.Groups), a.workers, func(_ context.Context, i int) error {
		g := ds.Groups[i]
		if err := percentile.Assign(g, ds.Lists); err != nil {
			return &GroupError{Group: g.Name, Err: err}
		}
		lo, mode, err := calc.Compute(g.Percentiles(), g.Probs())
		if err != nil {
			return &GroupError{Group: g.Name, Err: err}
		}
		g.LoValue = lo
		modes[i] = mode
		a.logger.Debug("group scored", "group", g.Name, "items", len(g.Items), "mode", mode, "lo_value", g.LoValue)
		return nil
	}, onGroup)
	if err != nil {
		return nil, err
	}
	return modes, nil
}

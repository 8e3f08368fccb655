package rra

import (
	"fmt"
	"time"

	"github.com/panbanda/rra/pkg/analyzer/lovalue"
	"github.com/panbanda/rra/pkg/stats"
)

// FDR thresholds reported in the summary.
const (
	// StrictFDRThreshold is the conventional 5% discovery threshold.
	StrictFDRThreshold = 0.05

	// DefaultFDRThreshold is the looser threshold used for gene-level screens.
	DefaultFDRThreshold = 0.25
)

// GroupResult is the outcome for one group.
type GroupResult struct {
	Name    string       `json:"group_id" yaml:"group_id"`
	Items   int          `json:"items_in_group" yaml:"items_in_group"`
	LoValue float64      `json:"lo_value" yaml:"lo_value"`
	FDR     float64      `json:"fdr" yaml:"fdr"`
	Mode    lovalue.Mode `json:"mode" yaml:"mode"`
}

// Significant reports whether the group's FDR is at or below threshold.
func (g GroupResult) Significant(threshold float64) bool {
	return g.FDR <= threshold
}

// Summary provides aggregate statistics for a run.
type Summary struct {
	TotalGroups     int           `json:"total_groups" yaml:"total_groups"`
	TotalItems      int           `json:"total_items" yaml:"total_items"`
	TotalLists      int           `json:"total_lists" yaml:"total_lists"`
	WeightedGroups  int           `json:"weighted_groups" yaml:"weighted_groups"`
	SignificantAt05 int           `json:"significant_at_05" yaml:"significant_at_05"`
	SignificantAt25 int           `json:"significant_at_25" yaml:"significant_at_25"`
	LoValue         stats.Summary `json:"lo_value" yaml:"lo_value"`
	MeanFDR         float64       `json:"mean_fdr" yaml:"mean_fdr"`
}

// Analysis represents the full result of a run. Groups are in ascending
// lo-value order.
type Analysis struct {
	GeneratedAt    time.Time     `json:"generated_at" yaml:"generated_at"`
	MaxPercentile  float64       `json:"max_percentile" yaml:"max_percentile"`
	PassesPerGroup int           `json:"passes_per_group" yaml:"passes_per_group"`
	ScanPasses     int           `json:"scan_passes" yaml:"scan_passes"`
	Seed           uint64        `json:"seed" yaml:"seed"`
	Groups         []GroupResult `json:"groups" yaml:"groups"`
	Summary        Summary       `json:"summary" yaml:"summary"`
}

// CalculateSummary computes summary statistics from the group results.
func (a *Analysis) CalculateSummary(totalLists int) {
	a.Summary = Summary{TotalGroups: len(a.Groups), TotalLists: totalLists}
	if len(a.Groups) == 0 {
		return
	}

	loValues := make([]float64, len(a.Groups))
	var fdrSum float64
	for i, g := range a.Groups {
		loValues[i] = g.LoValue
		fdrSum += g.FDR
		a.Summary.TotalItems += g.Items
		if g.Mode == lovalue.ModeWeighted {
			a.Summary.WeightedGroups++
		}
		if g.Significant(StrictFDRThreshold) {
			a.Summary.SignificantAt05++
		}
		if g.Significant(DefaultFDRThreshold) {
			a.Summary.SignificantAt25++
		}
	}
	a.Summary.LoValue = stats.Describe(loValues)
	a.Summary.MeanFDR = fdrSum / float64(len(a.Groups))
}

// GroupError reports the group whose computation failed.
type GroupError struct {
	Group string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group %s: %v", e.Group, e.Err)
}

// Unwrap returns the underlying error.
func (e *GroupError) Unwrap() error {
	return e.Err
}

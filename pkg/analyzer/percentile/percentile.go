// Package percentile ranks item values against the list they were measured in.
package percentile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/panbanda/rra/pkg/models"
	"github.com/panbanda/rra/pkg/stats"
)

var (
	// ErrEmptyList is returned when ranking against a list with no values.
	ErrEmptyList = errors.New("cannot rank against an empty list")

	// ErrNotPrepared is returned when Rank is called before Prepare.
	ErrNotPrepared = errors.New("list must be prepared before ranking")
)

// Prepare sorts the list values ascending so rank queries can binary search.
// It is idempotent.
func Prepare(list *models.List) {
	if list.Sorted() {
		return
	}
	slices.Sort(list.Values)
	list.MarkSorted()
}

// Rank returns the number of list values strictly below value-ε and the number
// strictly below value+ε, where ε is stats.TieEpsilon.
func Rank(list *models.List, value float64) (lower, upper int, err error) {
	if !list.Sorted() {
		return 0, 0, fmt.Errorf("list %s: %w", list.Name, ErrNotPrepared)
	}
	lower, upper = stats.TieCounts(list.Values, value)
	return lower, upper, nil
}

// Of returns the tie-aware midpoint percentile (lower+upper+1)/(2N) of value
// within a prepared list of N values.
func Of(list *models.List, value float64) (float64, error) {
	n := len(list.Values)
	if n == 0 {
		return 0, fmt.Errorf("list %s: %w", list.Name, ErrEmptyList)
	}
	if !list.Sorted() {
		return 0, fmt.Errorf("list %s: %w", list.Name, ErrNotPrepared)
	}
	return stats.MidRank(list.Values, value) / float64(n), nil
}

// Assign computes and stores the percentile of every item in group against
// the lists it references. Lists must already be prepared.
func Assign(group *models.Group, lists []*models.List) error {
	for i := range group.Items {
		it := &group.Items[i]
		if it.ListIndex < 0 || it.ListIndex >= len(lists) {
			return fmt.Errorf("item %s: %w (index %d)", it.Name, models.ErrUnknownList, it.ListIndex)
		}
		p, err := Of(lists[it.ListIndex], it.Value)
		if err != nil {
			return fmt.Errorf("item %s: %w", it.Name, err)
		}
		it.Percentile = p
	}
	return nil
}

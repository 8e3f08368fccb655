package models

import (
	"errors"
	"fmt"
)

// DefaultProb is the inclusion probability of an item whose input omits one.
const DefaultProb = 1.0

var (
	// ErrUnknownList is returned when an item references a list index that does not exist.
	ErrUnknownList = errors.New("item references unknown list")

	// ErrEmptyGroup is returned when a group has no items.
	ErrEmptyGroup = errors.New("group has no items")

	// ErrEmptyList is returned when a list referenced by an item holds no values.
	ErrEmptyList = errors.New("referenced list has no values")

	// ErrInvalidProb is returned for inclusion probabilities outside (0, 1].
	ErrInvalidProb = errors.New("inclusion probability must be within (0, 1]")
)

// Item is one measurement belonging to a group.
type Item struct {
	Name       string  `json:"name"`
	ListIndex  int     `json:"list_index"`
	Value      float64 `json:"value"`
	Percentile float64 `json:"percentile"` // computed, in [0,1]
	Prob       float64 `json:"prob"`       // inclusion probability, 1.0 = always included
}

// Group is the aggregation unit: a named collection of items that may span lists.
type Group struct {
	Name    string  `json:"name"`
	Items   []Item  `json:"items"`
	LoValue float64 `json:"lo_value"` // lower is more significant
	FDR     float64 `json:"fdr"`
}

// Percentiles returns the percentiles of the group's items in item order.
func (g *Group) Percentiles() []float64 {
	out := make([]float64, len(g.Items))
	for i := range g.Items {
		out[i] = g.Items[i].Percentile
	}
	return out
}

// Probs returns the inclusion probabilities of the group's items in item order.
func (g *Group) Probs() []float64 {
	out := make([]float64, len(g.Items))
	for i := range g.Items {
		out[i] = g.Items[i].Prob
	}
	return out
}

// List is a named pool of values used as the ranking universe for percentiles.
type List struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	sorted bool
}

// Sorted reports whether the list has been prepared for rank queries.
func (l *List) Sorted() bool {
	return l.sorted
}

// MarkSorted records that Values is in ascending order.
func (l *List) MarkSorted() {
	l.sorted = true
}

// Dataset holds every group and list of a run. Groups and lists keep the order
// in which their names were first seen.
type Dataset struct {
	Groups []*Group `json:"groups"`
	Lists  []*List  `json:"lists"`

	groupIndex map[string]int
	listIndex  map[string]int
	itemCount  int
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		groupIndex: make(map[string]int),
		listIndex:  make(map[string]int),
	}
}

// ensureIndex builds the name indexes for datasets assembled as struct literals.
func (d *Dataset) ensureIndex() {
	if d.groupIndex == nil {
		d.groupIndex = make(map[string]int, len(d.Groups))
		for i, g := range d.Groups {
			d.groupIndex[g.Name] = i
		}
	}
	if d.listIndex == nil {
		d.listIndex = make(map[string]int, len(d.Lists))
		for i, l := range d.Lists {
			d.listIndex[l.Name] = i
		}
	}
}

// List returns the list with the given name, creating it if needed, and its index.
func (d *Dataset) List(name string) (*List, int) {
	d.ensureIndex()
	if idx, ok := d.listIndex[name]; ok {
		return d.Lists[idx], idx
	}
	idx := len(d.Lists)
	d.Lists = append(d.Lists, &List{Name: name})
	d.listIndex[name] = idx
	return d.Lists[idx], idx
}

// Group returns the group with the given name, creating it if needed.
func (d *Dataset) Group(name string) *Group {
	d.ensureIndex()
	if idx, ok := d.groupIndex[name]; ok {
		return d.Groups[idx]
	}
	g := &Group{Name: name}
	d.groupIndex[name] = len(d.Groups)
	d.Groups = append(d.Groups, g)
	return g
}

// AddRecord adds one input record. The value is appended to the named list once
// and an item is added to every named group.
func (d *Dataset) AddRecord(item string, groups []string, list string, value, prob float64) error {
	if prob <= 0 || prob > 1 {
		return fmt.Errorf("item %s: %w (got %g)", item, ErrInvalidProb, prob)
	}
	l, listIdx := d.List(list)
	l.Values = append(l.Values, value)
	l.sorted = false

	for _, name := range groups {
		g := d.Group(name)
		g.Items = append(g.Items, Item{
			Name:      item,
			ListIndex: listIdx,
			Value:     value,
			Prob:      prob,
		})
	}
	d.itemCount++
	return nil
}

// RecordCount returns the number of records added through AddRecord.
func (d *Dataset) RecordCount() int {
	return d.itemCount
}

// ItemCount returns the total number of items across all groups.
func (d *Dataset) ItemCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Items)
	}
	return n
}

// Validate checks the model invariants: every group has items, every item
// addresses an existing list, and every referenced list is nonempty.
func (d *Dataset) Validate() error {
	for _, g := range d.Groups {
		if len(g.Items) == 0 {
			return fmt.Errorf("group %s: %w", g.Name, ErrEmptyGroup)
		}
		for _, it := range g.Items {
			if it.ListIndex < 0 || it.ListIndex >= len(d.Lists) {
				return fmt.Errorf("group %s item %s: %w (index %d)", g.Name, it.Name, ErrUnknownList, it.ListIndex)
			}
			if len(d.Lists[it.ListIndex].Values) == 0 {
				return fmt.Errorf("group %s item %s list %s: %w", g.Name, it.Name, d.Lists[it.ListIndex].Name, ErrEmptyList)
			}
			if it.Prob <= 0 || it.Prob > 1 {
				return fmt.Errorf("group %s item %s: %w (got %g)", g.Name, it.Name, ErrInvalidProb, it.Prob)
			}
		}
	}
	return nil
}

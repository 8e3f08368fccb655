package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/panbanda/rra/pkg/analyzer/rra"
)

// TSVHeader is the header line of the group report file.
const TSVHeader = "group_id\titems_in_group\tlo_value\tFDR"

// WriteTSV writes one line per group in the order given.
func WriteTSV(w io.Writer, groups []rra.GroupResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, TSVHeader)
	for _, g := range groups {
		fmt.Fprintf(bw, "%s\t%d\t%10.4e\t%f\n", g.Name, g.Items, g.LoValue, g.FDR)
	}
	return bw.Flush()
}

// SaveTSV writes the group report to path.
func SaveTSV(path string, groups []rra.GroupResult) (err error) {
	f, err := NewFormatter(FormatTSV, path, false)
	if err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return f.Output(&GroupReport{Groups: groups})
}

// GroupReport is a Renderable list of group results. Limit caps the rows shown
// as text or markdown; the TSV and data forms always hold every group.
type GroupReport struct {
	Title  string
	Groups []rra.GroupResult
	Limit  int
}

func (r *GroupReport) shown() []rra.GroupResult {
	if r.Limit > 0 && r.Limit < len(r.Groups) {
		return r.Groups[:r.Limit]
	}
	return r.Groups
}

func (r *GroupReport) table(colored bool) *Table {
	groups := r.shown()
	rows := make([][]string, len(groups))
	for i, g := range groups {
		fdr := fmt.Sprintf("%.4f", g.FDR)
		if colored {
			fdr = SignificanceColor(g.FDR, rra.StrictFDRThreshold, rra.DefaultFDRThreshold, fdr)
		}
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			g.Name,
			fmt.Sprintf("%d", g.Items),
			fmt.Sprintf("%.4e", g.LoValue),
			fdr,
			string(g.Mode),
		}
	}

	var footer []string
	if len(groups) < len(r.Groups) {
		footer = []string{"", fmt.Sprintf("%d of %d groups", len(groups), len(r.Groups)), "", "", "", ""}
	}
	return NewTable(r.Title, []string{"Rank", "Group", "Items", "Lo-value", "FDR", "Mode"}, rows, footer, nil)
}

func (r *GroupReport) RenderText(w io.Writer, colored bool) error {
	return r.table(colored).RenderText(w, colored)
}

func (r *GroupReport) RenderMarkdown(w io.Writer) error {
	return r.table(false).RenderMarkdown(w)
}

func (r *GroupReport) RenderTSV(w io.Writer) error {
	return WriteTSV(w, r.Groups)
}

func (r *GroupReport) RenderData() any {
	return r.Groups
}

// SummarySection describes a run for the text and markdown report.
func SummarySection(a *rra.Analysis) *Section {
	s := &Section{Title: "Summary", Data: a.Summary}
	s.Add("Groups", "%d (%d weighted)", a.Summary.TotalGroups, a.Summary.WeightedGroups)
	s.Add("Items", "%d", a.Summary.TotalItems)
	s.Add("Lists", "%d", a.Summary.TotalLists)
	s.Add("Max percentile", "%g", a.MaxPercentile)
	s.Add("Null passes", "%d (seed %d)", a.ScanPasses, a.Seed)
	s.Add("Lo-value min / median", "%.4e / %.4e", a.Summary.LoValue.Min, a.Summary.LoValue.Median)
	s.Add("FDR <= 0.05", "%d", a.Summary.SignificantAt05)
	s.Add("FDR <= 0.25", "%d", a.Summary.SignificantAt25)
	s.Add("Mean FDR", "%.4f", a.Summary.MeanFDR)
	return s
}

// AnalysisReport combines the summary and the group table. Its data form is
// the full analysis.
func AnalysisReport(a *rra.Analysis, limit int) *Report {
	return &Report{
		Title: "Robust Rank Aggregation",
		Sections: []Renderable{
			SummarySection(a),
			&GroupReport{Title: "Groups by lo-value", Groups: a.Groups, Limit: limit},
		},
		Data: a,
	}
}

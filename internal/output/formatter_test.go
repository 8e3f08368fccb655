package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"tsv", FormatTSV},
		{"tab", FormatTSV},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.format != FormatText {
		t.Errorf("format = %q", f.format)
	}
	if !f.colored {
		t.Error("stdout formatter should keep color")
	}
	if f.file != nil {
		t.Error("file should be nil for stdout")
	}
	if f.writer != os.Stdout {
		t.Error("writer should be stdout")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "output.txt")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.colored {
		t.Error("file output should never be colored")
	}
	if err := f.Output(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(content), `"a": 1`) {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "dir", "out.txt"), false)
	if err == nil {
		t.Error("NewFormatter() should fail for an unwritable path")
	}
}

func sampleTable() *Table {
	return NewTable("Groups",
		[]string{"Group", "FDR"},
		[][]string{{"g1", "0.01"}, {"g2", "0.50"}},
		[]string{"Total", "2"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Groups", "======", "g1", "0.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"## Groups", "| Group | FDR |", "| --- | --- |", "| g1 | 0.01 |", "| Total | 2 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderMarkdown() missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderTSV(&buf); err != nil {
		t.Fatalf("RenderTSV() error: %v", err)
	}
	want := "Group\tFDR\ng1\t0.01\ng2\t0.50\n"
	if buf.String() != want {
		t.Errorf("RenderTSV() = %q, want %q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	rows, ok := sampleTable().RenderData().([]map[string]string)
	if !ok || len(rows) != 2 {
		t.Fatalf("RenderData() = %#v", sampleTable().RenderData())
	}
	if rows[1]["Group"] != "g2" || rows[1]["FDR"] != "0.50" {
		t.Errorf("row = %v", rows[1])
	}

	withData := NewTable("", nil, nil, nil, []int{1, 2})
	if _, ok := withData.RenderData().([]int); !ok {
		t.Error("RenderData() should return Data when set")
	}
}

func TestSection(t *testing.T) {
	s := &Section{Title: "Summary"}
	s.Add("Groups", "%d", 12).Add("Mean FDR", "%.2f", 0.25)

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Groups:") || !strings.Contains(text.String(), "0.25") {
		t.Errorf("RenderText() = %q", text.String())
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "- **Groups:** 12") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}

	data, ok := s.RenderData().(map[string]string)
	if !ok || data["Mean FDR"] != "0.25" {
		t.Errorf("RenderData() = %#v", s.RenderData())
	}
}

func TestReport(t *testing.T) {
	s := &Section{Title: "Summary"}
	s.Add("Groups", "2")
	r := &Report{Title: "Run", Sections: []Renderable{s, sampleTable()}}

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Run\n===") || !strings.Contains(text.String(), "g2") {
		t.Errorf("RenderText() = %q", text.String())
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "# Run\n") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}

	var tsv bytes.Buffer
	if err := r.RenderTSV(&tsv); err != nil {
		t.Fatal(err)
	}
	if tsv.String() != "Group\tFDR\ng1\t0.01\ng2\t0.50\n" {
		t.Errorf("RenderTSV() = %q", tsv.String())
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok || data["title"] != "Run" {
		t.Errorf("RenderData() = %#v", r.RenderData())
	}
}

func TestReportRenderTSVWithoutTable(t *testing.T) {
	r := &Report{Sections: []Renderable{&Section{Title: "only"}}}
	err := r.RenderTSV(&bytes.Buffer{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("RenderTSV() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatterOutputFormats(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "g1"},
		{FormatMarkdown, "| g1 | 0.01 |"},
		{FormatTSV, "g1\t0.01"},
		{FormatJSON, `"Group": "g1"`},
		{FormatYAML, "Group: g1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(tt.format, &buf, false)
			if err := f.Output(sampleTable()); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Output() missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestFormatterTSVUnsupported(t *testing.T) {
	f := NewWriterFormatter(FormatTSV, &bytes.Buffer{}, false)
	err := f.Output(&Section{Title: "x"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Output() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]any{"name": "run", "groups": 3}

	var jsonBuf bytes.Buffer
	if err := NewWriterFormatter(FormatJSON, &jsonBuf, false).Output(data); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["name"] != "run" {
		t.Errorf("decoded = %v", decoded)
	}

	var yamlBuf bytes.Buffer
	if err := NewWriterFormatter(FormatYAML, &yamlBuf, false).Output(data); err != nil {
		t.Fatal(err)
	}
	decoded = nil
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["groups"] != 3 {
		t.Errorf("decoded = %v", decoded)
	}

	var mdBuf bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &mdBuf, false).Output(data); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(mdBuf.String(), "```json\n") {
		t.Errorf("markdown raw output = %q", mdBuf.String())
	}
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	f.Success("wrote %d groups", 3)
	f.Warning("cache %s", "disabled")

	out := buf.String()
	if !strings.Contains(out, "wrote 3 groups\n") {
		t.Errorf("Success() output = %q", out)
	}
	if !strings.Contains(out, "WARNING: cache disabled\n") {
		t.Errorf("Warning() output = %q", out)
	}
}

func TestSignificanceColor(t *testing.T) {
	// color is disabled when not on a terminal, so text passes through
	for _, fdr := range []float64{0.01, 0.1, 0.9} {
		if got := SignificanceColor(fdr, 0.05, 0.25, "x"); !strings.Contains(got, "x") {
			t.Errorf("SignificanceColor(%g) = %q", fdr, got)
		}
	}
}

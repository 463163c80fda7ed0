package analysis

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/montanaflynn/stats"
)

// NumericStats are the rows of a numeric summary, in display order.
var NumericStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// CategoricalStats are the rows of the fallback summary used when a table
// has no numeric column.
var CategoricalStats = []string{"count", "unique", "top", "freq"}

// Report is a describe-style summary of a table. It is built once and not
// modified afterwards.
type Report struct {
	Name string
	// Rows is the row count of the table the report was computed from.
	Rows int
	// Categorical is set when the table had no numeric column.
	Categorical bool
	Cols        []ColumnSummary
}

// ColumnSummary holds the statistics of one column.
type ColumnSummary struct {
	Name  string
	Count int
	// Numeric stats
	Mean, Std, Min, Q25, Q50, Q75, Max float64
	// Categorical stats
	Unique int
	Top    string
	Freq   int
}

// Summarize computes the report for t. Numeric columns are summarized;
// text columns are excluded unless there is no numeric column at all.
func Summarize(t *dataset.Table) *Report {
	rep := &Report{Name: t.Name, Rows: t.Rows()}
	numeric := t.ColumnsOf(dataset.TypeNumeric)
	if len(numeric) == 0 && len(t.All()) > 0 {
		rep.Categorical = true
		for _, c := range t.All() {
			rep.Cols = append(rep.Cols, categorical(c))
		}
		return rep
	}
	for _, c := range numeric {
		rep.Cols = append(rep.Cols, numericSummary(c))
	}
	return rep
}

func numericSummary(c *dataset.Column) ColumnSummary {
	vals := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.IsMissing() {
			vals = append(vals, cell.Num)
		}
	}
	nan := math.NaN()
	s := ColumnSummary{Name: c.Name, Count: len(vals), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(vals) == 0 {
		return s
	}
	s.Mean, _ = stats.Mean(vals)
	s.Min, _ = stats.Min(vals)
	s.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		s.Std, _ = stats.StandardDeviationSample(vals)
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

func categorical(c *dataset.Column) ColumnSummary {
	s := ColumnSummary{Name: c.Name}
	counts := map[string]int{}
	var order []string
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			continue
		}
		s.Count++
		v := cell.String()
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	s.Unique = len(order)
	for _, v := range order {
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	return s
}

// Values returns the rendered cells of one statistic row, in column order.
func (r *Report) Values(stat string) []string {
	out := make([]string, len(r.Cols))
	for i, c := range r.Cols {
		if r.Categorical {
			switch stat {
			case "count":
				out[i] = strconv.Itoa(c.Count)
			case "unique":
				out[i] = strconv.Itoa(c.Unique)
			case "top":
				out[i] = safeVal(c.Top)
				if c.Count == 0 {
					out[i] = "NaN"
				}
			case "freq":
				out[i] = strconv.Itoa(c.Freq)
				if c.Count == 0 {
					out[i] = "NaN"
				}
			}
			continue
		}
		var v float64
		switch stat {
		case "count":
			v = float64(c.Count)
		case "mean":
			v = c.Mean
		case "std":
			v = c.Std
		case "min":
			v = c.Min
		case "25%":
			v = c.Q25
		case "50%":
			v = c.Q50
		case "75%":
			v = c.Q75
		case "max":
			v = c.Max
		}
		out[i] = formatFloat(v)
	}
	return out
}

// Stats returns the statistic labels of the report, in display order.
func (r *Report) Stats() []string {
	if r.Categorical {
		return CategoricalStats
	}
	return NumericStats
}

// Text renders the report as a whitespace-aligned table: a header row of
// column names, then one row per statistic. Output is deterministic.
func (r *Report) Text() string {
	labels := r.Stats()
	grid := make([][]string, len(labels))
	labelW := 0
	for i, l := range labels {
		grid[i] = r.Values(l)
		labelW = max(labelW, len(l))
	}
	widths := make([]int, len(r.Cols))
	for j, c := range r.Cols {
		widths[j] = len(safeName(c.Name))
		for i := range labels {
			widths[j] = max(widths[j], len(grid[i][j]))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelW))
	for j, c := range r.Cols {
		fmt.Fprintf(&b, "  %*s", widths[j], safeName(c.Name))
	}
	b.WriteString("\n")
	for i, l := range labels {
		fmt.Fprintf(&b, "%-*s", labelW, l)
		for j := range r.Cols {
			fmt.Fprintf(&b, "  %*s", widths[j], grid[i][j])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns summarized: %d\n\n", len(r.Cols)))
	if len(r.Cols) == 0 {
		return b.String()
	}

	b.WriteString("[DESCRIBE]\n")
	b.WriteString("| stat |")
	for _, c := range r.Cols {
		b.WriteString(" ")
		b.WriteString(safeVal(safeName(c.Name)))
		b.WriteString(" |")
	}
	b.WriteString("\n|---|")
	for range r.Cols {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, l := range r.Stats() {
		b.WriteString("| " + l + " |")
		for _, v := range r.Values(l) {
			b.WriteString(" " + v + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Persist writes the text rendering to path, replacing any existing file.
func Persist(r *Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Text()), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Package chart shapes a table column into the data behind each chart kind
// and hands it to a renderer.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/edascope/internal/dataset"
)

// Kind is the closed set of charts produced for a selected column.
type Kind int

const (
	Bar Kind = iota
	Line
	Scatter
	Area
	Pie
	BarH
)

const (
	// HeadRows is the truncation used by the bar chart.
	HeadRows = 10
	// TrendRows is the truncation used by line, scatter and area charts.
	TrendRows = 60
	// TopValues is how many frequency pairs the horizontal bar chart keeps.
	TopValues = 10
)

// Kinds lists every chart kind in display order.
func Kinds() []Kind { return []Kind{Bar, Line, Scatter, Area, Pie, BarH} }

func (k Kind) String() string {
	switch k {
	case Bar:
		return "bar"
	case Line:
		return "line"
	case Scatter:
		return "scatter"
	case Area:
		return "area"
	case Pie:
		return "pie"
	case BarH:
		return "barh"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Title is the heading shown above the chart.
func (k Kind) Title() string {
	switch k {
	case Bar:
		return "Bar Chart"
	case Line:
		return "Line Chart"
	case Scatter:
		return "Scatter Plot"
	case Area:
		return "Area Chart"
	case Pie:
		return "Pie Chart"
	case BarH:
		return "Horizontal Bar Chart"
	}
	return k.String()
}

// Frequency reports whether the kind plots value-frequency pairs rather
// than the column's leading values.
func (k Kind) Frequency() bool { return k == Pie || k == BarH }

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	kind, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown chart kind %q", s)
}

// Point is one plotted pair. For series kinds Label is the row's source
// index and Value the cell (NaN for non-numeric cells); for frequency kinds
// Label is the distinct value and Value its count.
type Point struct {
	Label   string
	Value   float64
	Display string
}

// MarshalJSON encodes a NaN value as null.
func (p Point) MarshalJSON() ([]byte, error) {
	w := struct {
		Label   string   `json:"label"`
		Value   *float64 `json:"value"`
		Display string   `json:"display"`
	}{Label: p.Label, Display: p.Display}
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		v := p.Value
		w.Value = &v
	}
	return json.Marshal(w)
}

// Chart is the data handed to a renderer.
type Chart struct {
	Kind   Kind    `json:"kind"`
	Title  string  `json:"title"`
	Column string  `json:"column"`
	Points []Point `json:"points"`
}

// Shares returns each point's percentage of the total value.
func (c Chart) Shares() []float64 {
	var total float64
	for _, p := range c.Points {
		total += p.Value
	}
	out := make([]float64, len(c.Points))
	if total == 0 {
		return out
	}
	for i, p := range c.Points {
		out[i] = p.Value * 100 / total
	}
	return out
}

// Shape derives the chart data of the given kind from column of t.
func Shape(kind Kind, t *dataset.Table, column string) (Chart, error) {
	col, ok := t.Column(column)
	if !ok {
		return Chart{}, fmt.Errorf("shape %s chart: column %q not found", kind, column)
	}
	c := Chart{Kind: kind, Title: kind.Title(), Column: column}
	switch kind {
	case Bar:
		c.Points = head(col, t.Index(), HeadRows)
	case Line, Scatter, Area:
		c.Points = head(col, t.Index(), TrendRows)
	case Pie:
		c.Points = frequencies(ValueCounts(col), 0)
	case BarH:
		c.Points = frequencies(ValueCounts(col), TopValues)
	default:
		return Chart{}, fmt.Errorf("shape: unknown chart kind %d", int(kind))
	}
	return c, nil
}

func head(col *dataset.Column, index []int, n int) []Point {
	n = min(n, len(col.Cells))
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		cell := col.Cells[i]
		v := math.NaN()
		if cell.Kind == dataset.CellNumeric {
			v = cell.Num
		}
		out[i] = Point{Label: strconv.Itoa(index[i]), Value: v, Display: cell.String()}
	}
	return out
}

func frequencies(counts []Count, limit int) []Point {
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	out := make([]Point, len(counts))
	for i, vc := range counts {
		out[i] = Point{Label: vc.Value, Value: float64(vc.N), Display: strconv.Itoa(vc.N)}
	}
	return out
}

// Count is one value-frequency pair.
type Count struct {
	Value string
	N     int
}

// ValueCounts counts each distinct non-missing value of col, most frequent
// first; ties keep first-occurrence order.
func ValueCounts(col *dataset.Column) []Count {
	pos := map[string]int{}
	var out []Count
	for _, cell := range col.Cells {
		if cell.IsMissing() {
			continue
		}
		v := cell.String()
		i, ok := pos[v]
		if !ok {
			i = len(out)
			pos[v] = i
			out = append(out, Count{Value: v})
		}
		out[i].N++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// Renderer draws one chart.
type Renderer interface {
	Render(c Chart) error
}

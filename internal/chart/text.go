package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// TextRenderer draws charts as labelled horizontal bars on a terminal.
type TextRenderer struct {
	w     io.Writer
	width int
}

// NewTextRenderer returns a renderer writing to w with bars up to width cells.
func NewTextRenderer(w io.Writer, width int) *TextRenderer {
	if width <= 0 {
		width = 40
	}
	return &TextRenderer{w: w, width: width}
}

// Render writes the chart's points, one line each.
func (r *TextRenderer) Render(c Chart) error {
	if len(c.Points) == 0 {
		_, err := fmt.Fprintf(r.w, "(no values in %s)\n", c.Column)
		return err
	}
	labelW := 0
	peak := 0.0
	for _, p := range c.Points {
		labelW = max(labelW, len(p.Label))
		if !math.IsNaN(p.Value) {
			peak = max(peak, math.Abs(p.Value))
		}
	}
	var shares []float64
	if c.Kind == Pie {
		shares = c.Shares()
	}
	var b strings.Builder
	if c.Kind == Scatter {
		fmt.Fprintf(&b, "%-*s  %s\n", labelW, "index", c.Column)
	}
	for i, p := range c.Points {
		fmt.Fprintf(&b, "%-*s │", labelW, p.Label)
		if !math.IsNaN(p.Value) && peak > 0 {
			n := int(math.Round(math.Abs(p.Value) / peak * float64(r.width)))
			b.WriteString(strings.Repeat("█", n))
		}
		b.WriteString(" ")
		b.WriteString(p.Display)
		if shares != nil {
			fmt.Fprintf(&b, " (%.1f%%)", shares[i])
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

package session

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/edascope/internal/chart"
	"github.com/KaramelBytes/edascope/internal/dataset"
)

// TextPresenter writes the session to a terminal.
type TextPresenter struct {
	w       io.Writer
	preview int
	charts  *chart.TextRenderer
}

// NewTextPresenter returns a presenter that shows the first preview rows of
// each table stage. preview <= 0 shows shapes only.
func NewTextPresenter(w io.Writer, preview int) *TextPresenter {
	return &TextPresenter{w: w, preview: preview, charts: chart.NewTextRenderer(w, 40)}
}

func (p *TextPresenter) Heading(text string) {
	fmt.Fprintf(p.w, "\n%s\n%s\n", text, strings.Repeat("=", len([]rune(text))))
}

func (p *TextPresenter) Table(caption string, t *dataset.Table) {
	fmt.Fprintf(p.w, "\n%s\n", caption)
	rows, cols := t.Shape()
	if n := min(p.preview, rows); n > 0 {
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(t.Columns(), "\t"))
		idx := t.Index()
		for i := 0; i < n; i++ {
			cells := t.Row(i)
			vals := make([]string, len(cells))
			for j, c := range cells {
				vals[j] = strings.ReplaceAll(c.String(), "\t", " ")
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", strconv.Itoa(idx[i]), strings.Join(vals, "\t"))
		}
		_ = tw.Flush()
		if rows > n {
			fmt.Fprintf(p.w, "... %d more rows\n", rows-n)
		}
	}
	fmt.Fprintf(p.w, "(%d, %d)\n", rows, cols)
}

func (p *TextPresenter) Notice(text string) { fmt.Fprintf(p.w, "✓ %s\n", text) }

func (p *TextPresenter) Error(text string) { fmt.Fprintf(p.w, "✗ %s\n", text) }

func (p *TextPresenter) Prompt(text string) { fmt.Fprintf(p.w, "⚠ %s\n", text) }

func (p *TextPresenter) Chart(c chart.Chart) error {
	fmt.Fprintf(p.w, "\n%s\n", c.Title)
	return p.charts.Render(c)
}

// Event kinds recorded by Recorder.
const (
	EventHeading = "heading"
	EventTable   = "table"
	EventNotice  = "notice"
	EventError   = "error"
	EventPrompt  = "prompt"
)

// Event is one recorded presenter call other than Chart.
type Event struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Rows int    `json:"rows,omitempty"`
	Cols int    `json:"cols,omitempty"`
}

// Recorder collects presenter calls instead of displaying them. The HTTP
// layer uses one per request.
type Recorder struct {
	Events []Event
	Charts []chart.Chart
}

func (r *Recorder) Heading(text string) { r.add(EventHeading, text) }

func (r *Recorder) Table(caption string, t *dataset.Table) {
	rows, cols := t.Shape()
	r.Events = append(r.Events, Event{Kind: EventTable, Text: caption, Rows: rows, Cols: cols})
}

func (r *Recorder) Notice(text string) { r.add(EventNotice, text) }

func (r *Recorder) Error(text string) { r.add(EventError, text) }

func (r *Recorder) Prompt(text string) { r.add(EventPrompt, text) }

func (r *Recorder) Chart(c chart.Chart) error {
	r.Charts = append(r.Charts, c)
	return nil
}

func (r *Recorder) add(kind, text string) {
	r.Events = append(r.Events, Event{Kind: kind, Text: text})
}

// Texts returns the text of every event of the given kind, in order.
func (r *Recorder) Texts(kind string) []string {
	var out []string
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e.Text)
		}
	}
	return out
}

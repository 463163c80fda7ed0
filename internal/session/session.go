// Package session runs the exploration pipeline for one dataset and owns the
// resulting table. Loading, profiling and cleaning happen once in Start; each
// column selection afterwards only re-runs selection and chart shaping.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/edascope/internal/analysis"
	"github.com/KaramelBytes/edascope/internal/chart"
	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/KaramelBytes/edascope/internal/logging"
	"github.com/google/uuid"
)

// User-facing messages.
const (
	SelectPrompt     = "Please select a column for the X-axis."
	VisualizeHeading = "Data Visualization:"
	persistedFmt     = "Summary statistics saved to '%s' successfully."
	persistFailedFmt = "Unable to write summary statistics to '%s'. %v"
)

// Stage captions, in pipeline order.
const (
	StageOriginal   = "Original dataset"
	StageMissing    = "After handling missing values"
	StageDuplicates = "After handling duplicates"
)

// Presenter displays what the pipeline computes. It never feeds data back
// except through the column name passed to Explore.
type Presenter interface {
	Heading(text string)
	// Table shows t as it is at the time of the call.
	Table(caption string, t *dataset.Table)
	Notice(text string)
	Error(text string)
	Prompt(text string)
	Chart(c chart.Chart) error
}

// Options configure one session.
type Options struct {
	Path string
	Load dataset.LoadOptions
	// ReportPath is where the summary is persisted. Empty skips persistence.
	ReportPath string
	// Title defaults to one derived from the file name.
	Title string
}

// Stage records the table shape after one pipeline step.
type Stage struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	Removed int    `json:"removed"`
}

// Session owns one loaded and cleaned table. The table is not modified after
// Start returns, so concurrent Explore calls only contend on the selection.
type Session struct {
	ID      uuid.UUID
	Created time.Time

	title      string
	path       string
	reportPath string
	table      *dataset.Table
	report     *analysis.Report
	persistErr error
	stages     []Stage

	mu       sync.Mutex
	selected string
}

// Start loads, profiles and cleans the dataset at opt.Path. A load failure is
// shown through p and returned; nothing else runs after it. A failure to
// persist the report is shown and logged but does not stop the session.
func Start(ctx context.Context, opt Options, p Presenter) (*Session, error) {
	log := logging.FromContext(ctx)
	title := opt.Title
	if title == "" {
		title = DefaultTitle(opt.Path)
	}

	tbl, err := dataset.Load(opt.Path, opt.Load)
	if err != nil {
		log.Error("load dataset", "path", opt.Path, "kind", kindOf(err), "error", err)
		p.Error(FatalMessage(err))
		return nil, err
	}

	s := &Session{
		ID:         uuid.New(),
		Created:    time.Now(),
		title:      title,
		path:       opt.Path,
		reportPath: opt.ReportPath,
		table:      tbl,
		report:     analysis.Summarize(tbl),
	}
	log = log.With("session", s.ID.String())

	if opt.ReportPath != "" {
		if err := analysis.Persist(s.report, opt.ReportPath); err != nil {
			s.persistErr = err
			log.Warn("persist summary", "path", opt.ReportPath, "error", err)
			p.Error(fmt.Sprintf(persistFailedFmt, opt.ReportPath, err))
		} else {
			log.Debug("persist summary", "path", opt.ReportPath)
			p.Notice(fmt.Sprintf(persistedFmt, opt.ReportPath))
		}
	}

	p.Heading(title)
	s.record(StageOriginal, 0, p)
	s.record(StageMissing, tbl.DropMissing(), p)
	s.record(StageDuplicates, tbl.DropDuplicates(), p)

	rows, cols := tbl.Shape()
	log.Info("session started", "path", opt.Path, "rows", rows, "cols", cols, "original_rows", s.report.Rows)
	return s, nil
}

func (s *Session) record(name string, removed int, p Presenter) {
	rows, cols := s.table.Shape()
	s.stages = append(s.stages, Stage{Name: name, Rows: rows, Cols: cols, Removed: removed})
	p.Table(name, s.table)
}

// Explore selects column and hands every chart kind, in order, to p. When no
// live column is named it prompts instead and produces no charts; that is
// not an error.
func (s *Session) Explore(ctx context.Context, column string, p Presenter) ([]chart.Chart, error) {
	log := logging.FromContext(ctx).With("session", s.ID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	p.Heading(VisualizeHeading)
	name, err := dataset.Select(s.table, column)
	if err != nil {
		if !dataset.IsNotChosen(err) {
			return nil, err
		}
		log.Debug("no column selected", "requested", column)
		s.selected = ""
		p.Prompt(SelectPrompt)
		return nil, nil
	}
	s.selected = name

	charts := make([]chart.Chart, 0, len(chart.Kinds()))
	for _, k := range chart.Kinds() {
		c, err := chart.Shape(k, s.table, name)
		if err != nil {
			return nil, err
		}
		if err := p.Chart(c); err != nil {
			return nil, fmt.Errorf("render %s chart: %w", k, err)
		}
		charts = append(charts, c)
	}
	log.Debug("charts shaped", "column", name, "count", len(charts))
	return charts, nil
}

// Title returns the heading shown for the session.
func (s *Session) Title() string { return s.title }

// Path returns the dataset path the session was loaded from.
func (s *Session) Path() string { return s.path }

// ReportPath returns where the summary was persisted, if anywhere.
func (s *Session) ReportPath() string { return s.reportPath }

// Table returns the cleaned table. Callers must not modify it.
func (s *Session) Table() *dataset.Table { return s.table }

// Report returns the summary computed before cleaning.
func (s *Session) Report() *analysis.Report { return s.report }

// PersistErr returns the error from persisting the report, if any.
func (s *Session) PersistErr() error { return s.persistErr }

// Stages returns the shape after each pipeline step.
func (s *Session) Stages() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}

// Columns returns the valid column choices: the cleaned table's columns.
func (s *Session) Columns() []string { return s.table.Columns() }

// Selected returns the current selection, or "" when none is made.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// FatalMessage returns the user-facing message for a load failure.
func FatalMessage(err error) string {
	var le *dataset.LoadError
	if !errors.As(err, &le) {
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
	switch le.Kind {
	case dataset.FileNotFound:
		return "File not found."
	case dataset.EmptyData:
		return "File is empty."
	case dataset.ValueError:
		return "Value error occurred, check the values in your data."
	case dataset.KeyError:
		return "Key error occurred, check the column names in your data."
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", le.Err)
	}
}

// DefaultTitle derives a heading from a dataset path:
// "olympic_medals.csv" becomes "EDA of Olympic Medals".
func DefaultTitle(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' || r == ' ' || r == '.' })
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	if len(words) == 0 {
		return "EDA"
	}
	return "EDA of " + strings.Join(words, " ")
}

func kindOf(err error) string {
	var le *dataset.LoadError
	if errors.As(err, &le) {
		return le.Kind.String()
	}
	return dataset.Unknown.String()
}

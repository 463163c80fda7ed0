package analysis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/edascope/internal/dataset"
)

func mustTable(t *testing.T, recs [][]string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords("medals.csv", recs, dataset.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSummarizeNumericColumns(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"Country", "Gold", "Silver"},
		{"Peru", "1", "4"},
		{"Chad", "2", ""},
		{"Fiji", "3", "6"},
		{"Iraq", "4", "8"},
	})
	rep := Summarize(tbl)
	if rep.Categorical {
		t.Fatalf("report should be numeric")
	}
	if len(rep.Cols) != 2 || rep.Cols[0].Name != "Gold" || rep.Cols[1].Name != "Silver" {
		t.Fatalf("cols = %#v", rep.Cols)
	}
	g := rep.Cols[0]
	if g.Count != 4 || !approx(g.Mean, 2.5) || !approx(g.Min, 1) || !approx(g.Max, 4) {
		t.Fatalf("gold summary = %#v", g)
	}
	// Sample standard deviation of 1..4.
	if !approx(g.Std, math.Sqrt(5.0/3.0)) {
		t.Fatalf("gold std = %v", g.Std)
	}
	if !approx(g.Q25, 1.75) || !approx(g.Q50, 2.5) || !approx(g.Q75, 3.25) {
		t.Fatalf("gold quartiles = %v %v %v", g.Q25, g.Q50, g.Q75)
	}
	s := rep.Cols[1]
	if s.Count != 3 || !approx(s.Mean, 6) || !approx(s.Q50, 6) {
		t.Fatalf("silver summary = %#v", s)
	}
}

func TestSummarizeSmallColumnsYieldNaN(t *testing.T) {
	tbl := mustTable(t, [][]string{{"a", "b"}, {"5", ""}})
	rep := Summarize(tbl)
	a, b := rep.Cols[0], rep.Cols[1]
	if a.Count != 1 || !math.IsNaN(a.Std) || a.Q75 != 5 {
		t.Fatalf("single value summary = %#v", a)
	}
	if b.Count != 0 || !math.IsNaN(b.Mean) || !math.IsNaN(b.Max) {
		t.Fatalf("empty summary = %#v", b)
	}
	txt := rep.Text()
	if !strings.Contains(txt, "NaN") {
		t.Fatalf("text should render NaN: %s", txt)
	}
}

func TestSummarizeCountsReflectPreCleanTable(t *testing.T) {
	recs := [][]string{{"Country", "Year"}}
	for i := 0; i < 100; i++ {
		country := fmt.Sprintf("C%d", i%90)
		if i%20 == 0 {
			country = ""
		}
		recs = append(recs, []string{country, fmt.Sprint(2000 + i%90)})
	}
	tbl := mustTable(t, recs)
	rep := Summarize(tbl)
	tbl.DropMissing()
	tbl.DropDuplicates()
	if tbl.Rows() >= 100 {
		t.Fatalf("fixture should lose rows when cleaned")
	}
	if rep.Rows != 100 || rep.Cols[0].Count != 100 {
		t.Fatalf("report rows=%d count=%d, want 100", rep.Rows, rep.Cols[0].Count)
	}
}

func TestSummarizeFallsBackToCategorical(t *testing.T) {
	tbl := mustTable(t, [][]string{{"Country", "Sport"}, {"Peru", "Judo"}, {"Chad", "Judo"}, {"Peru", ""}})
	rep := Summarize(tbl)
	if !rep.Categorical || len(rep.Cols) != 2 {
		t.Fatalf("want categorical report over both columns, got %#v", rep)
	}
	c := rep.Cols[0]
	if c.Count != 3 || c.Unique != 2 || c.Top != "Peru" || c.Freq != 2 {
		t.Fatalf("country summary = %#v", c)
	}
	txt := rep.Text()
	for _, want := range []string{"unique", "top", "freq", "Judo"} {
		if !strings.Contains(txt, want) {
			t.Fatalf("text missing %q:\n%s", want, txt)
		}
	}
}

func TestReportTextLayoutIsStable(t *testing.T) {
	tbl := mustTable(t, [][]string{{"Year", "Gold"}, {"2000", "1"}, {"2004", "3"}})
	rep := Summarize(tbl)
	txt := rep.Text()
	if txt != Summarize(tbl).Text() {
		t.Fatalf("text rendering not deterministic")
	}
	lines := strings.Split(strings.TrimRight(txt, "\n"), "\n")
	if len(lines) != 1+len(NumericStats) {
		t.Fatalf("lines = %d, want %d:\n%s", len(lines), 1+len(NumericStats), txt)
	}
	if !strings.HasPrefix(lines[1], "count") || !strings.HasSuffix(lines[1], "2.000000") {
		t.Fatalf("count row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[8], "max") || !strings.HasSuffix(lines[8], "3.000000") {
		t.Fatalf("max row = %q", lines[8])
	}
	for _, l := range lines {
		if len(l) != len(lines[0]) {
			t.Fatalf("rows not aligned:\n%s", txt)
		}
	}
	if !strings.Contains(lines[0], "Year") || strings.Index(lines[0], "Year") > strings.Index(lines[0], "Gold") {
		t.Fatalf("header order wrong: %q", lines[0])
	}
}

func TestPersistOverwritesAndReportsFailure(t *testing.T) {
	dir := t.TempDir()
	rep := Summarize(mustTable(t, [][]string{{"Gold"}, {"1"}, {"2"}}))

	p := filepath.Join(dir, "summary.txt")
	if err := os.WriteFile(p, []byte("stale contents that are longer than the report ..........................................................................................................................................................................................................................................................................................................................................................................................................................................."), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Persist(rep, p); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != rep.Text() {
		t.Fatalf("file = %q, want report text", string(b))
	}

	bad := filepath.Join(dir, "missing-dir", "summary.txt")
	if err := Persist(rep, bad); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
	// The in-memory report is still usable after a failed write.
	if rep.Cols[0].Count != 2 {
		t.Fatalf("report changed after failed persist")
	}
}

func TestMarkdown(t *testing.T) {
	rep := Summarize(mustTable(t, [][]string{{"Gold", "Note"}, {"1", "a"}, {"2", "b"}}))
	md := rep.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "File: medals.csv", "Rows: 2", "| stat | Gold |", "| mean | 1.500000 |"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/edascope/internal/parser"
	"github.com/xuri/excelize/v2"
)

func TestReadFileCSV_Latin1(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "medals.csv")
	// 0xE9 is 'é' in ISO-8859-1 and invalid as a lone UTF-8 byte.
	content := []byte("Country,Gold\nC\xe9te,3\nPeru,1\n")
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	recs, err := parser.ReadFile(p, parser.Options{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[1][0] != "Céte" {
		t.Fatalf("decoded cell = %q, want %q", recs[1][0], "Céte")
	}

	_, err = parser.ReadFile(p, parser.Options{Encoding: "utf-8"})
	if !errors.Is(err, parser.ErrInvalidEncoding) {
		t.Fatalf("utf-8 read err = %v, want ErrInvalidEncoding", err)
	}
}

func TestReadFile_UnsupportedEncoding(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(p, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := parser.ReadFile(p, parser.Options{Encoding: "klingon-8"})
	if !errors.Is(err, parser.ErrUnsupportedEncoding) {
		t.Fatalf("err = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestReadFileCSV_BareQuoteInField(t *testing.T) {
	p := filepath.Join(t.TempDir(), "heights.csv")
	if err := os.WriteFile(p, []byte("Name,Height\nAnn,5'10\"\n\"Bo, Jr\",6'1\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	recs, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[1][1] != `5'10"` {
		t.Fatalf("bare quote cell = %q", recs[1][1])
	}
	if recs[2][0] != "Bo, Jr" || recs[2][1] != `6'1"` {
		t.Fatalf("quoted row = %#v", recs[2])
	}
}

func TestReadFileTSV_DelimiterFromExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scores.tsv")
	if err := os.WriteFile(p, []byte("name\tscore\nann\t1,5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	recs, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs[1]) != 2 || recs[1][1] != "1,5" {
		t.Fatalf("tsv row = %#v", recs[1])
	}
}

func TestReadFileXLSX_FirstSheet(t *testing.T) {
	p := filepath.Join(t.TempDir(), "medals.xlsx")
	f := excelize.NewFile()
	rows := [][]any{{"Country", "Gold"}, {"Peru", 2}, {"Chad", 0}}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	recs, err := parser.ReadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 3 || recs[0][0] != "Country" || recs[1][1] != "2" {
		t.Fatalf("records = %#v", recs)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": 0, ",": ',', "tab": '\t', ";": ';', "pipe": '|'}
	for in, want := range cases {
		got, err := parser.ParseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parser.ParseDelimiter("::"); err == nil {
		t.Fatalf("expected error for unsupported delimiter")
	}
}

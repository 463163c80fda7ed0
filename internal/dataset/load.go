package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edascope/internal/parser"
)

// ErrorKind classifies why a dataset could not be loaded.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	FileNotFound
	EmptyData
	ValueError
	KeyError
)

func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file_not_found"
	case EmptyData:
		return "empty_data"
	case ValueError:
		return "value_error"
	case KeyError:
		return "key_error"
	default:
		return "unknown"
	}
}

// LoadError is returned by Load for every failure. No table accompanies it.
type LoadError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DefaultNAValues are the cell values read as the missing marker.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// LoadOptions controls how a file becomes a Table.
type LoadOptions struct {
	Encoding  string
	Delimiter rune
	Sheet     string
	// NAValues replaces DefaultNAValues when non-nil.
	NAValues []string
	// RequiredColumns must all be present in the header.
	RequiredColumns []string
	// ColumnTypes forces the type of the named columns.
	ColumnTypes map[string]ColumnType
}

// DefaultLoadOptions returns options matching a plain latin1 CSV read.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Encoding: parser.DefaultEncoding}
}

// Load reads the file at path into a Table. Any failure is a *LoadError.
func Load(path string, opt LoadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &LoadError{Kind: FileNotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Kind: Unknown, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Kind: FileNotFound, Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}
	if info.Size() == 0 {
		return nil, &LoadError{Kind: EmptyData, Path: path, Err: errors.New("no columns to parse from file")}
	}

	recs, err := parser.ReadFile(path, parser.Options{Encoding: opt.Encoding, Delimiter: opt.Delimiter, Sheet: opt.Sheet})
	if err != nil {
		return nil, &LoadError{Kind: classify(err), Path: path, Err: err}
	}
	t, err := FromRecords(filepath.Base(path), recs, opt)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return t, nil
}

func classify(err error) ErrorKind {
	var perr *csv.ParseError
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return FileNotFound
	case errors.As(err, &perr), errors.Is(err, parser.ErrInvalidEncoding):
		return ValueError
	default:
		return Unknown
	}
}

// FromRecords builds a Table from a header record followed by data records.
func FromRecords(name string, recs [][]string, opt LoadOptions) (*Table, error) {
	fail := func(kind ErrorKind, format string, args ...any) error {
		return &LoadError{Kind: kind, Path: name, Err: fmt.Errorf(format, args...)}
	}
	if len(recs) == 0 || blank(recs[0]) {
		return nil, fail(EmptyData, "no columns to parse from file")
	}
	header := headerNames(recs[0])
	ncol := len(header)
	pos := make(map[string]int, ncol)
	for i, h := range header {
		pos[h] = i
	}
	for _, req := range opt.RequiredColumns {
		if _, ok := pos[req]; !ok {
			return nil, fail(KeyError, "required column %q not found", req)
		}
	}
	for col := range opt.ColumnTypes {
		if _, ok := pos[col]; !ok {
			return nil, fail(KeyError, "typed column %q not found", col)
		}
	}

	na := opt.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	naSet := make(map[string]struct{}, len(na))
	for _, v := range na {
		naSet[v] = struct{}{}
	}

	data := recs[1:]
	cols := make([]*Column, ncol)
	for j, h := range header {
		cols[j] = &Column{Name: h, Cells: make([]Cell, len(data))}
	}
	for i, rec := range data {
		if len(rec) > ncol {
			// Header line is 1, first data line is 2.
			return nil, fail(ValueError, "expected %d fields in line %d, saw %d", ncol, i+2, len(rec))
		}
		for j := 0; j < ncol; j++ {
			if j >= len(rec) {
				continue // padded with the zero Cell, which is missing
			}
			v := strings.TrimSpace(rec[j])
			if _, isNA := naSet[v]; isNA {
				continue
			}
			cols[j].Cells[i] = Cell{Kind: CellText, Raw: v}
		}
	}

	for _, c := range cols {
		forced, isForced := opt.ColumnTypes[c.Name]
		if err := typeColumn(c, forced, isForced); err != nil {
			return nil, fail(ValueError, "%v", err)
		}
	}
	t, err := NewTable(name, cols)
	if err != nil {
		return nil, fail(Unknown, "%v", err)
	}
	return t, nil
}

// typeColumn infers the column type (numeric when every present cell
// parses, which includes all-missing columns) or enforces a forced one.
func typeColumn(c *Column, forced ColumnType, isForced bool) error {
	nums := make([]float64, len(c.Cells))
	numeric := true
	for i, cell := range c.Cells {
		if cell.IsMissing() {
			continue
		}
		x, ok := parseNumeric(cell.Raw)
		if !ok {
			if isForced && forced == TypeNumeric {
				return fmt.Errorf("column %q row %d: cannot convert %q to number", c.Name, i, cell.Raw)
			}
			numeric = false
			break
		}
		nums[i] = x
	}
	if isForced && forced == TypeText {
		numeric = false
	}
	if !numeric {
		c.Type = TypeText
		return nil
	}
	c.Type = TypeNumeric
	for i := range c.Cells {
		if !c.Cells[i].IsMissing() {
			c.Cells[i].Kind = CellNumeric
			c.Cells[i].Num = nums[i]
		}
	}
	return nil
}

func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" || strings.ContainsAny(raw, "xX_") {
		// Hex literals and digit separators are text, not numbers.
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// headerNames trims names, fills blanks and makes duplicates unique
// ("Name", "Name.1", ...).
func headerNames(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Package dataset holds the in-memory table and the stages that create,
// clean and query it.
package dataset

import (
	"fmt"
	"strconv"
)

// CellKind tags the content of a Cell.
type CellKind uint8

const (
	CellMissing CellKind = iota
	CellNumeric
	CellText
)

// Cell is one typed value. Raw keeps the text as read from the file.
type Cell struct {
	Kind CellKind
	Num  float64
	Raw  string
}

// IsMissing reports whether the cell holds the missing marker.
func (c Cell) IsMissing() bool { return c.Kind == CellMissing }

// String renders the cell for display.
func (c Cell) String() string {
	switch c.Kind {
	case CellMissing:
		return "NaN"
	case CellNumeric:
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	default:
		return c.Raw
	}
}

// key identifies the cell's value: numeric cells compare by value, text
// cells byte-wise.
func (c Cell) key() string {
	switch c.Kind {
	case CellMissing:
		return "\x00"
	case CellNumeric:
		v := c.Num
		if v == 0 {
			v = 0 // -0 equals 0
		}
		return "n" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "t" + c.Raw
	}
}

// ColumnType is the inferred or forced type of a column.
type ColumnType uint8

const (
	TypeNumeric ColumnType = iota
	TypeText
)

func (t ColumnType) String() string {
	if t == TypeNumeric {
		return "numeric"
	}
	return "text"
}

// ParseColumnType maps a config value to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "numeric", "number", "float":
		return TypeNumeric, nil
	case "text", "string", "category":
		return TypeText, nil
	}
	return 0, fmt.Errorf("unknown column type %q (use numeric|text)", s)
}

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Type  ColumnType
	Cells []Cell
}

// Table is an ordered set of equally long, uniquely named columns. Index
// keeps each row's position in the source file and survives row removal.
type Table struct {
	Name   string
	cols   []*Column
	index  []int
	byName map[string]int
}

// NewTable validates cols and builds a table over them.
func NewTable(name string, cols []*Column) (*Table, error) {
	t := &Table{Name: name, cols: cols, byName: make(map[string]int, len(cols))}
	rows := 0
	for i, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		t.byName[c.Name] = i
		if i == 0 {
			rows = len(c.Cells)
		} else if len(c.Cells) != rows {
			return nil, fmt.Errorf("column %q has %d cells, want %d", c.Name, len(c.Cells), rows)
		}
	}
	t.index = make([]int, rows)
	for i := range t.index {
		t.index[i] = i
	}
	return t, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return len(t.index) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return len(t.index), len(t.cols) }

// Columns returns the live column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnsOf returns every column of the given type, in table order.
func (t *Table) ColumnsOf(typ ColumnType) []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// All returns every column in table order. Callers must not modify them.
func (t *Table) All() []*Column { return t.cols }

// Index returns the source position of each row. Callers must not modify it.
func (t *Table) Index() []int { return t.index }

// Row returns the cells of row i.
func (t *Table) Row(i int) []Cell {
	out := make([]Cell, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Cells[i]
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cp := &Table{Name: t.Name, byName: make(map[string]int, len(t.cols))}
	for i, c := range t.cols {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		cp.cols = append(cp.cols, &Column{Name: c.Name, Type: c.Type, Cells: cells})
		cp.byName[c.Name] = i
	}
	cp.index = append([]int(nil), t.index...)
	return cp
}

// Equal reports whether both tables hold the same columns, rows and index.
func (t *Table) Equal(o *Table) bool {
	if len(t.cols) != len(o.cols) || len(t.index) != len(o.index) {
		return false
	}
	for i := range t.index {
		if t.index[i] != o.index[i] {
			return false
		}
	}
	for j, c := range t.cols {
		oc := o.cols[j]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for i := range c.Cells {
			if c.Cells[i].key() != oc.Cells[i].key() {
				return false
			}
		}
	}
	return true
}

// retain compacts the table in place, keeping rows where keep is true.
func (t *Table) retain(keep []bool) int {
	w := 0
	for i := range t.index {
		if !keep[i] {
			continue
		}
		t.index[w] = t.index[i]
		for _, c := range t.cols {
			c.Cells[w] = c.Cells[i]
		}
		w++
	}
	removed := len(t.index) - w
	t.index = t.index[:w]
	for _, c := range t.cols {
		c.Cells = c.Cells[:w]
	}
	return removed
}

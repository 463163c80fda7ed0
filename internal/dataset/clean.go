package dataset

import (
	"strconv"
	"strings"
)

// DropMissing removes, in place, every row holding a missing cell in any
// column. It returns the number of rows removed.
func (t *Table) DropMissing() int {
	keep := make([]bool, t.Rows())
	for i := range keep {
		keep[i] = true
		for _, c := range t.cols {
			if c.Cells[i].IsMissing() {
				keep[i] = false
				break
			}
		}
	}
	return t.retain(keep)
}

// DropDuplicates removes, in place, every row equal across all columns to
// an earlier row, keeping the first occurrence. It returns the number of
// rows removed.
func (t *Table) DropDuplicates() int {
	keep := make([]bool, t.Rows())
	seen := make(map[string]struct{}, t.Rows())
	var b strings.Builder
	for i := range keep {
		b.Reset()
		for _, c := range t.cols {
			// Length-prefixed so cell boundaries cannot shift between rows.
			k := c.Cells[i].key()
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep[i] = true
	}
	return t.retain(keep)
}

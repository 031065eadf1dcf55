// Package dataset provides an immutable column-oriented table used as the
// canonical data source for filtering and plotting.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind classifies a column for filter and plot eligibility
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindDate        Kind = "date"
)

// DateFormat is the canonical string rendering of date cells
const DateFormat = "2006-01-02"

// Column holds a single named, typed column. Exactly one of the value
// slices is populated depending on Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64   // KindNumeric
	Strings []string    // KindCategorical, KindText
	Times   []time.Time // KindDate
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Floats)
	case KindDate:
		return len(c.Times)
	default:
		return len(c.Strings)
	}
}

// IsNumeric reports whether the column holds numeric values
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// CellString renders cell i as a string, the form regex filters match against
func (c *Column) CellString(i int) string {
	switch c.Kind {
	case KindNumeric:
		v := c.Floats[i]
		if math.IsNaN(v) {
			return ""
		}
		return fmt.Sprintf("%g", v)
	case KindDate:
		return c.Times[i].Format(DateFormat)
	default:
		return c.Strings[i]
	}
}

// CellValue returns cell i as a JSON-friendly value
func (c *Column) CellValue(i int) interface{} {
	switch c.Kind {
	case KindNumeric:
		v := c.Floats[i]
		if math.IsNaN(v) {
			return nil
		}
		return v
	case KindDate:
		return c.Times[i].Format(DateFormat)
	default:
		return c.Strings[i]
	}
}

// MinMax returns the minimum and maximum of a numeric column, skipping NaN.
// ok is false for non-numeric or all-missing columns.
func (c *Column) MinMax() (min, max float64, ok bool) {
	if c.Kind != KindNumeric {
		return 0, 0, false
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range c.Floats {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return min, max, true
}

// DistinctCount returns the number of distinct cell values
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		seen[c.CellString(i)] = struct{}{}
	}
	return len(seen)
}

// DistinctStrings returns the sorted distinct string values of the column
func (c *Column) DistinctStrings() []string {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		seen[c.CellString(i)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// select returns a copy of the column restricted to the given rows
func (c *Column) selectRows(rows []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindNumeric:
		out.Floats = make([]float64, len(rows))
		for i, r := range rows {
			out.Floats[i] = c.Floats[r]
		}
	case KindDate:
		out.Times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.Times[i] = c.Times[r]
		}
	default:
		out.Strings = make([]string, len(rows))
		for i, r := range rows {
			out.Strings[i] = c.Strings[r]
		}
	}
	return out
}

// Table is an ordered collection of equal-length columns.
// Tables are never mutated after construction; Select produces copies.
type Table struct {
	cols   []Column
	byName map[string]int
	rows   int
}

// NewTable builds a table from columns, validating equal lengths and
// unique names
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.byName[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	return t.rows
}

// NumColumns returns the column count
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil when absent
func (t *Table) Column(name string) *Column {
	if i, ok := t.byName[name]; ok {
		return &t.cols[i]
	}
	return nil
}

// Columns returns the columns in declaration order
func (t *Table) Columns() []Column {
	return t.cols
}

// Select returns a new table containing only the given rows, in order.
// The receiver is left untouched.
func (t *Table) Select(rows []int) *Table {
	out := &Table{
		cols:   make([]Column, len(t.cols)),
		byName: make(map[string]int, len(t.cols)),
		rows:   len(rows),
	}
	for i := range t.cols {
		out.cols[i] = t.cols[i].selectRows(rows)
		out.byName[t.cols[i].Name] = i
	}
	return out
}

// Row renders row i as a name → value map
func (t *Table) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.cols))
	for c := range t.cols {
		row[t.cols[c].Name] = t.cols[c].CellValue(i)
	}
	return row
}

// Rows renders rows [offset, offset+limit) as name → value maps,
// clamped to the table bounds
func (t *Table) Rows(offset, limit int) []map[string]interface{} {
	if offset < 0 {
		offset = 0
	}
	if offset > t.rows {
		offset = t.rows
	}
	end := offset + limit
	if limit <= 0 || end > t.rows {
		end = t.rows
	}
	out := make([]map[string]interface{}, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

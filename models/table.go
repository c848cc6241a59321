package models

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned when a rule references a column the table lacks.
var ErrColumnNotFound = errors.New("column not found")

// Column is a named sequence of optional values sharing one type.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// NewColumn creates a column of n missing values.
func NewColumn(name string, t ColumnType, n int) *Column {
	return &Column{Name: name, Type: t, Values: make([]Value, n)}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: vals}
}

// MissingCount returns how many values are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if !v.Valid {
			n++
		}
	}
	return n
}

// MissingFraction returns the share of missing values, 0 for an empty column.
func (c *Column) MissingFraction() float64 {
	if len(c.Values) == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(len(c.Values))
}

// HasMissing reports whether at least one value is missing.
func (c *Column) HasMissing() bool {
	for _, v := range c.Values {
		if !v.Valid {
			return true
		}
	}
	return false
}

// FillMissing replaces every missing value with v. Present values are kept.
func (c *Column) FillMissing(v Value) {
	if !v.Valid {
		return
	}
	for i := range c.Values {
		if !c.Values[i].Valid {
			c.Values[i] = v
		}
	}
}

// FillFrom replaces missing values with the value at the same row of src.
func (c *Column) FillFrom(src *Column) {
	for i := range c.Values {
		if !c.Values[i].Valid && i < len(src.Values) {
			c.Values[i] = src.Values[i]
		}
	}
}

// Table is an ordered set of equally long columns.
type Table struct {
	Name    string
	columns []*Column
	index   map[string]int
}

// NewTable creates a table from columns. All columns must have the same length.
func NewTable(name string, cols ...*Column) (*Table, error) {
	t := &Table{Name: name, index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Values)
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column { return t.columns }

// Names returns column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", t.Name, name, ErrColumnNotFound)
	}
	return t.columns[i], nil
}

// AddColumn appends a column, or replaces an existing one with the same name.
func (t *Table) AddColumn(c *Column) error {
	if len(t.columns) > 0 && len(c.Values) != t.Len() {
		return fmt.Errorf("%s.%s: length %d, table has %d rows", t.Name, c.Name, len(c.Values), t.Len())
	}
	if i, ok := t.index[c.Name]; ok {
		t.columns[i] = c
		return nil
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// DropColumns removes the named columns. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := t.columns[:0]
	for _, c := range t.columns {
		if _, ok := drop[c.Name]; !ok {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	t.reindex()
}

// FilterRows keeps only the rows for which keep returns true.
func (t *Table) FilterRows(keep func(row int) bool) {
	n := t.Len()
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		mask[i] = keep(i)
	}
	for _, c := range t.columns {
		vals := make([]Value, 0, n)
		for i, v := range c.Values {
			if mask[i] {
				vals = append(vals, v)
			}
		}
		c.Values = vals
	}
}

// DropMissingRows removes every row holding at least one missing value.
func (t *Table) DropMissingRows() {
	t.FilterRows(func(row int) bool {
		for _, c := range t.columns {
			if !c.Values[row].Valid {
				return false
			}
		}
		return true
	})
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, index: make(map[string]int, len(t.columns))}
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.Clone())
	}
	return out
}

// Equal reports whether both tables hold the same columns and values.
func (t *Table) Equal(o *Table) bool {
	if len(t.columns) != len(o.columns) || t.Len() != o.Len() {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for r, v := range c.Values {
			if !v.Equal(oc.Values[r], c.Type) {
				return false
			}
		}
	}
	return true
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
}

// Dataset is the triple of tables threaded through the pipeline.
type Dataset struct {
	Calendar *Table
	Listings *Table
	Reviews  *Table
}

// Clone deep-copies the three tables.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Calendar: d.Calendar.Clone(),
		Listings: d.Listings.Clone(),
		Reviews:  d.Reviews.Clone(),
	}
}

// Tables returns the tables in a fixed order.
func (d Dataset) Tables() []*Table {
	return []*Table{d.Calendar, d.Listings, d.Reviews}
}

package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed enumeration of column value kinds. Schema inference
// maps each kind to exactly one warehouse type; there is no dynamic dtype
// string matching anywhere.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a single named, typed column. Exactly one of the value slices is
// populated, selected by Kind. A nil validity mask means every value is set;
// null values render as empty CSV cells and SQL NULLs.
type Column struct {
	name  string
	kind  Kind
	strs  []string
	ints  []int64
	flts  []float64
	bools []bool
	valid []bool
}

// StringColumn creates a string column.
func StringColumn(name string, values []string) *Column {
	return &Column{name: name, kind: KindString, strs: values}
}

// IntColumn creates an integer column.
func IntColumn(name string, values []int64) *Column {
	return &Column{name: name, kind: KindInt, ints: values}
}

// FloatColumn creates a floating-point column.
func FloatColumn(name string, values []float64) *Column {
	return &Column{name: name, kind: KindFloat, flts: values}
}

// BoolColumn creates a boolean column.
func BoolColumn(name string, values []bool) *Column {
	return &Column{name: name, kind: KindBool, bools: values}
}

// TimeColumn creates a date column. Values are pre-formatted date strings;
// the warehouse persists dates as text to avoid timezone round-trip loss.
func TimeColumn(name string, values []string) *Column {
	return &Column{name: name, kind: KindTime, strs: values}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.kind {
	case KindString, KindTime:
		return len(c.strs)
	case KindInt:
		return len(c.ints)
	case KindFloat:
		return len(c.flts)
	case KindBool:
		return len(c.bools)
	default:
		return 0
	}
}

// SetNull marks the value at row i as null.
func (c *Column) SetNull(i int) {
	if c.valid == nil {
		c.valid = make([]bool, c.Len())
		for j := range c.valid {
			c.valid[j] = true
		}
	}
	c.valid[i] = false
}

// IsNull reports whether the value at row i is null.
func (c *Column) IsNull(i int) bool {
	return c.valid != nil && !c.valid[i]
}

// Value returns the value at row i as an interface, or nil when null.
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.kind {
	case KindString, KindTime:
		return c.strs[i]
	case KindInt:
		return c.ints[i]
	case KindFloat:
		return c.flts[i]
	case KindBool:
		return c.bools[i]
	default:
		return nil
	}
}

// Format renders the value at row i as text. Null values render empty.
func (c *Column) Format(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.kind {
	case KindString, KindTime:
		return c.strs[i]
	case KindInt:
		return strconv.FormatInt(c.ints[i], 10)
	case KindFloat:
		return strconv.FormatFloat(c.flts[i], 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.bools[i])
	default:
		return ""
	}
}

// Floats returns the underlying float values. Only valid for KindFloat.
func (c *Column) Floats() []float64 { return c.flts }

// Strings returns the underlying string values. Valid for KindString and
// KindTime.
func (c *Column) Strings() []string { return c.strs }

// Ints returns the underlying int values. Only valid for KindInt.
func (c *Column) Ints() []int64 { return c.ints }

// slice returns a view of rows [from, to).
func (c *Column) slice(from, to int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindString, KindTime:
		out.strs = c.strs[from:to]
	case KindInt:
		out.ints = c.ints[from:to]
	case KindFloat:
		out.flts = c.flts[from:to]
	case KindBool:
		out.bools = c.bools[from:to]
	}
	if c.valid != nil {
		out.valid = c.valid[from:to]
	}
	return out
}

// Frame is an in-memory table with a fixed column order. Column order is
// load-bearing: schema inference and positional inserts both walk columns in
// this order.
type Frame struct {
	cols []*Column
	rows int
}

// New builds a frame from columns, validating that all columns share the
// same length and that names are unique.
func New(cols ...*Column) (*Frame, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame needs at least one column")
	}

	rows := cols[0].Len()
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if col.Len() != rows {
			return nil, fmt.Errorf("column %s has %d rows, want %d", col.name, col.Len(), rows)
		}
		if seen[col.name] {
			return nil, fmt.Errorf("duplicate column name %s", col.name)
		}
		seen[col.name] = true
	}

	return &Frame{cols: cols, rows: rows}, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column { return f.cols }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.cols))
	for i, col := range f.cols {
		names[i] = col.name
	}
	return names
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	for _, col := range f.cols {
		if col.name == name {
			return col, true
		}
	}
	return nil, false
}

// Rename renames a column in place. Returns false when the column does not
// exist.
func (f *Frame) Rename(from, to string) bool {
	col, ok := f.Column(from)
	if !ok {
		return false
	}
	col.name = to
	return true
}

// UpperCaseNames forces every column name to upper case in place. The
// warehouse stores identifiers upper-cased; callers holding a reference to
// the frame observe the renamed columns afterwards.
func (f *Frame) UpperCaseNames() {
	for _, col := range f.cols {
		col.name = strings.ToUpper(col.name)
	}
}

// Slice returns a frame holding rows [from, to). The underlying column data
// is shared, not copied; frames are treated as write-once.
func (f *Frame) Slice(from, to int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, col := range f.cols {
		cols[i] = col.slice(from, to)
	}
	return &Frame{cols: cols, rows: to - from}
}

// Tail returns a frame holding the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n > f.rows {
		n = f.rows
	}
	return f.Slice(f.rows-n, f.rows)
}

// Row materializes row i as a positional value slice, null values as nil.
func (f *Frame) Row(i int) []interface{} {
	row := make([]interface{}, len(f.cols))
	for j, col := range f.cols {
		row[j] = col.Value(i)
	}
	return row
}

// Records materializes the frame as one map per row, for JSON payloads.
func (f *Frame) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, f.rows)
	for i := 0; i < f.rows; i++ {
		rec := make(map[string]interface{}, len(f.cols))
		for _, col := range f.cols {
			rec[col.name] = col.Value(i)
		}
		records[i] = rec
	}
	return records
}

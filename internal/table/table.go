package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown" // every cell missing
)

// Column is a named, homogeneous sequence of values. Numeric columns are backed
// by an Arrow Float64 array, everything else by an Arrow String array. Missing
// cells are Arrow nulls.
type Column struct {
	Name string
	Kind Kind
	arr  arrow.Array
}

// NumericColumn builds a numeric column; NaN values become nulls.
func NumericColumn(name string, vals []float64) *Column {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = !math.IsNaN(v)
	}
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return &Column{Name: name, Kind: KindNumeric, arr: b.NewArray()}
}

// StringColumn builds a non-numeric column of the given kind; empty strings
// become nulls.
func StringColumn(name string, kind Kind, vals []string) *Column {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = v != ""
	}
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return &Column{Name: name, Kind: kind, arr: b.NewArray()}
}

func (c *Column) Len() int          { return c.arr.Len() }
func (c *Column) NullCount() int    { return c.arr.NullN() }
func (c *Column) IsNull(i int) bool { return c.arr.IsNull(i) }
func (c *Column) IsNumeric() bool   { return c.Kind == KindNumeric }

// DataType returns the Arrow storage type of the column.
func (c *Column) DataType() arrow.DataType { return c.arr.DataType() }

// Float returns the numeric value at row i. ok is false for nulls and
// non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	f, isFloat := c.arr.(*array.Float64)
	if !isFloat || f.IsNull(i) {
		return 0, false
	}
	return f.Value(i), true
}

// Value returns the display string of row i; nulls render as "".
func (c *Column) Value(i int) string {
	if c.arr.IsNull(i) {
		return ""
	}
	switch a := c.arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64)
	case *array.String:
		return a.Value(i)
	default:
		return a.ValueStr(i)
	}
}

// Floats returns the non-null values of a numeric column in row order.
func (c *Column) Floats() []float64 {
	f, ok := c.arr.(*array.Float64)
	if !ok {
		return nil
	}
	out := make([]float64, 0, f.Len()-f.NullN())
	for i := 0; i < f.Len(); i++ {
		if f.IsValid(i) {
			out = append(out, f.Value(i))
		}
	}
	return out
}

// Table is an immutable, column-oriented dataset. Column names are unique and
// all columns share the same length.
type Table struct {
	Name string
	key  string
	cols []*Column
	idx  map[string]int
	rows int
}

// New assembles a table from columns, checking the shape invariants.
func New(name string, cols ...*Column) (*Table, error) {
	t := &Table{Name: name, cols: cols, idx: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.idx[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.idx[c.Name] = i
	}
	return t, nil
}

// WithKey returns a shallow copy tagged with a content key used for memoization.
func (t *Table) WithKey(key string) *Table {
	cp := *t
	cp.key = key
	return &cp
}

// Key identifies the input the table was built from; empty for ad-hoc tables.
func (t *Table) Key() string { return t.key }

func (t *Table) NumRows() int       { return t.rows }
func (t *Table) NumCols() int       { return len(t.cols) }
func (t *Table) Columns() []*Column { return t.cols }

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.idx[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// NumericColumns lists numeric column names in table order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.cols {
		if c.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalColumns lists every non-numeric column name in table order.
func (t *Table) CategoricalColumns() []string {
	var out []string
	for _, c := range t.cols {
		if !c.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

// Schema describes the table as an Arrow schema.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.DataType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Head returns up to n rows as display strings.
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Value(i)
		}
		out[i] = row
	}
	return out
}

package analysis

import (
	"sort"

	"github.com/KaramelBytes/datadash/internal/table"
)

const maxTopValues = 5

// Info is the dataset overview shown next to the preview.
type Info struct {
	Name    string
	Rows    int
	Cols    int
	Columns []ColumnInfo
}

// ColumnInfo describes one column's type and completeness.
type ColumnInfo struct {
	Name    string
	Kind    table.Kind
	DType   string
	NonNull int
	Missing int
	Unique  int
	// Categorical top values
	TopValues []CategoryCount
	// Outliers (robust Z via MAD), numeric columns only
	OutliersCount   int
	OutliersMaxAbsZ float64
}

type CategoryCount struct {
	Value string
	Count int
}

// MissingPct is the share of missing cells in percent.
func (c ColumnInfo) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100 / float64(total)
}

// DescribeInfo collects per-column dtype, completeness and cardinality.
func DescribeInfo(t *table.Table) *Info {
	info := &Info{Name: t.Name, Rows: t.NumRows(), Cols: t.NumCols()}
	for _, c := range t.Columns() {
		ci := ColumnInfo{
			Name:    c.Name,
			Kind:    c.Kind,
			DType:   c.DataType().String(),
			NonNull: c.Len() - c.NullCount(),
			Missing: c.NullCount(),
		}
		counts := ValueCounts(c)
		ci.Unique = len(counts)
		if c.Kind == table.KindCategorical {
			n := min(len(counts), maxTopValues)
			ci.TopValues = counts[:n]
		}
		if c.IsNumeric() {
			ci.OutliersCount, ci.OutliersMaxAbsZ = robustOutliers(c.Floats(), DefaultOutlierThreshold)
		}
		info.Columns = append(info.Columns, ci)
	}
	return info
}

// ValueCounts counts non-null values of c, most frequent first. Ties keep
// first-appearance order.
func ValueCounts(c *table.Column) []CategoryCount {
	idx := map[string]int{}
	var out []CategoryCount
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := c.Value(i)
		if j, ok := idx[v]; ok {
			out[j].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, CategoryCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

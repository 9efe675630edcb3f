package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datadash/internal/table"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlation computes Pearson r for every pair of numeric columns using
// pairwise-complete observations. Pairs with fewer than two complete rows or
// zero variance are NaN. The diagonal is 1.
func Correlation(t *table.Table) *CorrMatrix {
	names := t.NumericColumns()
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i], _ = t.Column(n)
	}
	m := &CorrMatrix{Columns: names, Values: make([][]float64, len(names))}
	for i := range names {
		m.Values[i] = make([]float64, len(names))
		m.Values[i][i] = 1
	}
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r := pairwise(cols[i], cols[j])
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

func pairwise(a, b *table.Column) float64 {
	var xs, ys []float64
	for k := 0; k < a.Len(); k++ {
		x, okx := a.Float(k)
		y, oky := b.Float(k)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return r
}

// TopPairs lists the off-diagonal pairs ordered by |r| descending, NaN last.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsNaN(m.Values[i][j]) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumericSummary // by column name
}

// GroupBy summarizes every numeric column per distinct value of column.
// Rows where column is missing are skipped. Groups keep first-appearance order.
func GroupBy(t *table.Table, column string) ([]GroupResult, bool) {
	key, ok := t.Column(column)
	if !ok {
		return nil, false
	}
	idx := map[string]int{}
	var groups []GroupResult
	var rows [][]int
	for i := 0; i < key.Len(); i++ {
		if key.IsNull(i) {
			continue
		}
		v := key.Value(i)
		g, seen := idx[v]
		if !seen {
			g = len(groups)
			idx[v] = g
			groups = append(groups, GroupResult{Key: column + "=" + v, Metrics: map[string]NumericSummary{}})
			rows = append(rows, nil)
		}
		groups[g].Size++
		rows[g] = append(rows[g], i)
	}
	for _, name := range t.NumericColumns() {
		if name == column {
			continue
		}
		c, _ := t.Column(name)
		for g := range groups {
			vals := make([]float64, 0, len(rows[g]))
			for _, i := range rows[g] {
				if v, ok := c.Float(i); ok {
					vals = append(vals, v)
				}
			}
			groups[g].Metrics[name] = Summarize(name, vals)
		}
	}
	return groups, true
}

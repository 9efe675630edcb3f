package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datadash/internal/table"
)

// DefaultOutlierThreshold is the robust |z| above which a value is counted as an outlier.
const DefaultOutlierThreshold = 3.5

// Report is a markdown-friendly analysis of a table.
type Report struct {
	Name    string
	Rows    int
	Cols    int
	Numeric []NumericSummary
	Info    *Info
	Corr    *CorrMatrix
	Groups  []GroupResult
	GroupBy string
	Notes   []string
}

// NumericSummary is the describe() row of one numeric column.
type NumericSummary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64 // sample std; NaN when Count < 2
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Empty reports whether no numeric column was summarized.
func (r *Report) Empty() bool { return r == nil || len(r.Numeric) == 0 }

// Describe summarizes every numeric column of t. Non-numeric columns are
// skipped; a table without numeric columns yields an empty report.
func Describe(t *table.Table) *Report {
	rep := &Report{Name: t.Name, Rows: t.NumRows(), Cols: t.NumCols()}
	for _, name := range t.NumericColumns() {
		c, _ := t.Column(name)
		rep.Numeric = append(rep.Numeric, Summarize(name, c.Floats()))
	}
	return rep
}

// Summarize computes count, mean, sample std, min, quartiles and max of vals.
// NaN entries are ignored.
func Summarize(name string, vals []float64) NumericSummary {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	s := NumericSummary{Name: name, Count: len(xs)}
	if len(xs) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(xs)
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		s.Std = math.NaN()
	}
	s.Min = xs[0]
	s.Max = xs[len(xs)-1]
	s.Q25 = quantile(xs, 0.25)
	s.Q50 = quantile(xs, 0.50)
	s.Q75 = quantile(xs, 0.75)
	return s
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// robustOutliers counts values whose robust Z-score exceeds threshold.
func robustOutliers(vals []float64, threshold float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > threshold {
			count++
		}
		if z > maxAbsZ {
			maxAbsZ = z
		}
	}
	return count, maxAbsZ
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

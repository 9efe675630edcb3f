package chart

import (
	"slices"

	"github.com/KaramelBytes/datadash/internal/table"
)

const (
	MinBins     = 5
	MaxBins     = 50
	DefaultBins = 20
)

// Request selects what to draw. Which fields matter depends on Kind: X and Y
// for Scatter, Line and Bar; Column for Histogram, Box and Pie; Bins for
// Histogram only.
type Request struct {
	Kind   Kind
	X      string
	Y      string
	Column string
	Bins   int
}

// ClampBins maps 0 to DefaultBins and clamps everything else into [MinBins, MaxBins].
func ClampBins(n int) int {
	switch {
	case n == 0:
		return DefaultBins
	case n < MinBins:
		return MinBins
	case n > MaxBins:
		return MaxBins
	}
	return n
}

// Normalize clamps bins and fills unset or ineligible column selections with
// the first eligible column of t, the way a select box preselects its first
// option. Scatter's Y defaults to the second numeric column.
func (r Request) Normalize(t *table.Table) Request {
	r.Bins = ClampBins(r.Bins)
	numeric := t.NumericColumns()
	all := t.Names()
	switch r.Kind {
	case Scatter:
		r.X = pick(r.X, numeric, 0)
		r.Y = pick(r.Y, numeric, 1)
	case Line, Bar:
		r.X = pick(r.X, all, 0)
		r.Y = pick(r.Y, numeric, 0)
	case Histogram, Box:
		r.Column = pick(r.Column, numeric, 0)
	case Pie:
		r.Column = pick(r.Column, PieColumns(t), 0)
	}
	return r
}

// PieColumns lists the non-numeric columns holding at least one value.
func PieColumns(t *table.Table) []string {
	var out []string
	for _, name := range t.CategoricalColumns() {
		if c, ok := t.Column(name); ok && c.Kind != table.KindUnknown {
			out = append(out, name)
		}
	}
	return out
}

func pick(want string, eligible []string, fallback int) string {
	if want != "" && slices.Contains(eligible, want) {
		return want
	}
	if fallback < len(eligible) {
		return eligible[fallback]
	}
	if len(eligible) > 0 {
		return eligible[0]
	}
	return ""
}

// Image is a rendered chart.
type Image struct {
	Kind    Kind
	Title   string
	Request Request
	PNG     []byte
	Width   int
	Height  int
}

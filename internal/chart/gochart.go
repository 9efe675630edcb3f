package chart

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/table"
)

const (
	maxBars      = 50
	maxPieSlices = 12
)

func drawScatter(cv *canvas, t *table.Table, req Request) (string, error) {
	xc, _ := t.Column(req.X)
	yc, _ := t.Column(req.Y)
	var xs, ys []float64
	for i := 0; i < t.NumRows(); i++ {
		x, okx := xc.Float(i)
		y, oky := yc.Float(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) == 0 {
		return "", noPairs(req.X, req.Y)
	}
	title := fmt.Sprintf("Scatter Plot: %s vs %s", req.X, req.Y)
	ch := chart.Chart{
		Title:      title,
		Width:      cv.width,
		Height:     cv.height,
		Background: background(),
		XAxis:      chart.XAxis{Name: req.X, Range: flatRange(xs, 0.5)},
		YAxis:      chart.YAxis{Name: req.Y, Range: flatRange(ys, 0.5)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: req.Y, XValues: xs, YValues: ys, Style: pointStyle(seriesColor(0))},
		},
	}
	return title, ch.Render(chart.PNG, cv.buf)
}

// drawLine plots the mean of Y per distinct X, sorted along the X axis.
// Numeric X uses a continuous axis, datetime X a time axis and any other
// column positional ticks labeled with the category.
func drawLine(cv *canvas, t *table.Table, req Request) (string, error) {
	xc, _ := t.Column(req.X)
	yc, _ := t.Column(req.Y)
	title := fmt.Sprintf("Line Plot: %s over %s", req.Y, req.X)
	ch := chart.Chart{
		Title:      title,
		Width:      cv.width,
		Height:     cv.height,
		Background: background(),
		XAxis:      chart.XAxis{Name: req.X},
		YAxis:      chart.YAxis{Name: req.Y},
	}
	style := lineStyle(seriesColor(0))

	switch xc.Kind {
	case table.KindNumeric:
		keys, means := meanBy(t.NumRows(), yc, func(i int) (float64, bool) { return xc.Float(i) })
		if len(keys) == 0 {
			return "", noPairs(req.X, req.Y)
		}
		sortPaired(keys, means, cmp.Compare[float64])
		ch.XAxis.Range = flatRange(keys, 0.5)
		ch.YAxis.Range = flatRange(means, 0.5)
		ch.Series = []chart.Series{chart.ContinuousSeries{Name: req.Y, XValues: keys, YValues: means, Style: style}}
	case table.KindDatetime:
		keys, means := meanBy(t.NumRows(), yc, func(i int) (time.Time, bool) {
			if xc.IsNull(i) {
				return time.Time{}, false
			}
			return table.ParseTime(xc.Value(i))
		})
		if len(keys) == 0 {
			return "", noPairs(req.X, req.Y)
		}
		sortPaired(keys, means, func(a, b time.Time) int { return a.Compare(b) })
		xs := make([]float64, len(keys))
		for i, k := range keys {
			xs[i] = chart.TimeToFloat64(k)
		}
		ch.XAxis.Range = flatRange(xs, float64(24*time.Hour))
		ch.YAxis.Range = flatRange(means, 0.5)
		ch.XAxis.ValueFormatter = chart.TimeValueFormatter
		ch.Series = []chart.Series{chart.TimeSeries{Name: req.Y, XValues: keys, YValues: means, Style: style}}
	default:
		keys, means := meanBy(t.NumRows(), yc, func(i int) (string, bool) {
			return xc.Value(i), !xc.IsNull(i)
		})
		if len(keys) == 0 {
			return "", noPairs(req.X, req.Y)
		}
		sortPaired(keys, means, cmp.Compare[string])
		xs := make([]float64, len(keys))
		ticks := make([]chart.Tick, len(keys))
		for i, k := range keys {
			xs[i] = float64(i)
			ticks[i] = chart.Tick{Value: float64(i), Label: k}
		}
		if len(ticks) == 1 {
			// explicit ticks set the axis range, so widen it with blank ones
			ticks = []chart.Tick{{Value: -1}, ticks[0], {Value: 1}}
		}
		ch.XAxis.Ticks = ticks
		ch.YAxis.Range = flatRange(means, 0.5)
		ch.Series = []chart.Series{chart.ContinuousSeries{Name: req.Y, XValues: xs, YValues: means, Style: style}}
	}
	return title, ch.Render(chart.PNG, cv.buf)
}

// drawBar plots the mean of Y per category of X. Numeric categories are
// sorted numerically, others keep first-appearance order.
func drawBar(cv *canvas, t *table.Table, req Request) (string, error) {
	xc, _ := t.Column(req.X)
	yc, _ := t.Column(req.Y)
	keys, means := meanBy(t.NumRows(), yc, func(i int) (string, bool) {
		return xc.Value(i), !xc.IsNull(i)
	})
	if len(keys) == 0 {
		return "", noPairs(req.X, req.Y)
	}
	if xc.IsNumeric() {
		sortPaired(keys, means, func(a, b string) int {
			fa, _ := strconv.ParseFloat(a, 64)
			fb, _ := strconv.ParseFloat(b, 64)
			return cmp.Compare(fa, fb)
		})
	}
	title := fmt.Sprintf("Bar Plot: %s by %s", req.Y, req.X)
	if n := len(keys); n > maxBars {
		keys, means = keys[:maxBars], means[:maxBars]
		title += fmt.Sprintf(" (showing first %d of %d categories)", maxBars, n)
	}

	lo, hi := 0.0, 0.0
	bars := make([]chart.Value, len(keys))
	for i, k := range keys {
		lo, hi = min(lo, means[i]), max(hi, means[i])
		bars[i] = chart.Value{
			Label: k,
			Value: means[i],
			Style: chart.Style{FillColor: seriesColor(0), StrokeColor: seriesColor(0)},
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	width := max(4, (cv.width-120)/(len(bars)*2))
	bc := chart.BarChart{
		Title:        title,
		Width:        cv.width,
		Height:       cv.height,
		Background:   background(),
		BarWidth:     width,
		BarSpacing:   width,
		UseBaseValue: true,
		BaseValue:    0,
		XAxis:        chart.Style{TextRotationDegrees: rotation(len(bars))},
		YAxis: chart.YAxis{
			Name:  req.Y,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	return title, bc.Render(chart.PNG, cv.buf)
}

// drawPie plots the value counts of a categorical column. Slices beyond
// maxPieSlices are folded into "Other".
func drawPie(cv *canvas, t *table.Table, req Request) (string, error) {
	c, _ := t.Column(req.Column)
	counts := analysis.ValueCounts(c)
	if len(counts) == 0 {
		return "", apperr.New(apperr.VisualizationError, fmt.Sprintf("Column %s has no values to plot.", req.Column))
	}
	total := 0
	for _, kv := range counts {
		total += kv.Count
	}
	if len(counts) > maxPieSlices {
		other := 0
		for _, kv := range counts[maxPieSlices-1:] {
			other += kv.Count
		}
		counts = append(counts[:maxPieSlices-1:maxPieSlices-1], analysis.CategoryCount{Value: "Other", Count: other})
	}
	values := make([]chart.Value, len(counts))
	for i, kv := range counts {
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", kv.Value, float64(kv.Count)*100/float64(total)),
			Value: float64(kv.Count),
			Style: chart.Style{FillColor: seriesColor(i)},
		}
	}
	title := fmt.Sprintf("Pie Chart of %s", req.Column)
	pc := chart.PieChart{
		Title:      title,
		Width:      cv.width,
		Height:     cv.height,
		Background: background(),
		Values:     values,
	}
	return title, pc.Render(chart.PNG, cv.buf)
}

// meanBy averages the numeric column y per key. Rows where the key or y is
// missing are skipped. Keys keep first-appearance order.
func meanBy[K comparable](n int, y *table.Column, key func(i int) (K, bool)) ([]K, []float64) {
	idx := map[K]int{}
	var keys []K
	var sums []float64
	var counts []int
	for i := 0; i < n; i++ {
		k, ok := key(i)
		if !ok {
			continue
		}
		v, ok := y.Float(i)
		if !ok {
			continue
		}
		j, seen := idx[k]
		if !seen {
			j = len(keys)
			idx[k] = j
			keys = append(keys, k)
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		sums[j] += v
		counts[j]++
	}
	means := make([]float64, len(keys))
	for j := range keys {
		means[j] = sums[j] / float64(counts[j])
	}
	return keys, means
}

// sortPaired sorts keys with compare and permutes vals alongside.
func sortPaired[K any](keys []K, vals []float64, compare func(a, b K) int) {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return compare(keys[a], keys[b]) })
	k2 := make([]K, len(keys))
	v2 := make([]float64, len(vals))
	for i, j := range order {
		k2[i], v2[i] = keys[j], vals[j]
	}
	copy(keys, k2)
	copy(vals, v2)
}

// flatRange pads a zero-width axis by pad on each side. go-chart refuses to
// draw a series whose values are all equal. It returns nil otherwise so the
// axis keeps its automatic range.
func flatRange(vs []float64, pad float64) chart.Range {
	if len(vs) == 0 || slices.Min(vs) != slices.Max(vs) {
		return nil
	}
	return &chart.ContinuousRange{Min: vs[0] - pad, Max: vs[0] + pad}
}

func rotation(n int) float64 {
	if n > 8 {
		return 45
	}
	return 0
}

func noPairs(x, y string) error {
	return apperr.New(apperr.VisualizationError, fmt.Sprintf("No rows with both %s and %s present.", x, y))
}

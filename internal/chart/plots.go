package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/table"
)

// drawHistogram bins a numeric column and overlays a Gaussian kernel density
// estimate scaled to counts.
func drawHistogram(cv *canvas, t *table.Table, req Request) (string, error) {
	c, _ := t.Column(req.Column)
	vals := plotter.Values(c.Floats())
	if len(vals) == 0 {
		return "", emptyColumn(req.Column)
	}
	title := fmt.Sprintf("Histogram of %s", req.Column)
	p := newPlot(title, req.Column, "Count")

	h, err := plotter.NewHist(vals, ClampBins(req.Bins))
	if err != nil {
		return "", err
	}
	h.FillColor = seriesColor(0).WithAlpha(160)
	h.LineStyle.Color = seriesColor(0)
	p.Add(h)

	if bw := scottBandwidth(vals); bw > 0 {
		scale := float64(len(vals)) * h.Width
		kde := plotter.NewFunction(func(x float64) float64 {
			return scale * density(vals, bw, x)
		})
		kde.XMin = floats.Min(vals) - 3*bw
		kde.XMax = floats.Max(vals) + 3*bw
		kde.Samples = 200
		kde.LineStyle.Color = seriesColor(3)
		kde.LineStyle.Width = vg.Points(2)
		p.Add(kde)
	}
	return title, save(cv, p)
}

func drawBox(cv *canvas, t *table.Table, req Request) (string, error) {
	c, _ := t.Column(req.Column)
	vals := plotter.Values(c.Floats())
	if len(vals) == 0 {
		return "", emptyColumn(req.Column)
	}
	title := fmt.Sprintf("Box Plot of %s", req.Column)
	p := newPlot(title, "", req.Column)
	b, err := plotter.NewBoxPlot(vg.Points(80), 0, vals)
	if err != nil {
		return "", err
	}
	b.FillColor = seriesColor(0).WithAlpha(160)
	p.Add(b)
	p.NominalX(req.Column)
	return title, save(cv, p)
}

// drawHeatmap draws the Pearson correlation matrix of all numeric columns
// with each cell annotated by its coefficient.
func drawHeatmap(cv *canvas, t *table.Table, _ Request) (string, error) {
	m := analysis.Correlation(t)
	title := "Correlation Heatmap"
	p := newPlot(title, "", "")

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(corrGrid{m}, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	n := len(m.Columns)
	var xy plotter.XYLabels
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xy.XYs = append(xy.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			xy.Labels = append(xy.Labels, fmt.Sprintf("%.2f", m.Values[r][c]))
		}
	}
	labels, err := plotter.NewLabels(xy)
	if err != nil {
		return "", err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)
	p.NominalX(m.Columns...)
	p.NominalY(m.Columns...)
	return title, save(cv, p)
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ.
type corrGrid struct{ m *analysis.CorrMatrix }

func (g corrGrid) Dims() (c, r int)   { n := len(g.m.Columns); return n, n }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

// save encodes p as PNG at the canvas's pixel size.
func save(cv *canvas, p *plot.Plot) error {
	w, err := p.WriterTo(pixels(cv.width), pixels(cv.height), "png")
	if err != nil {
		return err
	}
	_, err = w.WriteTo(cv.buf)
	return err
}

// pixels converts a pixel count to a length at the default 96 DPI.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

// scottBandwidth is Scott's rule of thumb, std * n^(-1/5).
func scottBandwidth(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sd := stat.StdDev(vals, nil)
	if math.IsNaN(sd) || sd == 0 {
		return 0
	}
	return sd * math.Pow(float64(len(vals)), -0.2)
}

func density(vals []float64, bw, x float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += distuv.Normal{Mu: v, Sigma: bw}.Prob(x)
	}
	return sum / float64(len(vals))
}

func emptyColumn(name string) error {
	return apperr.New(apperr.VisualizationError, fmt.Sprintf("Column %s has no values to plot.", name))
}

package chart

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/table"
)

// Options sets the output image size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns a 1000x600 canvas.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 600}
}

// canvas is the drawing surface of one render. It is only valid between
// acquire and release.
type canvas struct {
	buf    *bytes.Buffer
	width  int
	height int
}

// drawFunc draws req onto cv and returns the chart title.
type drawFunc func(cv *canvas, t *table.Table, req Request) (string, error)

type handler struct {
	kind       Kind
	minNumeric int
	warning    string
	draw       drawFunc
}

// handlers is indexed by Kind. The assignment below fails to compile if a
// kind is added without a handler.
var handlers = [...]handler{
	{Scatter, 2, "Need at least two numeric columns for a scatter plot.", drawScatter},
	{Line, 1, "", drawLine},
	{Histogram, 1, "", drawHistogram},
	{Box, 1, "", drawBox},
	{Heatmap, 2, "Need at least two numeric columns for a correlation heatmap.", drawHeatmap},
	{Bar, 1, "", drawBar},
	{Pie, 1, "", drawPie},
}

var _ [numKinds]handler = handlers

// Renderer draws chart requests. It is safe for concurrent use.
type Renderer struct {
	opt    Options
	pool   sync.Pool
	active atomic.Int32
}

// NewRenderer returns a Renderer producing images of the given size. Zero
// dimensions fall back to DefaultOptions.
func NewRenderer(opt Options) *Renderer {
	def := DefaultOptions()
	if opt.Width <= 0 {
		opt.Width = def.Width
	}
	if opt.Height <= 0 {
		opt.Height = def.Height
	}
	r := &Renderer{opt: opt}
	r.pool.New = func() any { return new(bytes.Buffer) }
	return r
}

// Options returns the configured image size.
func (r *Renderer) Options() Options { return r.opt }

// Render draws req from t. Unmet preconditions return an *apperr.Error of kind
// Warning and no image; drawing failures, including panics inside the
// plotting libraries, return VisualizationError. No state survives a failed
// render.
func (r *Renderer) Render(t *table.Table, req Request) (img *Image, err error) {
	if req.Kind < 0 || req.Kind >= numKinds {
		return nil, apperr.New(apperr.VisualizationError, "Invalid chart type selected.")
	}
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, apperr.ErrNoNumeric
	}
	h := handlers[req.Kind]
	if len(numeric) < h.minNumeric {
		return nil, apperr.Warnf("%s", h.warning)
	}
	req = req.Normalize(t)
	if req.Kind == Pie && req.Column == "" {
		return nil, apperr.Warnf("No categorical columns found for a pie chart.")
	}

	cv := r.acquire()
	defer r.release(cv)
	defer func() {
		if p := recover(); p != nil {
			slog.Error("chart render panicked", "kind", req.Kind.String(), "panic", p)
			img = nil
			err = apperr.Wrap(apperr.VisualizationError, "Error creating visualization", fmt.Errorf("%v", p))
		}
	}()

	title, err := h.draw(cv, t, req)
	if err != nil {
		if apperr.KindOf(err) != apperr.UnexpectedError {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.VisualizationError, "Error creating visualization", err)
	}
	if cv.buf.Len() == 0 {
		return nil, apperr.New(apperr.VisualizationError, "Error creating visualization: empty image")
	}
	return &Image{
		Kind:    req.Kind,
		Title:   title,
		Request: req,
		PNG:     bytes.Clone(cv.buf.Bytes()),
		Width:   cv.width,
		Height:  cv.height,
	}, nil
}

func (r *Renderer) acquire() *canvas {
	r.active.Add(1)
	buf := r.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return &canvas{buf: buf, width: r.opt.Width, height: r.opt.Height}
}

func (r *Renderer) release(cv *canvas) {
	cv.buf.Reset()
	r.pool.Put(cv.buf)
	cv.buf = nil
	r.active.Add(-1)
}

// inUse reports how many canvases are currently acquired.
func (r *Renderer) inUse() int { return int(r.active.Load()) }

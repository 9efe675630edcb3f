package dashboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/apperr"
	"github.com/KaramelBytes/datadash/internal/chart"
	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/parser"
	"github.com/KaramelBytes/datadash/internal/table"
)

const (
	noDatasetPrompt    = "👆 Please select a dataset or upload your own file to begin the analysis."
	headerChartWarning = "X-Chart-Warning"
	formMarker         = "form"
)

var templateFuncs = template.FuncMap{
	"num": func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "—"
		}
		return strconv.FormatFloat(v, 'f', 3, 64)
	},
	"pct": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type toggles struct {
	Preview bool
	Stats   bool
	Viz     bool
}

type banner struct {
	Kind    string
	Message string
}

type tableView struct {
	Name        string
	Rows        int
	Cols        int
	Columns     []analysis.ColumnInfo
	Header      []string
	Preview     [][]string
	PreviewRows int
}

type vizView struct {
	Kinds       []option
	Kind        chart.Kind
	Request     chart.Request
	Numeric     []option
	Any         []option
	Columns     []option
	YOptions    []option
	MinBins     int
	MaxBins     int
	Title       string
	Image       template.URL
	Warning     string
	Error       string
}

type pageData struct {
	Datasets    []option
	Builtins    []dataset.Builtin
	Selection   dataset.Selection
	Uploaded    string
	MaxUploadMB int
	Extensions  string
	Show        toggles
	Info        string
	Error       *banner
	Table       *tableView
	Stats       *analysis.Report
	StatsNote   string
	Viz         *vizView
}

// handleIndex renders the dashboard. Loader and parser failures put an error
// banner on the page and stop rendering the dataset sections; chart failures
// stay inside the visualization panel.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sid := s.sessions.Resolve(w, r)
	q := r.URL.Query()
	pd := s.basePage(q, sid)

	sel, err := dataset.ParseSelection(q.Get("dataset"))
	if err != nil {
		pd.Error = &banner{Kind: "InvalidSelection", Message: err.Error()}
		s.render(w, r, http.StatusBadRequest, pd)
		return
	}
	pd.Selection = sel
	pd.Datasets = datasetOptions(sel)

	t, err := s.load(r.Context(), sel, sid)
	switch {
	case errors.Is(err, apperr.ErrNoUpload):
		pd.Info = noDatasetPrompt
		s.render(w, r, http.StatusOK, pd)
		return
	case err != nil:
		pd.Error = bannerFor(err)
		if apperr.KindOf(err) == apperr.UnexpectedError {
			slog.ErrorContext(r.Context(), "dataset load failed", "dataset", string(sel), "error", err)
		}
		s.render(w, r, statusFor(err), pd)
		return
	}
	s.fillTable(&pd, t, q)
	s.render(w, r, http.StatusOK, pd)
}

// handleUpload stores a parsed upload in the session and redirects to the
// dashboard. A file that fails to parse is never stored.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sid := s.sessions.Resolve(w, r)
	pd := s.basePage(url.Values{}, sid)
	pd.Selection = dataset.Upload
	pd.Datasets = datasetOptions(dataset.Upload)

	file, err := s.readUpload(w, r)
	if err == nil {
		// parse once up front so a bad file is reported here, not on the next page view
		_, err = s.loader.Load(r.Context(), dataset.Upload, file)
	}
	if err != nil {
		pd.Error = bannerFor(err)
		s.render(w, r, statusFor(err), pd)
		return
	}
	s.sessions.SetUpload(sid, file)
	slog.InfoContext(r.Context(), "upload stored", "file", file.Name, "bytes", len(file.Data))
	http.Redirect(w, r, "/?dataset="+string(dataset.Upload), http.StatusSeeOther)
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*dataset.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	tooLarge := apperr.New(apperr.ParseError,
		fmt.Sprintf("Error parsing file: the file exceeds the %d MB upload limit.", s.cfg.MaxUploadMB))

	f, hdr, err := r.FormFile("file")
	if err != nil {
		switch {
		case bodyTooLarge(err):
			return nil, tooLarge
		case errors.Is(err, http.ErrMissingFile):
			return nil, apperr.New(apperr.ParseError, "Please choose a file to upload.")
		}
		return nil, apperr.Wrap(apperr.ParseError, "Error parsing file", err)
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	if !parser.Supported(name) {
		return nil, apperr.New(apperr.UnsupportedFormat,
			fmt.Sprintf("Unsupported file format %q. Please upload a CSV or Excel file.", filepath.Ext(name)))
	}
	data, err := io.ReadAll(f)
	if err != nil {
		if bodyTooLarge(err) {
			return nil, tooLarge
		}
		return nil, apperr.Wrap(apperr.ParseError, "Error parsing file", err)
	}
	return &dataset.File{Name: name, Data: data}, nil
}

func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// handleChart serves the PNG for the selected dataset and chart request.
// Unmet preconditions answer 204 with the warning in a header.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sid := s.sessions.Resolve(w, r)
	q := r.URL.Query()
	sel, err := dataset.ParseSelection(q.Get("dataset"))
	if err != nil {
		writeError(r.Context(), w, badRequest(err))
		return
	}
	t, err := s.load(r.Context(), sel, sid)
	if err == nil {
		var req chart.Request
		if req, err = s.chartRequest(q); err == nil {
			var img *chart.Image
			if img, err = s.chart(t, req); err == nil {
				w.Header().Set("Content-Type", "image/png")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
				_, _ = w.Write(img.PNG)
				return
			}
		}
	}
	if k := apperr.KindOf(err); k == apperr.Warning || k == apperr.NoUpload {
		msg := apperr.Message(err)
		if k == apperr.NoUpload {
			msg = strings.TrimPrefix(noDatasetPrompt, "👆 ")
		}
		w.Header().Set(headerChartWarning, msg)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeError(r.Context(), w, err)
}

func (s *Server) basePage(q url.Values, sid string) pageData {
	pd := pageData{
		Builtins:    dataset.Builtins(),
		Selection:   dataset.Iris,
		MaxUploadMB: s.cfg.MaxUploadMB,
		Extensions:  strings.Join(parser.Extensions(), ","),
		Show: toggles{
			Preview: toggle(q, "preview"),
			Stats:   toggle(q, "stats"),
			Viz:     toggle(q, "viz"),
		},
	}
	pd.Datasets = datasetOptions(pd.Selection)
	if f := s.sessions.Upload(sid); f != nil {
		pd.Uploaded = f.Name
	}
	return pd
}

// toggle reads a checkbox. Every section is on until the sidebar form has
// been submitted once; after that an absent box means off.
func toggle(q url.Values, name string) bool {
	if v := q.Get(name); v != "" {
		on, err := strconv.ParseBool(v)
		return err != nil || on
	}
	return !q.Has(formMarker)
}

func (s *Server) fillTable(pd *pageData, t *table.Table, q url.Values) {
	rep := s.report(t, false, "")
	tv := &tableView{Name: t.Name, Rows: t.NumRows(), Cols: t.NumCols(), PreviewRows: s.cfg.PreviewRows}
	if rep.Info != nil {
		tv.Columns = rep.Info.Columns
	}
	if pd.Show.Preview {
		tv.Header = t.Names()
		tv.Preview = t.Head(s.cfg.PreviewRows)
	}
	pd.Table = tv

	if pd.Show.Stats {
		if rep.Empty() {
			pd.StatsNote = apperr.Message(apperr.ErrNoNumeric)
		} else {
			pd.Stats = rep
		}
	}
	if pd.Show.Viz {
		pd.Viz = s.fillViz(t, q)
	}
}

func (s *Server) fillViz(t *table.Table, q url.Values) *vizView {
	v := &vizView{MinBins: chart.MinBins, MaxBins: chart.MaxBins}
	req, err := s.chartRequest(q)
	if err != nil {
		v.Kinds = kindOptions(chart.Scatter)
		v.Error = apperr.Message(err)
		return v
	}
	norm := req.Normalize(t)
	v.Kind, v.Request = norm.Kind, norm
	v.Kinds = kindOptions(norm.Kind)
	v.Numeric = columnOptions(t.NumericColumns(), norm.X)
	v.Any = columnOptions(t.Names(), norm.X)
	v.YOptions = columnOptions(t.NumericColumns(), norm.Y)
	switch norm.Kind {
	case chart.Pie:
		v.Columns = columnOptions(chart.PieColumns(t), norm.Column)
	case chart.Histogram, chart.Box:
		v.Columns = columnOptions(t.NumericColumns(), norm.Column)
	}

	img, err := s.chart(t, req)
	switch {
	case err == nil:
		v.Title = img.Title
		v.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img.PNG)) //nolint:gosec // generated PNG
	case apperr.KindOf(err) == apperr.Warning:
		v.Warning = apperr.Message(err)
	default:
		slog.Warn("chart render failed", "kind", norm.Kind.String(), "error", err)
		v.Error = apperr.Message(err)
	}
	return v
}

// chartRequest reads kind, x, y, column and bins from the query. Missing bins
// use the configured default.
func (s *Server) chartRequest(q url.Values) (chart.Request, error) {
	kind, err := chart.ParseKind(q.Get("kind"))
	if err != nil {
		return chart.Request{}, apperr.Wrap(apperr.VisualizationError, "Invalid chart type selected.", err)
	}
	bins := s.cfg.DefaultBins
	if v := q.Get("bins"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			bins = n
		}
	}
	return chart.Request{
		Kind:   kind,
		X:      q.Get("x"),
		Y:      q.Get("y"),
		Column: q.Get("column"),
		Bins:   chart.ClampBins(bins),
	}, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, pd pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, pd); err != nil {
		slog.ErrorContext(r.Context(), "render page", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, unexpectedErrorPage)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func bannerFor(err error) *banner {
	return &banner{Kind: apperr.KindOf(err).String(), Message: apperr.Message(err)}
}

func statusFor(err error) int {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}

func datasetOptions(sel dataset.Selection) []option {
	var out []option
	for _, s := range dataset.Selections() {
		out = append(out, option{Value: string(s), Label: s.Label(), Selected: s == sel})
	}
	return out
}

func kindOptions(k chart.Kind) []option {
	var out []option
	for _, kk := range chart.Kinds() {
		out = append(out, option{Value: kk.String(), Label: kk.Label(), Selected: kk == k})
	}
	return out
}

func columnOptions(names []string, selected string) []option {
	out := make([]option, 0, len(names))
	for _, n := range names {
		out = append(out, option{Value: n, Label: n, Selected: n == selected})
	}
	return out
}

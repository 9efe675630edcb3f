package dashboard

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/table"
)

type datasetDTO struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type datasetsResponse struct {
	Datasets []datasetDTO `json:"datasets"`
}

func (datasetsResponse) Message() string { return "datasets listed" }

type summaryDTO struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q25   *float64 `json:"q25"`
	Q50   *float64 `json:"q50"`
	Q75   *float64 `json:"q75"`
	Max   *float64 `json:"max"`
}

type corrDTO struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

type groupDTO struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]summaryDTO `json:"metrics"`
}

type describeResponse struct {
	Dataset      string       `json:"dataset"`
	Rows         int          `json:"rows"`
	Columns      int          `json:"columns"`
	Numeric      []summaryDTO `json:"numeric"`
	Correlations *corrDTO     `json:"correlations,omitempty"`
	GroupBy      string       `json:"group_by,omitempty"`
	Groups       []groupDTO   `json:"groups,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
}

func (describeResponse) Message() string { return "dataset described" }

func (r describeResponse) Meta() map[string]any {
	return map[string]any{"numeric_columns": len(r.Numeric)}
}

type countDTO struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type columnDTO struct {
	Name       string     `json:"name"`
	Kind       table.Kind `json:"kind"`
	DType      string     `json:"dtype"`
	NonNull    int        `json:"non_null"`
	Missing    int        `json:"missing"`
	MissingPct float64    `json:"missing_pct"`
	Unique     int        `json:"unique"`
	TopValues  []countDTO `json:"top_values,omitempty"`
	Outliers   int        `json:"outliers,omitempty"`
	MaxAbsZ    *float64   `json:"max_abs_z,omitempty"`
}

type infoResponse struct {
	Dataset string      `json:"dataset"`
	Rows    int         `json:"rows"`
	Columns int         `json:"columns"`
	Fields  []columnDTO `json:"column_info"`
}

func (infoResponse) Message() string { return "dataset info" }

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Cached   int    `json:"cached_datasets"`
}

func (healthResponse) Message() string { return "ok" }

func (s *Server) apiDatasets(_ context.Context, _ *http.Request) (any, error) {
	resp := datasetsResponse{}
	for _, b := range dataset.Builtins() {
		resp.Datasets = append(resp.Datasets, datasetDTO{ID: string(b.Selection), Label: b.Label, Description: b.Description})
	}
	resp.Datasets = append(resp.Datasets, datasetDTO{ID: string(dataset.Upload), Label: dataset.UploadLabel})
	return resp, nil
}

// apiDescribe answers the statistics table. Query: dataset, correlations, group_by.
func (s *Server) apiDescribe(ctx context.Context, r *http.Request) (any, error) {
	t, err := s.apiTable(ctx, r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	corr := false
	if v := q.Get("correlations"); v != "" {
		if corr, err = strconv.ParseBool(v); err != nil {
			return nil, badRequest(err)
		}
	}
	rep := s.report(t, corr, q.Get("group_by"))

	resp := describeResponse{
		Dataset: rep.Name,
		Rows:    rep.Rows,
		Columns: rep.Cols,
		Numeric: make([]summaryDTO, 0, len(rep.Numeric)),
		GroupBy: rep.GroupBy,
		Notes:   rep.Notes,
	}
	for _, ns := range rep.Numeric {
		resp.Numeric = append(resp.Numeric, summaryOf(ns))
	}
	if rep.Corr != nil {
		c := &corrDTO{Columns: rep.Corr.Columns}
		for _, row := range rep.Corr.Values {
			out := make([]*float64, len(row))
			for j, v := range row {
				out[j] = finite(v)
			}
			c.Values = append(c.Values, out)
		}
		resp.Correlations = c
	}
	for _, g := range rep.Groups {
		gd := groupDTO{Key: g.Key, Size: g.Size, Metrics: make(map[string]summaryDTO, len(g.Metrics))}
		for name, ns := range g.Metrics {
			gd.Metrics[name] = summaryOf(ns)
		}
		resp.Groups = append(resp.Groups, gd)
	}
	return resp, nil
}

// apiInfo answers per-column types, completeness and cardinality.
func (s *Server) apiInfo(ctx context.Context, r *http.Request) (any, error) {
	t, err := s.apiTable(ctx, r)
	if err != nil {
		return nil, err
	}
	info := s.report(t, false, "").Info
	resp := infoResponse{Dataset: info.Name, Rows: info.Rows, Columns: info.Cols}
	for _, c := range info.Columns {
		cd := columnDTO{
			Name:       c.Name,
			Kind:       c.Kind,
			DType:      c.DType,
			NonNull:    c.NonNull,
			Missing:    c.Missing,
			MissingPct: c.MissingPct(),
			Unique:     c.Unique,
			Outliers:   c.OutliersCount,
		}
		if c.OutliersCount > 0 {
			cd.MaxAbsZ = finite(c.OutliersMaxAbsZ)
		}
		for _, tv := range c.TopValues {
			cd.TopValues = append(cd.TopValues, countDTO{Value: tv.Value, Count: tv.Count})
		}
		resp.Fields = append(resp.Fields, cd)
	}
	return resp, nil
}

func (s *Server) health(_ context.Context, _ *http.Request) (any, error) {
	return healthResponse{Status: "ok", Sessions: s.sessions.Len(), Cached: s.loader.Len()}, nil
}

// apiTable loads the dataset named by the query. API calls read the session
// cookie but never create a session.
func (s *Server) apiTable(ctx context.Context, r *http.Request) (*table.Table, error) {
	sel, err := dataset.ParseSelection(r.URL.Query().Get("dataset"))
	if err != nil {
		return nil, badRequest(err)
	}
	sid := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		sid = c.Value
	}
	return s.load(ctx, sel, sid)
}

func summaryOf(ns analysis.NumericSummary) summaryDTO {
	return summaryDTO{
		Name:  ns.Name,
		Count: ns.Count,
		Mean:  finite(ns.Mean),
		Std:   finite(ns.Std),
		Min:   finite(ns.Min),
		Q25:   finite(ns.Q25),
		Q50:   finite(ns.Q50),
		Q75:   finite(ns.Q75),
		Max:   finite(ns.Max),
	}
}

// finite returns nil for NaN and ±Inf, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Package dashboard serves the data analysis dashboard over HTTP.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/cors"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/chart"
	"github.com/KaramelBytes/datadash/internal/config"
	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/parser"
	"github.com/KaramelBytes/datadash/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server holds the dashboard's shared state: the dataset memo, the
// statistics and chart memos and the session store. Tables, reports and
// images are immutable once cached, so handlers may share them freely.
type Server struct {
	cfg      *config.Global
	loader   *dataset.Loader
	renderer *chart.Renderer
	sessions *SessionStore
	reports  *lru.Cache[string, *analysis.Report]
	charts   *lru.Cache[string, *chart.Image]
	router   *Router
	page     *template.Template
}

// Option customizes a Server.
type Option func(*Server)

// WithGenerator overrides the id generator used for sessions and correlation ids.
func WithGenerator(g Generator) Option {
	return func(s *Server) {
		s.sessions.uid = g
		s.router = NewRouter(g)
	}
}

// New builds a Server from cfg.
func New(cfg *config.Global, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loader, err := dataset.NewLoader(cfg.CacheEntries, parser.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("dataset loader: %w", err)
	}
	reports, err := lru.New[string, *analysis.Report](cfg.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}
	charts, err := lru.New[string, *chart.Image](cfg.CacheEntries * 4)
	if err != nil {
		return nil, fmt.Errorf("chart cache: %w", err)
	}
	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		loader:   loader,
		renderer: chart.NewRenderer(chart.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight}),
		sessions: NewSessionStore(cfg.MaxSessions, cfg.SessionTTL(), UUIDGenerator{}),
		reports:  reports,
		charts:   charts,
		router:   NewRouter(UUIDGenerator{}),
		page:     page,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Handle(http.MethodGet, "/", http.HandlerFunc(s.handleIndex))
	s.router.Handle(http.MethodPost, "/upload", http.HandlerFunc(s.handleUpload))
	s.router.Handle(http.MethodGet, "/chart.png", http.HandlerFunc(s.handleChart))

	s.router.GET("/api/datasets", s.apiDatasets)
	s.router.GET("/api/describe", s.apiDescribe)
	s.router.GET("/api/info", s.apiInfo)
	s.router.GET("/health", s.health)
}

// Handler returns the root handler, wrapped with CORS for the configured origins.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{HeaderCorrelationID, headerChartWarning},
		AllowCredentials: false,
	}).Handler(s.router)
}

// Sessions exposes the session store, mainly so the caller can run its janitor.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// load resolves the selection for the request's session. An upload selection
// without a stored file returns apperr.ErrNoUpload.
func (s *Server) load(ctx context.Context, sel dataset.Selection, sid string) (*table.Table, error) {
	var file *dataset.File
	if sel == dataset.Upload {
		file = s.sessions.Upload(sid)
	}
	t, err := s.loader.Load(ctx, sel, file)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "dataset loaded", "dataset", string(sel), "rows", t.NumRows(), "cols", t.NumCols())
	return t, nil
}

// report memoizes analysis.Full per table content and options.
func (s *Server) report(t *table.Table, correlations bool, groupBy string) *analysis.Report {
	key := fmt.Sprintf("%s|%t|%s", t.Key(), correlations, groupBy)
	if rep, ok := s.reports.Get(key); ok {
		return rep
	}
	rep := analysis.Full(t, correlations, groupBy)
	s.reports.Add(key, rep)
	return rep
}

// chart memoizes successful renders per table content and normalized
// request. Failures are never cached.
func (s *Server) chart(t *table.Table, req chart.Request) (*chart.Image, error) {
	norm := req.Normalize(t)
	key := fmt.Sprintf("%s|%s|%s|%s|%s|%d", t.Key(), norm.Kind, norm.X, norm.Y, norm.Column, norm.Bins)
	if img, ok := s.charts.Get(key); ok {
		return img, nil
	}
	img, err := s.renderer.Render(t, req)
	if err != nil {
		return nil, err
	}
	s.charts.Add(key, img)
	return img, nil
}

// Package web serves the report pages plus health, readiness, and metrics
// endpoints. A pipeline failure never surfaces as an error page: the report
// handler falls back to the simulated report and records the outcome.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

// ReportProducer runs the acquisition pipeline and yields a live report.
type ReportProducer interface {
	ProduceReport(ctx context.Context) (domain.Report, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportPublisher emits a report event after a page render. May be nil.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.Report, outcome string) error
}

// Server exposes the landing page, the California report page, and the
// operational endpoints.
type Server struct {
	httpServer *http.Server
	producer   ReportProducer
	publisher  ReportPublisher
	templates  *template.Template
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server and parses the embedded templates.
// publisher may be nil when event publishing is disabled.
func NewServer(addr string, producer ReportProducer, ready ReadinessChecker, publisher ReportPublisher, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		producer:  producer,
		publisher: publisher,
		templates: tmpl,
		metrics:   metrics,
		logger:    logger,
	}

	r.Get("/", s.handleHome)
	r.Get("/california-model", s.handleCaliforniaModel)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return s, nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "main.html", nil)
}

func (s *Server) handleCaliforniaModel(w http.ResponseWriter, r *http.Request) {
	report, err := s.producer.ProduceReport(r.Context())
	outcome := "live"
	if err != nil {
		s.logger.Warn("live report unavailable, serving simulated report", "error", err)
		report = domain.NewMockReport()
		outcome = "mock"
	}
	s.metrics.ReportsGenerated.WithLabelValues(outcome).Inc()

	if s.publisher != nil {
		go s.publish(report, outcome)
	}

	s.render(w, "california_data.html", report)
}

// publish runs detached from the request so a slow broker cannot delay the
// page response.
func (s *Server) publish(report domain.Report, outcome string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.publisher.PublishReport(ctx, report, outcome); err != nil {
		s.logger.Warn("report event publish failed", "error", err)
	}
}

// render executes the template into a buffer first so a template error can
// still produce a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}

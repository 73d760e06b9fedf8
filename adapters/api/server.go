// Package api exposes cleaning sessions over HTTP.
package api

import (
	"net/http"
	"time"

	"surveyclean/adapters/report"
	"surveyclean/app"
	"surveyclean/internal"
	"surveyclean/internal/metrics"
	"surveyclean/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Server routes HTTP requests to the session service
type Server struct {
	router   *chi.Mux
	service  *app.SessionService
	reader   ports.DatasetReader
	reports  *report.Renderer
	metrics  *metrics.Metrics
	validate *validator.Validate
	config   Config
	logger   *internal.Logger
}

// NewServer creates the router. m may be nil, in which case /metrics is not mounted.
func NewServer(config Config, service *app.SessionService, reader ports.DatasetReader, m *metrics.Metrics, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = DefaultConfig().MaxUploadMB
	}
	reports := report.NewRenderer()
	reports.MaxOperations = config.MaxReportOperations

	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		reader:   reader,
		reports:  reports,
		metrics:  m,
		validate: validator.New(),
		config:   config,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Patch("/config", s.handleSetConfig)
			r.Post("/edits", s.handleEdits)
			r.Post("/clean", s.handleClean)
			r.Post("/statistics", s.handleStatistics)
			r.Get("/export", s.handleExport)
			r.Get("/report", s.handleReport)
		})
	})
}

// requestLogger logs one line per request at Debug, or Warn for 5xx
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("%s %s -> %d in %s [%s]", r.Method, r.URL.Path, status, time.Since(start), middleware.GetReqID(r.Context()))
			return
		}
		s.logger.Debug("%s %s -> %d in %s", r.Method, r.URL.Path, status, time.Since(start))
	})
}

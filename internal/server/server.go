package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/export"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/ratelimit"
)

// multipartOverhead is allowed on top of the largest file cap for form fields and boundaries.
const multipartOverhead = 1 << 20

// Processor runs one parse submission.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (normalize.Result, error)
}

type Config struct {
	MaxDocBytes   int64
	MaxImageBytes int64
}

type Server struct {
	proc     Processor
	encoder  *calendar.Encoder
	exporter *export.Service
	limiter  *ratelimit.Limiter
	cfg      Config
	logger   *slog.Logger
}

func New(proc Processor, enc *calendar.Encoder, exp *export.Service, limiter *ratelimit.Limiter, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxDocBytes <= 0 {
		cfg.MaxDocBytes = constants.MaxDocBytes
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = constants.MaxImageBytes
	}
	if enc == nil {
		enc = calendar.NewEncoder(logger)
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	if limiter == nil {
		limiter = ratelimit.New(logger)
	}
	return &Server{proc: proc, encoder: enc, exporter: exp, limiter: limiter, cfg: cfg, logger: logger}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimit).Post("/parse", s.Parse)
		r.Post("/calendar", s.Calendar)
		r.Post("/summary", s.Summary)
		r.Post("/export.xlsx", s.ExportXLSX)
	})
	return r
}

// HTTPServer wraps Routes with the configured timeouts.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

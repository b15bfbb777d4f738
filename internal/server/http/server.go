// Package httpserver provides the HTTP REST API for the corpus service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/enrich"
	"github.com/arrestlit/corpus-service/internal/observability"
	"github.com/arrestlit/corpus-service/internal/store"
)

// Resolver resolves an external identifier to a canonical record.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identifier) (*domain.RawRecord, error)
}

// Enricher runs a batch enrichment job over the raw corpus.
type Enricher interface {
	Run(ctx context.Context, records []domain.RawRecord) (enrich.Result, error)
}

// Server is the HTTP REST API server.
type Server struct {
	router         chi.Router
	httpServer     *http.Server
	store          *store.Store
	resolver       Resolver
	enricher       Enricher
	validate       *validator.Validate
	logger         zerolog.Logger
	metrics        *observability.Metrics
	metricsHandler http.Handler

	// corpusMu serializes read-modify-write cycles on the corpus documents.
	corpusMu sync.Mutex
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string
}

// NewServer creates a new HTTP server with all dependencies. metrics and
// metricsHandler may be nil when metrics are disabled.
func NewServer(
	cfg Config,
	st *store.Store,
	resolver Resolver,
	enricher Enricher,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	metricsHandler http.Handler,
) *Server {
	s := &Server{
		store:          st,
		resolver:       resolver,
		enricher:       enricher,
		validate:       validator.New(),
		logger:         logger.With().Str("component", "http-server").Logger(),
		metrics:        metrics,
		metricsHandler: metricsHandler,
	}

	s.router = s.buildRouter(cfg.MetricsPath)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(metricsPath string) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogMiddleware(s.logger))

	// Health endpoint
	r.Get("/healthz", s.healthHandler)

	if s.metricsHandler != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Method(http.MethodGet, metricsPath, s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/search", s.searchCorpus)
		r.Get("/facets", s.getFacets)
		r.Post("/records:resolve", s.resolveRecord)
		r.Post("/corpus:enrich", s.enrichCorpus)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

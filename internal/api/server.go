// Package api implements the HTTP layer for the screening platform.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/features"
	"github.com/psytriage/tamizaje-backend/internal/predict"
	"github.com/psytriage/tamizaje-backend/internal/store"
	"github.com/psytriage/tamizaje-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// BaseURL is the public origin of the deployment, used in links.
	BaseURL string

	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads. Injected directly — no repo wrapper.
	q db.Querier

	// store handles multi-step atomic writes.
	store *store.Store

	// builder derives feature vectors for the dashboard endpoints.
	builder *features.Builder

	// predictor runs the model and serves explanations.
	predictor *predict.Predictor

	// worker enqueues prediction refreshes after a session completes.
	worker worker.Enqueuer

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	q db.Querier,
	st *store.Store,
	builder *features.Builder,
	predictor *predict.Predictor,
	enqueuer worker.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		q:         q,
		store:     st,
		builder:   builder,
		predictor: predictor,
		worker:    enqueuer,
		cfg:       cfg,
		logger:    logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Sessions — the student-facing questionnaire lifecycle.
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Put("/responses", s.handleSubmitResponses)
			r.Post("/complete", s.handleCompleteSession)
			r.Get("/summary", s.handleSessionSummary)
		})

		// Students — the psychologist-facing dashboard surface.
		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/features", s.handleStudentFeatures)
			r.Get("/readiness", s.handleStudentReadiness)
			r.Get("/prediction", s.handleGetPrediction)
			r.Post("/prediction", s.handleRefreshPrediction)
			r.Get("/prediction/explanation", s.handleExplanation)
		})
	})

	return r
}

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/features"
	"github.com/psytriage/tamizaje-backend/internal/ml"
)

// parseStudentID resolves the URL param and confirms the student exists, so
// every handler below 404s consistently on unknown IDs.
func (s *Server) parseStudentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid student_id")
		return uuid.Nil, false
	}
	if _, err := s.q.GetStudentByID(r.Context(), studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondErr(w, http.StatusNotFound, "student not found")
			return uuid.Nil, false
		}
		s.respondInternalErr(w, r, fmt.Errorf("get student: %w", err))
		return uuid.Nil, false
	}
	return studentID, true
}

// ─── GET /api/students/:studentID/features ───────────────────────────────────

type studentFeaturesResponse struct {
	StudentID   string              `json:"student_id"`
	Features    features.FeatureMap `json:"features"`
	ModelInputs map[string]*float64 `json:"model_inputs"`
}

// handleStudentFeatures recomputes the full feature map from the student's
// latest completed sessions. This is a live view; the persisted prediction
// row keeps its own snapshot from refresh time.
func (s *Server) handleStudentFeatures(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	all, mlInputs, err := s.builder.BuildFeatures(r.Context(), studentID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("build features: %w", err))
		return
	}

	respond(w, http.StatusOK, studentFeaturesResponse{
		StudentID:   studentID.String(),
		Features:    all,
		ModelInputs: mlInputs,
	})
}

// ─── GET /api/students/:studentID/readiness ──────────────────────────────────

type readinessResponse struct {
	StudentID string `json:"student_id"`
	Ready     bool   `json:"ready"`
	Completed int    `json:"completed"`
	Required  int    `json:"required"`
}

func (s *Server) handleStudentReadiness(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	ready, completed, required, err := s.builder.MLReady(r.Context(), studentID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("ml readiness: %w", err))
		return
	}

	respond(w, http.StatusOK, readinessResponse{
		StudentID: studentID.String(),
		Ready:     ready,
		Completed: completed,
		Required:  required,
	})
}

// ─── GET|POST /api/students/:studentID/prediction ────────────────────────────

type predictionResponse struct {
	StudentID     string          `json:"student_id"`
	Nivel         string          `json:"nivel"`
	Urgencia      int             `json:"urgencia_rank"`
	Probabilidad  *float64        `json:"probabilidad"`
	ModeloVersion string          `json:"modelo_version"`
	Actualizado   string          `json:"actualizado"`
	Features      json.RawMessage `json:"features,omitempty"`
}

func toPredictionResponse(p db.RiskPrediction) predictionResponse {
	resp := predictionResponse{
		StudentID:     p.StudentID.String(),
		Nivel:         p.Nivel,
		Urgencia:      ml.UrgencyRank(p.Nivel),
		ModeloVersion: p.ModeloVersion,
		Actualizado:   p.Actualizado.UTC().Format(time.RFC3339),
	}
	if p.Probabilidad.Valid {
		resp.Probabilidad = &p.Probabilidad.Float64
	}
	if p.Features.Valid {
		resp.Features = p.Features.RawMessage
	}
	return resp
}

// handleGetPrediction serves the stored prediction without recomputing.
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	pred, err := s.q.GetRiskPredictionByStudent(r.Context(), studentID)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "no prediction for student")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get prediction: %w", err))
		return
	}

	respond(w, http.StatusOK, toPredictionResponse(pred))
}

// handleRefreshPrediction recomputes the prediction synchronously. This is
// the psychologist's "recalculate now" button; routine refreshes go through
// the worker after session completion.
func (s *Server) handleRefreshPrediction(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	pred, err := s.predictor.Refresh(r.Context(), studentID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("refresh prediction: %w", err))
		return
	}

	respond(w, http.StatusOK, toPredictionResponse(pred))
}

// ─── GET /api/students/:studentID/prediction/explanation ─────────────────────

// handleExplanation renders the per-feature contribution breakdown for the
// stored prediction. A prediction that cannot be explained (no probability,
// no stored inputs, non-linear model) yields an empty object, not an error.
func (s *Server) handleExplanation(w http.ResponseWriter, r *http.Request) {
	studentID, ok := s.parseStudentID(w, r)
	if !ok {
		return
	}

	pred, err := s.q.GetRiskPredictionByStudent(r.Context(), studentID)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "no prediction for student")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get prediction: %w", err))
		return
	}

	respond(w, http.StatusOK, s.predictor.Explain(pred))
}

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
	"github.com/psytriage/tamizaje-backend/internal/scoring"
	"github.com/psytriage/tamizaje-backend/internal/store"
)

// sessionResponse is the JSON shape for an evaluation session.
type sessionResponse struct {
	SessionID       string `json:"session_id"`
	StudentID       string `json:"student_id"`
	QuestionnaireID int64  `json:"questionnaire_id"`
	Estado          string `json:"estado"`
	FechaInicio     string `json:"fecha_inicio"`
	FechaFin        string `json:"fecha_fin,omitempty"`
}

func toSessionResponse(s db.EvaluationSession) sessionResponse {
	resp := sessionResponse{
		SessionID:       s.ID.String(),
		StudentID:       s.StudentID.String(),
		QuestionnaireID: s.QuestionnaireID,
		Estado:          s.Estado,
		FechaInicio:     s.FechaInicio.UTC().Format(time.RFC3339),
	}
	if s.FechaFin.Valid {
		resp.FechaFin = s.FechaFin.Time.UTC().Format(time.RFC3339)
	}
	return resp
}

// ─── POST /api/sessions ──────────────────────────────────────────────────────

type createSessionRequest struct {
	StudentID       string `json:"student_id"`
	QuestionnaireID int64  `json:"questionnaire_id"`
}

// handleCreateSession opens a new PENDIENTE session for a student and
// questionnaire. A student may hold several sessions for the same instrument;
// features always come from the most recently completed one.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid student_id")
		return
	}
	if req.QuestionnaireID <= 0 {
		respondErr(w, http.StatusBadRequest, "questionnaire_id is required")
		return
	}

	if _, err := s.q.GetStudentByID(r.Context(), studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondErr(w, http.StatusNotFound, "student not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("get student: %w", err))
		return
	}

	session, err := s.q.CreateSession(r.Context(), db.CreateSessionParams{
		StudentID:       studentID,
		QuestionnaireID: req.QuestionnaireID,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create session: %w", err))
		return
	}

	respond(w, http.StatusCreated, toSessionResponse(session))
}

// ─── PUT /api/sessions/:sessionID/responses ──────────────────────────────────
//
// Accepts a batch of answers and upserts them atomically. The client may send
// the full current answer set on every navigation or a partial batch; replays
// of the same payload are idempotent because (session, question) is the
// conflict key.

type responseInput struct {
	QuestionID    int64    `json:"question_id"`
	OptionID      *int64   `json:"option_id,omitempty"`
	ValorNumerico *float64 `json:"valor_numerico,omitempty"`
	ValorTexto    *string  `json:"valor_texto,omitempty"`
}

type submitResponsesRequest struct {
	Responses []responseInput `json:"responses"`
}

type submitResponsesResponse struct {
	SessionID string `json:"session_id"`
	Estado    string `json:"estado"`
	Upserted  int    `json:"upserted"`
}

func (s *Server) handleSubmitResponses(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	var req submitResponsesRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Responses) == 0 {
		respondErr(w, http.StatusBadRequest, "responses must not be empty")
		return
	}
	if len(req.Responses) > 100 {
		respondErr(w, http.StatusBadRequest, "too many responses in a single request (max 100)")
		return
	}

	inputs := make([]store.ResponseInput, len(req.Responses))
	for i, in := range req.Responses {
		if in.QuestionID <= 0 {
			respondErr(w, http.StatusBadRequest, "each response must have a question_id")
			return
		}
		inputs[i] = store.ResponseInput{
			QuestionID:    in.QuestionID,
			OptionID:      in.OptionID,
			ValorNumerico: in.ValorNumerico,
			ValorTexto:    in.ValorTexto,
		}
	}

	session, err := s.store.SubmitResponses(r.Context(), store.SubmitResponsesParams{
		SessionID: sessionID,
		Responses: inputs,
	})
	switch {
	case errors.Is(err, store.ErrSessionAlreadyCompleted):
		respondErr(w, http.StatusConflict, "session is already completed")
		return
	case errors.Is(err, sql.ErrNoRows):
		respondErr(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("submit responses: %w", err))
		return
	}

	respond(w, http.StatusOK, submitResponsesResponse{
		SessionID: session.ID.String(),
		Estado:    session.Estado,
		Upserted:  len(inputs),
	})
}

// ─── POST /api/sessions/:sessionID/complete ──────────────────────────────────

type completeSessionResponse struct {
	Session   sessionResponse `json:"session"`
	Total     float64         `json:"total"`
	Breakdown json.RawMessage `json:"breakdown,omitempty"`
}

// handleCompleteSession closes the session, runs auto-scoring, and queues a
// prediction refresh for the student. Completing an already-completed session
// returns the stored snapshot with 200 — double-clicking "finish" is not an
// error.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	session, score, err := s.store.CompleteSession(r.Context(), sessionID)
	switch {
	case errors.Is(err, store.ErrSessionAlreadyCompleted):
		// Fall through: respond with the snapshot from the first completion.
	case errors.Is(err, store.ErrRequiredUnanswered):
		respondErr(w, http.StatusUnprocessableEntity, "required questions are still unanswered")
		return
	case errors.Is(err, sql.ErrNoRows):
		respondErr(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("complete session: %w", err))
		return
	default:
		// Fresh completion: the student's prediction is now stale.
		if err := s.worker.Enqueue(r.Context(), session.StudentID); err != nil {
			// Non-fatal: the stale-prediction poller will catch it.
			s.logger.Warn("complete session: enqueue refresh failed",
				"student_id", session.StudentID,
				"error", err,
			)
		}
	}

	resp := completeSessionResponse{
		Session: toSessionResponse(session),
		Total:   score.Total,
	}
	if score.Breakdown.Valid {
		resp.Breakdown = score.Breakdown.RawMessage
	}
	respond(w, http.StatusOK, resp)
}

// ─── GET /api/sessions/:sessionID/summary ────────────────────────────────────

type sessionSummaryResponse struct {
	Session   sessionResponse `json:"session"`
	Summary   scoring.Summary `json:"summary"`
	Total     *float64        `json:"total,omitempty"`
	Breakdown json.RawMessage `json:"breakdown,omitempty"`
}

// handleSessionSummary renders the instrument-specific, model-free summary
// for a session, plus the stored auto-score when the session has been
// completed. The summary recomputes from current responses; the total and
// breakdown are the persisted completion-time snapshot.
func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	detail, err := s.q.GetSessionDetail(r.Context(), sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get session detail: %w", err))
		return
	}

	rows, err := s.q.ListSessionAnswerRows(r.Context(), sessionID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list answers: %w", err))
		return
	}

	resp := sessionSummaryResponse{
		Session: toSessionResponse(detail.Session),
		Summary: scoring.ScoreSummary(detail.QuestionnaireCodigo, features.ToAnswerRows(rows)),
	}

	if detail.Session.Estado == db.SessionCompletada {
		score, err := s.q.GetSessionScore(r.Context(), sessionID)
		if err == nil {
			resp.Total = &score.Total
			if score.Breakdown.Valid {
				resp.Breakdown = score.Breakdown.RawMessage
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			s.respondInternalErr(w, r, fmt.Errorf("get session score: %w", err))
			return
		}
	}

	respond(w, http.StatusOK, resp)
}

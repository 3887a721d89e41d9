package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/psytriage/tamizaje-backend/internal/db"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// ResponseInput is one answer in a submission batch. At most one of OptionID,
// ValorNumerico, ValorTexto should be set; SI_NO answers arrive as "SI"/"NO"
// text.
type ResponseInput struct {
	QuestionID    int64
	OptionID      *int64
	ValorNumerico *float64
	ValorTexto    *string
}

// SubmitResponsesParams groups one batch write to a session.
type SubmitResponsesParams struct {
	SessionID uuid.UUID
	Responses []ResponseInput
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrSessionAlreadyCompleted is returned when a write targets a session whose
// lifecycle already ended. Completed sessions are immutable: their stored
// score was computed from the responses as they were at completion time.
var ErrSessionAlreadyCompleted = errors.New("store: session already completed")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// SubmitResponses upserts a batch of answers for a session and moves it from
// PENDIENTE to EN_CURSO on the first write. The whole batch is atomic.
//
// Race scenario without the in-transaction state check:
//  1. A psychologist completes the session while the student's device is
//     flushing a buffered batch.
//  2. The late batch lands after scoring, so the stored score no longer
//     matches the stored responses.
//
// Under serializable isolation the late writer re-reads the session, sees
// COMPLETADA, and gets ErrSessionAlreadyCompleted instead of corrupting the
// scored snapshot. Replaying the same batch is idempotent: each (session,
// question) pair is a conflict-keyed upsert.
func (s *Store) SubmitResponses(ctx context.Context, p SubmitResponsesParams) (db.EvaluationSession, error) {
	var session db.EvaluationSession

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		existing, err := q.GetSessionByID(ctx, p.SessionID)
		if err != nil {
			return fmt.Errorf("SubmitResponses: get session: %w", err)
		}
		if existing.Estado == db.SessionCompletada {
			session = existing
			return ErrSessionAlreadyCompleted
		}

		if existing.Estado == db.SessionPendiente {
			if err := q.MarkSessionEnCurso(ctx, p.SessionID); err != nil {
				return fmt.Errorf("SubmitResponses: mark en curso: %w", err)
			}
			existing.Estado = db.SessionEnCurso
		}

		for _, r := range p.Responses {
			if _, err := q.UpsertResponse(ctx, db.UpsertResponseParams{
				SessionID:     p.SessionID,
				QuestionID:    r.QuestionID,
				OptionID:      r.OptionID,
				ValorNumerico: r.ValorNumerico,
				ValorTexto:    r.ValorTexto,
			}); err != nil {
				return fmt.Errorf("SubmitResponses: upsert response for question %d: %w", r.QuestionID, err)
			}
		}

		session = existing
		return nil
	})

	// Unwrap the sentinel so callers can check with errors.Is without needing
	// to look inside a wrapped error chain.
	if errors.Is(err, ErrSessionAlreadyCompleted) {
		return session, ErrSessionAlreadyCompleted
	}
	if err != nil {
		return db.EvaluationSession{}, err
	}

	return session, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/scoring"
)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrRequiredUnanswered is returned by CompleteSession when required
// questions still lack a response. The handler should surface this as a
// client error, not retry it.
var ErrRequiredUnanswered = errors.New("store: required questions unanswered")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// CompleteSession closes a session's lifecycle. It atomically:
//
//  1. Re-reads the session with its questionnaire code and configuration.
//  2. Checks the completion guard (idempotency) and the required-answer gate.
//  3. Runs the auto-scoring pass over the session's answers.
//  4. Persists the total plus the verbatim breakdown snapshot.
//  5. Marks the session COMPLETADA, stamping fecha_fin once.
//
// Duplicate completion is idempotent success: the stored score from the
// first completion is returned alongside ErrSessionAlreadyCompleted so the
// handler can respond 200 with the existing snapshot. fecha_fin never moves
// after the first completion.
//
// If scoring or any write fails the whole transaction rolls back and the
// session stays EN_CURSO, so a retry starts from a clean state.
func (s *Store) CompleteSession(ctx context.Context, sessionID uuid.UUID) (db.EvaluationSession, db.SessionScore, error) {
	var (
		session db.EvaluationSession
		score   db.SessionScore
	)

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		detail, err := q.GetSessionDetail(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("CompleteSession: get session detail: %w", err)
		}

		if detail.Session.Estado == db.SessionCompletada {
			session = detail.Session
			existing, err := q.GetSessionScore(ctx, sessionID)
			if err == nil {
				score = existing
			}
			return ErrSessionAlreadyCompleted
		}

		unanswered, err := q.CountUnansweredRequired(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("CompleteSession: count unanswered: %w", err)
		}
		if unanswered > 0 {
			return fmt.Errorf("%w: %d remaining", ErrRequiredUnanswered, unanswered)
		}

		rows, err := q.ListSessionAnswerRows(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("CompleteSession: list answers: %w", err)
		}

		var qnConfig json.RawMessage
		if detail.QuestionnaireConfig.Valid {
			qnConfig = detail.QuestionnaireConfig.RawMessage
		}
		total, breakdown := scoring.ComputeAutoSum(detail.QuestionnaireCodigo, qnConfig, answerRows(rows))

		breakdownJSON, err := json.Marshal(breakdown)
		if err != nil {
			return fmt.Errorf("CompleteSession: marshal breakdown: %w", err)
		}

		persisted, err := q.UpsertSessionScore(ctx, db.UpsertSessionScoreParams{
			SessionID: sessionID,
			Total:     total,
			Breakdown: pqtype.NullRawMessage{
				RawMessage: breakdownJSON,
				Valid:      true,
			},
		})
		if err != nil {
			return fmt.Errorf("CompleteSession: upsert score: %w", err)
		}

		completed, err := q.MarkSessionCompletada(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("CompleteSession: mark completada: %w", err)
		}

		session = completed
		score = persisted
		return nil
	})

	if errors.Is(err, ErrSessionAlreadyCompleted) {
		return session, score, ErrSessionAlreadyCompleted
	}
	if err != nil {
		return db.EvaluationSession{}, db.SessionScore{}, err
	}

	return session, score, nil
}

// answerRows projects db rows into the scoring package's local row type.
func answerRows(rows []db.SessionAnswerRow) []scoring.AnswerRow {
	out := make([]scoring.AnswerRow, len(rows))
	for i, r := range rows {
		ar := scoring.AnswerRow{
			QuestionCode:  r.Codigo,
			Orden:         int(r.Orden),
			Tipo:          r.TipoRespuesta,
			Requerido:     r.Requerido,
			Texto:         r.Texto,
			ValorNumerico: r.ValorNumerico,
			ValorTexto:    r.ValorTexto,
			OpcionValor:   r.OptionValor,
		}
		if r.Config.Valid {
			ar.Config = r.Config.RawMessage
		}
		out[i] = ar
	}
	return out
}

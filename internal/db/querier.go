package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// CreateSessionParams identifies the student and instrument for a new
// evaluation session. The session starts in PENDIENTE.
type CreateSessionParams struct {
	StudentID       uuid.UUID
	QuestionnaireID int64
}

// UpsertResponseParams carries one response write. The (session, question)
// pair is the conflict key, so replaying the same submission is idempotent.
type UpsertResponseParams struct {
	SessionID     uuid.UUID
	QuestionID    int64
	OptionID      *int64
	ValorNumerico *float64
	ValorTexto    *string
}

// UpsertSessionScoreParams persists the auto-scoring total plus its verbatim
// breakdown for a session.
type UpsertSessionScoreParams struct {
	SessionID uuid.UUID
	Total     float64
	Breakdown pqtype.NullRawMessage
}

// UpsertRiskPredictionParams overwrites the student's single prediction row.
type UpsertRiskPredictionParams struct {
	StudentID     uuid.UUID
	Features      pqtype.NullRawMessage
	Probabilidad  *float64
	Nivel         string
	ModeloVersion string
}

// LastCompletedSessionParams looks up the most recent COMPLETADA session for
// any of the given questionnaire codes. Codes must be upper-cased by the
// caller; matching is case-insensitive on the stored codigo.
type LastCompletedSessionParams struct {
	StudentID uuid.UUID
	Codigos   []string
}

// CountDistinctCompletedCodesParams counts how many of the given codes have
// at least one COMPLETADA session for the student.
type CountDistinctCompletedCodesParams struct {
	StudentID uuid.UUID
	Codigos   []string
}

// GetSessionDetailRow is a session joined with its questionnaire's code and
// configuration, which the scoring engine needs in one lookup.
type GetSessionDetailRow struct {
	Session             EvaluationSession
	QuestionnaireCodigo string
	QuestionnaireConfig pqtype.NullRawMessage
}

// LastCompletedSessionRow pairs the session with its questionnaire code.
type LastCompletedSessionRow struct {
	Session EvaluationSession
	Codigo  string
}

// SessionAnswerRow is one question of the session's questionnaire with its
// (possibly absent) response and selected-option value. Ordered by orden.
type SessionAnswerRow struct {
	QuestionID    int64
	Codigo        string
	Orden         int32
	TipoRespuesta string
	Requerido     bool
	Texto         string
	Config        pqtype.NullRawMessage
	// ResponseID is valid when the question has been answered.
	ResponseID    *int64
	OptionValor   *string
	ValorNumerico *float64
	ValorTexto    *string
}

// Querier is the query surface the rest of the application depends on.
// *Queries implements it; tests substitute in-memory stubs.
type Querier interface {
	// Students
	GetStudentByID(ctx context.Context, id uuid.UUID) (Student, error)

	// Sessions
	CreateSession(ctx context.Context, p CreateSessionParams) (EvaluationSession, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (EvaluationSession, error)
	GetSessionDetail(ctx context.Context, id uuid.UUID) (GetSessionDetailRow, error)
	MarkSessionEnCurso(ctx context.Context, id uuid.UUID) error
	MarkSessionCompletada(ctx context.Context, id uuid.UUID) (EvaluationSession, error)
	GetLastCompletedSession(ctx context.Context, p LastCompletedSessionParams) (LastCompletedSessionRow, error)
	CountDistinctCompletedCodes(ctx context.Context, p CountDistinctCompletedCodesParams) (int64, error)

	// Responses
	UpsertResponse(ctx context.Context, p UpsertResponseParams) (Response, error)
	ListSessionAnswerRows(ctx context.Context, sessionID uuid.UUID) ([]SessionAnswerRow, error)
	CountUnansweredRequired(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// Scores
	UpsertSessionScore(ctx context.Context, p UpsertSessionScoreParams) (SessionScore, error)
	GetSessionScore(ctx context.Context, sessionID uuid.UUID) (SessionScore, error)

	// Predictions
	UpsertRiskPrediction(ctx context.Context, p UpsertRiskPredictionParams) (RiskPrediction, error)
	GetRiskPredictionByStudent(ctx context.Context, studentID uuid.UUID) (RiskPrediction, error)
	ListStaleRiskStudents(ctx context.Context) ([]uuid.UUID, error)
}

var _ Querier = (*Queries)(nil)

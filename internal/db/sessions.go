package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const sessionColumns = `id, student_id, questionnaire_id, estado, fecha_inicio, fecha_fin`

func scanSession(row interface{ Scan(...any) error }) (EvaluationSession, error) {
	var s EvaluationSession
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.QuestionnaireID,
		&s.Estado,
		&s.FechaInicio,
		&s.FechaFin,
	)
	return s, err
}

func (q *Queries) GetStudentByID(ctx context.Context, id uuid.UUID) (Student, error) {
	const query = `
SELECT id, nombre_completo, email, psicologo_email, created_at
FROM students
WHERE id = $1`
	var s Student
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.NombreCompleto,
		&s.Email,
		&s.PsicologoEmail,
		&s.CreatedAt,
	)
	return s, err
}

func (q *Queries) CreateSession(ctx context.Context, p CreateSessionParams) (EvaluationSession, error) {
	const query = `
INSERT INTO evaluation_sessions (student_id, questionnaire_id, estado)
VALUES ($1, $2, 'PENDIENTE')
RETURNING ` + sessionColumns
	return scanSession(q.db.QueryRowContext(ctx, query, p.StudentID, p.QuestionnaireID))
}

func (q *Queries) GetSessionByID(ctx context.Context, id uuid.UUID) (EvaluationSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM evaluation_sessions WHERE id = $1`
	return scanSession(q.db.QueryRowContext(ctx, query, id))
}

func (q *Queries) GetSessionDetail(ctx context.Context, id uuid.UUID) (GetSessionDetailRow, error) {
	const query = `
SELECT s.id, s.student_id, s.questionnaire_id, s.estado, s.fecha_inicio, s.fecha_fin,
       c.codigo, c.config
FROM evaluation_sessions s
JOIN questionnaires c ON c.id = s.questionnaire_id
WHERE s.id = $1`
	var r GetSessionDetailRow
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&r.Session.ID,
		&r.Session.StudentID,
		&r.Session.QuestionnaireID,
		&r.Session.Estado,
		&r.Session.FechaInicio,
		&r.Session.FechaFin,
		&r.QuestionnaireCodigo,
		&r.QuestionnaireConfig,
	)
	return r, err
}

// MarkSessionEnCurso moves a PENDIENTE session to EN_CURSO. Sessions already
// past PENDIENTE are left untouched, so it is safe to call on every
// response submission.
func (q *Queries) MarkSessionEnCurso(ctx context.Context, id uuid.UUID) error {
	const query = `
UPDATE evaluation_sessions
SET estado = 'EN_CURSO'
WHERE id = $1 AND estado = 'PENDIENTE'`
	_, err := q.db.ExecContext(ctx, query, id)
	return err
}

// MarkSessionCompletada seals the session: estado COMPLETADA plus fecha_fin,
// which is set exactly once.
func (q *Queries) MarkSessionCompletada(ctx context.Context, id uuid.UUID) (EvaluationSession, error) {
	const query = `
UPDATE evaluation_sessions
SET estado = 'COMPLETADA',
    fecha_fin = COALESCE(fecha_fin, now())
WHERE id = $1
RETURNING ` + sessionColumns
	return scanSession(q.db.QueryRowContext(ctx, query, id))
}

// GetLastCompletedSession returns the student's most recent COMPLETADA
// session matching any of the given codes. Ordering mirrors the original
// system: fecha_fin, then fecha_inicio, then id, all descending.
func (q *Queries) GetLastCompletedSession(ctx context.Context, p LastCompletedSessionParams) (LastCompletedSessionRow, error) {
	const query = `
SELECT s.id, s.student_id, s.questionnaire_id, s.estado, s.fecha_inicio, s.fecha_fin,
       c.codigo
FROM evaluation_sessions s
JOIN questionnaires c ON c.id = s.questionnaire_id
WHERE s.student_id = $1
  AND s.estado = 'COMPLETADA'
  AND UPPER(TRIM(c.codigo)) = ANY($2)
ORDER BY s.fecha_fin DESC NULLS LAST, s.fecha_inicio DESC, s.id DESC
LIMIT 1`
	var r LastCompletedSessionRow
	err := q.db.QueryRowContext(ctx, query, p.StudentID, pq.Array(p.Codigos)).Scan(
		&r.Session.ID,
		&r.Session.StudentID,
		&r.Session.QuestionnaireID,
		&r.Session.Estado,
		&r.Session.FechaInicio,
		&r.Session.FechaFin,
		&r.Codigo,
	)
	return r, err
}

func (q *Queries) CountDistinctCompletedCodes(ctx context.Context, p CountDistinctCompletedCodesParams) (int64, error) {
	const query = `
SELECT COUNT(DISTINCT UPPER(TRIM(c.codigo)))
FROM evaluation_sessions s
JOIN questionnaires c ON c.id = s.questionnaire_id
WHERE s.student_id = $1
  AND s.estado = 'COMPLETADA'
  AND UPPER(TRIM(c.codigo)) = ANY($2)`
	var n int64
	err := q.db.QueryRowContext(ctx, query, p.StudentID, pq.Array(p.Codigos)).Scan(&n)
	return n, err
}

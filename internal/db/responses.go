package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (q *Queries) UpsertResponse(ctx context.Context, p UpsertResponseParams) (Response, error) {
	const query = `
INSERT INTO responses (session_id, question_id, option_id, valor_numerico, valor_texto)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, question_id) DO UPDATE
SET option_id      = EXCLUDED.option_id,
    valor_numerico = EXCLUDED.valor_numerico,
    valor_texto    = EXCLUDED.valor_texto
RETURNING id, session_id, question_id, option_id, valor_numerico, valor_texto`
	var r Response
	err := q.db.QueryRowContext(ctx, query,
		p.SessionID, p.QuestionID, p.OptionID, p.ValorNumerico, p.ValorTexto,
	).Scan(
		&r.ID,
		&r.SessionID,
		&r.QuestionID,
		&r.OptionID,
		&r.ValorNumerico,
		&r.ValorTexto,
	)
	return r, err
}

// ListSessionAnswerRows returns every question of the session's questionnaire
// in display order, left-joined with the session's response and the selected
// option's stored value. Unanswered questions appear with a nil ResponseID so
// the scoring engine can count them.
func (q *Queries) ListSessionAnswerRows(ctx context.Context, sessionID uuid.UUID) ([]SessionAnswerRow, error) {
	const query = `
SELECT p.id, p.codigo, p.orden, p.tipo_respuesta, p.requerido, p.texto, p.config,
       r.id, o.valor, r.valor_numerico, r.valor_texto
FROM evaluation_sessions s
JOIN questions p ON p.questionnaire_id = s.questionnaire_id
LEFT JOIN responses r ON r.session_id = s.id AND r.question_id = p.id
LEFT JOIN options o ON o.id = r.option_id
WHERE s.id = $1
ORDER BY p.orden, p.id`
	rows, err := q.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionAnswerRow
	for rows.Next() {
		var r SessionAnswerRow
		if err := rows.Scan(
			&r.QuestionID,
			&r.Codigo,
			&r.Orden,
			&r.TipoRespuesta,
			&r.Requerido,
			&r.Texto,
			&r.Config,
			&r.ResponseID,
			&r.OptionValor,
			&r.ValorNumerico,
			&r.ValorTexto,
		); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountUnansweredRequired counts required questions whose response is missing
// or empty (no option, no number, blank text). Zero means the session may be
// completed.
func (q *Queries) CountUnansweredRequired(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	const query = `
SELECT COUNT(*)
FROM evaluation_sessions s
JOIN questions p ON p.questionnaire_id = s.questionnaire_id
WHERE s.id = $1
  AND p.requerido
  AND NOT EXISTS (
    SELECT 1 FROM responses r
    WHERE r.session_id = s.id
      AND r.question_id = p.id
      AND (r.option_id IS NOT NULL
        OR r.valor_numerico IS NOT NULL
        OR NULLIF(TRIM(COALESCE(r.valor_texto, '')), '') IS NOT NULL)
  )`
	var n int64
	err := q.db.QueryRowContext(ctx, query, sessionID).Scan(&n)
	return n, err
}

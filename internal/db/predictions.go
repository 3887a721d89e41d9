package db

import (
	"context"

	"github.com/google/uuid"
)

func (q *Queries) UpsertSessionScore(ctx context.Context, p UpsertSessionScoreParams) (SessionScore, error) {
	const query = `
INSERT INTO session_scores (session_id, total, breakdown)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE
SET total = EXCLUDED.total, breakdown = EXCLUDED.breakdown, creado = now()
RETURNING session_id, total, breakdown, creado`
	var s SessionScore
	err := q.db.QueryRowContext(ctx, query, p.SessionID, p.Total, p.Breakdown).Scan(
		&s.SessionID,
		&s.Total,
		&s.Breakdown,
		&s.Creado,
	)
	return s, err
}

func (q *Queries) GetSessionScore(ctx context.Context, sessionID uuid.UUID) (SessionScore, error) {
	const query = `
SELECT session_id, total, breakdown, creado
FROM session_scores
WHERE session_id = $1`
	var s SessionScore
	err := q.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.SessionID,
		&s.Total,
		&s.Breakdown,
		&s.Creado,
	)
	return s, err
}

// UpsertRiskPrediction overwrites the student's single prediction record.
// Predictions are recomputed, never versioned.
func (q *Queries) UpsertRiskPrediction(ctx context.Context, p UpsertRiskPredictionParams) (RiskPrediction, error) {
	const query = `
INSERT INTO risk_predictions (student_id, features, probabilidad, nivel, modelo_version, actualizado)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (student_id) DO UPDATE
SET features       = EXCLUDED.features,
    probabilidad   = EXCLUDED.probabilidad,
    nivel          = EXCLUDED.nivel,
    modelo_version = EXCLUDED.modelo_version,
    actualizado    = now()
RETURNING student_id, features, probabilidad, nivel, modelo_version, actualizado`
	var r RiskPrediction
	err := q.db.QueryRowContext(ctx, query,
		p.StudentID, p.Features, p.Probabilidad, p.Nivel, p.ModeloVersion,
	).Scan(
		&r.StudentID,
		&r.Features,
		&r.Probabilidad,
		&r.Nivel,
		&r.ModeloVersion,
		&r.Actualizado,
	)
	return r, err
}

func (q *Queries) GetRiskPredictionByStudent(ctx context.Context, studentID uuid.UUID) (RiskPrediction, error) {
	const query = `
SELECT student_id, features, probabilidad, nivel, modelo_version, actualizado
FROM risk_predictions
WHERE student_id = $1`
	var r RiskPrediction
	err := q.db.QueryRowContext(ctx, query, studentID).Scan(
		&r.StudentID,
		&r.Features,
		&r.Probabilidad,
		&r.Nivel,
		&r.ModeloVersion,
		&r.Actualizado,
	)
	return r, err
}

// ListStaleRiskStudents returns students whose newest COMPLETADA session
// postdates their prediction record (or who have no prediction yet). The
// worker poller uses this as its recovery path.
func (q *Queries) ListStaleRiskStudents(ctx context.Context) ([]uuid.UUID, error) {
	const query = `
SELECT DISTINCT s.student_id
FROM evaluation_sessions s
LEFT JOIN risk_predictions p ON p.student_id = s.student_id
WHERE s.estado = 'COMPLETADA'
  AND (p.student_id IS NULL OR s.fecha_fin > p.actualizado)`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

package features_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/features"
	"github.com/psytriage/tamizaje-backend/internal/ml"
)

// stubQuerier serves canned sessions keyed by the first questionnaire code of
// each lookup. Unimplemented methods panic through the embedded interface.
type stubQuerier struct {
	db.Querier

	sessions  map[string]db.LastCompletedSessionRow
	answers   map[uuid.UUID][]db.SessionAnswerRow
	completed int64
}

func (s *stubQuerier) GetLastCompletedSession(_ context.Context, p db.LastCompletedSessionParams) (db.LastCompletedSessionRow, error) {
	row, ok := s.sessions[p.Codigos[0]]
	if !ok {
		return db.LastCompletedSessionRow{}, sql.ErrNoRows
	}
	return row, nil
}

func (s *stubQuerier) ListSessionAnswerRows(_ context.Context, sessionID uuid.UUID) ([]db.SessionAnswerRow, error) {
	return s.answers[sessionID], nil
}

func (s *stubQuerier) CountDistinctCompletedCodes(_ context.Context, _ db.CountDistinctCompletedCodesParams) (int64, error) {
	return s.completed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bundleLoader(t *testing.T) *ml.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"feature_cols": ["X_PANAS_Negativo", "X_PANAS_Positivo", "X_CASO_MEAN"],
		"model": {"type": "logistic", "coef": [0.8, -0.6, 0.5], "intercept": -1.0}
	}`), 0o600))
	return ml.NewLoader(path)
}

func scaleRows(n int, v float64) []db.SessionAnswerRow {
	val := v
	rows := make([]db.SessionAnswerRow, n)
	for i := range rows {
		rows[i] = db.SessionAnswerRow{
			Orden:         int32(i + 1),
			TipoRespuesta: "ESCALA",
			Requerido:     true,
			ValorNumerico: &val,
		}
	}
	return rows
}

func TestBuildFeatures_AllInstruments(t *testing.T) {
	panasID, whoqolID, casoID := uuid.New(), uuid.New(), uuid.New()
	q := &stubQuerier{
		sessions: map[string]db.LastCompletedSessionRow{
			"PANAS":    {Session: db.EvaluationSession{ID: panasID}, Codigo: "PANAS"},
			"WHO-QOL":  {Session: db.EvaluationSession{ID: whoqolID}, Codigo: "WHO-QOL"},
			"CASO-A30": {Session: db.EvaluationSession{ID: casoID}, Codigo: "CASO-A30"},
		},
		answers: map[uuid.UUID][]db.SessionAnswerRow{
			panasID:  scaleRows(20, 3),
			whoqolID: scaleRows(26, 4),
			casoID:   scaleRows(30, 2),
		},
	}
	b := features.NewBuilder(q, bundleLoader(t), discardLogger())

	all, inputs, err := b.BuildFeatures(context.Background(), uuid.New())
	require.NoError(t, err)

	deref := func(key string) float64 {
		t.Helper()
		p, ok := all[key].(*float64)
		require.True(t, ok, "%s must be *float64, got %T", key, all[key])
		require.NotNil(t, p, "%s must be present", key)
		return *p
	}

	assert.Equal(t, 30.0, deref("PANAS_POS_SUM"))
	assert.Equal(t, 3.0, deref("X_PANAS_Positivo"))
	assert.Equal(t, 3.0, deref("X_PANAS_Negativo"))
	assert.Equal(t, 20, all["PANAS_N_RESP"])
	assert.Equal(t, panasID.String(), all["PANAS_SESSION_ID"])

	// Items 3 and 4 reverse to 2, so the physical domain dips: (2+2+4*5)/7.
	assert.InDelta(t, 24.0/7.0, deref("X_WHOQOL_PHYS_MEAN"), 1e-9)
	assert.Equal(t, 4.0, deref("X_WHOQOL_SOCIAL_MEAN"))
	assert.Equal(t, 26, all["WHOQOL_N_RESP"])

	assert.Equal(t, 60.0, deref("CASO_TOTAL"))
	assert.Equal(t, 2.0, deref("X_CASO_MEAN"))

	// Model inputs follow the bundle's declared columns.
	require.Len(t, inputs, 3)
	require.NotNil(t, inputs["X_PANAS_Negativo"])
	assert.Equal(t, 3.0, *inputs["X_PANAS_Negativo"])
	require.NotNil(t, inputs["X_CASO_MEAN"])
	assert.Equal(t, 2.0, *inputs["X_CASO_MEAN"])
}

func TestBuildFeatures_NoSessions(t *testing.T) {
	q := &stubQuerier{sessions: map[string]db.LastCompletedSessionRow{}}
	b := features.NewBuilder(q, bundleLoader(t), discardLogger())

	all, inputs, err := b.BuildFeatures(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, (*float64)(nil), all["X_PANAS_Positivo"])
	assert.Equal(t, 0, all["PANAS_N_RESP"])
	assert.Equal(t, (*float64)(nil), all["X_CASO_MEAN"])
	assert.Equal(t, (*float64)(nil), all["X_WHOQOL_PSYCH_MEAN"])
	assert.NotContains(t, all, "PANAS_SESSION_ID")

	// The bundle still declares its columns; all inputs resolve to nil.
	require.Len(t, inputs, 3)
	assert.Nil(t, inputs["X_PANAS_Negativo"])
}

func TestBuildFeatures_MissingBundle(t *testing.T) {
	q := &stubQuerier{sessions: map[string]db.LastCompletedSessionRow{}}
	loader := ml.NewLoader(filepath.Join(t.TempDir(), "missing.json"))
	b := features.NewBuilder(q, loader, discardLogger())

	all, inputs, err := b.BuildFeatures(context.Background(), uuid.New())
	require.NoError(t, err, "an absent bundle degrades, it does not fail the build")
	assert.NotEmpty(t, all)
	assert.Empty(t, inputs)
}

func TestMLReady(t *testing.T) {
	b := features.NewBuilder(&stubQuerier{completed: 3}, bundleLoader(t), discardLogger())
	ready, have, want, err := b.MLReady(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 3, have)
	assert.Equal(t, 3, want)

	b = features.NewBuilder(&stubQuerier{completed: 1}, bundleLoader(t), discardLogger())
	ready, have, _, err = b.MLReady(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, 1, have)
}

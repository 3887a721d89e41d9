package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psytriage/tamizaje-backend/internal/ml"
)

func explanationBundle(t *testing.T) *ml.Bundle {
	t.Helper()
	b, err := ml.ReadBundle([]byte(`{
		"feature_cols": ["X_PANAS_Negativo", "X_PANAS_Positivo", "X_CASO_MEAN", "X_WHOQOL_PSYCH_MEAN"],
		"model": {
			"type": "logistic",
			"coef": [0.9, -0.7, 0.4, -0.2],
			"intercept": -1.0
		},
		"thresholds": {"thr_medio": 0.40, "thr_alto": 0.75}
	}`))
	require.NoError(t, err)
	return b
}

func TestBuildExplanation_SplitsAndRanksFactors(t *testing.T) {
	b := explanationBundle(t)
	inputs := map[string]float64{
		"X_PANAS_Negativo":    4.0, // 0.9*4.0 = 3.6, risk
		"X_PANAS_Positivo":    2.0, // -0.7*2.0 = -1.4, protector
		"X_CASO_MEAN":         3.0, // 0.4*3.0 = 1.2, risk
		"X_WHOQOL_PSYCH_MEAN": 3.5, // -0.2*3.5 = -0.7, protector
	}

	exp := ml.BuildExplanation(b, 0.82, inputs)

	assert.Equal(t, 82.0, exp.Probabilidad)
	assert.Equal(t, "ALTO", exp.Nivel)

	require.Len(t, exp.RiskFactors, 2)
	assert.Equal(t, "Afecto Negativo Elevado", exp.RiskFactors[0].Feature)
	assert.Equal(t, 3.6, exp.RiskFactors[0].Impacto)
	assert.Equal(t, "up", exp.RiskFactors[0].Direction)
	assert.Equal(t, "Contribuye al aumento del riesgo.", exp.RiskFactors[0].Interpretacion)
	assert.Equal(t, "Carga Global de Malestar Psicológico", exp.RiskFactors[1].Feature)

	require.Len(t, exp.ProtectiveFactors, 2)
	assert.Equal(t, "Afecto Positivo", exp.ProtectiveFactors[0].Feature)
	assert.Equal(t, 1.4, exp.ProtectiveFactors[0].Impacto)
	assert.Equal(t, "down", exp.ProtectiveFactors[0].Direction)
	assert.Equal(t, "Actúa como factor protector.", exp.ProtectiveFactors[0].Interpretacion)

	assert.Contains(t, exp.Narrative, "riesgo alto")
	assert.Contains(t, exp.Narrative, "Afecto Negativo Elevado")
	assert.Contains(t, exp.Narrative, "Afecto Positivo")
	assert.Contains(t, exp.Narrative, "La interpretación debe integrarse con la valoración clínica profesional.")
}

func TestBuildExplanation_MissingInputCountsAsZero(t *testing.T) {
	b := explanationBundle(t)

	exp := ml.BuildExplanation(b, 0.30, map[string]float64{
		"X_PANAS_Negativo": 2.5,
	})

	assert.Equal(t, "BAJO", exp.Nivel)
	require.Len(t, exp.RiskFactors, 1, "zero-contribution features appear in neither list")
	assert.Empty(t, exp.ProtectiveFactors)
	assert.NotNil(t, exp.ProtectiveFactors, "empty list serializes as [], not null")
}

func TestBuildExplanation_OddsRatioPerCoefficient(t *testing.T) {
	b := explanationBundle(t)

	exp := ml.BuildExplanation(b, 0.50, map[string]float64{"X_PANAS_Negativo": 1.0})

	require.Len(t, exp.RiskFactors, 1)
	// exp(0.9) ≈ 2.4596, rounded to three decimals
	assert.Equal(t, 2.46, exp.RiskFactors[0].Odds)
}

func TestBuildExplanation_TopThreeOnly(t *testing.T) {
	b, err := ml.ReadBundle([]byte(`{
		"feature_cols": ["f1", "f2", "f3", "f4", "f5"],
		"model": {"type": "logistic", "coef": [0.1, 0.2, 0.3, 0.4, 0.5], "intercept": 0}
	}`))
	require.NoError(t, err)

	inputs := map[string]float64{"f1": 1, "f2": 1, "f3": 1, "f4": 1, "f5": 1}
	exp := ml.BuildExplanation(b, 0.5, inputs)

	require.Len(t, exp.RiskFactors, 3)
	assert.Equal(t, "f5", exp.RiskFactors[0].Feature, "unknown features fall back to their raw name")
	assert.Equal(t, "f4", exp.RiskFactors[1].Feature)
	assert.Equal(t, "f3", exp.RiskFactors[2].Feature)
}

type opaqueModel struct{}

func (opaqueModel) PredictProba([]float64) (float64, error) { return 0.5, nil }

func TestBuildExplanation_NonLinearModelYieldsZero(t *testing.T) {
	b := &ml.Bundle{
		Version:     "v-test",
		Model:       opaqueModel{},
		FeatureCols: []string{"f1"},
		Thresholds:  ml.Thresholds{ThrMedio: 0.40, ThrAlto: 0.75},
	}

	exp := ml.BuildExplanation(b, 0.9, map[string]float64{"f1": 1})
	assert.Empty(t, exp.Nivel, "models without coefficients cannot be explained")
	assert.Empty(t, exp.Narrative)
}

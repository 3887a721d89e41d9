// Package ml holds the trained-model runtime: the bundle loader, the
// classifier math, risk-tier mapping and the explanation builder. Like
// scoring/, it is database-free; persistence of predictions lives in store/.
package ml

import (
	"encoding/json"
	"fmt"
	"math"
)

// Model computes the probability of the positive (at-risk) class for one
// feature row, given in the bundle's declared column order.
type Model interface {
	PredictProba(x []float64) (float64, error)
}

// LinearExplainer is the capability interface for models whose terminal step
// exposes linear coefficients. The explanation builder checks for it; models
// without the capability simply produce an empty explanation.
type LinearExplainer interface {
	// Coefficients returns one coefficient per bundle feature column, in
	// declared order.
	Coefficients() []float64
}

// Scaler standardizes a feature row: (x − mean) / scale, per column. It is
// the Go rendering of the fitted standardization step the training pipeline
// exports ahead of the classifier.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) transform(x []float64) ([]float64, error) {
	if len(s.Mean) != len(x) || len(s.Scale) != len(x) {
		return nil, fmt.Errorf("scaler: expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (v - s.Mean[i]) / sc
	}
	return out, nil
}

// LogisticModel is a binary logistic regression, optionally preceded by a
// standardization step. PredictProba returns sigmoid(intercept + coef · x').
type LogisticModel struct {
	Coef      []float64
	Intercept float64
	Scaler    *Scaler
}

func (m *LogisticModel) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("logistic model: expected %d features, got %d", len(m.Coef), len(x))
	}
	if m.Scaler != nil {
		var err error
		if x, err = m.Scaler.transform(x); err != nil {
			return 0, err
		}
	}
	z := m.Intercept
	for i, v := range x {
		z += m.Coef[i] * v
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}

// Coefficients exposes the terminal step's raw coefficients, satisfying
// LinearExplainer. Contributions are computed against unscaled inputs, the
// same convention the training notebook's export uses.
func (m *LogisticModel) Coefficients() []float64 {
	return m.Coef
}

// modelSpec is the serialized model inside a bundle file. "type" is the
// discriminator; only "logistic" is supported today.
type modelSpec struct {
	Type      string    `json:"type"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Scaler    *Scaler   `json:"scaler,omitempty"`
}

func parseModel(raw json.RawMessage) (Model, error) {
	var spec modelSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("model spec: %w", err)
	}
	switch spec.Type {
	case "logistic":
		if len(spec.Coef) == 0 {
			return nil, fmt.Errorf("model spec: logistic model has no coefficients")
		}
		return &LogisticModel{
			Coef:      spec.Coef,
			Intercept: spec.Intercept,
			Scaler:    spec.Scaler,
		}, nil
	default:
		return nil, fmt.Errorf("model spec: unknown type %q", spec.Type)
	}
}

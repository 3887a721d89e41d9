// Package predict runs the risk model over a student's derived features and
// maintains the single persisted prediction record per student.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/features"
	"github.com/psytriage/tamizaje-backend/internal/ml"
)

// Predictor computes and persists risk predictions. Safe for concurrent use;
// concurrent refreshes for the same student are resolved by the row upsert,
// last writer wins.
type Predictor struct {
	q       db.Querier
	builder *features.Builder
	loader  *ml.Loader
	log     *slog.Logger
}

func New(q db.Querier, builder *features.Builder, loader *ml.Loader, log *slog.Logger) *Predictor {
	return &Predictor{q: q, builder: builder, loader: loader, log: log}
}

// Refresh rebuilds the student's features, runs the model when possible, and
// overwrites the persisted prediction. Every outcome is recorded: a missing
// or unusable bundle and incomplete features still produce a SIN_DATOS row
// whose version tag names the code path that was taken. Session and response
// data are never mutated, so repeating a refresh on unchanged inputs writes
// the same result.
func (p *Predictor) Refresh(ctx context.Context, studentID uuid.UUID) (db.RiskPrediction, error) {
	all, mlInputs, err := p.builder.BuildFeatures(ctx, studentID)
	if err != nil {
		return db.RiskPrediction{}, fmt.Errorf("predict: build features: %w", err)
	}

	bundle, err := p.loader.Bundle()
	if err != nil {
		version := ml.VersionBundleMissing
		if errors.Is(err, ml.ErrIncomplete) {
			version = ml.VersionBundleIncomplete
		}
		p.log.Warn("prediction without bundle", "student_id", studentID, "error", err)
		return p.save(ctx, studentID, all, nil, ml.TierNoData, version)
	}

	var missing []string
	for _, col := range bundle.FeatureCols {
		if mlInputs[col] == nil {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		all["ML_MISSING"] = missing
		all["ML_FEATURE_COLS"] = bundle.FeatureCols
		return p.save(ctx, studentID, all, nil, ml.TierNoData, ml.VersionBundleIncomplete)
	}

	row := make([]float64, len(bundle.FeatureCols))
	for i, col := range bundle.FeatureCols {
		row[i] = *mlInputs[col]
	}
	prob, err := bundle.Model.PredictProba(row)
	if err != nil {
		all["ML_ERROR"] = err.Error()
		p.log.Error("model predict failed", "student_id", studentID, "error", err)
		return p.save(ctx, studentID, all, nil, ml.TierNoData, ml.VersionPredictError)
	}

	inputs := make(map[string]float64, len(mlInputs))
	for k, v := range mlInputs {
		inputs[k] = *v
	}
	all["ML_INPUTS"] = inputs
	all["thr_medio"] = bundle.Thresholds.ThrMedio
	all["thr_alto"] = bundle.Thresholds.ThrAlto

	nivel := bundle.Thresholds.TierFor(&prob)
	p.log.Info("prediction refreshed",
		"student_id", studentID, "probabilidad", prob, "nivel", nivel)
	return p.save(ctx, studentID, all, &prob, nivel, bundle.Version)
}

func (p *Predictor) save(ctx context.Context, studentID uuid.UUID, feats features.FeatureMap, prob *float64, nivel ml.RiskTier, version string) (db.RiskPrediction, error) {
	raw, err := json.Marshal(feats)
	if err != nil {
		return db.RiskPrediction{}, fmt.Errorf("predict: marshal features: %w", err)
	}
	pred, err := p.q.UpsertRiskPrediction(ctx, db.UpsertRiskPredictionParams{
		StudentID:     studentID,
		Features:      pqtype.NullRawMessage{RawMessage: raw, Valid: true},
		Probabilidad:  prob,
		Nivel:         string(nivel),
		ModeloVersion: version,
	})
	if err != nil {
		return db.RiskPrediction{}, fmt.Errorf("predict: save prediction: %w", err)
	}
	return pred, nil
}

// Explain renders the per-feature breakdown for a stored prediction using
// the feature values it was made with. Returns a zero Explanation, never an
// error, when the prediction carries no probability or stored inputs, or the
// model lacks linear coefficients.
func (p *Predictor) Explain(pred db.RiskPrediction) ml.Explanation {
	if !pred.Probabilidad.Valid || !pred.Features.Valid {
		return ml.Explanation{}
	}

	bundle, err := p.loader.Bundle()
	if err != nil {
		p.log.Warn("explanation skipped, no bundle", "error", err)
		return ml.Explanation{}
	}

	var stored struct {
		Inputs map[string]float64 `json:"ML_INPUTS"`
	}
	if err := json.Unmarshal(pred.Features.RawMessage, &stored); err != nil || len(stored.Inputs) == 0 {
		return ml.Explanation{}
	}

	return ml.BuildExplanation(bundle, pred.Probabilidad.Float64, stored.Inputs)
}

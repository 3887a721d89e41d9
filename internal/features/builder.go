// Package features assembles the per-student feature vector that feeds the
// risk model, reusing the instrument scorers for the heavy lifting.
//
// Dependency rule: features imports db, scoring and ml. It never imports
// store, api or worker.
package features

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/ml"
	"github.com/psytriage/tamizaje-backend/internal/scoring"
)

// RequiredCodes are the questionnaire codes a student must have at least one
// completed session of before the model may run.
var RequiredCodes = []string{"PANAS", "WHO-QOL", "CASO-A30"}

// FeatureMap holds every derived value for one student: model inputs (X_*
// keys) alongside dashboard aggregates. Values are *float64 so absent data
// serializes as null, or plain strings/ints for audit fields.
type FeatureMap map[string]any

// Builder derives features from persisted responses. It holds no per-call
// state and is safe for concurrent use.
type Builder struct {
	q      db.Querier
	loader *ml.Loader
	log    *slog.Logger
}

func NewBuilder(q db.Querier, loader *ml.Loader, log *slog.Logger) *Builder {
	return &Builder{q: q, loader: loader, log: log}
}

// ToAnswerRows projects db rows into the scoring package's local row type.
func ToAnswerRows(rows []db.SessionAnswerRow) []scoring.AnswerRow {
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

// lastSessionAnswers finds the student's most recent completed session for
// any of the code aliases and returns its answer map for the given prefix.
// ok is false when the student has no completed session of that instrument.
func (b *Builder) lastSessionAnswers(ctx context.Context, studentID uuid.UUID, codes []string, prefix string, nItems int) (map[string]float64, uuid.UUID, bool, error) {
	row, err := b.q.GetLastCompletedSession(ctx, db.LastCompletedSessionParams{
		StudentID: studentID,
		Codigos:   codes,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, uuid.Nil, false, nil
	}
	if err != nil {
		return nil, uuid.Nil, false, err
	}

	answerRows, err := b.q.ListSessionAnswerRows(ctx, row.Session.ID)
	if err != nil {
		return nil, uuid.Nil, false, err
	}
	ans := scoring.AnswersByPrefix(ToAnswerRows(answerRows), prefix, nItems)
	return ans, row.Session.ID, true, nil
}

func (b *Builder) panasFeatures(ctx context.Context, studentID uuid.UUID) (FeatureMap, error) {
	ans, sessionID, ok, err := b.lastSessionAnswers(ctx, studentID, scoring.PANASCodes, "PANAS_", 20)
	if err != nil {
		return nil, err
	}
	if !ok {
		return FeatureMap{
			"X_PANAS_Positivo": (*float64)(nil),
			"X_PANAS_Negativo": (*float64)(nil),
			"PANAS_POS_SUM":    (*float64)(nil),
			"PANAS_NEG_SUM":    (*float64)(nil),
			"PANAS_POS_MEAN":   (*float64)(nil),
			"PANAS_NEG_MEAN":   (*float64)(nil),
			"PANAS_N_RESP":     0,
		}, nil
	}

	s := scoring.ScorePANAS(ans)
	b.log.Debug("panas features",
		"session_id", sessionID, "n_resp", s.NResp,
		"pos_mean", fv(s.PosMean), "neg_mean", fv(s.NegMean))

	return FeatureMap{
		"X_PANAS_Positivo": s.PosMean,
		"X_PANAS_Negativo": s.NegMean,
		"PANAS_POS_SUM":    s.PosSum,
		"PANAS_NEG_SUM":    s.NegSum,
		"PANAS_POS_MEAN":   s.PosMean,
		"PANAS_NEG_MEAN":   s.NegMean,
		"PANAS_N_RESP":     s.NResp,
		"PANAS_SESSION_ID": sessionID.String(),
	}, nil
}

func (b *Builder) casoFeatures(ctx context.Context, studentID uuid.UUID) (FeatureMap, error) {
	ans, sessionID, ok, err := b.lastSessionAnswers(ctx, studentID, scoring.CASOCodes, "CASO_", 30)
	if err != nil {
		return nil, err
	}
	if !ok {
		return FeatureMap{
			"X_CASO_MEAN": (*float64)(nil),
			"CASO_TOTAL":  (*float64)(nil),
			"CASO_N_RESP": 0,
		}, nil
	}

	s := scoring.ScoreCASO(ans)
	b.log.Debug("caso features",
		"session_id", sessionID, "n_resp", s.NResp,
		"total", fv(s.Total), "mean", fv(s.Mean))

	return FeatureMap{
		"X_CASO_MEAN":     s.Mean,
		"CASO_TOTAL":      s.Total,
		"CASO_MEAN":       s.Mean,
		"CASO_N_RESP":     s.NResp,
		"CASO_SESSION_ID": sessionID.String(),
		"CASO_INTERP":     scoring.CASOInterpretation,
	}, nil
}

func (b *Builder) whoqolFeatures(ctx context.Context, studentID uuid.UUID) (FeatureMap, error) {
	ans, sessionID, ok, err := b.lastSessionAnswers(ctx, studentID, scoring.WHOQOLCodes, "WHOQOL_", 26)
	if err != nil {
		return nil, err
	}
	if !ok {
		return FeatureMap{
			"X_WHOQOL_PHYS_MEAN":   (*float64)(nil),
			"X_WHOQOL_PSYCH_MEAN":  (*float64)(nil),
			"X_WHOQOL_SOCIAL_MEAN": (*float64)(nil),
			"WHOQOL_ENV_MEAN":      (*float64)(nil),
			"WHOQOL_OVERALL_MEAN":  (*float64)(nil),
			"WHOQOL_TOTAL_MEAN":    (*float64)(nil),
			"WHOQOL_N_RESP":        0,
		}, nil
	}

	s := scoring.ScoreWHOQOL(ans)
	b.log.Debug("whoqol features",
		"session_id", sessionID, "n_resp", s.NResp,
		"phys", fv(s.Phys), "psych", fv(s.Psych), "social", fv(s.Social))

	return FeatureMap{
		"X_WHOQOL_PHYS_MEAN":   s.Phys,
		"X_WHOQOL_PSYCH_MEAN":  s.Psych,
		"X_WHOQOL_SOCIAL_MEAN": s.Social,

		"WHOQOL_OVERALL_MEAN": s.Overall,
		"WHOQOL_PHYS_MEAN":    s.Phys,
		"WHOQOL_PSYCH_MEAN":   s.Psych,
		"WHOQOL_SOCIAL_MEAN":  s.Social,
		"WHOQOL_ENV_MEAN":     s.Env,
		"WHOQOL_TOTAL_MEAN":   s.Total,
		"WHOQOL_N_RESP":       s.NResp,
		"WHOQOL_SESSION_ID":   sessionID.String(),
	}, nil
}

// BuildFeatures derives the complete feature map for a student plus the
// model-input subset selected by the bundle's feature_cols. When the bundle
// cannot be loaded the subset is empty and the full map is still returned.
func (b *Builder) BuildFeatures(ctx context.Context, studentID uuid.UUID) (FeatureMap, map[string]*float64, error) {
	all := FeatureMap{}
	for _, build := range []func(context.Context, uuid.UUID) (FeatureMap, error){
		b.panasFeatures,
		b.whoqolFeatures,
		b.casoFeatures,
	} {
		m, err := build(ctx, studentID)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range m {
			all[k] = v
		}
	}

	bundle, err := b.loader.Bundle()
	if err != nil {
		b.log.Debug("feature subset skipped, no bundle", "error", err)
		return all, map[string]*float64{}, nil
	}

	mlInputs := make(map[string]*float64, len(bundle.FeatureCols))
	for _, col := range bundle.FeatureCols {
		mlInputs[col] = asFloatPtr(all[col])
	}
	return all, mlInputs, nil
}

// MLReady reports whether the student has at least one completed session for
// every required questionnaire code.
func (b *Builder) MLReady(ctx context.Context, studentID uuid.UUID) (bool, int, int, error) {
	n, err := b.q.CountDistinctCompletedCodes(ctx, db.CountDistinctCompletedCodesParams{
		StudentID: studentID,
		Codigos:   RequiredCodes,
	})
	if err != nil {
		return false, 0, len(RequiredCodes), err
	}
	return int(n) >= len(RequiredCodes), int(n), len(RequiredCodes), nil
}

func asFloatPtr(v any) *float64 {
	switch x := v.(type) {
	case *float64:
		return x
	case float64:
		return &x
	default:
		return nil
	}
}

// fv renders an optional float for log lines.
func fv(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

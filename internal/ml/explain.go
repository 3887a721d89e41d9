package ml

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ExplanationFactor is one feature's contribution to a prediction, rendered
// with its clinical metadata.
type ExplanationFactor struct {
	Feature        string   `json:"feature"`
	Descripcion    string   `json:"descripcion"`
	Cuestionario   string   `json:"cuestionario"`
	EjemploItems   []string `json:"ejemplo_items,omitempty"`
	Value          float64  `json:"value"`
	Odds           float64  `json:"odds"`
	Impacto        float64  `json:"impacto"`
	Direction      string   `json:"direction"`
	Interpretacion string   `json:"interpretacion"`
}

// Explanation is the per-prediction breakdown served to the psychologist
// dashboard. A zero Explanation (Nivel empty) means the model cannot be
// explained; callers render nothing instead of erroring.
type Explanation struct {
	Probabilidad      float64             `json:"probabilidad"`
	Nivel             string              `json:"nivel"`
	RiskFactors       []ExplanationFactor `json:"risk_factors"`
	ProtectiveFactors []ExplanationFactor `json:"protective_factors"`
	Narrative         string              `json:"narrative"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// BuildExplanation computes signed per-feature contributions for a stored
// prediction. inputs holds the feature values the prediction was made with,
// keyed by feature name; missing features count as zero. Returns a zero
// Explanation when the model does not expose linear coefficients.
func BuildExplanation(b *Bundle, probability float64, inputs map[string]float64) Explanation {
	lin, ok := b.Model.(LinearExplainer)
	if !ok {
		return Explanation{}
	}
	coefs := lin.Coefficients()
	if len(coefs) != len(b.FeatureCols) {
		return Explanation{}
	}

	var risk, protective []ExplanationFactor
	for i, feature := range b.FeatureCols {
		coef := coefs[i]
		value := inputs[feature]
		impacto := coef * value

		meta := MetaFor(feature)
		item := ExplanationFactor{
			Feature:      meta.Titulo,
			Descripcion:  meta.Descripcion,
			Cuestionario: meta.Cuestionario,
			EjemploItems: meta.EjemploItems,
			Value:        round2(value),
			Odds:         round3(math.Exp(coef)),
			Impacto:      round3(math.Abs(impacto)),
		}
		switch {
		case impacto > 0:
			item.Direction = "up"
			item.Interpretacion = "Contribuye al aumento del riesgo."
			risk = append(risk, item)
		case impacto < 0:
			item.Direction = "down"
			item.Interpretacion = "Actúa como factor protector."
			protective = append(protective, item)
		}
	}

	sort.SliceStable(risk, func(i, j int) bool { return risk[i].Impacto > risk[j].Impacto })
	sort.SliceStable(protective, func(i, j int) bool { return protective[i].Impacto > protective[j].Impacto })

	nivel := b.Thresholds.TierFor(&probability)
	narrative := clinicalNarrative(probability, nivel, risk, protective)

	return Explanation{
		Probabilidad:      round2(probability * 100),
		Nivel:             string(nivel),
		RiskFactors:       topFactors(risk, 3),
		ProtectiveFactors: topFactors(protective, 3),
		Narrative:         narrative,
	}
}

func topFactors(fs []ExplanationFactor, n int) []ExplanationFactor {
	if len(fs) > n {
		fs = fs[:n]
	}
	if fs == nil {
		fs = []ExplanationFactor{}
	}
	return fs
}

func clinicalNarrative(prob float64, nivel RiskTier, risk, protective []ExplanationFactor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "El modelo estima una probabilidad de riesgo %s (%.2f%%). ",
		strings.ToLower(string(nivel)), prob*100)

	if len(risk) > 0 {
		sb.WriteString("Los principales factores asociados al aumento del riesgo son: ")
		sb.WriteString(factorNames(risk, 2))
		sb.WriteString(". ")
	}
	if len(protective) > 0 {
		sb.WriteString("Como elementos protectores se identifican: ")
		sb.WriteString(factorNames(protective, 2))
		sb.WriteString(". ")
	}
	sb.WriteString("La interpretación debe integrarse con la valoración clínica profesional.")
	return sb.String()
}

func factorNames(fs []ExplanationFactor, n int) string {
	if len(fs) > n {
		fs = fs[:n]
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Feature
	}
	return strings.Join(names, ", ")
}

package scoring

import (
	"fmt"
	"strings"
)

// SummaryItem is one display row: label, value and an optional format hint
// ("float2" for two-decimal floats). Value may be a *float64 (nil = no
// data) or a plain string for interpretation notes.
type SummaryItem struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Fmt   string `json:"fmt,omitempty"`
}

// Summary is the renderable, model-free result block for one session.
type Summary struct {
	Titulo string         `json:"titulo"`
	Items  []SummaryItem  `json:"items"`
	Debug  map[string]any `json:"debug,omitempty"`
}

// Known questionnaire code aliases. Matching is case-insensitive; historical
// data uses more than one spelling for the same instrument.
var (
	PANASCodes  = []string{"PANAS"}
	CASOCodes   = []string{"CASO-A30", "CASO-30", "CASO"}
	WHOQOLCodes = []string{"WHO-QOL", "WHOQOL", "WHOQOL-BREF"}
)

func codeMatches(codigo string, aliases []string) bool {
	c := strings.ToUpper(strings.TrimSpace(codigo))
	for _, a := range aliases {
		if c == a {
			return true
		}
	}
	return false
}

// ScoreSummary dispatches to the instrument-specific scorer by questionnaire
// code. Codes without a registered scorer get a "not configured" summary
// rather than an error.
func ScoreSummary(codigo string, rows []AnswerRow) Summary {
	switch {
	case codeMatches(codigo, CASOCodes):
		return casoSummary(rows)
	case codeMatches(codigo, PANASCodes):
		return panasSummary(rows)
	case codeMatches(codigo, WHOQOLCodes):
		return whoqolSummary(rows)
	default:
		return Summary{
			Titulo: fmt.Sprintf("Resultados del cuestionario — %s", codigo),
			Items: []SummaryItem{
				{Label: "Nota", Value: "Este cuestionario aún no tiene resumen configurado."},
			},
		}
	}
}

func casoSummary(rows []AnswerRow) Summary {
	ans := AnswersByPrefix(rows, "CASO_", casoItemCount)
	s := ScoreCASO(ans)
	return Summary{
		Titulo: "Resultados del cuestionario — CASO-A30",
		Items: []SummaryItem{
			{Label: "Suma de 30 ítems (1–5)", Value: s.Total, Fmt: "float2"},
			{Label: "Promedio", Value: s.Mean, Fmt: "float2"},
			{Label: "Interpretación", Value: CASOInterpretation},
		},
		Debug: map[string]any{"n_respuestas_encontradas": s.NResp},
	}
}

func panasSummary(rows []AnswerRow) Summary {
	ans := AnswersByPrefix(rows, "PANAS_", panasItemCount)
	s := ScorePANAS(ans)

	debug := map[string]any{
		"n_respuestas_encontradas": s.NResp,
		"pos_n":                    s.PosN,
		"neg_n":                    s.NegN,
	}
	if !s.Complete() {
		debug["nota"] = fmt.Sprintf("Respuestas incompletas: POS %d/10, NEG %d/10.", s.PosN, s.NegN)
	}

	return Summary{
		Titulo: "Resultados del cuestionario — PANAS",
		Items: []SummaryItem{
			{Label: "Afecto positivo (suma 10 ítems)", Value: s.PosSum, Fmt: "float2"},
			{Label: "Afecto negativo (suma 10 ítems)", Value: s.NegSum, Fmt: "float2"},
			{Label: "Afecto positivo (promedio)", Value: s.PosMean, Fmt: "float2"},
			{Label: "Afecto negativo (promedio)", Value: s.NegMean, Fmt: "float2"},
		},
		Debug: debug,
	}
}

func whoqolSummary(rows []AnswerRow) Summary {
	ans := AnswersByPrefix(rows, "WHOQOL_", whoqolItemCount)
	s := ScoreWHOQOL(ans)
	level := ClassifyWHOQOLTotal(s.Total)

	return Summary{
		Titulo: "Resultados del cuestionario — WHOQOL-BREF",
		Items: []SummaryItem{
			{Label: "Overall (Q1–Q2) promedio", Value: s.Overall, Fmt: "float2"},
			{Label: "Físico (dominio) promedio", Value: s.Phys, Fmt: "float2"},
			{Label: "Psicológico (dominio) promedio", Value: s.Psych, Fmt: "float2"},
			{Label: "Social (dominio) promedio", Value: s.Social, Fmt: "float2"},
			{Label: "Ambiente (dominio) promedio", Value: s.Env, Fmt: "float2"},
			{Label: "Total (26 ítems) promedio", Value: s.Total, Fmt: "float2"},
			{Label: "Clasificación", Value: level.Nivel},
			{Label: "Nota", Value: "Incluye reversa en ítems 3, 4 y 26 (6−x)."},
		},
		Debug: map[string]any{"n_respuestas_encontradas": s.NResp},
	}
}

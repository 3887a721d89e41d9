package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionScore is the per-question audit entry of an auto-scoring run.
// ValorRaw is the clamped pre-reverse value; Valor the final scored value.
// Both are nil when the item was unanswered or unusable.
type QuestionScore struct {
	Var      string   `json:"var"`
	Orden    int      `json:"orden"`
	Tipo     string   `json:"tipo"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Reverse  bool     `json:"reverse"`
	ValorRaw *float64 `json:"valor_raw"`
	Valor    *float64 `json:"valor"`
	Texto    string   `json:"texto"`
	// ConfigError is set when the item's config blob could not be parsed;
	// such items are excluded from the totals but kept in the audit trail.
	ConfigError string `json:"config_error,omitempty"`
}

// SchemeResult is the band classification of the run.
type SchemeResult struct {
	Mode     string  `json:"mode"`
	Total    float64 `json:"total"`
	Avg      float64 `json:"avg"`
	Norm0100 float64 `json:"norm_0_100"`
	Label    *string `json:"label"`
}

// Breakdown is the full audit record of one auto-scoring run. It is stored
// verbatim next to the computed total so a later re-render never recomputes.
type Breakdown struct {
	ItemsSumables int             `json:"items_sumables"`
	Contados      int             `json:"contados"`
	TotalMin      float64         `json:"total_min"`
	TotalMax      float64         `json:"total_max"`
	PorPregunta   []QuestionScore `json:"por_pregunta"`
	Scheme        SchemeResult    `json:"scheme"`
	Nota          string          `json:"nota"`
}

// ComputeAutoSum runs the questionnaire-agnostic scoring over a session's
// rows: only ESCALA and SI_NO items participate. Per item the raw value is
// clamped into the configured bounds, reversed ((max+min)−v) when
// configured, and clamped again. Totals accumulate alongside the counted
// min/max so the 0-100 normalization covers exactly the answered items.
//
// The questionnaire's scoring scheme (SUM or AVG plus bands) decides which
// aggregate is returned for persistence. The function is deterministic: the
// same rows yield a bitwise-identical total and breakdown.
func ComputeAutoSum(codigo string, questionnaireConfig json.RawMessage, rows []AnswerRow) (float64, Breakdown) {
	scheme := ParseSchemeConfig(questionnaireConfig)

	var (
		total    float64
		totalMin float64
		totalMax float64
		contados int
		sumables int
		perQ     []QuestionScore
	)

	for _, r := range rows {
		tipo := strings.ToUpper(strings.TrimSpace(r.Tipo))
		if tipo != "ESCALA" && tipo != "SI_NO" {
			continue
		}
		sumables++

		entry := QuestionScore{
			Orden: r.Orden,
			Tipo:  tipo,
			Texto: truncate(r.Texto, 180),
		}

		cfg, cfgErr := ParseQuestionConfig(r.Config)
		if cfgErr != nil {
			// Malformed config: keep the item visible in the audit trail but
			// exclude it from every aggregate.
			entry.ConfigError = cfgErr.Error()
			entry.Var = inferVarCode(codigo, "", r.Orden)
			perQ = append(perQ, entry)
			continue
		}

		pmin, pmax := cfg.Bounds(tipo)
		entry.Min = pmin
		entry.Max = pmax
		entry.Reverse = cfg.Reverse
		entry.Var = inferVarCode(codigo, cfg.Var, r.Orden)

		valorRaw := resolveAutoSumValue(tipo, r, pmin, pmax)
		entry.ValorRaw = valorRaw

		if valorRaw != nil {
			v := *valorRaw
			if cfg.Reverse {
				v = (pmax + pmin) - v
			}
			v = clamp(v, pmin, pmax)
			entry.Valor = &v

			contados++
			total += v
			totalMin += pmin
			totalMax += pmax
		}

		perQ = append(perQ, entry)
	}

	avg := 0.0
	if contados > 0 {
		avg = total / float64(contados)
	}

	norm := 0.0
	if span := totalMax - totalMin; span > 0 {
		norm = (total - totalMin) / span * 100.0
	}

	valueForBands := total
	if scheme.Mode == ModeAvg {
		valueForBands = avg
	}

	result := SchemeResult{
		Mode:     scheme.Mode,
		Total:    total,
		Avg:      avg,
		Norm0100: norm,
		Label:    scheme.Classify(valueForBands),
	}

	breakdown := Breakdown{
		ItemsSumables: sumables,
		Contados:      contados,
		TotalMin:      totalMin,
		TotalMax:      totalMax,
		PorPregunta:   perQ,
		Scheme:        result,
		Nota:          "Solo ESCALA (Likert) y SI/NO. reverse aplica: (max+min-valor). norm_0_100 se calcula sobre ítems contados.",
	}

	stored := result.Total
	if scheme.Mode == ModeAvg {
		stored = result.Avg
	}
	return stored, breakdown
}

// resolveAutoSumValue produces the pre-reverse value for one item. ESCALA
// reads the numeric value and clamps it into bounds. SI_NO reads the textual
// answer: SI/SÍ is 1, NO is 0, mapped onto the configured range unless that
// range is exactly [0,1].
func resolveAutoSumValue(tipo string, r AnswerRow, pmin, pmax float64) *float64 {
	switch tipo {
	case "ESCALA":
		v, ok := r.NumericValue()
		if !ok {
			return nil
		}
		v = clamp(v, pmin, pmax)
		return &v

	case "SI_NO":
		if r.ValorTexto == nil {
			return nil
		}
		var base float64
		switch strings.ToUpper(strings.TrimSpace(*r.ValorTexto)) {
		case "SI", "SÍ":
			base = 1
		case "NO":
			base = 0
		default:
			return nil
		}
		if pmin == 0 && pmax == 1 {
			return &base
		}
		mapped := pmin
		if base == 1 {
			mapped = pmax
		}
		return &mapped
	}
	return nil
}

// inferVarCode falls back to <CODIGO>_<orden 2D> when the question config
// carries no explicit var name.
func inferVarCode(codigo, configured string, orden int) string {
	if configured != "" {
		return configured
	}
	c := strings.ToUpper(strings.TrimSpace(codigo))
	if c == "" {
		c = "Q"
	}
	return fmt.Sprintf("%s_%02d", c, orden)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerRow is the minimal projection of a session's questions and responses
// that the scoring package needs. Using a local type keeps scoring/ free of
// the db package while remaining easy to construct in tests.
//
// One row per question of the session's questionnaire, in display order.
// Unanswered questions carry nil response fields.
type AnswerRow struct {
	QuestionCode string // stable item code, may be empty
	Orden        int    // 1-based position within the questionnaire
	Tipo         string // TEXTO | NUMERICA | FECHA | SI_NO | OPCION_UNICA | OPCION_MULTIPLE | ESCALA
	Requerido    bool
	Texto        string // question text, used in breakdowns
	Config       json.RawMessage

	ValorNumerico *float64 // directly stored numeric value
	ValorTexto    *string  // free-text value ("SI"/"NO" for SI_NO items)
	OpcionValor   *string  // selected option's stored value
}

// NumericValue resolves the row's numeric value: a directly stored number
// wins, else the selected option's stored value is parsed as a float.
// Returns (0, false) when neither yields a number — the item is absent, it
// never contributes zero.
func (r AnswerRow) NumericValue() (float64, bool) {
	if r.ValorNumerico != nil {
		return *r.ValorNumerico, true
	}
	if r.OpcionValor != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(*r.OpcionValor), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// NormalizePrefix upper-cases and trims a code prefix and guarantees the
// trailing underscore, so "panas" and "PANAS_" address the same items.
func NormalizePrefix(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// ItemCode formats the canonical code for item i under the given
// (already-normalized) prefix, e.g. ItemCode("PANAS_", 7) == "PANAS_07".
func ItemCode(prefix string, i int) string {
	return fmt.Sprintf("%s%02d", prefix, i)
}

// AnswersByPrefix extracts {PREFIX_01..PREFIX_NN: value} from a session's
// rows.
//
// Per row: a question whose stable code starts with the prefix is used
// verbatim; a question without a matching code falls back to its orden when
// that lies in [1, nItems]. Rows without a resolvable numeric value are
// skipped. The result is filtered to the nItems valid codes; anything else
// is dropped silently.
//
// When two questions resolve to the same code the later row wins. That
// mirrors the original system and keeps historic sessions scoring
// identically; see DESIGN.md for the trade-off.
func AnswersByPrefix(rows []AnswerRow, prefix string, nItems int) map[string]float64 {
	prefix = NormalizePrefix(prefix)

	out := make(map[string]float64, nItems)
	for _, r := range rows {
		v, ok := r.NumericValue()
		if !ok {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(r.QuestionCode))
		if strings.HasPrefix(code, prefix) {
			out[code] = v
			continue
		}

		if r.Orden >= 1 && r.Orden <= nItems {
			out[ItemCode(prefix, r.Orden)] = v
		}
	}

	// Keep only the nItems canonical codes.
	for code := range out {
		if !validItemCode(code, prefix, nItems) {
			delete(out, code)
		}
	}
	return out
}

func validItemCode(code, prefix string, nItems int) bool {
	suffix, ok := strings.CutPrefix(code, prefix)
	if !ok || len(suffix) != 2 {
		return false
	}
	n, err := strconv.Atoi(suffix)
	return err == nil && n >= 1 && n <= nItems
}

// sumCodes sums the present values among codes. Nil when none are present.
func sumCodes(ans map[string]float64, codes []string) *float64 {
	var sum float64
	n := 0
	for _, c := range codes {
		if v, ok := ans[c]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &sum
}

// meanCodes averages the present values among codes. Nil when none are
// present — partial completion yields partial scores, never imputed zeros.
func meanCodes(ans map[string]float64, codes []string) *float64 {
	var sum float64
	n := 0
	for _, c := range codes {
		if v, ok := ans[c]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

func countCodes(ans map[string]float64, codes []string) int {
	n := 0
	for _, c := range codes {
		if _, ok := ans[c]; ok {
			n++
		}
	}
	return n
}

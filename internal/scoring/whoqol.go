package scoring

// WHOQOL-BREF: 26 items scored 1-5. Items 3, 4 and 26 are reverse-scored
// (6 − raw) before any aggregation. Items 1-2 form the overall perception
// pair and belong to no domain.
var (
	whoqolPhys   = []int{3, 4, 10, 15, 16, 17, 18}
	whoqolPsych  = []int{5, 6, 7, 11, 19, 26}
	whoqolSocial = []int{20, 21, 22}
	whoqolEnv    = []int{8, 9, 12, 13, 14, 23, 24, 25}
)

const whoqolItemCount = 26

func whoqolReverse(i int) bool {
	return i == 3 || i == 4 || i == 26
}

// WHOQOLScoreItem applies the WHOQOL item transform: values outside the
// strict [1,5] range are rejected (not clamped), and reverse items map
// through 6 − v.
func WHOQOLScoreItem(i int, v float64) (float64, bool) {
	if v < 1 || v > 5 {
		return 0, false
	}
	if whoqolReverse(i) {
		return 6.0 - v, true
	}
	return v, true
}

// WHOQOLScores holds the domain means over reverse-adjusted item scores.
// Nil means no item of that group was answered (or all were out of range).
type WHOQOLScores struct {
	Overall *float64 // items 1-2, excluded from every domain
	Phys    *float64
	Psych   *float64
	Social  *float64
	Env     *float64
	Total   *float64 // all 26 reverse-adjusted items
	NResp   int      // items with a usable in-range value
}

// ScoreWHOQOL computes domain means from a WHOQOL_01..WHOQOL_26 answer map.
// Reverse scoring is applied once, up front, so every aggregate below sees
// the adjusted values.
func ScoreWHOQOL(ans map[string]float64) WHOQOLScores {
	scored := make(map[int]float64, whoqolItemCount)
	for i := 1; i <= whoqolItemCount; i++ {
		raw, ok := ans[ItemCode("WHOQOL_", i)]
		if !ok {
			continue
		}
		if v, ok := WHOQOLScoreItem(i, raw); ok {
			scored[i] = v
		}
	}

	meanItems := func(items []int) *float64 {
		var sum float64
		n := 0
		for _, i := range items {
			if v, ok := scored[i]; ok {
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

	all := make([]int, whoqolItemCount)
	for i := range all {
		all[i] = i + 1
	}

	return WHOQOLScores{
		Overall: meanItems([]int{1, 2}),
		Phys:    meanItems(whoqolPhys),
		Psych:   meanItems(whoqolPsych),
		Social:  meanItems(whoqolSocial),
		Env:     meanItems(whoqolEnv),
		Total:   meanItems(all),
		NResp:   len(scored),
	}
}

// WHOQOLLevel is the clinical classification of the 26-item total mean.
type WHOQOLLevel struct {
	Nivel       string
	Descripcion string
}

// ClassifyWHOQOLTotal maps the total mean onto the WHOQOL-BREF quality-of-
// life bands. Boundaries are inclusive on the upper edge of each band:
// [1, 2.9] low, (2.9, 3.9] medium, (3.9, 5] high.
func ClassifyWHOQOLTotal(mean *float64) WHOQOLLevel {
	if mean == nil {
		return WHOQOLLevel{
			Nivel:       "Sin datos suficientes",
			Descripcion: "No se pudo calcular el promedio general.",
		}
	}
	v := *mean
	switch {
	case v >= 1.0 && v <= 2.9:
		return WHOQOLLevel{
			Nivel:       "Baja Calidad de Vida",
			Descripcion: "El individuo percibe carencias graves en su bienestar.",
		}
	case v > 2.9 && v <= 3.9:
		return WHOQOLLevel{
			Nivel:       "Calidad de Vida Media",
			Descripcion: "Existe un equilibrio general, pero con áreas claras de oportunidad.",
		}
	case v > 3.9 && v <= 5.0:
		return WHOQOLLevel{
			Nivel:       "Alta Calidad de Vida",
			Descripcion: "Percepción óptima de bienestar y satisfacción general.",
		}
	default:
		return WHOQOLLevel{
			Nivel:       "Fuera de rango",
			Descripcion: "Valor fuera del rango esperado (1–5).",
		}
	}
}

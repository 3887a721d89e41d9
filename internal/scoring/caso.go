package scoring

// CASO-A30: 30 assertiveness items scored 1-5, summed. The theoretical range
// is 30-150 with midpoint 90. No reverse-coded items.
const (
	casoItemCount = 30

	// CASOTheoreticalMidpoint is the neutral total for a fully answered
	// instrument.
	CASOTheoreticalMidpoint = 90.0

	// CASOInterpretation is the fixed reading guide shown next to CASO
	// scores on psychologist-facing surfaces.
	CASOInterpretation = "Suma de 30 ítems (1–5). Altas = buena asertividad. Bajas = pasividad o agresividad indirecta. Media teórica: 90."
)

// CASOScores holds the instrument total and mean. The mean divides the sum
// by the answered count, so partial sessions still produce a 1-5 mean.
type CASOScores struct {
	Total *float64
	Mean  *float64
	NResp int
}

// ScoreCASO computes total and mean from a CASO_01..CASO_30 answer map.
func ScoreCASO(ans map[string]float64) CASOScores {
	codes := rangeCodes("CASO_", casoItemCount)
	return CASOScores{
		Total: sumCodes(ans, codes),
		Mean:  meanCodes(ans, codes),
		NResp: countCodes(ans, codes),
	}
}

package scoring

// PANAS: 20 items scored 1-5, split into two fixed 10-item subscales.
var (
	panasPosItems = []int{1, 3, 5, 9, 10, 12, 14, 16, 17, 19}
	panasNegItems = []int{2, 4, 6, 7, 8, 11, 13, 15, 18, 20}
)

const panasItemCount = 20

// PANASScores holds both subscales' aggregates. Nil means no item of that
// subscale was answered. Means are computed over the answered subset only.
type PANASScores struct {
	PosSum  *float64
	NegSum  *float64
	PosMean *float64
	NegMean *float64
	PosN    int // answered positive items, out of 10
	NegN    int // answered negative items, out of 10
	NResp   int // resolved answers out of 20
}

// Complete reports whether every item of both subscales was answered. This
// is advisory: partial sessions still produce scores.
func (s PANASScores) Complete() bool {
	return s.PosN >= len(panasPosItems) && s.NegN >= len(panasNegItems)
}

// ScorePANAS computes the positive/negative affect aggregates from a
// PANAS_01..PANAS_20 answer map.
func ScorePANAS(ans map[string]float64) PANASScores {
	pos := itemCodes("PANAS_", panasPosItems)
	neg := itemCodes("PANAS_", panasNegItems)

	return PANASScores{
		PosSum:  sumCodes(ans, pos),
		NegSum:  sumCodes(ans, neg),
		PosMean: meanCodes(ans, pos),
		NegMean: meanCodes(ans, neg),
		PosN:    countCodes(ans, pos),
		NegN:    countCodes(ans, neg),
		NResp:   len(ans),
	}
}

func itemCodes(prefix string, items []int) []string {
	codes := make([]string, len(items))
	for i, n := range items {
		codes[i] = ItemCode(prefix, n)
	}
	return codes
}

func rangeCodes(prefix string, n int) []string {
	codes := make([]string, n)
	for i := 0; i < n; i++ {
		codes[i] = ItemCode(prefix, i+1)
	}
	return codes
}

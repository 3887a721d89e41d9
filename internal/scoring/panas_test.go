package scoring

import (
	"math"
	"testing"
)

func fullPANAS(v float64) map[string]float64 {
	ans := make(map[string]float64, panasItemCount)
	for i := 1; i <= panasItemCount; i++ {
		ans[ItemCode("PANAS_", i)] = v
	}
	return ans
}

func TestScorePANAS_Complete(t *testing.T) {
	s := ScorePANAS(fullPANAS(3))

	if s.PosSum == nil || *s.PosSum != 30 {
		t.Errorf("PosSum = %v, want 30", s.PosSum)
	}
	if s.NegSum == nil || *s.NegSum != 30 {
		t.Errorf("NegSum = %v, want 30", s.NegSum)
	}
	if s.PosMean == nil || *s.PosMean != 3 {
		t.Errorf("PosMean = %v, want 3", s.PosMean)
	}
	if s.NResp != 20 || s.PosN != 10 || s.NegN != 10 {
		t.Errorf("counts = (%d, %d, %d), want (20, 10, 10)", s.NResp, s.PosN, s.NegN)
	}
	if !s.Complete() {
		t.Error("expected Complete() for a fully answered instrument")
	}
}

func TestScorePANAS_SubscaleSplit(t *testing.T) {
	// Positive items get 5, negative items get 1: the split must keep the
	// two totals apart.
	ans := make(map[string]float64)
	for _, i := range panasPosItems {
		ans[ItemCode("PANAS_", i)] = 5
	}
	for _, i := range panasNegItems {
		ans[ItemCode("PANAS_", i)] = 1
	}

	s := ScorePANAS(ans)
	if *s.PosSum != 50 || *s.NegSum != 10 {
		t.Errorf("sums = (%v, %v), want (50, 10)", *s.PosSum, *s.NegSum)
	}
}

func TestScorePANAS_PartialMeansOverAnswered(t *testing.T) {
	// Only two positive items answered: mean is over those two, not ten.
	ans := map[string]float64{
		"PANAS_01": 4,
		"PANAS_03": 2,
	}
	s := ScorePANAS(ans)

	if s.PosSum == nil || *s.PosSum != 6 {
		t.Fatalf("PosSum = %v, want 6", s.PosSum)
	}
	if s.PosMean == nil || math.Abs(*s.PosMean-3) > 1e-9 {
		t.Errorf("PosMean = %v, want 3", s.PosMean)
	}
	if s.NegSum != nil || s.NegMean != nil {
		t.Errorf("negative aggregates = (%v, %v), want nil", s.NegSum, s.NegMean)
	}
	if s.PosN != 2 || s.NegN != 0 || s.NResp != 2 {
		t.Errorf("counts = (%d, %d, %d), want (2, 0, 2)", s.PosN, s.NegN, s.NResp)
	}
	if s.Complete() {
		t.Error("partial instrument must not report Complete()")
	}
}

func TestScorePANAS_Empty(t *testing.T) {
	s := ScorePANAS(nil)
	if s.PosSum != nil || s.NegSum != nil || s.PosMean != nil || s.NegMean != nil {
		t.Errorf("expected all-nil aggregates, got %+v", s)
	}
	if s.NResp != 0 {
		t.Errorf("NResp = %d, want 0", s.NResp)
	}
}

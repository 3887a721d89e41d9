package scoring

import (
	"math"
	"testing"
)

func TestWHOQOLScoreItem(t *testing.T) {
	tests := []struct {
		item int
		in   float64
		want float64
		ok   bool
	}{
		{1, 4, 4, true},
		{3, 5, 1, true}, // reverse: 6 − 5
		{4, 1, 5, true},
		{26, 2, 4, true},
		{5, 0, 0, false}, // out of range is rejected, never clamped
		{3, 6, 0, false},
		{10, 5.5, 0, false},
	}
	for _, tt := range tests {
		got, ok := WHOQOLScoreItem(tt.item, tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("WHOQOLScoreItem(%d, %v) = (%v, %v), want (%v, %v)",
				tt.item, tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScoreWHOQOL_AllFives(t *testing.T) {
	// With every raw answer at 5 the three reverse items score 1 each, so
	// the domains containing them dip below 5.
	ans := make(map[string]float64, whoqolItemCount)
	for i := 1; i <= whoqolItemCount; i++ {
		ans[ItemCode("WHOQOL_", i)] = 5
	}
	s := ScoreWHOQOL(ans)

	if s.NResp != 26 {
		t.Fatalf("NResp = %d, want 26", s.NResp)
	}
	approx := func(name string, got *float64, want float64) {
		t.Helper()
		if got == nil || math.Abs(*got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	approx("Overall", s.Overall, 5)
	// Phys holds reverse items 3 and 4: (1+1+5*5)/7.
	approx("Phys", s.Phys, 27.0/7.0)
	// Psych holds reverse item 26: (1+5*5)/6.
	approx("Psych", s.Psych, 26.0/6.0)
	approx("Social", s.Social, 5)
	approx("Env", s.Env, 5)
	// Total: 23 items at 5 plus three reversed at 1.
	approx("Total", s.Total, (23*5.0+3*1.0)/26.0)
}

func TestScoreWHOQOL_OutOfRangeExcluded(t *testing.T) {
	ans := map[string]float64{
		"WHOQOL_20": 4,
		"WHOQOL_21": 9, // unusable, excluded from count and mean
	}
	s := ScoreWHOQOL(ans)

	if s.NResp != 1 {
		t.Errorf("NResp = %d, want 1", s.NResp)
	}
	if s.Social == nil || *s.Social != 4 {
		t.Errorf("Social = %v, want 4", s.Social)
	}
}

func TestScoreWHOQOL_Empty(t *testing.T) {
	s := ScoreWHOQOL(nil)
	if s.Overall != nil || s.Phys != nil || s.Psych != nil ||
		s.Social != nil || s.Env != nil || s.Total != nil {
		t.Errorf("expected all-nil domains, got %+v", s)
	}
}

func TestClassifyWHOQOLTotal(t *testing.T) {
	tests := []struct {
		name string
		mean *float64
		want string
	}{
		{"nil", nil, "Sin datos suficientes"},
		{"low band lower edge", fptr(1.0), "Baja Calidad de Vida"},
		{"low band upper edge", fptr(2.9), "Baja Calidad de Vida"},
		{"medium band", fptr(3.5), "Calidad de Vida Media"},
		{"medium band upper edge", fptr(3.9), "Calidad de Vida Media"},
		{"high band", fptr(4.2), "Alta Calidad de Vida"},
		{"top of scale", fptr(5.0), "Alta Calidad de Vida"},
		{"out of range", fptr(0.5), "Fuera de rango"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyWHOQOLTotal(tt.mean); got.Nivel != tt.want {
				t.Errorf("Nivel = %q, want %q", got.Nivel, tt.want)
			}
		})
	}
}

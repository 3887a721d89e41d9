package scoring

import (
	"strings"
	"testing"
)

func likertRows(n int, v float64) []AnswerRow {
	rows := make([]AnswerRow, n)
	for i := range rows {
		rows[i] = AnswerRow{Orden: i + 1, Tipo: "ESCALA", ValorNumerico: fptr(v)}
	}
	return rows
}

func TestScoreSummary_Dispatch(t *testing.T) {
	tests := []struct {
		codigo    string
		wantTitle string
	}{
		{"CASO-A30", "CASO-A30"},
		{"caso-30", "CASO-A30"},
		{"CASO", "CASO-A30"},
		{"PANAS", "PANAS"},
		{"panas", "PANAS"},
		{"WHO-QOL", "WHOQOL-BREF"},
		{"whoqol", "WHOQOL-BREF"},
		{"WHOQOL-BREF", "WHOQOL-BREF"},
	}
	for _, tt := range tests {
		t.Run(tt.codigo, func(t *testing.T) {
			s := ScoreSummary(tt.codigo, likertRows(30, 3))
			if !strings.Contains(s.Titulo, tt.wantTitle) {
				t.Errorf("title = %q, want it to name %s", s.Titulo, tt.wantTitle)
			}
			if len(s.Items) == 0 {
				t.Error("expected summary items")
			}
		})
	}
}

func TestScoreSummary_UnknownCode(t *testing.T) {
	s := ScoreSummary("GAD-7", likertRows(7, 2))
	if !strings.Contains(s.Titulo, "GAD-7") {
		t.Errorf("title = %q, want the raw code", s.Titulo)
	}
	if len(s.Items) != 1 {
		t.Fatalf("items = %d, want the single configuration note", len(s.Items))
	}
}

func TestCASOSummary_Midpoint(t *testing.T) {
	s := ScoreSummary("CASO-A30", likertRows(30, 3))

	total, ok := s.Items[0].Value.(*float64)
	if !ok || total == nil {
		t.Fatalf("total item value = %v (%T)", s.Items[0].Value, s.Items[0].Value)
	}
	if *total != CASOTheoreticalMidpoint {
		t.Errorf("total = %v, want %v", *total, CASOTheoreticalMidpoint)
	}
}

func TestPANASSummary_IncompleteNote(t *testing.T) {
	s := ScoreSummary("PANAS", likertRows(5, 4))
	if _, ok := s.Debug["nota"]; !ok {
		t.Error("expected an incompleteness note for a partial instrument")
	}
}

// Package scoring implements the pure scoring engine: answer extraction,
// fixed-instrument subscale scoring (PANAS, WHOQOL-BREF, CASO-A30) and the
// questionnaire-agnostic auto-scoring of bounded-scale and yes/no items.
// It is intentionally dependency-free: it imports nothing from internal/
// and can be tested without a database.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// QuestionConfig is the typed form of a question's JSONB config blob. All
// fields are optional; Bounds applies the per-type defaults.
//
// DB JSON shape:
//
//	{
//	  "min": 1, "max": 5, "step": 1,
//	  "labels": {"1": "Nada", "5": "Mucho"},
//	  "reverse": true,
//	  "subscale": "PHYS",
//	  "var": "WHOQOL_03"
//	}
type QuestionConfig struct {
	Min      *float64          `json:"min,omitempty"`
	Max      *float64          `json:"max,omitempty"`
	Step     *float64          `json:"step,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Reverse  bool              `json:"reverse,omitempty"`
	Subscale string            `json:"subscale,omitempty"`
	Var      string            `json:"var,omitempty"`
}

// ParseQuestionConfig unmarshals and validates a question config. An empty
// or null blob yields the zero config (all defaults). A malformed blob is an
// error; the auto-scoring engine excludes such items instead of failing the
// whole computation.
func ParseQuestionConfig(raw json.RawMessage) (QuestionConfig, error) {
	var cfg QuestionConfig
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return QuestionConfig{}, fmt.Errorf("question config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return QuestionConfig{}, err
	}
	return cfg, nil
}

func (c QuestionConfig) validate() error {
	if c.Min != nil && (math.IsNaN(*c.Min) || math.IsInf(*c.Min, 0)) {
		return fmt.Errorf("question config: min is not a finite number")
	}
	if c.Max != nil && (math.IsNaN(*c.Max) || math.IsInf(*c.Max, 0)) {
		return fmt.Errorf("question config: max is not a finite number")
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("question config: min %v > max %v", *c.Min, *c.Max)
	}
	return nil
}

// Bounds returns the scoring range for the given response type: the
// configured min/max when present, else [0,1] for SI_NO and [1,5] for
// everything scale-like.
func (c QuestionConfig) Bounds(tipo string) (min, max float64) {
	if strings.EqualFold(tipo, "SI_NO") {
		min, max = 0, 1
	} else {
		min, max = 1, 5
	}
	if c.Min != nil {
		min = *c.Min
	}
	if c.Max != nil {
		max = *c.Max
	}
	return min, max
}

// Scheme modes select what the classification bands apply to.
const (
	ModeSum = "SUM"
	ModeAvg = "AVG"
)

// Band is one classification interval. A missing bound is open: no min means
// -inf, no max means +inf. Bounds are inclusive and the first matching band
// wins. The label may arrive under any of three historical keys.
type Band struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Label  string   `json:"label,omitempty"`
	Nombre string   `json:"nombre,omitempty"`
	Texto  string   `json:"texto,omitempty"`
}

// Contains reports whether v falls inside the band (inclusive bounds).
func (b Band) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// DisplayLabel resolves the band's label across the legacy key variants.
func (b Band) DisplayLabel() string {
	switch {
	case b.Label != "":
		return b.Label
	case b.Nombre != "":
		return b.Nombre
	default:
		return b.Texto
	}
}

// SchemeConfig is the questionnaire-level scoring scheme, read from the
// "scoring" key of the questionnaire's config blob.
type SchemeConfig struct {
	Mode  string `json:"mode,omitempty"`
	Bands []Band `json:"bands,omitempty"`
}

// ParseSchemeConfig extracts the scoring scheme from a questionnaire config.
// A missing or malformed scheme degrades to SUM with no bands rather than
// erroring, since classification is advisory.
func ParseSchemeConfig(raw json.RawMessage) SchemeConfig {
	def := SchemeConfig{Mode: ModeSum}
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}
	var outer struct {
		Scoring SchemeConfig `json:"scoring"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return def
	}
	cfg := outer.Scoring
	cfg.Mode = strings.ToUpper(strings.TrimSpace(cfg.Mode))
	if cfg.Mode != ModeAvg {
		cfg.Mode = ModeSum
	}
	return cfg
}

// Classify returns the label of the first band containing v, or nil when no
// band matches (or none are configured).
func (c SchemeConfig) Classify(v float64) *string {
	for _, b := range c.Bands {
		if b.Contains(v) {
			label := b.DisplayLabel()
			return &label
		}
	}
	return nil
}

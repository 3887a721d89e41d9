package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrIncomplete marks a bundle file that parsed but is missing required
// parts. Callers distinguish it from a missing file when tagging the
// prediction version.
var ErrIncomplete = errors.New("bundle incomplete")

// Risk tiers. String values match the risk_predictions.nivel column and the
// original system's exports.
type RiskTier string

const (
	TierNoData   RiskTier = "SIN_DATOS"
	TierLow      RiskTier = "BAJO"
	TierModerate RiskTier = "MODERADO"
	TierHigh     RiskTier = "ALTO"
)

// Version tags recorded on every prediction write, naming the code path that
// produced the result.
const (
	VersionBundleMissing    = "bundle_missing"
	VersionBundleIncomplete = "bundle_incomplete"
	VersionPredictError     = "bundle_predict_error"
)

// Thresholds are the bundle-supplied decision cut points. Lower bounds are
// inclusive: P == ThrAlto is ALTO, P == ThrMedio is MODERADO.
type Thresholds struct {
	ThrMedio float64 `json:"thr_medio"`
	ThrAlto  float64 `json:"thr_alto"`
}

// TierFor maps a probability onto a tier. A nil probability is SIN_DATOS.
func (t Thresholds) TierFor(p *float64) RiskTier {
	if p == nil {
		return TierNoData
	}
	switch {
	case *p >= t.ThrAlto:
		return TierHigh
	case *p >= t.ThrMedio:
		return TierModerate
	default:
		return TierLow
	}
}

// UrgencyRank orders tiers for triage lists: ALTO 3 > MODERADO 2 > BAJO 1 >
// SIN_DATOS 0.
func UrgencyRank(nivel string) int {
	switch RiskTier(nivel) {
	case TierHigh:
		return 3
	case TierModerate:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// Bundle is the immutable trained-model artifact: classifier, required
// feature columns in order, decision thresholds and a version tag.
type Bundle struct {
	Version     string
	Model       Model
	FeatureCols []string
	Thresholds  Thresholds
}

type bundleFile struct {
	Version     string          `json:"version"`
	Model       json.RawMessage `json:"model"`
	FeatureCols []string        `json:"feature_cols"`
	Thresholds  Thresholds      `json:"thresholds"`
}

// ReadBundle parses and validates a bundle file's contents.
func ReadBundle(data []byte) (*Bundle, error) {
	var f bundleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	if len(f.FeatureCols) == 0 {
		return nil, fmt.Errorf("%w: feature_cols is empty", ErrIncomplete)
	}
	if len(f.Model) == 0 {
		return nil, fmt.Errorf("%w: model is missing", ErrIncomplete)
	}
	model, err := parseModel(f.Model)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	if lm, ok := model.(*LogisticModel); ok && len(lm.Coef) != len(f.FeatureCols) {
		return nil, fmt.Errorf("%w: %d coefficients for %d feature_cols", ErrIncomplete, len(lm.Coef), len(f.FeatureCols))
	}
	t := f.Thresholds
	if t.ThrMedio == 0 {
		t.ThrMedio = 0.40
	}
	if t.ThrAlto == 0 {
		t.ThrAlto = 0.75
	}
	if t.ThrMedio <= 0 || t.ThrAlto <= 0 || t.ThrMedio >= t.ThrAlto || t.ThrAlto > 1 {
		return nil, fmt.Errorf("bundle: invalid thresholds thr_medio=%v thr_alto=%v", t.ThrMedio, t.ThrAlto)
	}
	version := f.Version
	if version == "" {
		version = "tamizaje_rl_bundle_v1"
	}
	return &Bundle{
		Version:     version,
		Model:       model,
		FeatureCols: f.FeatureCols,
		Thresholds:  t,
	}, nil
}

// Loader loads the bundle from disk exactly once and serves the cached copy
// for the process lifetime. It is constructed in main and passed by
// reference — never a package-level global. A load failure is NOT cached, so
// a bundle provisioned after startup is picked up on the next call.
type Loader struct {
	path string

	mu     sync.Mutex
	bundle *Bundle
}

// NewLoader creates a Loader for the bundle at path. No I/O happens here.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Bundle returns the cached bundle, loading it on first use. The returned
// bundle is shared and must be treated as read-only; it never changes after
// a successful load.
func (l *Loader) Bundle() (*Bundle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bundle != nil {
		return l.bundle, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", l.path, err)
	}
	b, err := ReadBundle(data)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", l.path, err)
	}
	l.bundle = b
	return b, nil
}

package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// SurrogateFeatures lists the feature ids a linear surrogate consumes, in
// vector order.
var SurrogateFeatures = []string{
	"flowrate", "temperature", "volume",
	"cod_in", "tss_in", "nh4_in", "no3_in", "po4_in",
	"hrt_hours", "srt_days",
}

// SurrogateTargets lists the quantities a linear surrogate predicts.
var SurrogateTargets = []string{
	"cod", "tss", "nh4", "no3", "po4", "biomass", "cod_removal",
}

// LinearParams is the config shape for surrogate weights: one map per
// target holding feature weights plus an "intercept" entry.
type LinearParams struct {
	Targets map[string]map[string]float64 `mapstructure:"targets"`
}

// Linear is a fitted per-target linear effluent predictor. It carries no
// ODE state; each prediction depends only on the current feature vector.
type Linear struct {
	targets map[string]map[string]float64
}

// NewLinear copies the weight tables.
func NewLinear(targets map[string]map[string]float64) *Linear {
	cp := make(map[string]map[string]float64, len(targets))
	for tgt, w := range targets {
		inner := make(map[string]float64, len(w))
		for k, v := range w {
			inner[k] = v
		}
		cp[tgt] = inner
	}
	return &Linear{targets: cp}
}

// DefaultLinear returns weights fitted to typical municipal secondary
// treatment performance.
func DefaultLinear() *Linear {
	return NewLinear(map[string]map[string]float64{
		"cod":         {"cod_in": 0.06, "intercept": 8},
		"tss":         {"tss_in": 0.04, "intercept": 4},
		"nh4":         {"nh4_in": 0.08, "intercept": 0.3},
		"no3":         {"nh4_in": 0.65, "intercept": 0.2},
		"po4":         {"po4_in": 0.75, "intercept": 0.2},
		"biomass":     {"intercept": 2800},
		"cod_removal": {"intercept": 92},
	})
}

// LinearFromParams overlays per-target weight tables from config on the
// defaults. A target present in the config replaces its default table
// wholesale.
func LinearFromParams(raw map[string]any) (*Linear, error) {
	var p LinearParams
	if err := mapstructure.Decode(raw, &p); err != nil {
		return nil, fmt.Errorf("surrogate: failed to decode params: %w", err)
	}
	l := DefaultLinear()
	for tgt, w := range p.Targets {
		inner := make(map[string]float64, len(w))
		for k, v := range w {
			inner[k] = v
		}
		l.targets[tgt] = inner
	}
	return l, nil
}

// Predict maps a named feature set to predicted targets, clamped
// non-negative.
func (l *Linear) Predict(features map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(l.targets))
	for tgt, w := range l.targets {
		v := w["intercept"]
		for _, f := range SurrogateFeatures {
			if wf, ok := w[f]; ok {
				v += wf * features[f]
			}
		}
		if v < 0 {
			v = 0
		}
		out[tgt] = v
	}
	return out
}

// FeatureVector orders a named feature set for snapshotting.
func FeatureVector(features map[string]float64) []float64 {
	out := make([]float64, len(SurrogateFeatures))
	for i, f := range SurrogateFeatures {
		out[i] = features[f]
	}
	return out
}

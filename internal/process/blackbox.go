package process

import (
	"fmt"
	"sort"

	"github.com/plantsim/plantsim/internal/bus"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/model"
)

// SurrogateSpec describes the tank a fitted model stands in for.
type SurrogateSpec struct {
	Volume  float64 // m3
	SRTDays float64
}

// DefaultSurrogateSpec mirrors the default aeration tank.
func DefaultSurrogateSpec() SurrogateSpec {
	return SurrogateSpec{Volume: 5000, SRTDays: 12}
}

// surrogateInputs are the composition keys feature extraction reads,
// directly or through the composite measures.
var surrogateInputs = map[string]bool{
	"cod": true, "tss": true, "nh4": true, "no3": true, "po4": true,
	"si": true, "ss": true, "xi": true, "xs": true,
	"xbh": true, "xba": true, "xp": true,
	"snh": true, "sno": true,
}

// Surrogate replaces mechanistic kinetics with a fitted model that
// predicts effluent quality directly from inbound features. The
// outbound composition is rebuilt from the prediction.
type Surrogate struct {
	lifecycle

	id   string
	spec SurrogateSpec
	m    *model.Linear

	features map[string]float64
}

func NewSurrogate(id string, spec SurrogateSpec, m *model.Linear) *Surrogate {
	return &Surrogate{id: id, spec: spec, m: m}
}

func (s *Surrogate) ID() string { return s.id }

// Volume returns the represented tank volume in m3.
func (s *Surrogate) Volume() float64 { return s.spec.Volume }

func (s *Surrogate) Init() error {
	if err := s.lifecycle.init(); err != nil {
		return fmt.Errorf("surrogate %s: %w", s.id, err)
	}
	s.features = make(map[string]float64)
	return nil
}

func (s *Surrogate) Step(in flow.State, degenerate bool, t, dt float64) (bus.Emission, Diagnostics, error) {
	if err := s.begin(); err != nil {
		return bus.Emission{}, Diagnostics{}, fmt.Errorf("surrogate %s: %w", s.id, err)
	}

	var dropped []string
	for k := range in.Composition {
		if !surrogateInputs[k] {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)

	diag := Diagnostics{Degenerate: degenerate, DroppedKeys: dropped}

	hrt := 0.0
	if in.Flowrate > 0 {
		hrt = s.spec.Volume / in.Flowrate
		diag.DetentionTime = hrt
	}

	comp := in.Composition
	s.features = map[string]float64{
		"flowrate":    in.Flowrate,
		"temperature": in.Temperature,
		"volume":      s.spec.Volume,
		"cod_in":      model.COD(comp),
		"tss_in":      model.TSS(comp),
		"nh4_in":      keyOr(comp, "nh4", "snh"),
		"no3_in":      keyOr(comp, "no3", "sno"),
		"po4_in":      comp["po4"],
		"hrt_hours":   hrt,
		"srt_days":    s.spec.SRTDays,
	}

	pred := s.m.Predict(s.features)

	out := make(map[string]float64, len(pred))
	diag.Extra = map[string]float64{}
	for k, v := range pred {
		if k == "cod_removal" {
			diag.Extra[k] = v
			continue
		}
		out[k] = v
	}

	eff := flow.State{
		Flowrate:    in.Flowrate,
		Temperature: in.Temperature,
		Composition: out,
	}

	s.end()
	return bus.Emission{Main: eff}, diag, nil
}

// keyOr reads the first key, falling back to the second.
func keyOr(comp map[string]float64, key, alt string) float64 {
	if v, ok := comp[key]; ok && v > 0 {
		return v
	}
	return comp[alt]
}

func (s *Surrogate) Snapshot() model.Snapshot {
	return model.Snapshot{
		Kind:   model.KindFeatures,
		Labels: model.SurrogateFeatures,
		Values: model.FeatureVector(s.features),
	}
}

func (s *Surrogate) Finalize() error {
	if err := s.lifecycle.finalize(); err != nil {
		return fmt.Errorf("surrogate %s: %w", s.id, err)
	}
	return nil
}

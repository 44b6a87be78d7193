package metrics

import (
	"math"
	"testing"

	"github.com/plantsim/plantsim/internal/flow"
)

func TestHRTClipsAndAverages(t *testing.T) {
	h := NewHRT("as1")

	h.Observe(Sample{Node: "as1", Volume: 5000, Inbound: flow.State{Flowrate: 1000}})
	h.Observe(Sample{Node: "as1", Volume: 5000, Inbound: flow.State{Flowrate: 250}})
	if got := h.Value(); math.Abs(got-12.5) > 1e-9 {
		t.Errorf("mean hrt = %f, want 12.5", got)
	}

	h.Reset()
	h.Observe(Sample{Node: "as1", Volume: 5000, Inbound: flow.State{Flowrate: 10000}})
	if got := h.Value(); got != hrtMin {
		t.Errorf("hrt = %f, want clipped to %f", got, hrtMin)
	}
}

func TestHRTIgnoresOtherNodes(t *testing.T) {
	h := NewHRT("as1")
	h.Observe(Sample{Node: "settler1", Volume: 4000, Inbound: flow.State{Flowrate: 1000}})
	if h.Value() != 0 {
		t.Errorf("expected no samples, got %f", h.Value())
	}
}

func TestCODRemoval(t *testing.T) {
	r := NewCODRemoval("settler1")
	r.Observe(Sample{
		Node:     "settler1",
		Influent: flow.State{Composition: map[string]float64{"cod": 500}},
		Outbound: flow.State{Composition: map[string]float64{"cod": 38}},
	})
	if got := r.Value(); math.Abs(got-92.4) > 1e-9 {
		t.Errorf("removal = %f, want 92.4", got)
	}

	r.Reset()
	r.Observe(Sample{
		Node:     "settler1",
		Influent: flow.State{Composition: map[string]float64{"cod": 500}},
		Outbound: flow.State{Composition: map[string]float64{"cod": 600}},
	})
	if got := r.Value(); got != 0 {
		t.Errorf("removal with dirtier effluent = %f, want floor 0", got)
	}

	r.Reset()
	r.Observe(Sample{
		Node:     "settler1",
		Influent: flow.State{Composition: map[string]float64{"cod": 500}},
		Outbound: flow.State{Composition: map[string]float64{"cod": 2}},
	})
	if got := r.Value(); got != removalCap {
		t.Errorf("removal = %f, want capped at %f", got, removalCap)
	}
}

func TestSRTFromWastage(t *testing.T) {
	s := NewSRT("as1")
	s.Observe(Sample{
		Node:       "as1",
		Volume:     5000,
		WasteRatio: 0.01,
		Inbound:    flow.State{Flowrate: 1000},
		Outbound:   flow.State{Composition: map[string]float64{"tss": 3200}},
	})
	want := 5000.0 / (1000 * 0.01 * 24)
	if got := s.Value(); math.Abs(got-want) > 1e-9 {
		t.Errorf("srt = %f, want %f", got, want)
	}
}

func TestSRTFallsBackWhenWashedOut(t *testing.T) {
	s := NewSRT("as1")
	s.Observe(Sample{
		Node:       "as1",
		Volume:     5000,
		WasteRatio: 0.01,
		Inbound:    flow.State{Flowrate: 1000},
		Outbound:   flow.State{Composition: map[string]float64{"tss": 50}},
	})
	if got := s.Value(); got != srtDefault {
		t.Errorf("srt = %f, want design value %f", got, srtDefault)
	}
}

func TestSVI(t *testing.T) {
	v := NewSVI("as1")
	v.Observe(Sample{Node: "as1", Outbound: flow.State{Composition: map[string]float64{"tss": 3000}}})
	if got := v.Value(); math.Abs(got-100) > 1e-9 {
		t.Errorf("svi = %f, want 100", got)
	}

	v.Reset()
	v.Observe(Sample{Node: "as1", Outbound: flow.State{Composition: map[string]float64{"tss": 500}}})
	if got := v.Value(); got != sviMax {
		t.Errorf("svi = %f, want clipped to %f", got, sviMax)
	}

	v.Reset()
	v.Observe(Sample{Node: "as1", Outbound: flow.State{Composition: map[string]float64{"tss": 10}}})
	if got := v.Value(); got != sviDefault {
		t.Errorf("svi = %f, want default %f", got, sviDefault)
	}
}

func TestAerationEnergyPerVolume(t *testing.T) {
	e := NewAerationEnergy("as1")
	for i := 0; i < 10; i++ {
		e.Observe(Sample{
			Node:     "as1",
			Dt:       0.1,
			Influent: flow.State{Composition: map[string]float64{"cod": 500}},
			Inbound:  flow.State{Flowrate: 1000},
			Outbound: flow.State{Composition: map[string]float64{"cod": 100}},
		})
	}
	// 400 g/m3 removed over 1000 m3 of throughput: 400 kg O2, 800 kWh.
	if got := e.Value(); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("specific energy = %f, want 0.8 kWh/m3", got)
	}

	e.Reset()
	if e.Value() != 0 {
		t.Errorf("expected zero after reset, got %f", e.Value())
	}
}

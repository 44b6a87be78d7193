package process

import (
	"fmt"
	"sort"

	"github.com/plantsim/plantsim/internal/bus"
	"github.com/plantsim/plantsim/internal/control"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/fraction"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/solver"
)

// ReactorSpec holds the tank dimensions and operating targets.
type ReactorSpec struct {
	Volume     float64 // m3
	WasteRatio float64 // fraction of throughput wasted, for SRT accounting
}

// DefaultReactorSpec returns a municipal-scale aeration tank.
func DefaultReactorSpec() ReactorSpec {
	return ReactorSpec{Volume: 5000, WasteRatio: 0.01}
}

// Reactor is a completely mixed tank driven by a kinetic model. The
// mass balance is dc/dt = D(c_in - c) + r(c) with the dilution rate D
// in 1/d; the outbound flow carries the tank contents.
type Reactor struct {
	lifecycle

	id       string
	spec     ReactorSpec
	kin      model.Kinetic
	aer      control.Aeration
	integ    solver.Integrator
	substeps int

	components []string
	index      map[string]int
	oxygen     int // index of dissolved oxygen, -1 when the model has none

	state solver.State
	inlet solver.State // inbound concentrations held for the current step
	dil   float64      // dilution rate, 1/d
}

func NewReactor(id string, spec ReactorSpec, kin model.Kinetic, aer control.Aeration,
	integ solver.Integrator, substeps int) *Reactor {

	comps := kin.Components()
	index := make(map[string]int, len(comps))
	for i, c := range comps {
		index[c] = i
	}
	oxygen := -1
	if i, ok := index["so"]; ok {
		oxygen = i
	}
	if substeps < 1 {
		substeps = 1
	}
	return &Reactor{
		id:         id,
		spec:       spec,
		kin:        kin,
		aer:        aer,
		integ:      integ,
		substeps:   substeps,
		components: comps,
		index:      index,
		oxygen:     oxygen,
	}
}

func (r *Reactor) ID() string { return r.id }

// Volume returns the tank volume in m3.
func (r *Reactor) Volume() float64 { return r.spec.Volume }

// WasteRatio returns the fraction of throughput wasted as sludge.
func (r *Reactor) WasteRatio() float64 { return r.spec.WasteRatio }

func (r *Reactor) Init() error {
	if err := r.lifecycle.init(); err != nil {
		return fmt.Errorf("reactor %s: %w", r.id, err)
	}
	r.state = r.kin.Initial()
	if r.oxygen >= 0 {
		r.state[r.oxygen] = r.aer.Setpoint()
	}
	r.aer.Reset()
	return nil
}

func (r *Reactor) Dim() int { return len(r.components) }

// Derive evaluates the mass balance with time in days. When the
// aeration strategy pins dissolved oxygen the kinetic rates see the
// setpoint and the oxygen state is held; otherwise oxygen receives the
// transfer term.
func (r *Reactor) Derive(x solver.State, t float64) solver.State {
	c := x.Clone()
	pinned := false
	if r.oxygen >= 0 {
		if so, ok := r.aer.Clamp(c[r.oxygen]); ok {
			c[r.oxygen] = so
			pinned = true
		}
	}

	d := r.kin.Rates(c)
	for i := range d {
		d[i] += r.dil * (r.inlet[i] - c[i])
	}
	if r.oxygen >= 0 {
		if pinned {
			d[r.oxygen] = 0
		} else {
			d[r.oxygen] += r.aer.OxygenTransfer(c[r.oxygen])
		}
	}
	return d
}

func (r *Reactor) Step(in flow.State, degenerate bool, t, dt float64) (bus.Emission, Diagnostics, error) {
	if err := r.begin(); err != nil {
		return bus.Emission{}, Diagnostics{}, fmt.Errorf("reactor %s: %w", r.id, err)
	}

	inlet, dropped := r.convert(in.Composition)
	r.inlet = inlet

	diag := Diagnostics{Degenerate: degenerate, DroppedKeys: dropped}

	// Zero inflow turns the tank into a batch reactor.
	r.dil = 0
	if in.Flowrate > 0 {
		diag.DetentionTime = r.spec.Volume / in.Flowrate
		r.dil = 24 * in.Flowrate / r.spec.Volume
	}

	tDay := t / 24
	dtDay := dt / 24

	if r.oxygen >= 0 {
		r.aer.Update(r.state[r.oxygen], tDay)
	}

	next, clamps, err := solver.Advance(r.integ, r, r.state, tDay, dtDay, r.substeps)
	if err != nil {
		return bus.Emission{}, diag, fmt.Errorf("reactor %s: %w", r.id, err)
	}
	r.state = next
	if r.oxygen >= 0 {
		if so, ok := r.aer.Clamp(r.state[r.oxygen]); ok {
			r.state[r.oxygen] = so
		}
	}
	diag.Clamps = clamps

	diag.Extra = map[string]float64{"dilution_rate": r.dil}
	if r.oxygen >= 0 {
		diag.Extra["do"] = r.state[r.oxygen]
	}
	if a, ok := r.aer.(interface{ KLa() float64 }); ok {
		diag.Extra["kla"] = a.KLa()
	}

	out := flow.State{
		Flowrate:    in.Flowrate,
		Temperature: in.Temperature,
		Composition: r.composition(),
	}

	r.end()
	return bus.Emission{Main: out}, diag, nil
}

// convert maps a composition onto the kinetic state vector. Raw
// characterisation keys are fractionated and superposed on any state
// variables already present; keys with no slot in the model are
// reported back as dropped.
func (r *Reactor) convert(comp map[string]float64) (solver.State, []string) {
	vec := make(solver.State, len(r.components))
	consumed := make(map[string]bool)

	if raw, ok := fraction.FromComposition(comp); ok {
		for k, v := range fraction.ASM1(raw) {
			if i, ok := r.index[k]; ok {
				vec[i] += v
			}
		}
		for _, k := range fraction.ConsumedKeys(comp) {
			consumed[k] = true
		}
	}

	var dropped []string
	for k, v := range comp {
		if consumed[k] {
			continue
		}
		if i, ok := r.index[k]; ok {
			vec[i] += v
		} else {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)
	return vec, dropped
}

func (r *Reactor) composition() map[string]float64 {
	comp := make(map[string]float64, len(r.components))
	for i, c := range r.components {
		comp[c] = r.state[i]
	}
	return comp
}

func (r *Reactor) Snapshot() model.Snapshot {
	return model.Snapshot{
		Kind:   model.KindKinetic,
		Labels: r.components,
		Values: r.state.Clone(),
	}
}

func (r *Reactor) Finalize() error {
	if err := r.lifecycle.finalize(); err != nil {
		return fmt.Errorf("reactor %s: %w", r.id, err)
	}
	return nil
}

// Package flow defines the state exchanged between process nodes: a
// flowrate, a temperature, and component concentrations. States are treated
// as immutable once published; consumers clone before mutating.
package flow

import (
	"fmt"
	"math"
	"sort"
)

// State is one hydraulic and composition snapshot. Flowrate is in m3/h,
// temperature in degrees C, concentrations in g/m3.
type State struct {
	Flowrate    float64
	Temperature float64
	Composition map[string]float64
}

// New builds a State, rejecting negative flowrate or concentrations.
func New(flowrate, temperature float64, composition map[string]float64) (State, error) {
	if flowrate < 0 {
		return State{}, fmt.Errorf("flow: flowrate must be non-negative, got %f", flowrate)
	}
	comp := make(map[string]float64, len(composition))
	for k, v := range composition {
		if v < 0 {
			return State{}, fmt.Errorf("flow: concentration %q must be non-negative, got %f", k, v)
		}
		comp[k] = v
	}
	return State{Flowrate: flowrate, Temperature: temperature, Composition: comp}, nil
}

// Zero returns a no-flow state with zero concentrations for the given
// components.
func Zero(components []string) State {
	comp := make(map[string]float64, len(components))
	for _, c := range components {
		comp[c] = 0
	}
	return State{Composition: comp}
}

// Clone deep-copies the state so the original stays untouched.
func (s State) Clone() State {
	comp := make(map[string]float64, len(s.Composition))
	for k, v := range s.Composition {
		comp[k] = v
	}
	return State{Flowrate: s.Flowrate, Temperature: s.Temperature, Composition: comp}
}

// Get returns the concentration of a component, zero when absent.
func (s State) Get(key string) float64 { return s.Composition[key] }

// Keys returns the component ids in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.Composition))
	for k := range s.Composition {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValid reports whether flowrate, temperature, and all concentrations are
// finite.
func (s State) IsValid() bool {
	if math.IsNaN(s.Flowrate) || math.IsInf(s.Flowrate, 0) {
		return false
	}
	if math.IsNaN(s.Temperature) || math.IsInf(s.Temperature, 0) {
		return false
	}
	for _, v := range s.Composition {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Contribution is one weighted inflow to a mixing point. Fraction is the
// share of the source flow routed here.
type Contribution struct {
	State    State
	Fraction float64
}

// Mix combines contributions by flow-weighted averaging so that component
// mass is conserved: the mixed flowrate is the sum of weighted inflows and
// each concentration is the mass-weighted mean over the union of component
// ids. The bool is the degenerate-flow flag: when total inflow is zero the
// result carries zero flow and all-zero concentrations.
func Mix(inputs []Contribution) (State, bool) {
	comp := make(map[string]float64)
	for _, in := range inputs {
		for k := range in.State.Composition {
			comp[k] = 0
		}
	}

	total := 0.0
	for _, in := range inputs {
		total += in.State.Flowrate * in.Fraction
	}
	if total <= 0 {
		out := State{Composition: comp}
		if len(inputs) > 0 {
			out.Temperature = inputs[0].State.Temperature
		}
		return out, true
	}

	temp := 0.0
	for _, in := range inputs {
		q := in.State.Flowrate * in.Fraction
		if q <= 0 {
			continue
		}
		temp += q * in.State.Temperature
		for k, v := range in.State.Composition {
			comp[k] += q * v
		}
	}
	for k := range comp {
		comp[k] /= total
	}
	return State{Flowrate: total, Temperature: temp / total, Composition: comp}, false
}

// Package sim drives a plant network across a simulated time window:
// it publishes the influent, steps every node in execution order,
// accumulates the run history and evaluates performance indicators.
package sim

import (
	"math"

	"github.com/plantsim/plantsim/internal/flow"
)

// InfluentFunc returns the plant inflow at absolute time t in hours.
type InfluentFunc func(t float64) flow.State

// Constant feeds the same state at every step.
func Constant(s flow.State) InfluentFunc {
	base := s.Clone()
	return func(float64) flow.State { return base }
}

// Diurnal modulates the base flowrate with a 24 h sine wave of the
// given relative amplitude, peaking six hours in. Concentrations stay
// fixed, so component mass flux follows the hydraulic wave.
func Diurnal(s flow.State, amplitude float64) InfluentFunc {
	base := s.Clone()
	return func(t float64) flow.State {
		out := base.Clone()
		out.Flowrate = base.Flowrate * (1 + amplitude*math.Sin(2*math.Pi*t/24))
		if out.Flowrate < 0 {
			out.Flowrate = 0
		}
		return out
	}
}

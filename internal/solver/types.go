// Package solver provides the numeric integration layer: state vectors,
// fixed-step integrators, and span integration with concentration clamping.
package solver

import "math"

// State is a dense vector of model quantities; the kinetic models use g/m3.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(o State) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i] + o[i]
	}
	return out
}

func (s State) Sub(o State) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i] - o[i]
	}
	return out
}

func (s State) Scale(f float64) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i] * f
	}
	return out
}

// Norm returns the Euclidean norm.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is a first-order ODE right-hand side.
type System interface {
	// Derive returns dx/dt at state x and time t.
	Derive(x State, t float64) State
	// Dim returns the state dimension.
	Dim() int
}

// Integrator advances a system state by one fixed step.
type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator additionally estimates local error and proposes the
// next step size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

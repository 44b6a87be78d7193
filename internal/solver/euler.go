package solver

// Euler is the explicit first-order scheme, O(dt) accurate. Cheap enough
// for scouting runs and the baseline in convergence comparisons.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(sys System, x State, t, dt float64) State {
	dx := sys.Derive(x, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

package solver

// Clamp records one negative entry zeroed after an integration substep.
// Magnitude is how far below zero the entry landed.
type Clamp struct {
	Index     int
	Magnitude float64
}

// Advance integrates sys over [t, t+dt] in equal substeps. After every
// substep negative entries are clamped to zero and recorded; concentrations
// never go negative past this point. A non-finite state aborts with a
// DivergedError carrying the state that failed.
func Advance(integ Integrator, sys System, x State, t, dt float64, substeps int) (State, []Clamp, error) {
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float64(substeps)

	cur := x.Clone()
	var clamps []Clamp
	for i := 0; i < substeps; i++ {
		ts := t + float64(i)*h
		next := integ.Step(sys, cur, ts, h)
		if !next.IsValid() {
			return cur, clamps, &DivergedError{Time: ts + h, State: next}
		}
		for j, v := range next {
			if v < 0 {
				clamps = append(clamps, Clamp{Index: j, Magnitude: -v})
				next[j] = 0
			}
		}
		cur = next
	}
	return cur, clamps, nil
}

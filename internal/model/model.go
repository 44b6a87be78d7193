// Package model holds the process models a node can run: ASM1
// activated-sludge kinetics, Takacs settling, and a fitted linear surrogate.
package model

import "github.com/plantsim/plantsim/internal/solver"

// SnapshotKind tags the shape of a node's internal state.
type SnapshotKind string

const (
	// KindKinetic is a concentration vector in model component order.
	KindKinetic SnapshotKind = "kinetic"
	// KindLayered is a settler concentration profile, surface layer first.
	KindLayered SnapshotKind = "layered"
	// KindFeatures is the feature vector a surrogate last predicted from.
	KindFeatures SnapshotKind = "features"
)

// Snapshot is a labeled copy of a node's internal state at one timestep.
type Snapshot struct {
	Kind   SnapshotKind
	Labels []string
	Values []float64
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Kind:   s.Kind,
		Labels: append([]string(nil), s.Labels...),
		Values: append([]float64(nil), s.Values...),
	}
}

// Value returns the entry for a label, false when absent.
func (s Snapshot) Value(label string) (float64, bool) {
	for i, l := range s.Labels {
		if l == label {
			return s.Values[i], true
		}
	}
	return 0, false
}

// Kinetic is a reaction model over a fixed component vector.
type Kinetic interface {
	// Components returns the component ids in state-vector order.
	Components() []string
	// Rates returns reaction rates in g/m3/d at the given state.
	Rates(x solver.State) solver.State
	// Initial returns a typical startup state for a tank of this model.
	Initial() solver.State
}

package metrics

import "github.com/plantsim/plantsim/internal/model"

// Empirical sludge volume index bounds, mL/g.
const (
	sviMin     = 50.0
	sviMax     = 300.0
	sviDefault = 120.0
)

// SVI estimates the sludge volume index of a reactor from its mixed
// liquor concentration, mL/g.
type SVI struct {
	name    string
	node    string
	sum     float64
	samples int
}

func NewSVI(node string) *SVI {
	return &SVI{name: "svi", node: node}
}

func (v *SVI) Name() string { return v.name }

func (v *SVI) Observe(s Sample) {
	if s.Node != v.node {
		return
	}
	mlss := model.TSS(s.Outbound.Composition)

	svi := sviDefault
	if mlss > mlssFloor {
		svi = clip(300/(mlss/1000), sviMin, sviMax)
	}
	v.sum += svi
	v.samples++
}

func (v *SVI) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return v.sum / float64(v.samples)
}

func (v *SVI) Reset() {
	v.sum = 0
	v.samples = 0
}

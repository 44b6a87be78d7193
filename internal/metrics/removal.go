package metrics

import "github.com/plantsim/plantsim/internal/model"

// Removal above this level is not credible for a conventional plant.
const removalCap = 98.0

// CODRemoval reports the mean COD removal from plant influent to a
// node's outflow, percent.
type CODRemoval struct {
	name    string
	node    string
	sum     float64
	samples int
}

func NewCODRemoval(node string) *CODRemoval {
	return &CODRemoval{name: "cod_removal", node: node}
}

func (r *CODRemoval) Name() string { return r.name }

func (r *CODRemoval) Observe(s Sample) {
	if s.Node != r.node {
		return
	}
	in := model.COD(s.Influent.Composition)
	if in <= 0 {
		r.samples++
		return
	}
	out := model.COD(s.Outbound.Composition)
	pct := (in - out) / in * 100
	if pct < 0 {
		pct = 0
	}
	if pct > removalCap {
		pct = removalCap
	}
	r.sum += pct
	r.samples++
}

func (r *CODRemoval) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *CODRemoval) Reset() {
	r.sum = 0
	r.samples = 0
}

package metrics

import "github.com/plantsim/plantsim/internal/model"

// Aeration energy per kg of oxygen transferred, kWh/kgO2.
const energyPerKgO2 = 2.0

// AerationEnergy estimates specific aeration energy in kWh per m3
// treated. Oxygen demand is taken as the COD destroyed between plant
// influent and the watched node's outflow.
type AerationEnergy struct {
	name   string
	node   string
	kwh    float64
	volume float64
}

func NewAerationEnergy(node string) *AerationEnergy {
	return &AerationEnergy{name: "energy_kwh_m3", node: node}
}

func (e *AerationEnergy) Name() string { return e.name }

func (e *AerationEnergy) Observe(s Sample) {
	if s.Node != e.node {
		return
	}
	q := s.Inbound.Flowrate
	if q <= 0 || s.Dt <= 0 {
		return
	}
	in := model.COD(s.Influent.Composition)
	out := model.COD(s.Outbound.Composition)
	removed := in - out
	if removed < 0 {
		removed = 0
	}

	o2kg := removed * q * s.Dt / 1000
	e.kwh += energyPerKgO2 * o2kg
	e.volume += q * s.Dt
}

func (e *AerationEnergy) Value() float64 {
	if e.volume == 0 {
		return 0
	}
	return e.kwh / e.volume
}

func (e *AerationEnergy) Reset() {
	e.kwh = 0
	e.volume = 0
}

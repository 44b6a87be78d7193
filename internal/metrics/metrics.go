// Package metrics computes plant performance indicators from per-step
// node observations: hydraulic and sludge retention, COD removal,
// sludge volume index and aeration energy.
package metrics

import "github.com/plantsim/plantsim/internal/flow"

// Sample is one node-step observation. Influent is the plant inflow
// for the step; Inbound and Outbound are the watched node's mixed
// inflow and main outflow. Volume and WasteRatio are zero for nodes
// without a tank.
type Sample struct {
	Node       string
	Time       float64 // h
	Dt         float64 // h
	Influent   flow.State
	Inbound    flow.State
	Outbound   flow.State
	Volume     float64 // m3
	WasteRatio float64
}

// KPI accumulates one indicator over a run.
type KPI interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

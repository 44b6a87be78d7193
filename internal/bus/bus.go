// Package bus carries node outputs across a simulation step and mixes the
// inbound feed for each consumer.
package bus

import (
	"errors"
	"fmt"

	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/graph"
)

// Domain errors for bus operations.
var (
	// ErrDoublePublish is returned when a node publishes twice in one step.
	ErrDoublePublish = errors.New("bus: node already published this step")
	// ErrNotPublished is returned when a node reads before its upstream
	// published for the current step.
	ErrNotPublished = errors.New("bus: upstream not yet published")
)

// Emission is one node's output for a timestep. Recycle, when set, is the
// stream recycle edges draw from (a settler underflow); nodes with a single
// outlet leave it nil and recycle edges fall back to Main.
type Emission struct {
	Main    flow.State
	Recycle *flow.State
}

func (e Emission) clone() Emission {
	out := Emission{Main: e.Main.Clone()}
	if e.Recycle != nil {
		r := e.Recycle.Clone()
		out.Recycle = &r
	}
	return out
}

func (e Emission) recycleStream() flow.State {
	if e.Recycle != nil {
		return *e.Recycle
	}
	return e.Main
}

// Bus holds current- and previous-step emissions for every node. Recycle
// edges read the previous step; that one-step lag is what breaks feedback
// loops, so a change upstream reaches the loop on the following timestep.
type Bus struct {
	g    *graph.Graph
	seed flow.State
	prev map[string]Emission
	curr map[string]Emission
	step int
}

// New builds a bus over the graph. seed is what recycle reads return on
// the first step, before any upstream output exists; a zero-flow state is
// the usual choice.
func New(g *graph.Graph, seed flow.State) *Bus {
	return &Bus{
		g:    g,
		seed: seed.Clone(),
		prev: make(map[string]Emission),
		curr: make(map[string]Emission),
	}
}

// Publish records a node's output for the current step, exactly once per
// node per step. The emission is cloned on the way in.
func (b *Bus) Publish(node string, e Emission) error {
	if _, ok := b.curr[node]; ok {
		return fmt.Errorf("%w: %s at step %d", ErrDoublePublish, node, b.step)
	}
	b.curr[node] = e.clone()
	return nil
}

// Published reports whether node already published this step.
func (b *Bus) Published(node string) bool {
	_, ok := b.curr[node]
	return ok
}

// ReadInbound mixes everything feeding a node: current-step outputs over
// forward edges, previous-step outputs over recycle edges. The bool is the
// degenerate-flow flag, set when total inflow is zero.
func (b *Bus) ReadInbound(node string) (flow.State, bool, error) {
	var ins []flow.Contribution
	for _, e := range b.g.Inbound(node) {
		if e.Recycle {
			ins = append(ins, flow.Contribution{State: b.lagged(e.Source), Fraction: e.Fraction})
			continue
		}
		em, ok := b.curr[e.Source]
		if !ok {
			return flow.State{}, false, fmt.Errorf("%w: %s reads %s", ErrNotPublished, node, e.Source)
		}
		ins = append(ins, flow.Contribution{State: em.Main, Fraction: e.Fraction})
	}
	mixed, degenerate := flow.Mix(ins)
	return mixed, degenerate, nil
}

// ReadRecycle returns the lagged stream for one recycle edge with its
// flowrate scaled by the edge fraction. ReadInbound already folds recycle
// edges in; this is for inspecting a single loop.
func (b *Bus) ReadRecycle(e graph.Edge) flow.State {
	out := b.lagged(e.Source).Clone()
	out.Flowrate *= e.Fraction
	return out
}

func (b *Bus) lagged(source string) flow.State {
	if em, ok := b.prev[source]; ok {
		return em.recycleStream()
	}
	return b.seed
}

// Advance rolls the step boundary: current emissions become the lagged
// values and a fresh step begins.
func (b *Bus) Advance() {
	b.prev = b.curr
	b.curr = make(map[string]Emission)
	b.step++
}

// Step returns the current timestep index.
func (b *Bus) Step() int { return b.step }

// Package graph builds the directed process network and derives the
// per-step execution order.
package graph

import (
	"errors"
	"fmt"
)

// Influent is the id of the virtual source node feeding the network. It is
// never declared by callers and is always first in the execution order.
const Influent = "influent"

// Domain errors for network construction.
var (
	// ErrCyclic is returned when the non-recycle subgraph contains a cycle.
	ErrCyclic = errors.New("graph: cycle among non-recycle edges")
	// ErrUnknownNode is returned when an edge references an undeclared node.
	ErrUnknownNode = errors.New("graph: unknown node reference")
	// ErrNoEdges is returned for a multi-node network declared without any
	// edges; the intended routing would be ambiguous.
	ErrNoEdges = errors.New("graph: multi-node network without edges")
)

// Edge routes a fraction of the source node's output to a target node.
// Recycle edges feed back against the main flow direction and are excluded
// from ordering.
type Edge struct {
	Source   string
	Target   string
	Fraction float64
	Recycle  bool
}

// Graph is the validated process network. Immutable after Build; all
// accessors return copies.
type Graph struct {
	nodes   []string
	edges   []Edge
	order   []string
	inbound map[string][]Edge
}

// Build validates nodes and edges and computes the execution order. Edges
// may name Influent as a source; targeting it is an error.
func Build(nodes []string, edges []Edge) (*Graph, error) {
	seen := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		if id == "" {
			return nil, fmt.Errorf("graph: empty node id")
		}
		if id == Influent {
			return nil, fmt.Errorf("graph: node id %q is reserved", Influent)
		}
		if seen[id] {
			return nil, fmt.Errorf("graph: duplicate node id %q", id)
		}
		seen[id] = true
	}

	if len(nodes) > 1 && len(edges) == 0 {
		return nil, fmt.Errorf("%w: %d nodes declared", ErrNoEdges, len(nodes))
	}

	g := &Graph{
		nodes:   append([]string(nil), nodes...),
		edges:   append([]Edge(nil), edges...),
		inbound: make(map[string][]Edge),
	}

	for _, e := range g.edges {
		if e.Source != Influent && !seen[e.Source] {
			return nil, fmt.Errorf("%w: edge source %q", ErrUnknownNode, e.Source)
		}
		if e.Target == Influent {
			return nil, fmt.Errorf("graph: edges may not target %q", Influent)
		}
		if !seen[e.Target] {
			return nil, fmt.Errorf("%w: edge target %q", ErrUnknownNode, e.Target)
		}
		if e.Source == e.Target {
			return nil, fmt.Errorf("graph: self-loop on %q", e.Source)
		}
		if e.Fraction <= 0 || e.Fraction > 1 {
			return nil, fmt.Errorf("graph: edge %s->%s fraction must be in (0,1], got %f", e.Source, e.Target, e.Fraction)
		}
		g.inbound[e.Target] = append(g.inbound[e.Target], e)
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// sort runs Kahn's algorithm over the non-recycle subgraph. Ties are broken
// by declaration order so the result is stable across runs.
func (g *Graph) sort() ([]string, error) {
	indeg := make(map[string]int, len(g.nodes))
	out := make(map[string][]string)
	for _, e := range g.edges {
		if e.Recycle || e.Source == Influent {
			continue
		}
		indeg[e.Target]++
		out[e.Source] = append(out[e.Source], e.Target)
	}

	order := make([]string, 0, len(g.nodes)+1)
	order = append(order, Influent)
	done := make(map[string]bool, len(g.nodes))

	for len(order) < len(g.nodes)+1 {
		next := ""
		for _, id := range g.nodes {
			if !done[id] && indeg[id] == 0 {
				next = id
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("%w: %d nodes unordered", ErrCyclic, len(g.nodes)-len(done))
		}
		done[next] = true
		order = append(order, next)
		for _, tgt := range out[next] {
			indeg[tgt]--
		}
	}
	return order, nil
}

// Order returns the execution order, Influent first.
func (g *Graph) Order() []string { return append([]string(nil), g.order...) }

// Nodes returns the declared node ids in declaration order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.nodes...) }

// Edges returns every edge.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Inbound returns the edges feeding a node, recycle edges included.
func (g *Graph) Inbound(id string) []Edge {
	return append([]Edge(nil), g.inbound[id]...)
}

// HasNode reports whether id was declared.
func (g *Graph) HasNode(id string) bool {
	for _, n := range g.nodes {
		if n == id {
			return true
		}
	}
	return false
}

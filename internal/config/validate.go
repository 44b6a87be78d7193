package config

import (
	"fmt"
	"sort"
)

// Validate checks structural soundness: the simulation window, node
// identifiers and edge endpoints. Graph-level checks such as cycle
// detection happen when the network is built.
func (c *Config) Validate() error {
	if c.Time.End <= c.Time.Start {
		return fmt.Errorf("config: end time %.2f must exceed start %.2f", c.Time.End, c.Time.Start)
	}
	if c.Time.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %.4f", c.Time.Dt)
	}
	if c.Influent.Flowrate < 0 {
		return fmt.Errorf("config: influent flowrate must not be negative, got %.2f", c.Influent.Flowrate)
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("config: at least one node is required")
	}

	ids := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("config: node with empty id")
		}
		if n.ID == "influent" {
			return fmt.Errorf("config: node id %q is reserved", n.ID)
		}
		if ids[n.ID] {
			return fmt.Errorf("config: duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		if n.Kind == "" {
			return fmt.Errorf("config: node %s has no kind", n.ID)
		}
	}

	for _, e := range c.Edges {
		if e.Source != "influent" && !ids[e.Source] {
			return fmt.Errorf("config: edge source %q is not a node", e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("config: edge target %q is not a node", e.Target)
		}
		if e.Fraction <= 0 || e.Fraction > 1 {
			return fmt.Errorf("config: edge %s->%s fraction %.3f outside (0, 1]",
				e.Source, e.Target, e.Fraction)
		}
	}
	return nil
}

// Warnings reports suspicious but runnable layouts: forward splits
// handing out more than the full outflow, and nodes nothing feeds.
func (c *Config) Warnings() []string {
	var warns []string

	forward := make(map[string]float64)
	inbound := make(map[string]bool)
	for _, e := range c.Edges {
		if !e.Recycle {
			forward[e.Source] += e.Fraction
		}
		inbound[e.Target] = true
	}
	for src, sum := range forward {
		if sum > 1.01 {
			warns = append(warns, fmt.Sprintf(
				"node %s hands out %.0f%% of its outflow across forward edges", src, sum*100))
		}
	}
	for _, n := range c.Nodes {
		if !inbound[n.ID] {
			warns = append(warns, fmt.Sprintf(
				"node %s has no inbound edge and will see zero inflow", n.ID))
		}
	}

	sort.Strings(warns)
	return warns
}

package sim

import (
	"fmt"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/graph"
	"github.com/plantsim/plantsim/internal/metrics"
	"github.com/plantsim/plantsim/internal/process"
	"github.com/plantsim/plantsim/internal/registry"
)

// BuildNetwork assembles the runnable network a config describes,
// constructing each node through the registry. The config should be
// normalized and validated first.
func BuildNetwork(cfg *config.Config, reg *registry.Registry) (Network, error) {
	integ, err := reg.GetIntegrator(cfg.Solver.Method)
	if err != nil {
		return Network{}, err
	}

	ids := make([]string, 0, len(cfg.Nodes))
	nodes := make(map[string]process.Node, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		node, err := reg.Build(nc, integ, cfg.Solver.Substeps)
		if err != nil {
			return Network{}, fmt.Errorf("sim: node %s: %w", nc.ID, err)
		}
		ids = append(ids, nc.ID)
		nodes[nc.ID] = node
	}

	edges := make([]graph.Edge, len(cfg.Edges))
	for i, ec := range cfg.Edges {
		edges[i] = graph.Edge{
			Source:   ec.Source,
			Target:   ec.Target,
			Fraction: ec.Fraction,
			Recycle:  ec.Recycle,
		}
	}
	g, err := graph.Build(ids, edges)
	if err != nil {
		return Network{}, err
	}

	in, err := flow.New(cfg.Influent.Flowrate, cfg.Influent.Temperature, cfg.Influent.Composition())
	if err != nil {
		return Network{}, err
	}
	influent := Constant(in)
	if cfg.Influent.Diurnal > 0 {
		influent = Diurnal(in, cfg.Influent.Diurnal)
	}

	return Network{Graph: g, Nodes: nodes, Influent: influent, Seed: flow.Zero(nil)}, nil
}

// Window extracts the run window from a config.
func Window(cfg *config.Config) Config {
	return Config{Start: cfg.Time.Start, End: cfg.Time.End, Dt: cfg.Time.Dt}
}

// DefaultKPIs watches the first reactor in execution order for
// retention and sludge indicators, and the final node for effluent
// quality and aeration energy.
func DefaultKPIs(net Network) []metrics.KPI {
	order := net.Graph.Order()
	var kpis []metrics.KPI
	for _, id := range order[1:] {
		if _, ok := net.Nodes[id].(*process.Reactor); ok {
			kpis = append(kpis, metrics.NewHRT(id), metrics.NewSRT(id), metrics.NewSVI(id))
			break
		}
	}
	if last := order[len(order)-1]; last != graph.Influent {
		kpis = append(kpis, metrics.NewCODRemoval(last), metrics.NewAerationEnergy(last))
	}
	return kpis
}

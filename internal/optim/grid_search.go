// Package optim calibrates model coefficients against measured
// effluent quality by exhaustive grid search over candidate values.
package optim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/registry"
	"github.com/plantsim/plantsim/internal/sim"
)

// Objective scores a completed run; lower is better.
type Objective func(*sim.Result) float64

// EffluentTarget scores a run by the squared distance between a node's
// final composition and the given target concentrations.
func EffluentTarget(node string, targets map[string]float64) Objective {
	return func(res *sim.Result) float64 {
		last, ok := res.History.Last(node)
		if !ok {
			return math.Inf(1)
		}
		score := 0.0
		for key, want := range targets {
			d := last.Flow.Get(key) - want
			score += d * d
		}
		return score
	}
}

// GridSearch sweeps model coefficients of one node over a cartesian
// grid of candidate values.
type GridSearch struct {
	node       string
	paramNames []string
	ranges     [][]float64
	log        *slog.Logger
}

// NewGridSearch prepares a sweep of the named node's params. ranges[i]
// lists the candidate values for paramNames[i].
func NewGridSearch(node string, params []string, ranges [][]float64, logger *slog.Logger) *GridSearch {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GridSearch{node: node, paramNames: params, ranges: ranges, log: logger}
}

// Search runs the base layout once per grid point and returns the
// param set with the best objective value. Candidates whose run fails
// are skipped; an error is returned only when no candidate completes.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *registry.Registry, objective Objective) (map[string]float64, float64, error) {
	nodeIdx := -1
	for i, n := range base.Nodes {
		if n.ID == g.node {
			nodeIdx = i
			break
		}
	}
	if nodeIdx < 0 {
		return nil, 0, fmt.Errorf("optim: no node %s in layout", g.node)
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), base, nodeIdx, reg, objective, &best, &bestParams)

	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no candidate completed for node %s", g.node)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	nodeIdx int,
	reg *registry.Registry,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		val, err := g.evaluate(ctx, current, base, nodeIdx, reg, objective)
		if err != nil {
			g.log.Warn("candidate failed", "params", current, "error", err)
			return
		}
		g.log.Info("candidate scored", "params", current, "score", val)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.searchRecursive(ctx, depth+1, next, base, nodeIdx, reg, objective, best, bestParams)
	}
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, nodeIdx int, reg *registry.Registry, objective Objective) (float64, error) {
	cfg := base.Clone()
	node := &cfg.Nodes[nodeIdx]
	if node.Params == nil {
		node.Params = make(map[string]any, len(params))
	}
	for k, v := range params {
		node.Params[k] = v
	}

	net, err := sim.BuildNetwork(cfg, reg)
	if err != nil {
		return 0, err
	}
	res, err := sim.New(net, nil, g.log).Run(ctx, sim.Window(cfg))
	if err != nil {
		return 0, err
	}
	return objective(res), nil
}

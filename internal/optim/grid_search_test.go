package optim

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/registry"
	"github.com/plantsim/plantsim/internal/sim"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func shortReactorConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Time.End = 1.0
	return cfg
}

func TestSearchSweepsGrid(t *testing.T) {
	var scores []float64
	objective := func(res *sim.Result) float64 {
		// Reward faster substrate removal.
		last, ok := res.History.Last("as1")
		if !ok {
			return math.Inf(1)
		}
		s := last.Flow.Get("ss")
		scores = append(scores, s)
		return s
	}

	gs := NewGridSearch("as1", []string{"mu_h"}, [][]float64{{2.0, 6.0, 10.0}}, nil)
	best, score, err := gs.Search(context.Background(), shortReactorConfig(), registry.NewRegistry(), objective)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("evaluated %d candidates, want 3", len(scores))
	}
	min := math.Inf(1)
	for _, s := range scores {
		if s < min {
			min = s
		}
	}
	if score != min {
		t.Errorf("score = %f, want grid minimum %f", score, min)
	}
	if _, ok := best["mu_h"]; !ok {
		t.Errorf("best params missing mu_h: %v", best)
	}
}

func TestSearchUnknownNode(t *testing.T) {
	gs := NewGridSearch("nope", []string{"mu_h"}, [][]float64{{1}}, nil)
	_, _, err := gs.Search(context.Background(), shortReactorConfig(), registry.NewRegistry(), EffluentTarget("nope", nil))
	if err == nil {
		t.Fatal("expected error for unknown node")
	}
}

func TestSearchFailsWhenNoCandidateCompletes(t *testing.T) {
	cfg := shortReactorConfig()
	cfg.Time.End = 1.05 // not a whole multiple of dt, every run rejects it

	gs := NewGridSearch("as1", []string{"mu_h"}, [][]float64{{6.0}}, nil)
	_, _, err := gs.Search(context.Background(), cfg, registry.NewRegistry(), EffluentTarget("as1", nil))
	if err == nil {
		t.Fatal("expected error when all candidates fail")
	}
}

func TestEffluentTargetScoresDistance(t *testing.T) {
	cfg := shortReactorConfig()
	net, err := sim.BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	res, err := sim.New(net, nil, discard).Run(context.Background(), sim.Window(cfg))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	last, ok := res.History.Last("as1")
	if !ok {
		t.Fatal("no record for as1")
	}
	exact := EffluentTarget("as1", map[string]float64{"snh": last.Flow.Get("snh")})
	if got := exact(res); got != 0 {
		t.Errorf("exact target score = %f, want 0", got)
	}
	off := EffluentTarget("as1", map[string]float64{"snh": last.Flow.Get("snh") + 2})
	if got := off(res); math.Abs(got-4) > 1e-9 {
		t.Errorf("offset target score = %f, want 4", got)
	}
}

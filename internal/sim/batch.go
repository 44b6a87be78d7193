package sim

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/registry"
)

// Batch runs several plant layouts concurrently. Every run builds its
// own network, so nothing is shared between workers.
type Batch struct {
	reg     *registry.Registry
	workers int
	log     *slog.Logger
}

// NewBatch sizes the worker pool; workers < 1 means one per CPU. A nil
// logger falls back to slog.Default().
func NewBatch(reg *registry.Registry, workers int, logger *slog.Logger) *Batch {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{reg: reg, workers: workers, log: logger}
}

// Run simulates every config. Results and errors line up with the
// input slice: a failed run leaves its error in the matching slot,
// with whatever partial result the run produced.
func (b *Batch) Run(ctx context.Context, cfgs []*config.Config) ([]*Result, []error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	sem := make(chan struct{}, b.workers)
	var wg sync.WaitGroup
	for i := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			net, err := BuildNetwork(cfg, b.reg)
			if err != nil {
				errs[idx] = err
				return
			}
			orch := New(net, DefaultKPIs(net), b.log)
			results[idx], errs[idx] = orch.Run(ctx, Window(cfg))
		}(i, cfgs[i])
	}
	wg.Wait()
	return results, errs
}

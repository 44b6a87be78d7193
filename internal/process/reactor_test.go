package process

import (
	"errors"
	"slices"
	"testing"

	"github.com/plantsim/plantsim/internal/control"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/solver"
)

func newTestReactor() *Reactor {
	// Four substeps keep the stiff substrate balance inside the
	// stable region at dt=0.1h.
	return NewReactor("as1", DefaultReactorSpec(),
		model.NewASM1(model.DefaultASM1Params()),
		control.NewFixedDO(2.0),
		solver.NewRK4(), 4)
}

func urbanInfluent() map[string]float64 {
	return map[string]float64{
		"cod": 500, "tss": 250, "tkn": 40,
		"nh4": 28, "no3": 0.5, "po4": 8, "alkalinity": 6,
	}
}

func TestReactorStepBeforeInit(t *testing.T) {
	r := newTestReactor()
	in := mustFlow(t, 1000, 20, urbanInfluent())

	_, _, err := r.Step(in, false, 0, 0.1)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestReactorInitOnce(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := r.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestReactorFractionatesRawInfluent(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := mustFlow(t, 1000, 20, urbanInfluent())

	em, diag, err := r.Step(in, false, 0, 0.1)
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	if slices.Contains(diag.DroppedKeys, "cod") {
		t.Error("cod should be fractionated, not dropped")
	}
	if !slices.Contains(diag.DroppedKeys, "po4") {
		t.Errorf("po4 has no state variable and should be dropped, got %v", diag.DroppedKeys)
	}
	if diag.DetentionTime != 5.0 {
		t.Errorf("detention = %f h, want 5", diag.DetentionTime)
	}
	if em.Main.Flowrate != 1000 {
		t.Errorf("outbound flowrate = %f, want passthrough 1000", em.Main.Flowrate)
	}
	if em.Recycle != nil {
		t.Error("reactor should emit a single stream")
	}
}

func TestReactorHoldsDissolvedOxygen(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := mustFlow(t, 1000, 20, urbanInfluent())

	for i := 0; i < 10; i++ {
		if _, _, err := r.Step(in, false, float64(i)*0.1, 0.1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snap := r.Snapshot()
	so, ok := snap.Value("so")
	if !ok {
		t.Fatal("snapshot has no oxygen entry")
	}
	if so != 2.0 {
		t.Errorf("so = %f, want pinned setpoint 2.0", so)
	}
}

func TestReactorConsumesSubstrate(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := mustFlow(t, 1000, 20, urbanInfluent())

	for i := 0; i < 24; i++ {
		if _, _, err := r.Step(in, false, float64(i)*0.1, 0.1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snap := r.Snapshot()
	ss, _ := snap.Value("ss")
	if ss <= 0 || ss >= 2 {
		t.Errorf("ss = %f, want readily biodegradable substrate drawn below 2", ss)
	}
	for i, v := range snap.Values {
		if v < 0 {
			t.Errorf("component %s went negative: %f", snap.Labels[i], v)
		}
	}
}

func TestReactorBatchDecayOnZeroInflow(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	zero := mustFlow(t, 0, 20, map[string]float64{})

	before, _ := r.Snapshot().Value("xbh")
	for i := 0; i < 48; i++ {
		_, diag, err := r.Step(zero, true, float64(i)*0.1, 0.1)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !diag.Degenerate {
			t.Fatal("degenerate flag should propagate")
		}
		if diag.DetentionTime != 0 {
			t.Fatalf("detention under zero inflow = %f, want 0", diag.DetentionTime)
		}
	}
	after, _ := r.Snapshot().Value("xbh")

	if after >= before {
		t.Errorf("heterotrophs should decay without feed: %f -> %f", before, after)
	}
}

func TestReactorFinalizeEndsStepping(t *testing.T) {
	r := newTestReactor()
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := r.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	in := mustFlow(t, 1000, 20, urbanInfluent())
	_, _, err := r.Step(in, false, 0, 0.1)
	if !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
}

package solver

import (
	"math"
	"testing"
)

func TestRK45FixedStepAccuracy(t *testing.T) {
	exact := math.Exp(-2.0)
	got := integrateDecay(NewRK45(), 2.0, 20)

	if math.Abs(got-exact) > 1e-8 {
		t.Errorf("rk45 error too large: got %.12f, expected %.12f", got, exact)
	}
}

func TestRK45AdaptiveGrowsStepWhenAccurate(t *testing.T) {
	sys := decay{k: 0.1, n: 1}

	_, dtNew, err := NewRK45().StepAdaptive(sys, State{1.0}, 0, 1e-4, 1e-6)
	if err != nil {
		t.Fatalf("adaptive step failed: %v", err)
	}
	if dtNew <= 1e-4 {
		t.Errorf("expected a larger proposed step for a near-linear system, got %g", dtNew)
	}
}

func TestRK45AdaptiveShrinksStepWhenCoarse(t *testing.T) {
	sys := decay{k: 50, n: 1}

	_, dtNew, err := NewRK45().StepAdaptive(sys, State{1.0}, 0, 0.5, 1e-10)
	if err != nil {
		t.Fatalf("adaptive step failed: %v", err)
	}
	if dtNew >= 0.5 {
		t.Errorf("expected a smaller proposed step under a tight tolerance, got %g", dtNew)
	}
}

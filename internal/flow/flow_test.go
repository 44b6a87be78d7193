package flow

import (
	"math"
	"testing"
)

func TestNewRejectsNegativeValues(t *testing.T) {
	if _, err := New(-1, 20, nil); err == nil {
		t.Error("expected error for negative flowrate")
	}
	if _, err := New(10, 20, map[string]float64{"cod": -5}); err == nil {
		t.Error("expected error for negative concentration")
	}
}

func TestCloneIndependence(t *testing.T) {
	s, err := New(100, 20, map[string]float64{"cod": 500})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	c := s.Clone()
	c.Composition["cod"] = 1

	if s.Composition["cod"] != 500 {
		t.Errorf("clone mutated original: got %f", s.Composition["cod"])
	}
}

func TestMixConservesMass(t *testing.T) {
	a, _ := New(100, 20, map[string]float64{"cod": 500, "snh": 30})
	b, _ := New(50, 20, map[string]float64{"cod": 200})

	mixed, degenerate := Mix([]Contribution{
		{State: a, Fraction: 1.0},
		{State: b, Fraction: 0.5},
	})
	if degenerate {
		t.Fatal("unexpected degenerate mix")
	}

	wantQ := 100.0 + 25.0
	if math.Abs(mixed.Flowrate-wantQ) > 1e-9 {
		t.Errorf("flowrate = %f, want %f", mixed.Flowrate, wantQ)
	}

	massIn := 100*500.0 + 25*200.0
	massOut := mixed.Flowrate * mixed.Composition["cod"]
	if math.Abs(massIn-massOut) > 1e-6 {
		t.Errorf("cod mass not conserved: in %f, out %f", massIn, massOut)
	}

	massIn = 100 * 30.0
	massOut = mixed.Flowrate * mixed.Composition["snh"]
	if math.Abs(massIn-massOut) > 1e-6 {
		t.Errorf("snh mass not conserved: in %f, out %f", massIn, massOut)
	}
}

func TestMixZeroInflowIsDegenerate(t *testing.T) {
	mixed, degenerate := Mix([]Contribution{
		{State: Zero([]string{"cod", "snh"}), Fraction: 1.0},
	})

	if !degenerate {
		t.Error("expected degenerate flag for zero total inflow")
	}
	if mixed.Flowrate != 0 {
		t.Errorf("flowrate = %f, want 0", mixed.Flowrate)
	}
	for k, v := range mixed.Composition {
		if v != 0 {
			t.Errorf("component %s = %f, want 0", k, v)
		}
	}
}

func TestMixTemperatureIsFlowWeighted(t *testing.T) {
	hot, _ := New(100, 30, nil)
	cold, _ := New(100, 10, nil)

	mixed, _ := Mix([]Contribution{
		{State: hot, Fraction: 1.0},
		{State: cold, Fraction: 1.0},
	})

	if math.Abs(mixed.Temperature-20) > 1e-9 {
		t.Errorf("temperature = %f, want 20", mixed.Temperature)
	}
}

func TestMixUnionOfComponents(t *testing.T) {
	a, _ := New(10, 20, map[string]float64{"cod": 100})
	b, _ := New(10, 20, map[string]float64{"snh": 40})

	mixed, _ := Mix([]Contribution{
		{State: a, Fraction: 1.0},
		{State: b, Fraction: 1.0},
	})

	if math.Abs(mixed.Composition["cod"]-50) > 1e-9 {
		t.Errorf("cod = %f, want 50", mixed.Composition["cod"])
	}
	if math.Abs(mixed.Composition["snh"]-20) > 1e-9 {
		t.Errorf("snh = %f, want 20", mixed.Composition["snh"])
	}
}

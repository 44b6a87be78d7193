package model

import (
	"math"
	"testing"

	"github.com/plantsim/plantsim/internal/solver"
)

func TestVelocityBounds(t *testing.T) {
	m := NewTakacs(DefaultTakacsParams())

	if got := m.Velocity(0); got != 19.75 {
		t.Errorf("velocity at zero solids = %f, want v0", got)
	}
	if got := m.Velocity(-10); got != 19.75 {
		t.Errorf("velocity at negative solids = %f, want v0", got)
	}

	for x := 10.0; x <= 15000; x += 250 {
		v := m.Velocity(x)
		if v < 0 || v > 19.75 {
			t.Fatalf("velocity at %f = %f, outside [0, v0]", x, v)
		}
	}
}

func TestVelocityHinderedAtHighSolids(t *testing.T) {
	m := NewTakacs(DefaultTakacsParams())

	if v := m.Velocity(10000); v > 0.1 {
		t.Errorf("velocity at 10000 g/m3 = %f, want hindered below 0.1 m/h", v)
	}
}

func TestColumnFeedSourceTerm(t *testing.T) {
	col := &Column{
		Settling:  NewTakacs(DefaultTakacsParams()),
		Area:      1000,
		LayerH:    0.4,
		FeedLayer: 5,
	}

	x := make(solver.State, 10)
	feed := Feed{QIn: 1000, QOver: 500, QUnder: 500, XIn: 3000}

	d := col.Derive(x, feed)

	want := (1000.0 / 1000.0) * 3000.0 / 0.4
	if math.Abs(d[5]-want) > 1e-9 {
		t.Errorf("feed layer derivative = %f, want %f", d[5], want)
	}
	for i, v := range d {
		if i != 5 && v != 0 {
			t.Errorf("layer %d derivative = %f, want 0 in an empty column", i, v)
		}
	}
}

func TestColumnSolidsSettleFromSurface(t *testing.T) {
	col := &Column{
		Settling:  NewTakacs(DefaultTakacsParams()),
		Area:      1000,
		LayerH:    0.4,
		FeedLayer: 5,
	}

	x := make(solver.State, 10)
	for i := range x {
		x[i] = 2000
	}

	d := col.Derive(x, Feed{})
	if d[0] >= 0 {
		t.Errorf("surface layer derivative = %f, want negative under pure settling", d[0])
	}
	// interior layers with equal neighbors see equal in/out fluxes
	for i := 1; i < 5; i++ {
		if math.Abs(d[i]) > 1e-9 {
			t.Errorf("interior layer %d derivative = %f, want 0", i, d[i])
		}
	}
}

func TestClipProfile(t *testing.T) {
	x := solver.State{-5, 20000, 100}
	ClipProfile(x)

	want := solver.State{0, 15000, 100}
	for i := range want {
		if x[i] != want[i] {
			t.Errorf("layer %d = %f, want %f", i, x[i], want[i])
		}
	}
}

func TestDetectBlanket(t *testing.T) {
	profile := solver.State{500, 1000, 3500, 4000, 2000}
	b := DetectBlanket(profile, 0.4)

	if !b.Present {
		t.Fatal("expected a blanket")
	}
	if b.Top != 2 || b.Bottom != 3 {
		t.Errorf("blanket span = [%d, %d], want [2, 3]", b.Top, b.Bottom)
	}
	if math.Abs(b.Thickness-0.8) > 1e-9 {
		t.Errorf("thickness = %f, want 0.8", b.Thickness)
	}
	if b.Max != 4000 {
		t.Errorf("max = %f, want 4000", b.Max)
	}
}

func TestDetectBlanketAbsent(t *testing.T) {
	b := DetectBlanket(solver.State{500, 800, 1200}, 0.4)
	if b.Present {
		t.Error("unexpected blanket in a dilute profile")
	}
}

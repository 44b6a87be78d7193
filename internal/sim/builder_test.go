package sim

import (
	"math"
	"testing"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/registry"
)

func TestBuildNetworkFromPreset(t *testing.T) {
	cfg := config.GetPreset("plant")
	net, err := BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	order := net.Graph.Order()
	want := []string{"influent", "as1", "settler1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	if len(net.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(net.Nodes))
	}
	if q := net.Influent(0).Flowrate; q != 1000 {
		t.Errorf("influent flowrate = %f, want 1000", q)
	}
	if net.Seed.Flowrate != 0 {
		t.Errorf("seed should carry zero flow, got %f", net.Seed.Flowrate)
	}
}

func TestBuildNetworkRejectsUnknownKind(t *testing.T) {
	cfg := config.GetPreset("default")
	cfg.Nodes[0].Kind = "digester"

	if _, err := BuildNetwork(cfg, registry.NewRegistry()); err == nil {
		t.Fatal("expected error for unknown node kind")
	}
}

func TestBuildNetworkDiurnal(t *testing.T) {
	cfg := config.GetPreset("default")
	cfg.Influent.Diurnal = 0.3

	net, err := BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := net.Influent(6).Flowrate; math.Abs(got-1300) > 1e-6 {
		t.Errorf("peak flowrate = %f, want 1300", got)
	}
}

func TestWindow(t *testing.T) {
	cfg := config.GetPreset("plant")
	w := Window(cfg)
	if w.Start != 0 || w.End != 48 || w.Dt != 0.1 {
		t.Errorf("window = %+v, want 0..48 by 0.1", w)
	}
}

func TestDefaultKPIs(t *testing.T) {
	cfg := config.GetPreset("plant")
	net, err := BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	kpis := DefaultKPIs(net)
	names := make(map[string]bool, len(kpis))
	for _, k := range kpis {
		names[k.Name()] = true
	}
	for _, want := range []string{"hrt_hours", "srt_days", "svi", "cod_removal", "energy_kwh_m3"} {
		if !names[want] {
			t.Errorf("missing indicator %s", want)
		}
	}

	// A plant with no reactor only gets the effluent indicators.
	cfg = config.GetPreset("surrogate")
	net, err = BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := DefaultKPIs(net); len(got) != 2 {
		t.Errorf("expected 2 indicators for a surrogate-only plant, got %d", len(got))
	}
}

package sim

import (
	"testing"

	"github.com/plantsim/plantsim/internal/flow"
)

func rec(step int, time float64, node string, q float64, comp map[string]float64) Record {
	return Record{
		Step: step,
		Time: time,
		Node: node,
		Flow: flow.State{Flowrate: q, Temperature: 20, Composition: comp},
	}
}

func TestHistorySelect(t *testing.T) {
	h := &History{}
	h.Append(rec(0, 0.0, "a", 10, nil))
	h.Append(rec(0, 0.0, "b", 10, nil))
	h.Append(rec(1, 0.5, "a", 12, nil))
	h.Append(rec(2, 1.0, "a", 14, nil))

	got := h.Select("a", 0.5, 1.0)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Step != 1 || got[1].Step != 2 {
		t.Errorf("wrong records selected: steps %d, %d", got[0].Step, got[1].Step)
	}

	// Bounds are inclusive.
	if got := h.Select("a", 0, 0); len(got) != 1 {
		t.Errorf("expected 1 record at the lower bound, got %d", len(got))
	}

	// Empty node id matches everything.
	if got := h.Select("", 0, 10); len(got) != 4 {
		t.Errorf("expected 4 records for all nodes, got %d", len(got))
	}
}

func TestHistorySeries(t *testing.T) {
	h := &History{}
	h.Append(rec(0, 0.0, "a", 10, map[string]float64{"cod": 500}))
	h.Append(rec(1, 0.5, "a", 12, map[string]float64{"cod": 480}))
	h.Append(rec(1, 0.5, "b", 99, map[string]float64{"cod": 1}))

	times, values := h.Series("a", "cod")
	if len(times) != 2 || len(values) != 2 {
		t.Fatalf("expected 2 points, got %d/%d", len(times), len(values))
	}
	if values[0] != 500 || values[1] != 480 {
		t.Errorf("cod series = %v", values)
	}
	if times[1] != 0.5 {
		t.Errorf("times[1] = %f, want 0.5", times[1])
	}

	if _, flows := h.Series("a", "flowrate"); flows[1] != 12 {
		t.Errorf("flowrate series = %v", flows)
	}
	if ts, _ := h.Series("zz", "cod"); len(ts) != 0 {
		t.Errorf("expected empty series for unknown node, got %d points", len(ts))
	}
}

func TestHistoryLast(t *testing.T) {
	h := &History{}
	if _, ok := h.Last("a"); ok {
		t.Error("expected no record in empty history")
	}
	h.Append(rec(0, 0.0, "a", 10, nil))
	h.Append(rec(1, 0.5, "a", 12, nil))

	last, ok := h.Last("a")
	if !ok || last.Step != 1 {
		t.Errorf("last = %+v, ok = %v, want step 1", last, ok)
	}
}

func TestHistoryRecordsAreCopies(t *testing.T) {
	h := &History{}
	h.Append(rec(0, 0.0, "a", 10, nil))

	rs := h.Records()
	rs[0].Node = "tampered"
	if h.Records()[0].Node != "a" {
		t.Error("Records should return a copy")
	}
}

package sim

import (
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/process"
)

// Record is one node's published output at one timestep.
type Record struct {
	Step     int
	Time     float64 // h
	Node     string
	Flow     flow.State
	Snapshot model.Snapshot
	Diag     process.Diagnostics
}

// History accumulates records in execution order. Append is the only
// mutation; a record is never rewritten once stored.
type History struct {
	records []Record
}

func (h *History) Append(r Record) { h.records = append(h.records, r) }

func (h *History) Len() int { return len(h.records) }

// Records returns a copy of every record in append order.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}

// Select returns the records for one node inside [from, to] hours,
// bounds inclusive. An empty node id matches every node.
func (h *History) Select(node string, from, to float64) []Record {
	var out []Record
	for _, r := range h.records {
		if node != "" && r.Node != node {
			continue
		}
		if r.Time < from || r.Time > to {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Series extracts one node's time series for a composition component,
// or for the pseudo-keys "flowrate" and "temperature".
func (h *History) Series(node, key string) (times, values []float64) {
	for _, r := range h.records {
		if r.Node != node {
			continue
		}
		times = append(times, r.Time)
		switch key {
		case "flowrate":
			values = append(values, r.Flow.Flowrate)
		case "temperature":
			values = append(values, r.Flow.Temperature)
		default:
			values = append(values, r.Flow.Get(key))
		}
	}
	return times, values
}

// Last returns the most recent record for a node, false when the node
// has not produced any.
func (h *History) Last(node string) (Record, bool) {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Node == node {
			return h.records[i], true
		}
	}
	return Record{}, false
}

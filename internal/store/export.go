package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/plantsim/plantsim/internal/sim"
)

// componentColumns returns the sorted union of composition keys across
// all records, so every export format shares one column layout.
func componentColumns(recs []sim.Record) []string {
	seen := make(map[string]bool)
	for _, r := range recs {
		for k := range r.Flow.Composition {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ExportCSV writes records as one row per node-step. Composition
// columns are the sorted union of component ids; a component a record
// does not carry exports as zero.
func ExportCSV(w io.Writer, recs []sim.Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	cols := componentColumns(recs)
	header := []string{"step", "time_h", "node", "flowrate_m3h", "temperature_c"}
	header = append(header, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range recs {
		row := []string{
			strconv.Itoa(r.Step),
			strconv.FormatFloat(r.Time, 'f', 6, 64),
			r.Node,
			strconv.FormatFloat(r.Flow.Flowrate, 'f', 6, 64),
			strconv.FormatFloat(r.Flow.Temperature, 'f', 6, 64),
		}
		for _, c := range cols {
			row = append(row, strconv.FormatFloat(r.Flow.Get(c), 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// exportRecord is the JSON shape of one record.
type exportRecord struct {
	Step        int                `json:"step"`
	Time        float64            `json:"time_h"`
	Node        string             `json:"node"`
	Flowrate    float64            `json:"flowrate_m3h"`
	Temperature float64            `json:"temperature_c"`
	Composition map[string]float64 `json:"composition"`
	Detention   float64            `json:"detention_h,omitempty"`
	Degenerate  bool               `json:"degenerate,omitempty"`
}

type exportData struct {
	Run     RunMeta        `json:"run"`
	Records []exportRecord `json:"records"`
}

// ExportJSON writes the run metadata and records as a single indented
// document.
func ExportJSON(w io.Writer, meta RunMeta, recs []sim.Record) error {
	data := exportData{Run: meta, Records: make([]exportRecord, len(recs))}
	for i, r := range recs {
		data.Records[i] = exportRecord{
			Step:        r.Step,
			Time:        r.Time,
			Node:        r.Node,
			Flowrate:    r.Flow.Flowrate,
			Temperature: r.Flow.Temperature,
			Composition: r.Flow.Composition,
			Detention:   r.Diag.DetentionTime,
			Degenerate:  r.Diag.Degenerate,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

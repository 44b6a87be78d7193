package store

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/plantsim/plantsim/internal/sim"
)

// ExportParquet writes records to a snappy-compressed Parquet file:
// step, time, node, flowrate, temperature, then one float64 column per
// composition component.
func ExportParquet(path string, recs []sim.Record) error {
	cols := componentColumns(recs)

	fields := []arrow.Field{
		{Name: "step", Type: arrow.PrimitiveTypes.Int64},
		{Name: "time_h", Type: arrow.PrimitiveTypes.Float64},
		{Name: "node", Type: arrow.BinaryTypes.String},
		{Name: "flowrate_m3h", Type: arrow.PrimitiveTypes.Float64},
		{Name: "temperature_c", Type: arrow.PrimitiveTypes.Float64},
	}
	for _, c := range cols {
		fields = append(fields, arrow.Field{Name: c, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for _, r := range recs {
		b.Field(0).(*array.Int64Builder).Append(int64(r.Step))
		b.Field(1).(*array.Float64Builder).Append(r.Time)
		b.Field(2).(*array.StringBuilder).Append(r.Node)
		b.Field(3).(*array.Float64Builder).Append(r.Flow.Flowrate)
		b.Field(4).(*array.Float64Builder).Append(r.Flow.Temperature)
		for i, c := range cols {
			b.Field(5 + i).(*array.Float64Builder).Append(r.Flow.Get(c))
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create parquet file: %w", err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("store: open parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("store: write parquet: %w", err)
	}
	return w.Close()
}

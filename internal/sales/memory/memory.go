package memory

import (
	"context"

	"autosales/internal/core"
	"autosales/internal/sales"
	"autosales/internal/synth"
)

// Table is an immutable in-memory sales table. It is safe for concurrent
// readers because nothing writes to it after construction.
type Table struct {
	records []core.SalesRecord
}

// New copies records into a new table.
func New(records []core.SalesRecord) *Table {
	return &Table{records: append([]core.SalesRecord(nil), records...)}
}

// NewGenerated builds the synthetic 480-row table for seed (0 = random).
func NewGenerated(seed uint64) *Table {
	return &Table{records: synth.Generate(synth.NewRand(seed))}
}

// ListSales returns the rows matching f. It never fails.
func (t *Table) ListSales(_ context.Context, f sales.SalesFilter) ([]core.SalesRecord, error) {
	out := make([]core.SalesRecord, 0, len(t.records)/4)
	for _, rec := range t.records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of rows.
func (t *Table) Count(_ context.Context) (int, error) {
	return len(t.records), nil
}

// Records returns a copy of every row.
func (t *Table) Records() []core.SalesRecord {
	return append([]core.SalesRecord(nil), t.records...)
}

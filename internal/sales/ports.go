package sales

import (
	"context"

	"autosales/internal/core"
)

// SalesFilter selects rows from the sales table. The zero value matches
// every row.
type SalesFilter struct {
	VehicleType   core.VehicleType // empty matches any type
	RecessionOnly bool
}

// Match reports whether rec passes the filter.
func (f SalesFilter) Match(rec core.SalesRecord) bool {
	if f.VehicleType != "" && rec.VehicleType != f.VehicleType {
		return false
	}
	if f.RecessionOnly && !rec.Recession {
		return false
	}
	return true
}

// Ports for the read-only sales table.
type (
	// SalesReader queries the table. Results keep natural row order
	// (ascending date) and are owned by the caller.
	SalesReader interface {
		ListSales(ctx context.Context, f SalesFilter) ([]core.SalesRecord, error)
	}

	// SalesCounter reports the table size; readiness checks use it.
	SalesCounter interface {
		Count(ctx context.Context) (int, error)
	}

	// Table is what a backend provides.
	Table interface {
		SalesReader
		SalesCounter
	}
)

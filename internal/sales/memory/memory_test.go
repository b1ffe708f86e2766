package memory

import (
	"context"
	"testing"

	"autosales/internal/core"
	"autosales/internal/sales"
)

func fixture() []core.SalesRecord {
	mk := func(year, month int, vt core.VehicleType, units int) core.SalesRecord {
		rec, _ := core.NewSalesRecord(year, month)
		rec.VehicleType = vt
		rec.AutomobileSales = units
		return rec
	}
	return []core.SalesRecord{
		mk(1980, 1, core.Sports, 1000),
		mk(1980, 6, core.Sports, 2000),
		mk(1981, 2, core.Supperminicar, 3000),
		mk(1990, 2, core.Sports, 4000),
	}
}

func TestTableFilters(t *testing.T) {
	tbl := New(fixture())
	ctx := context.Background()

	n, err := tbl.Count(ctx)
	if err != nil || n != 4 {
		t.Fatalf("unexpected count: n=%d err=%v", n, err)
	}

	all, _ := tbl.ListSales(ctx, sales.SalesFilter{})
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}

	sports, _ := tbl.ListSales(ctx, sales.SalesFilter{VehicleType: core.Sports})
	if len(sports) != 3 || sports[0].AutomobileSales != 1000 || sports[2].AutomobileSales != 4000 {
		t.Fatalf("unexpected sports rows: %+v", sports)
	}

	rec, _ := tbl.ListSales(ctx, sales.SalesFilter{VehicleType: core.Sports, RecessionOnly: true})
	if len(rec) != 1 || rec[0].Year != 1980 || rec[0].Month != 1 {
		t.Fatalf("unexpected recession rows: %+v", rec)
	}

	none, _ := tbl.ListSales(ctx, sales.SalesFilter{VehicleType: core.Executivecar})
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}
}

func TestTableIsImmutable(t *testing.T) {
	src := fixture()
	tbl := New(src)
	src[0].AutomobileSales = -1

	rows, _ := tbl.ListSales(context.Background(), sales.SalesFilter{})
	rows[1].AutomobileSales = -1

	again, _ := tbl.ListSales(context.Background(), sales.SalesFilter{})
	if again[0].AutomobileSales != 1000 || again[1].AutomobileSales != 2000 {
		t.Fatalf("table was mutated through a caller's slice: %+v", again)
	}
}

func TestNewGenerated(t *testing.T) {
	tbl := NewGenerated(1)
	n, _ := tbl.Count(context.Background())
	if n != core.RecordCount {
		t.Fatalf("expected %d rows, got %d", core.RecordCount, n)
	}
}

package view

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosales/internal/core"
	"autosales/internal/sales"
	"autosales/internal/sales/memory"
	"autosales/internal/synth"
)

func record(year, month int, vt core.VehicleType, units int) core.SalesRecord {
	rec, _ := core.NewSalesRecord(year, month)
	rec.VehicleType = vt
	rec.AutomobileSales = units
	return rec
}

// noExecutiveRecession has Executivecar rows, but none in a recession month.
func noExecutiveRecession() []core.SalesRecord {
	return []core.SalesRecord{
		record(1980, 1, core.Sports, 1200),
		record(1980, 2, core.Sports, 1800),
		record(1980, 6, core.Executivecar, 5000),
		record(1991, 3, core.Sports, 2400),
		record(1995, 7, core.Executivecar, 6000),
		record(2008, 4, core.Supperminicar, 3100),
	}
}

type failingReader struct{}

func (failingReader) ListSales(context.Context, sales.SalesFilter) ([]core.SalesRecord, error) {
	return nil, errors.New("database is locked")
}

// slowReader honours ctx and takes latency to answer.
type slowReader struct {
	inner   sales.SalesReader
	latency time.Duration
	started chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (r *slowReader) ListSales(ctx context.Context, f sales.SalesFilter) ([]core.SalesRecord, error) {
	r.calls.Add(1)
	r.once.Do(func() { close(r.started) })
	select {
	case <-time.After(r.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.inner.ListSales(ctx, f)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "You have selected Sports for the year 2020.", Status(core.Sports, 2020))

	for _, vt := range core.VehicleTypes() {
		for _, y := range core.SelectableYears() {
			got := Status(vt, y)
			assert.Contains(t, got, string(vt))
			assert.Contains(t, got, strconv.Itoa(y))
		}
	}
}

func TestRecessionChartPlaceholder(t *testing.T) {
	svc := NewService(memory.New(noExecutiveRecession()), DefaultOptions())

	spec := svc.RecessionChart(context.Background(), core.Executivecar)
	assert.True(t, spec.Placeholder)
	assert.Equal(t, "No data available for Executivecar during recession periods.", spec.Title)
	assert.Empty(t, spec.Points)
	assert.Nil(t, spec.Summary)

	// the yearly chart still has Executivecar rows
	yearly := svc.YearlyChart(context.Background(), core.Executivecar)
	assert.False(t, yearly.Placeholder)
	assert.Equal(t, "Yearly Sales for Executivecar", yearly.Title)
	assert.Len(t, yearly.Points, 2)
}

func TestChartsPlaceholderWhenNoRowsAtAll(t *testing.T) {
	svc := NewService(memory.New(noExecutiveRecession()), DefaultOptions())

	rec := svc.RecessionChart(context.Background(), core.Mediumfamilycar)
	yearly := svc.YearlyChart(context.Background(), core.Mediumfamilycar)
	assert.True(t, rec.Placeholder)
	assert.True(t, yearly.Placeholder)
	assert.Equal(t, "No data available for Mediumfamilycar for yearly sales.", yearly.Title)
	assert.Nil(t, yearly.Points)
}

func TestRecessionChartSeries(t *testing.T) {
	svc := NewService(memory.New(noExecutiveRecession()), DefaultOptions())

	spec := svc.RecessionChart(context.Background(), core.Sports)
	require.False(t, spec.Placeholder)
	assert.Equal(t, "Recession Sales for Sports", spec.Title)
	assert.Equal(t, "Year", spec.XField)
	assert.Equal(t, "Automobile_Sales", spec.YField)
	assert.Equal(t, []Point{
		{Year: 1980, Month: 1, AutomobileSales: 1200},
		{Year: 1980, Month: 2, AutomobileSales: 1800},
		{Year: 1991, Month: 3, AutomobileSales: 2400},
	}, spec.Points)

	require.NotNil(t, spec.Summary)
	assert.Equal(t, 3, spec.Summary.Count)
	assert.InDelta(t, 1800, spec.Summary.Mean, 1e-9)
	assert.InDelta(t, 600, spec.Summary.StdDev, 1e-9)
	assert.Equal(t, 1200.0, spec.Summary.Min)
	assert.Equal(t, 2400.0, spec.Summary.Max)
}

func TestGeneratedTableProperties(t *testing.T) {
	records := synth.Generate(synth.NewRand(2024))
	table := memory.New(records)
	svc := NewService(table, DefaultOptions())
	ctx := context.Background()

	allowed := map[int]bool{}
	for _, y := range core.RecessionYears() {
		allowed[y] = true
	}

	for _, vt := range core.VehicleTypes() {
		rec := svc.RecessionChart(ctx, vt)
		if !rec.Placeholder {
			prev := 0
			for _, p := range rec.Points {
				assert.True(t, allowed[p.Year], "year %d is not a recession year", p.Year)
				assert.LessOrEqual(t, p.Month, 4)
				assert.GreaterOrEqual(t, p.Year, prev, "years must be non-decreasing")
				prev = p.Year
			}
		}

		want := 0
		for _, r := range records {
			if r.VehicleType == vt {
				want++
			}
		}
		yearly := svc.YearlyChart(ctx, vt)
		if want == 0 {
			assert.True(t, yearly.Placeholder)
			continue
		}
		assert.Len(t, yearly.Points, want)
		for _, p := range yearly.Points {
			assert.GreaterOrEqual(t, p.Year, core.FirstYear)
			assert.LessOrEqual(t, p.Year, core.LastYear)
		}
	}
}

func TestChartIdempotentAndCached(t *testing.T) {
	svc := NewService(memory.New(noExecutiveRecession()), DefaultOptions())
	ctx := context.Background()

	first := svc.YearlyChart(ctx, core.Sports)
	assert.Equal(t, 1, svc.Cache().Size())

	first.Points[0].AutomobileSales = -1
	second := svc.YearlyChart(ctx, core.Sports)
	assert.Equal(t, 1200, second.Points[0].AutomobileSales, "cached spec leaked a mutable slice")

	third := svc.YearlyChart(ctx, core.Sports)
	assert.Equal(t, second, third)
}

func TestChartUnavailableOnReaderError(t *testing.T) {
	svc := NewService(failingReader{}, DefaultOptions())

	spec := svc.YearlyChart(context.Background(), core.Sports)
	assert.True(t, spec.Placeholder)
	assert.Equal(t, "Chart unavailable for Sports.", spec.Title)
	assert.Equal(t, 0, svc.Cache().Size(), "errors must not be cached")
}

func TestChartSharedQuerySurvivesCancelledCaller(t *testing.T) {
	reader := &slowReader{
		inner:   memory.New(noExecutiveRecession()),
		latency: 50 * time.Millisecond,
		started: make(chan struct{}),
	}
	svc := NewService(reader, DefaultOptions())

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	leader := make(chan ChartSpec, 1)
	go func() { leader <- svc.YearlyChart(leaderCtx, core.Sports) }()

	<-reader.started
	time.AfterFunc(5*time.Millisecond, cancel)
	follower := svc.YearlyChart(context.Background(), core.Sports)

	assert.False(t, follower.Placeholder, "follower got %q", follower.Title)
	assert.Equal(t, "Yearly Sales for Sports", follower.Title)
	assert.Len(t, follower.Points, 3)

	got := <-leader
	assert.True(t, got.Placeholder)
	assert.Equal(t, "Chart unavailable for Sports.", got.Title)

	assert.Equal(t, int32(1), reader.calls.Load())
	assert.Equal(t, 1, svc.Cache().Size())
}

func TestParseChartKind(t *testing.T) {
	k, err := ParseChartKind("yearly")
	require.NoError(t, err)
	assert.Equal(t, YearlyKind, k)
	_, err = ParseChartKind("pie")
	assert.Error(t, err)
}

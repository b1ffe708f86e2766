package view

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"autosales/internal/cache"
	"autosales/internal/core"
	"autosales/internal/sales"
)

// queryTimeout bounds one shared table query.
const queryTimeout = 5 * time.Second

// Service evaluates the chart derivations against a sales table. Results are
// memoised per (kind, vehicle type); the table never changes, so a cached
// spec is always the one a fresh evaluation would produce.
type Service struct {
	reader sales.SalesReader
	charts *cache.LRUCache[ChartSpec]
	group  singleflight.Group
}

// Options tune the chart cache.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultOptions covers every (kind, vehicle type) pair.
func DefaultOptions() Options {
	return Options{CacheSize: 32, CacheTTL: 10 * time.Minute}
}

func NewService(reader sales.SalesReader, opts Options) *Service {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultOptions().CacheTTL
	}
	return &Service{
		reader: reader,
		charts: cache.NewLRUCache[ChartSpec](opts.CacheSize, opts.CacheTTL),
	}
}

// Cache exposes the chart cache for cleanup registration and metrics.
func (s *Service) Cache() *cache.LRUCache[ChartSpec] {
	return s.charts
}

// Status formats the selection readout.
func (s *Service) Status(vt core.VehicleType, year int) string {
	return Status(vt, year)
}

// RecessionChart plots sales of vt during recession months.
func (s *Service) RecessionChart(ctx context.Context, vt core.VehicleType) ChartSpec {
	return s.Chart(ctx, RecessionKind, vt)
}

// YearlyChart plots sales of vt over the full 1980-2019 span.
func (s *Service) YearlyChart(ctx context.Context, vt core.VehicleType) ChartSpec {
	return s.Chart(ctx, YearlyKind, vt)
}

// Chart evaluates the derivation for kind. It never fails: an empty filter
// gives the "no data" placeholder and a table error gives Unavailable.
func (s *Service) Chart(ctx context.Context, kind ChartKind, vt core.VehicleType) ChartSpec {
	key := string(kind) + ":" + string(vt)
	if spec, ok := s.charts.Get(key); ok {
		slog.DebugContext(ctx, "Chart cache hit", "chart", kind, "vehicle_type", vt)
		return spec.clone()
	}

	// The shared query outlives any single caller; each caller still gives
	// up on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), queryTimeout)
		defer cancel()
		rows, err := s.reader.ListSales(qctx, sales.SalesFilter{
			VehicleType:   vt,
			RecessionOnly: kind == RecessionKind,
		})
		if err != nil {
			return nil, err
		}
		spec := BuildChart(kind, vt, rows)
		s.charts.Set(key, spec)
		return spec, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Err != nil {
		slog.ErrorContext(ctx, "Chart derivation failed", "error", res.Err, "chart", kind, "vehicle_type", vt)
		return Unavailable(kind, vt)
	}
	v := res.Val

	spec := v.(ChartSpec)
	slog.DebugContext(ctx, "Chart computed", "chart", kind, "vehicle_type", vt, "points", len(spec.Points), "placeholder", spec.Placeholder)
	return spec.clone()
}

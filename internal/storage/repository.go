package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"autosales/internal/core"
	"autosales/internal/sales"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database in process memory. The shared cache lets the
// migration connection and the pool see the same database. Each repository
// opened on it gets its own uniquely named database.
const MemoryDSN = "file:autosales?mode=memory&cache=shared"

// SQLiteRepository serves the sales table through SQL. The table is loaded
// once and only read afterwards.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == MemoryDSN {
		dsn = "file:autosales-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	if !isMemoryDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// An in-memory database lives as long as one connection stays open.
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load replaces the table contents with records in a single transaction.
func (r *SQLiteRepository) Load(ctx context.Context, records []core.SalesRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAllSales(ctx); err != nil {
		return fmt.Errorf("clear sales: %w", err)
	}
	for _, rec := range records {
		if err := q.InsertSale(ctx, InsertSaleParams{
			Period:                 rec.Date,
			Year:                   int64(rec.Year),
			Month:                  int64(rec.Month),
			Recession:              rec.Recession,
			AutomobileSales:        int64(rec.AutomobileSales),
			VehicleType:            string(rec.VehicleType),
			GDP:                    rec.GDP,
			UnemploymentRate:       rec.UnemploymentRate,
			ConsumerConfidence:     rec.ConsumerConfidence,
			SeasonalityWeight:      rec.SeasonalityWeight,
			Price:                  rec.Price,
			AdvertisingExpenditure: rec.AdvertisingExpenditure,
			Competition:            rec.Competition,
		}); err != nil {
			return fmt.Errorf("insert sale (year=%d, month=%d): %w", rec.Year, rec.Month, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}

	slog.InfoContext(ctx, "Sales table loaded into SQLite", "rows", len(records))
	return nil
}

// ListSales implements sales.SalesReader
func (r *SQLiteRepository) ListSales(ctx context.Context, f sales.SalesFilter) ([]core.SalesRecord, error) {
	rows, err := r.queries.ListSales(ctx, ListSalesParams{
		VehicleType:   string(f.VehicleType),
		RecessionOnly: f.RecessionOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("list sales (vehicle=%q, recession_only=%t): %w", f.VehicleType, f.RecessionOnly, err)
	}

	out := make([]core.SalesRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.SalesRecord{
			Date:                   row.Period,
			Year:                   int(row.Year),
			Month:                  int(row.Month),
			Recession:              row.Recession,
			AutomobileSales:        int(row.AutomobileSales),
			VehicleType:            core.VehicleType(row.VehicleType),
			GDP:                    row.GDP,
			UnemploymentRate:       row.UnemploymentRate,
			ConsumerConfidence:     row.ConsumerConfidence,
			SeasonalityWeight:      row.SeasonalityWeight,
			Price:                  row.Price,
			AdvertisingExpenditure: row.AdvertisingExpenditure,
			Competition:            row.Competition,
		})
	}
	return out, nil
}

// Count implements sales.SalesCounter
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	n, err := r.queries.CountSales(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return int(n), nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

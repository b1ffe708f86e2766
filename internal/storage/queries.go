package storage

import (
	"context"
	"database/sql"
	"time"
)

const periodLayout = "2006-01-02"

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Sale mirrors a row of the sales table.
type Sale struct {
	ID                     int64
	Period                 time.Time
	Year                   int64
	Month                  int64
	Recession              bool
	AutomobileSales        int64
	VehicleType            string
	GDP                    float64
	UnemploymentRate       float64
	ConsumerConfidence     float64
	SeasonalityWeight      float64
	Price                  float64
	AdvertisingExpenditure float64
	Competition            float64
}

const deleteAllSales = `DELETE FROM sales`

func (q *Queries) DeleteAllSales(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSales)
	return err
}

const insertSale = `INSERT INTO sales (
    period, year, month, recession, automobile_sales, vehicle_type,
    gdp, unemployment_rate, consumer_confidence, seasonality_weight,
    price, advertising_expenditure, competition
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertSaleParams struct {
	Period                 time.Time
	Year                   int64
	Month                  int64
	Recession              bool
	AutomobileSales        int64
	VehicleType            string
	GDP                    float64
	UnemploymentRate       float64
	ConsumerConfidence     float64
	SeasonalityWeight      float64
	Price                  float64
	AdvertisingExpenditure float64
	Competition            float64
}

func (q *Queries) InsertSale(ctx context.Context, arg InsertSaleParams) error {
	_, err := q.db.ExecContext(ctx, insertSale,
		arg.Period.Format(periodLayout),
		arg.Year,
		arg.Month,
		boolToInt(arg.Recession),
		arg.AutomobileSales,
		arg.VehicleType,
		arg.GDP,
		arg.UnemploymentRate,
		arg.ConsumerConfidence,
		arg.SeasonalityWeight,
		arg.Price,
		arg.AdvertisingExpenditure,
		arg.Competition,
	)
	return err
}

const listSales = `SELECT id, period, year, month, recession, automobile_sales, vehicle_type,
    gdp, unemployment_rate, consumer_confidence, seasonality_weight,
    price, advertising_expenditure, competition
FROM sales
WHERE (? = '' OR vehicle_type = ?)
  AND (? = 0 OR recession = 1)
ORDER BY period`

type ListSalesParams struct {
	VehicleType   string
	RecessionOnly bool
}

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.QueryContext(ctx, listSales,
		arg.VehicleType, arg.VehicleType, boolToInt(arg.RecessionOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Sale{}
	for rows.Next() {
		var (
			i         Sale
			period    string
			recession int64
		)
		if err := rows.Scan(
			&i.ID,
			&period,
			&i.Year,
			&i.Month,
			&recession,
			&i.AutomobileSales,
			&i.VehicleType,
			&i.GDP,
			&i.UnemploymentRate,
			&i.ConsumerConfidence,
			&i.SeasonalityWeight,
			&i.Price,
			&i.AdvertisingExpenditure,
			&i.Competition,
		); err != nil {
			return nil, err
		}
		i.Period, err = time.Parse(periodLayout, period)
		if err != nil {
			return nil, err
		}
		i.Recession = recession != 0
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSales = `SELECT COUNT(*) FROM sales`

func (q *Queries) CountSales(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSales).Scan(&n)
	return n, err
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

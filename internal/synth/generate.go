// Package synth produces the synthetic monthly sales table.
package synth

import (
	"math/rand/v2"
	"time"

	"autosales/internal/core"
)

// NewRand returns a generator for seed. A zero seed picks a time-based one,
// so successive runs produce different data.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds one record per month from January 1980 to December 2019,
// in ascending order. Only the calendar fields and the recession flag are
// deterministic; everything else is drawn from r.
func Generate(r *rand.Rand) []core.SalesRecord {
	vehicleTypes := core.VehicleTypes()
	records := make([]core.SalesRecord, 0, core.RecordCount)
	for year := core.FirstYear; year <= core.LastYear; year++ {
		for month := 1; month <= 12; month++ {
			rec, _ := core.NewSalesRecord(year, month)
			rec.AutomobileSales = 1000 + r.IntN(9000)
			rec.GDP = uniform(r, 10000, 60000)
			rec.UnemploymentRate = uniform(r, 3, 10)
			rec.ConsumerConfidence = uniform(r, 50, 120)
			rec.SeasonalityWeight = uniform(r, 0.5, 1.5)
			rec.Price = uniform(r, 20000, 50000)
			rec.AdvertisingExpenditure = uniform(r, 1000, 5000)
			rec.VehicleType = vehicleTypes[r.IntN(len(vehicleTypes))]
			rec.Competition = uniform(r, 1, 10)
			records = append(records, rec)
		}
	}
	return records
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

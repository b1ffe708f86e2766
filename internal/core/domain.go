package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Supperminicar   VehicleType = "Supperminicar"
	Smallfamilycar  VehicleType = "Smallfamilycar"
	Mediumfamilycar VehicleType = "Mediumfamilycar"
	Executivecar    VehicleType = "Executivecar"
	Sports          VehicleType = "Sports"
)

const (
	// FirstYear and LastYear bound the generated table.
	FirstYear = 1980
	LastYear  = 2019

	// MinSelectableYear and MaxSelectableYear bound the year selector, which
	// offers one year past the data.
	MinSelectableYear = 1980
	MaxSelectableYear = 2020

	// RecordCount is the number of monthly rows in the table.
	RecordCount = (LastYear - FirstYear + 1) * 12
)

type (
	VehicleType string

	// SalesRecord is one month of synthetic sales data.
	SalesRecord struct {
		Date                   time.Time
		Year                   int
		Month                  int // 1-12
		Recession              bool
		AutomobileSales        int
		VehicleType            VehicleType
		GDP                    float64
		UnemploymentRate       float64
		ConsumerConfidence     float64
		SeasonalityWeight      float64
		Price                  float64
		AdvertisingExpenditure float64
		Competition            float64
	}

	// Selection is the pair of values chosen in the dashboard selectors.
	Selection struct {
		VehicleType VehicleType
		Year        int
	}
)

var (
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidMonth       = errors.New("invalid month")
)

var vehicleTypes = []VehicleType{Supperminicar, Smallfamilycar, Mediumfamilycar, Executivecar, Sports}

// recessionYears lists the years whose first four months are recession periods.
var recessionYears = map[int]struct{}{
	1980: {}, 1981: {}, 1982: {}, 1991: {}, 2000: {},
	2001: {}, 2007: {}, 2008: {}, 2009: {}, 2020: {},
}

// VehicleTypes returns the closed set of vehicle categories in presentation order.
func VehicleTypes() []VehicleType {
	return append([]VehicleType(nil), vehicleTypes...)
}

// ParseVehicleType maps a raw selector value onto the closed set.
func ParseVehicleType(s string) (VehicleType, error) {
	s = strings.TrimSpace(s)
	for _, vt := range vehicleTypes {
		if string(vt) == s {
			return vt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVehicleType, s)
}

func (vt VehicleType) String() string {
	return string(vt)
}

// IsValid returns true if vt belongs to the closed set.
func (vt VehicleType) IsValid() bool {
	_, err := ParseVehicleType(string(vt))
	return err == nil
}

// RecessionYears returns the fixed recession years in ascending order.
func RecessionYears() []int {
	return []int{1980, 1981, 1982, 1991, 2000, 2001, 2007, 2008, 2009, 2020}
}

// IsRecession reports whether (year, month) falls in a recession window:
// the first four months of one of the listed years.
func IsRecession(year, month int) bool {
	if month < 1 || month > 4 {
		return false
	}
	_, ok := recessionYears[year]
	return ok
}

// SelectableYears returns every year offered by the year selector.
func SelectableYears() []int {
	years := make([]int, 0, MaxSelectableYear-MinSelectableYear+1)
	for y := MinSelectableYear; y <= MaxSelectableYear; y++ {
		years = append(years, y)
	}
	return years
}

// ValidateYear checks the selector domain, not the data range.
func ValidateYear(year int) error {
	if year < MinSelectableYear || year > MaxSelectableYear {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidYear, year, MinSelectableYear, MaxSelectableYear)
	}
	return nil
}

// DefaultSelection is the state shown before any user input.
func DefaultSelection() Selection {
	return Selection{VehicleType: Supperminicar, Year: MaxSelectableYear}
}

func (s Selection) Validate() error {
	if !s.VehicleType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidVehicleType, s.VehicleType)
	}
	return ValidateYear(s.Year)
}

// NewSalesRecord stamps the calendar fields of a record for (year, month).
// Date is the last day of the month.
func NewSalesRecord(year, month int) (SalesRecord, error) {
	if month < 1 || month > 12 {
		return SalesRecord{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return SalesRecord{
		Date:      MonthEnd(year, month),
		Year:      year,
		Month:     month,
		Recession: IsRecession(year, month),
	}, nil
}

// MonthEnd returns midnight UTC of the last day of the month.
func MonthEnd(year, month int) time.Time {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Package view derives the dashboard outputs from the current selection and
// the sales table. Every derivation recomputes from scratch.
package view

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"autosales/internal/core"
)

// ChartKind names one of the two dashboard charts.
type ChartKind string

const (
	RecessionKind ChartKind = "recession"
	YearlyKind    ChartKind = "yearly"
)

const (
	XField = "Year"
	YField = "Automobile_Sales"
)

// ParseChartKind accepts "recession" or "yearly".
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(s) {
	case RecessionKind, YearlyKind:
		return ChartKind(s), nil
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// Point is one row of a line series.
type Point struct {
	Year            int `json:"year" yaml:"year"`
	Month           int `json:"month" yaml:"month"`
	AutomobileSales int `json:"automobile_sales" yaml:"automobile_sales"`
}

// Summary describes the plotted sales values.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// ChartSpec is a renderer-independent line chart description. A placeholder
// carries only a title and never any points.
type ChartSpec struct {
	Kind        ChartKind        `json:"kind" yaml:"kind"`
	VehicleType core.VehicleType `json:"vehicle_type" yaml:"vehicle_type"`
	Title       string           `json:"title" yaml:"title"`
	Placeholder bool             `json:"placeholder" yaml:"placeholder"`
	XField      string           `json:"x_field,omitempty" yaml:"x_field,omitempty"`
	YField      string           `json:"y_field,omitempty" yaml:"y_field,omitempty"`
	Points      []Point          `json:"points,omitempty" yaml:"points,omitempty"`
	Summary     *Summary         `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Status formats the selection readout.
func Status(vt core.VehicleType, year int) string {
	return fmt.Sprintf("You have selected %s for the year %d.", vt, year)
}

// BuildChart turns already-filtered rows into a chart of the given kind.
// Rows keep their order; an empty input yields the placeholder.
func BuildChart(kind ChartKind, vt core.VehicleType, rows []core.SalesRecord) ChartSpec {
	if len(rows) == 0 {
		return Placeholder(kind, vt)
	}

	points := make([]Point, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{Year: r.Year, Month: r.Month, AutomobileSales: r.AutomobileSales})
		values = append(values, float64(r.AutomobileSales))
	}

	return ChartSpec{
		Kind:        kind,
		VehicleType: vt,
		Title:       chartTitle(kind, vt),
		XField:      XField,
		YField:      YField,
		Points:      points,
		Summary:     summarize(values),
	}
}

// Placeholder is the "no data" form of a chart.
func Placeholder(kind ChartKind, vt core.VehicleType) ChartSpec {
	var title string
	switch kind {
	case RecessionKind:
		title = fmt.Sprintf("No data available for %s during recession periods.", vt)
	default:
		title = fmt.Sprintf("No data available for %s for yearly sales.", vt)
	}
	return ChartSpec{Kind: kind, VehicleType: vt, Title: title, Placeholder: true}
}

// Unavailable is the placeholder shown when the table could not be queried.
func Unavailable(kind ChartKind, vt core.VehicleType) ChartSpec {
	return ChartSpec{
		Kind:        kind,
		VehicleType: vt,
		Title:       fmt.Sprintf("Chart unavailable for %s.", vt),
		Placeholder: true,
	}
}

func chartTitle(kind ChartKind, vt core.VehicleType) string {
	if kind == RecessionKind {
		return fmt.Sprintf("Recession Sales for %s", vt)
	}
	return fmt.Sprintf("Yearly Sales for %s", vt)
}

func summarize(values []float64) *Summary {
	s := &Summary{Count: len(values), Min: floats.Min(values), Max: floats.Max(values)}
	if len(values) == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

// clone copies the slices so cached specs cannot be mutated by callers.
func (c ChartSpec) clone() ChartSpec {
	if c.Points != nil {
		c.Points = append([]Point(nil), c.Points...)
	}
	if c.Summary != nil {
		s := *c.Summary
		c.Summary = &s
	}
	return c
}

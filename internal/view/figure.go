package view

import (
	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
)

const lineColor = "#1f77b4"

// Figure converts a chart spec into a plotly figure. Placeholders become a
// layout with a title and no traces, so an empty series never reaches the
// renderer.
func Figure(spec ChartSpec) *grob.Fig {
	lay := &grob.Layout{
		Title: &grob.LayoutTitle{Text: spec.Title},
	}
	fig := &grob.Fig{Layout: lay}
	if spec.Placeholder || len(spec.Points) == 0 {
		return fig
	}

	x := make([]float64, len(spec.Points))
	y := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		x[i] = float64(p.Year)
		y[i] = float64(p.AutomobileSales)
	}

	lay.Xaxis = &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: spec.XField}}
	lay.Yaxis = &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: spec.YField}}
	lay.Showlegend = grob.False

	fig.AddTraces(&grob.Scatter{
		Type: grob.TraceTypeScatter,
		Name: string(spec.VehicleType),
		X:    x,
		Y:    y,
		Mode: grob.ScatterModeLines,
		Line: &grob.ScatterLine{Color: lineColor},
	})
	return fig
}

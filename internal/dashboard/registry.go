// Package dashboard wires selector events to the view derivations through an
// explicit registry instead of implicit callback registration.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"

	"autosales/internal/core"
	"autosales/internal/view"
)

// Element ids shared with the page template.
const (
	VehicleTypeInput = "vehicle-type-dropdown"
	YearInput        = "year-dropdown"

	StatusOutput    = "output-container"
	RecessionOutput = "recession-report-graph"
	YearlyOutput    = "yearly-report-graph"
)

// EventKind is the kind of UI event; selectors only emit Change.
type EventKind string

const Change EventKind = "change"

var (
	ErrUnknownTrigger = errors.New("no handler registered for trigger")
	ErrUnknownInput   = errors.New("unknown input source")
)

// Trigger identifies what fired: an input element and an event kind.
type Trigger struct {
	Source string
	Kind   EventKind
}

func (t Trigger) String() string {
	return t.Source + "." + string(t.Kind)
}

// UpdateKind says how the browser applies an update.
type UpdateKind string

const (
	TextUpdate   UpdateKind = "text"
	FigureUpdate UpdateKind = "figure"
)

// Update replaces the content of one output element.
type Update struct {
	Target string          `json:"target"`
	Kind   UpdateKind      `json:"kind"`
	Text   string          `json:"text,omitempty"`
	Figure *grob.Fig       `json:"figure,omitempty"`
	Chart  *view.ChartSpec `json:"chart,omitempty"`
}

// Handler recomputes one output from the selection.
type Handler func(ctx context.Context, sel core.Selection) Update

// Binding attaches a handler to an output element.
type Binding struct {
	Output  string
	Handler Handler
}

// Apply sets the selection field an input controls. It must leave sel
// untouched when value is rejected.
type Apply func(sel *core.Selection, value string) error

// Registry maps (input, event kind) to the bindings to run.
type Registry struct {
	inputs   map[string]Apply
	bindings map[Trigger][]Binding
	outputs  []Binding
}

func NewRegistry() *Registry {
	return &Registry{
		inputs:   make(map[string]Apply),
		bindings: make(map[Trigger][]Binding),
	}
}

// RegisterInput declares an input element and how its value is applied.
func (r *Registry) RegisterInput(source string, apply Apply) {
	r.inputs[source] = apply
}

// Register binds b to t. The first binding of an output also makes it part
// of the initial render.
func (r *Registry) Register(t Trigger, b Binding) {
	r.bindings[t] = append(r.bindings[t], b)
	for _, o := range r.outputs {
		if o.Output == b.Output {
			return
		}
	}
	r.outputs = append(r.outputs, b)
}

// Bindings returns the bindings for t in registration order.
func (r *Registry) Bindings(t Trigger) []Binding {
	return append([]Binding(nil), r.bindings[t]...)
}

// Outputs returns one binding per output element.
func (r *Registry) Outputs() []Binding {
	return append([]Binding(nil), r.outputs...)
}

func (r *Registry) input(source string) (Apply, bool) {
	apply, ok := r.inputs[source]
	return apply, ok
}

// NewDashboardRegistry wires the two selectors to the three outputs. The
// vehicle selector drives every output; the year selector only the status
// text, so the year has no effect on either chart.
func NewDashboardRegistry(svc *view.Service) *Registry {
	r := NewRegistry()
	r.RegisterInput(VehicleTypeInput, applyVehicleType)
	r.RegisterInput(YearInput, applyYear)

	status := Binding{Output: StatusOutput, Handler: func(_ context.Context, sel core.Selection) Update {
		return Update{Target: StatusOutput, Kind: TextUpdate, Text: svc.Status(sel.VehicleType, sel.Year)}
	}}
	recession := Binding{Output: RecessionOutput, Handler: func(ctx context.Context, sel core.Selection) Update {
		return chartUpdate(RecessionOutput, svc.RecessionChart(ctx, sel.VehicleType))
	}}
	yearly := Binding{Output: YearlyOutput, Handler: func(ctx context.Context, sel core.Selection) Update {
		return chartUpdate(YearlyOutput, svc.YearlyChart(ctx, sel.VehicleType))
	}}

	vehicleChange := Trigger{Source: VehicleTypeInput, Kind: Change}
	r.Register(vehicleChange, status)
	r.Register(vehicleChange, recession)
	r.Register(vehicleChange, yearly)
	r.Register(Trigger{Source: YearInput, Kind: Change}, status)
	return r
}

func chartUpdate(target string, spec view.ChartSpec) Update {
	return Update{Target: target, Kind: FigureUpdate, Figure: view.Figure(spec), Chart: &spec}
}

func applyVehicleType(sel *core.Selection, value string) error {
	vt, err := core.ParseVehicleType(value)
	if err != nil {
		return err
	}
	sel.VehicleType = vt
	return nil
}

func applyYear(sel *core.Selection, value string) error {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidYear, value)
	}
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	sel.Year = year
	return nil
}

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autosales/internal/core"
)

// Event is one UI input change.
type Event struct {
	Source string
	Kind   EventKind
	Value  string
}

// AppliedEvent is an event after it changed a session's selection.
type AppliedEvent struct {
	SessionID string
	Event     Event
	Selection core.Selection
	At        time.Time
}

// EventSink receives every applied event. Sinks must not block for long;
// the dispatcher ignores their errors after logging them.
type EventSink interface {
	Publish(ctx context.Context, ev AppliedEvent) error
}

// Dispatcher applies events to per-session selections and runs the
// bindings registered for each trigger.
type Dispatcher struct {
	registry *Registry
	sessions *SessionStore
	sink     EventSink
	now      func() time.Time
}

func NewDispatcher(registry *Registry, sessions *SessionStore, sink EventSink) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sessions: sessions,
		sink:     sink,
		now:      time.Now,
	}
}

// Selection returns the current selection of a session.
func (d *Dispatcher) Selection(sessionID string) core.Selection {
	return d.sessions.Get(sessionID)
}

// Dispatch applies ev to the session's selection and returns the updates of
// every output bound to the event's trigger. On error the selection is left
// unchanged and no update is produced.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, ev Event) ([]Update, error) {
	if ev.Kind == "" {
		ev.Kind = Change
	}
	trigger := Trigger{Source: ev.Source, Kind: ev.Kind}

	bindings := d.registry.Bindings(trigger)
	if len(bindings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrigger, trigger)
	}
	apply, ok := d.registry.input(ev.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInput, ev.Source)
	}

	sel, err := d.sessions.Update(sessionID, func(sel *core.Selection) error {
		return apply(sel, ev.Value)
	})
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", trigger, err)
	}

	updates := make([]Update, 0, len(bindings))
	for _, b := range bindings {
		updates = append(updates, b.Handler(ctx, sel))
	}

	slog.DebugContext(ctx, "Event dispatched",
		"trigger", trigger.String(),
		"vehicle_type", sel.VehicleType,
		"year", sel.Year,
		"updates", len(updates))

	if d.sink != nil {
		applied := AppliedEvent{SessionID: sessionID, Event: ev, Selection: sel, At: d.now()}
		if err := d.sink.Publish(ctx, applied); err != nil {
			slog.WarnContext(ctx, "Event sink publish failed", "error", err, "trigger", trigger.String())
		}
	}
	return updates, nil
}

// Render computes every output for sel, as for the initial page.
func (d *Dispatcher) Render(ctx context.Context, sel core.Selection) []Update {
	outputs := d.registry.Outputs()
	updates := make([]Update, 0, len(outputs))
	for _, b := range outputs {
		updates = append(updates, b.Handler(ctx, sel))
	}
	return updates
}

package amqp

import (
	"encoding/json"
	"time"

	"autosales/internal/dashboard"
)

// SelectionChangedMessage is the wire form of one applied selector event.
type SelectionChangedMessage struct {
	SessionID   string    `json:"session_id"`
	Source      string    `json:"source"`
	Event       string    `json:"event"`
	Value       string    `json:"value"`
	VehicleType string    `json:"vehicle_type"`
	Year        int       `json:"year"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewSelectionChangedMessage(ev dashboard.AppliedEvent) *SelectionChangedMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &SelectionChangedMessage{
		SessionID:   ev.SessionID,
		Source:      ev.Event.Source,
		Event:       string(ev.Event.Kind),
		Value:       ev.Event.Value,
		VehicleType: ev.Selection.VehicleType.String(),
		Year:        ev.Selection.Year,
		Timestamp:   ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *SelectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SelectionChangedMessageFromJSON(data []byte) (*SelectionChangedMessage, error) {
	var msg SelectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

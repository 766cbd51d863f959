package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypeEscortMatchedV1 is the wire name of the match event.
const TypeEscortMatchedV1 = "escort.matched.v1"

// EscortMatchedV1 is emitted once per executed match. Consumers build the
// read-only match history projection from this feed; the two escort
// documents remain the source of truth.
type EscortMatchedV1 struct {
	RequestID      string    `json:"requestId"`
	AvailabilityID string    `json:"availabilityId"`
	UserID         string    `json:"userId"`
	ProviderID     string    `json:"providerId"`
	Date           string    `json:"date"`
	FromTime       string    `json:"fromTime"`
	ToTime         string    `json:"toTime"`
	Hospital       string    `json:"hospital"`
	MatchedAt      time.Time `json:"matchedAt"`
}

// EventType identifies the event on the wire.
func (EscortMatchedV1) EventType() string { return TypeEscortMatchedV1 }

// Envelope captures transport metadata for published events.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Wrap serializes an event into its transport envelope.
func Wrap(evt EscortMatchedV1) (Envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: failed to marshal payload: %w", err)
	}
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: evt.EventType(),
		Timestamp: time.Now().UTC().UnixMicro(),
		Payload:   payload,
	}, nil
}

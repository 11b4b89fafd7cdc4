package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/funnel/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of an outcome event sent to clients
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Wrap encodes a domain event into an Envelope
func Wrap(event shared.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	return Envelope{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}, nil
}

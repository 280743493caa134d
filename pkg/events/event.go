package events

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every event envelope. Bump it when a payload
// changes incompatibly.
const SchemaVersion = 1

// DomainEvent is the interface all domain events must implement.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	OccurredAt() time.Time
}

// Metadata is the serialized envelope of an event. It travels under the
// "meta" key of the payload so consumers can route on it without headers.
type Metadata struct {
	OccurredAt    time.Time `json:"occurred_at"`
	EventType     string    `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	ID            uuid.UUID `json:"event_id"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	SchemaVersion int       `json:"schema_version"`
}

// BaseEvent implements DomainEvent. Concrete events embed it and add their
// payload as exported fields.
type BaseEvent struct {
	Meta Metadata `json:"meta"`
}

// NewBaseEvent creates an envelope stamped with the current time.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string) BaseEvent {
	return NewBaseEventAt(eventType, aggregateID, aggregateType, time.Now())
}

// NewBaseEventAt creates an envelope for an event that happened at at.
func NewBaseEventAt(eventType string, aggregateID uuid.UUID, aggregateType string, at time.Time) BaseEvent {
	return BaseEvent{Meta: Metadata{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		OccurredAt:    at.UTC(),
		SchemaVersion: SchemaVersion,
	}}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.Meta.ID }
func (e BaseEvent) EventType() string      { return e.Meta.EventType }
func (e BaseEvent) AggregateID() uuid.UUID { return e.Meta.AggregateID }
func (e BaseEvent) AggregateType() string  { return e.Meta.AggregateType }
func (e BaseEvent) OccurredAt() time.Time  { return e.Meta.OccurredAt }

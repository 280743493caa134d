package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

type sampleEvent struct {
	events.BaseEvent
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := events.NewBaseEvent("risk.sample", aggregateID, "RankingRun")
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "risk.sample", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "RankingRun", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ events.DomainEvent = events.BaseEvent{}
	var _ events.DomainEvent = sampleEvent{}
}

func TestNewOutboxEntry(t *testing.T) {
	aggregateID := uuid.New()
	event := sampleEvent{
		BaseEvent: events.NewBaseEvent("risk.sample", aggregateID, "RankingRun"),
		Name:      "Acme",
		Score:     19,
	}

	entry, err := events.NewOutboxEntry(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), entry.ID)
	assert.Equal(t, aggregateID, entry.AggregateID)
	assert.Equal(t, "RankingRun", entry.AggregateType)
	assert.Equal(t, "risk.sample", entry.EventType)
	assert.Equal(t, event.OccurredAt(), entry.CreatedAt)
	assert.Nil(t, entry.PublishedAt)

	var payload struct {
		Meta  events.Metadata `json:"meta"`
		Name  string          `json:"name"`
		Score float64         `json:"score"`
	}
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, "Acme", payload.Name)
	assert.Equal(t, 19.0, payload.Score)
	assert.Equal(t, event.EventID(), payload.Meta.ID)
	assert.Equal(t, "risk.sample", payload.Meta.EventType)
	assert.Equal(t, events.SchemaVersion, payload.Meta.SchemaVersion)
	assert.True(t, event.OccurredAt().Equal(payload.Meta.OccurredAt))
}

func TestNewOutboxEntries(t *testing.T) {
	first := events.NewBaseEvent("a", uuid.New(), "X")
	second := events.NewBaseEvent("b", uuid.New(), "X")

	entries, err := events.NewOutboxEntries(first, second)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].EventType)
	assert.Equal(t, "b", entries[1].EventType)

	entries, err = events.NewOutboxEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewBaseEventAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("GST", 4*3600))
	event := events.NewBaseEventAt("risk.sample", uuid.New(), "RankingRun", at)

	assert.True(t, at.Equal(event.OccurredAt()))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestEventCollector(t *testing.T) {
	var c events.EventCollector
	first := events.NewBaseEvent("a", uuid.New(), "X")
	second := events.NewBaseEvent("b", uuid.New(), "X")

	c.Record(first)
	c.Record(second)

	assert.Len(t, c.Events(), 2)
	c.Events()[0] = nil
	assert.Equal(t, first, c.Events()[0], "Events returns a copy")

	cleared := c.ClearEvents()
	assert.Equal(t, []events.DomainEvent{first, second}, cleared)
	assert.Empty(t, c.Events())
}

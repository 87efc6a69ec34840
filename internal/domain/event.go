package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventBalanceChanged  EventType = "balance.changed"
	EventIdentityUpdated EventType = "identity.updated"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePlayer AggregateType = "player"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// OutboxRow is an OutboxDraft as read back, with its sequence id.
type OutboxRow struct {
	SeqID int64
	OutboxDraft
}

// Topic returns the Kafka topic the event is relayed to.
func (d OutboxDraft) Topic() string {
	return "playerdata." + string(d.AggregateType) + "." + string(d.EventType)
}

// NewBalanceChangedEvent creates the notification for a committed balance change.
func NewBalanceChangedEvent(change BalanceChange) OutboxDraft {
	payload, _ := json.Marshal(change)
	return newPlayerEvent(change.PlayerID, EventBalanceChanged, payload, change.OccurredAt)
}

// NewIdentityUpdatedEvent creates the notification for an identity upsert.
func NewIdentityUpdatedEvent(identity Identity) OutboxDraft {
	payload, _ := json.Marshal(identity)
	return newPlayerEvent(identity.PlayerID, EventIdentityUpdated, payload, identity.LastRefresh)
}

func newPlayerEvent(playerID uuid.UUID, eventType EventType, payload json.RawMessage, at time.Time) OutboxDraft {
	if at.IsZero() {
		at = time.Now()
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   playerID.String(),
		EventType:     eventType,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    at,
	}
}

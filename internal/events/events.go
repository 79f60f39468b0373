package events

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Type string

const (
	CustomerCreated Type = "customer.created"
	CustomerUpdated Type = "customer.updated"
	CustomerDeleted Type = "customer.deleted"
	OrderCreated    Type = "order.created"
	OrderUpdated    Type = "order.updated"
	OrderDeleted    Type = "order.deleted"
)

func (t Type) String() string {
	return string(t)
}

// Event is the message published after a successful change. Data holds the
// record as it was saved; it is omitted for deletions.
type Event struct {
	Type       Type      `json:"type"`
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// Notify publishes an event stamped with occurredAt and only logs a failure.
// Delivery is best-effort and never fails the change that triggered it.
func Notify(ctx context.Context, p Publisher, eventType Type, id uuid.UUID, occurredAt time.Time, data any) {
	if p == nil {
		return
	}

	event := Event{
		Type:       eventType,
		ID:         id,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}

	if err := p.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Stringer("event_type", eventType).Stringer("entity_id", id).Msg("events: failed to publish event")
	}
}

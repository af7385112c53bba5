package events

import (
	"context"
	"fmt"
	"time"

	"deskbook/pkg/kafka"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"
)

const (
	TypeAdmitted = "reservation.admitted"
	TypeDeleted  = "reservation.deleted"

	SchemaVersion = "1"
	Source        = "deskbook-reservations"
)

// Event is the payload written to the reservation events topic.
type Event struct {
	Type        string             `json:"type"`
	Reservation *model.Reservation `json:"reservation"`
	Actor       string             `json:"actor"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Publisher announces reservation lifecycle changes. Publishing happens after the
// store commit, so a failure never undoes an admission.
type Publisher interface {
	Admitted(ctx context.Context, r *model.Reservation) error
	Deleted(ctx context.Context, r *model.Reservation, by model.Identity) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer messagePublisher
	now      func() time.Time
}

func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return newKafkaPublisher(producer)
}

func newKafkaPublisher(producer messagePublisher) *kafkaPublisher {
	return &kafkaPublisher{producer: producer, now: time.Now}
}

func (p *kafkaPublisher) Admitted(ctx context.Context, r *model.Reservation) error {
	return p.publish(ctx, Event{Type: TypeAdmitted, Reservation: r, Actor: r.UserEmail})
}

func (p *kafkaPublisher) Deleted(ctx context.Context, r *model.Reservation, by model.Identity) error {
	return p.publish(ctx, Event{Type: TypeDeleted, Reservation: r, Actor: by.Email})
}

// publish keys by seat so every event for one seat lands on one partition in order.
func (p *kafkaPublisher) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now().UTC()

	msg, err := kafka.NewMessage().
		WithKey(fmt.Sprintf("seat-%d", event.Reservation.SeatID)).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithTimestamp(event.OccurredAt).
		WithJSON(event).
		Build()
	if err != nil {
		return err
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for reservation %d: %w", event.Type, event.Reservation.ID, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Admitted(context.Context, *model.Reservation) error { return nil }

func (noopPublisher) Deleted(context.Context, *model.Reservation, model.Identity) error { return nil }

func (noopPublisher) Close() error { return nil }

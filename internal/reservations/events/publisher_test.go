package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"deskbook/pkg/kafka"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	messages []kafka.Message
	err      error
}

func (r *recordingProducer) Publish(_ context.Context, msg kafka.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func sample() *model.Reservation {
	begin := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &model.Reservation{ID: 4, SeatID: 12, BeginTime: begin, EndTime: begin.Add(time.Hour), UserEmail: "a@x.io"}
}

func TestKafkaPublisher_Admitted(t *testing.T) {
	producer := &recordingProducer{}
	p := newKafkaPublisher(producer)
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")

	require.NoError(t, p.Admitted(ctx, sample()))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "seat-12", msg.Key)
	assert.Equal(t, TypeAdmitted, msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.NotEmpty(t, msg.GetEventID())

	var event Event
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, int64(4), event.Reservation.ID)
	assert.Equal(t, "a@x.io", event.Actor)
}

func TestKafkaPublisher_DeletedCarriesActor(t *testing.T) {
	producer := &recordingProducer{}
	p := newKafkaPublisher(producer)

	require.NoError(t, p.Deleted(context.Background(), sample(), model.Identity{Email: "admin@x.io", Role: model.RoleAdmin}))

	var event Event
	require.NoError(t, producer.messages[0].DecodeValue(&event))
	assert.Equal(t, TypeDeleted, event.Type)
	assert.Equal(t, "admin@x.io", event.Actor)
}

func TestKafkaPublisher_WrapsProducerError(t *testing.T) {
	cause := errors.New("broker down")
	p := newKafkaPublisher(&recordingProducer{err: cause})

	err := p.Admitted(context.Background(), sample())
	assert.ErrorIs(t, err, cause)
}

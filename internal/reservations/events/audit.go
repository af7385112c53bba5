package events

import (
	"context"
	"fmt"

	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"
)

// NewAuditHandler returns a consumer handler that writes one structured audit
// record per reservation event. Undecodable or unknown events are permanent
// failures and go straight to the dead letter topic.
func NewAuditHandler(log *logger.Logger) kafka.MessageHandler {
	return func(_ context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("decode reservation event", err)
		}
		if event.Reservation == nil {
			return kafka.NewPermanentError("reservation event without reservation", nil)
		}

		var action string
		switch event.Type {
		case TypeAdmitted:
			action = "admitted"
		case TypeDeleted:
			action = "deleted"
		default:
			return kafka.NewPermanentError(fmt.Sprintf("unknown event type %q", event.Type), nil)
		}

		log.Info("Reservation audit",
			"action", action,
			"reservation_id", event.Reservation.ID,
			"seat_id", event.Reservation.SeatID,
			"day", event.Reservation.Day,
			"begin_time", event.Reservation.BeginTime,
			"end_time", event.Reservation.EndTime,
			"owner", event.Reservation.UserEmail,
			"actor", event.Actor,
			"occurred_at", event.OccurredAt,
			"event_id", msg.GetEventID(),
			"correlation_id", msg.GetCorrelationID(),
		)
		return nil
	}
}

package repository

import (
	"context"
	"time"

	"deskbook/pkg/model"
)

const (
	CollectionName = "Reservations"

	CountersCollection = "Counters"
	reservationCounter = "reservations"
)

// ReservationRepository stores admitted reservations. Overlap uses closed
// intervals: windows that only touch at an endpoint still overlap.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id int64) (*model.Reservation, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context) (int64, error)
	FindByUser(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error)
	CountByUser(ctx context.Context, email string) (int64, error)
	FindOverlapping(ctx context.Context, seatID int64, begin, end time.Time) ([]*model.Reservation, error)
	FindByUserAndDay(ctx context.Context, email, day string) ([]*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
	// WithinTransaction runs fn atomically. Repository calls made with the ctx
	// passed to fn join the transaction; an error from fn rolls it back.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"
	"deskbook/internal/reservations/lock"
	"deskbook/internal/reservations/repository"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

const defaultReleaseTimeout = 5 * time.Second

// Engine decides whether a proposal that already passed the calendar rules can
// be stored. The seat and the user's day are locked first, then both
// inventory rules are checked and the reservation inserted in one transaction.
// Two concurrent proposals for the same seat window or the same user day
// therefore cannot both be admitted.
type Engine struct {
	repo           repository.ReservationRepository
	locker         lock.Locker
	log            *logger.Logger
	now            func() time.Time
	releaseTimeout time.Duration
}

type Option func(*Engine)

// WithClock sets the clock used for bookkeeping timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithReleaseTimeout(d time.Duration) Option {
	return func(e *Engine) { e.releaseTimeout = d }
}

func NewEngine(repo repository.ReservationRepository, locker lock.Locker, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:           repo,
		locker:         locker,
		log:            log,
		now:            time.Now,
		releaseTimeout: defaultReleaseTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TryAdmit returns an admitted or rejected Admission, or an error when the
// outcome is unknown. ErrLockTimeout and ErrCommitFailed are transient and the
// caller may resubmit.
func (e *Engine) TryAdmit(ctx context.Context, p model.Proposal) (model.Admission, error) {
	day := p.Day()
	log := e.log.With("seat_id", p.SeatID, "user_email", p.UserEmail, "day", day)

	release, err := e.locker.Acquire(ctx, lock.SeatKey(p.SeatID), lock.UserDayKey(p.UserEmail, day))
	if err != nil {
		if errors.Is(err, reservationserrors.ErrLockTimeout) {
			log.Warn("Admission lock wait exhausted", "error", err)
		}
		return model.Admission{}, fmt.Errorf("acquire admission locks: %w", err)
	}
	defer e.release(ctx, log, release)

	var (
		admission model.Admission
		checked   bool
	)
	err = e.repo.WithinTransaction(ctx, func(txCtx context.Context) error {
		checked = false

		conflicts, err := e.repo.FindOverlapping(txCtx, p.SeatID, p.BeginTime, p.EndTime)
		if err != nil {
			return fmt.Errorf("check seat availability: %w", err)
		}
		if len(conflicts) > 0 {
			admission = model.Rejected(model.ReasonSeatConflict)
			log.Info("Proposal rejected", "reason", model.ReasonSeatConflict, "conflicting_id", conflicts[0].ID)
			return nil
		}

		sameDay, err := e.repo.FindByUserAndDay(txCtx, p.UserEmail, day)
		if err != nil {
			return fmt.Errorf("check daily quota: %w", err)
		}
		if len(sameDay) > 0 {
			admission = model.Rejected(model.ReasonDailyQuotaExceeded)
			log.Info("Proposal rejected", "reason", model.ReasonDailyQuotaExceeded, "existing_id", sameDay[0].ID)
			return nil
		}

		checked = true
		now := e.now().UTC()
		reservation := &model.Reservation{
			SeatID:    p.SeatID,
			BeginTime: p.BeginTime,
			EndTime:   p.EndTime,
			Day:       day,
			UserEmail: p.UserEmail,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.repo.Create(txCtx, reservation); err != nil {
			return err
		}
		admission = model.Admitted(reservation)
		return nil
	})
	if err != nil {
		if checked {
			log.Error("Admission commit failed", "error", err)
			return model.Admission{}, fmt.Errorf("%w: %w", reservationserrors.ErrCommitFailed, err)
		}
		log.Error("Admission checks failed", "error", err)
		return model.Admission{}, err
	}

	if admission.IsAdmitted() {
		log.Info("Proposal admitted", "id", admission.Reservation.ID)
	}
	return admission, nil
}

// release runs on a context detached from the caller's so a cancelled request
// still frees its locks.
func (e *Engine) release(ctx context.Context, log *logger.Logger, release lock.Release) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.releaseTimeout)
	defer cancel()

	if err := release(ctx); err != nil {
		log.Warn("Failed to release admission locks", "error", err)
	}
}

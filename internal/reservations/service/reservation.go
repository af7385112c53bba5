package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"deskbook/internal/reservations/events"
	reservationserrors "deskbook/internal/reservations/errors"
	"deskbook/internal/reservations/repository"
	"deskbook/internal/reservations/validator"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
	"deskbook/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type ReservationService interface {
	Propose(ctx context.Context, identity model.Identity, req *model.ProposalRequest) (model.Admission, error)
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	GetMine(ctx context.Context, identity model.Identity, limit int, offset int64) ([]*model.Reservation, int64, error)
	Delete(ctx context.Context, identity model.Identity, id int64) error
}

// Admitter is the admission engine as seen by the service.
type Admitter interface {
	TryAdmit(ctx context.Context, p model.Proposal) (model.Admission, error)
}

type Dependencies struct {
	Repo      repository.ReservationRepository
	Engine    Admitter
	Validator *validator.ProposalValidator
	Publisher events.Publisher
	Hours     model.BusinessHours
	Log       *logger.Logger
	Now       func() time.Time
}

type reservationService struct {
	repo      repository.ReservationRepository
	engine    Admitter
	validator *validator.ProposalValidator
	publisher events.Publisher
	hours     model.BusinessHours
	log       *logger.Logger
	now       func() time.Time
}

func NewReservationService(deps Dependencies) ReservationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewNoopPublisher()
	}
	return &reservationService{
		repo:      deps.Repo,
		engine:    deps.Engine,
		validator: deps.Validator,
		publisher: deps.Publisher,
		hours:     deps.Hours,
		log:       deps.Log,
		now:       deps.Now,
	}
}

// CanDelete reports whether identity may remove r: its owner or an admin.
func CanDelete(identity model.Identity, r *model.Reservation) bool {
	return identity.Email == r.UserEmail || identity.IsAdmin()
}

func (s *reservationService) Propose(ctx context.Context, identity model.Identity, req *model.ProposalRequest) (model.Admission, error) {
	identity = sanitizer.SanitizeIdentity(identity)
	req.UserEmail = identity.Email

	if err := s.validator.Validate(req); err != nil {
		s.log.Warn("Reservation request validation failed", "user_email", identity.Email, "error", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return model.Admission{}, apperrors.Validation("Invalid reservation request", verrs.Details())
		}
		return model.Admission{}, apperrors.Validation("Invalid reservation request", map[string]any{"error": err.Error()})
	}

	proposal := req.Proposal()
	if rejection := validator.ValidateWindow(proposal.BeginTime, proposal.EndTime, s.now(), s.hours); rejection != nil {
		s.log.Info("Proposal rejected",
			"reason", rejection.Reason,
			"seat_id", proposal.SeatID,
			"user_email", proposal.UserEmail,
		)
		return model.Admission{Rejection: rejection}, nil
	}

	admission, err := s.engine.TryAdmit(ctx, proposal)
	if err != nil {
		switch {
		case errors.Is(err, reservationserrors.ErrLockTimeout), errors.Is(err, reservationserrors.ErrCommitFailed):
			return model.Admission{}, apperrors.Unavailable("Reservation service", err)
		case errors.Is(err, context.DeadlineExceeded):
			return model.Admission{}, apperrors.Timeout("Reservation request timed out")
		case errors.Is(err, reservationserrors.ErrStoreUnavailable):
			return model.Admission{}, apperrors.Unavailable("Reservation store", err)
		case errors.Is(err, context.Canceled):
			return model.Admission{}, err
		default:
			return model.Admission{}, apperrors.Internal("Failed to admit reservation", err)
		}
	}

	if admission.IsAdmitted() {
		if err := s.publisher.Admitted(ctx, admission.Reservation); err != nil {
			s.log.Error("Failed to publish reservation event", "id", admission.Reservation.ID, "error", err)
		}
	}
	return admission, nil
}

func (s *reservationService) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}
	return reservation, nil
}

func (s *reservationService) mapFindError(id int64, err error) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", strconv.FormatInt(id, 10))
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	default:
		s.log.Error("Failed to retrieve reservation", "id", id, "error", err)
		return apperrors.Internal("Failed to retrieve reservation", err)
	}
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return s.page(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx) },
		func(ctx context.Context) ([]*model.Reservation, error) { return s.repo.FindAll(ctx, limit, offset) },
	)
}

func (s *reservationService) GetMine(ctx context.Context, identity model.Identity, limit int, offset int64) ([]*model.Reservation, int64, error) {
	email := sanitizer.SanitizeEmail(identity.Email)
	return s.page(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByUser(ctx, email) },
		func(ctx context.Context) ([]*model.Reservation, error) {
			return s.repo.FindByUser(ctx, email, limit, offset)
		},
	)
}

// page fetches the total and one page concurrently.
func (s *reservationService) page(
	ctx context.Context,
	count func(context.Context) (int64, error),
	find func(context.Context) ([]*model.Reservation, error),
) ([]*model.Reservation, int64, error) {
	var (
		total        int64
		reservations []*model.Reservation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if total, err = count(gctx); err != nil {
			s.log.Error("Failed to count reservations", "error", err)
			return apperrors.Internal("Failed to count reservations", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if reservations, err = find(gctx); err != nil {
			s.log.Error("Failed to list reservations", "error", err)
			return apperrors.Internal("Failed to retrieve reservations", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (s *reservationService) Delete(ctx context.Context, identity model.Identity, id int64) error {
	identity = sanitizer.SanitizeIdentity(identity)

	var deleted *model.Reservation
	err := s.repo.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return s.mapFindError(id, err)
		}
		if !CanDelete(identity, existing) {
			return apperrors.Forbidden("You are not authorized to delete this reservation")
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", strconv.FormatInt(id, 10))
			}
			return apperrors.Internal("Failed to delete reservation", err)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeForbidden) {
			s.log.Warn("Reservation delete refused", "id", id, "user_email", identity.Email)
		}
		return err
	}

	s.log.Info("Reservation deleted", "id", id, "seat_id", deleted.SeatID, "deleted_by", identity.Email)
	if err := s.publisher.Deleted(ctx, deleted, identity); err != nil {
		s.log.Error("Failed to publish reservation event", "id", id, "error", err)
	}
	return nil
}

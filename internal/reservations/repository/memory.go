package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"
	"deskbook/pkg/model"
)

type memoryTxKey struct{}

// memoryTx records how to undo the writes made inside one transaction.
type memoryTx struct {
	undo []func()
}

// memoryReservationRepository keeps reservations in process memory. Writes are
// serialised by writeMu; a transaction holds writeMu for its whole duration and
// unwinds its writes if fn fails.
type memoryReservationRepository struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	byID    map[int64]*model.Reservation
	seq     int64
	now     func() time.Time
}

func NewMemoryReservationRepository() ReservationRepository {
	return &memoryReservationRepository{
		byID: make(map[int64]*model.Reservation),
		now:  time.Now,
	}
}

func txFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	return tx
}

// write runs op under writeMu unless ctx already belongs to a transaction, which
// holds it.
func (r *memoryReservationRepository) write(ctx context.Context, op func(tx *memoryTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := txFrom(ctx)
	if tx == nil {
		r.writeMu.Lock()
		defer r.writeMu.Unlock()
	}
	return op(tx)
}

func (r *memoryReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.write(ctx, func(tx *memoryTx) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		prevSeq := r.seq
		r.seq++
		reservation.ID = r.seq
		if reservation.CreatedAt.IsZero() {
			reservation.CreatedAt = r.now().UTC()
		}
		if reservation.UpdatedAt.IsZero() {
			reservation.UpdatedAt = reservation.CreatedAt
		}

		stored := *reservation
		r.byID[stored.ID] = &stored

		if tx != nil {
			tx.undo = append(tx.undo, func() {
				delete(r.byID, stored.ID)
				r.seq = prevSeq
			})
		}
		return nil
	})
}

func (r *memoryReservationRepository) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(tx *memoryTx) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		existing, ok := r.byID[id]
		if !ok {
			return reservationserrors.ErrNotFound
		}
		delete(r.byID, id)

		if tx != nil {
			tx.undo = append(tx.undo, func() { r.byID[id] = existing })
		}
		return nil
	})
}

func (r *memoryReservationRepository) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", reservationserrors.ErrInvalidID, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	found := *existing
	return &found, nil
}

// selectSorted returns copies of matching reservations ordered by begin time, then id.
func (r *memoryReservationRepository) selectSorted(ctx context.Context, match func(*model.Reservation) bool) ([]*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := []*model.Reservation{}
	for _, res := range r.byID {
		if match(res) {
			c := *res
			out = append(out, &c)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.Reservation) int {
		if c := a.BeginTime.Compare(b.BeginTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func paginate(all []*model.Reservation, limit int, offset int64) []*model.Reservation {
	if offset >= int64(len(all)) {
		return []*model.Reservation{}
	}
	end := min(int64(len(all)), offset+int64(limit))
	return all[offset:end]
}

func matchAll(*model.Reservation) bool { return true }

func byUser(email string) func(*model.Reservation) bool {
	return func(r *model.Reservation) bool { return r.UserEmail == email }
}

func (r *memoryReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	sorted, err := r.selectSorted(ctx, matchAll)
	if err != nil {
		return nil, err
	}
	return paginate(sorted, limit, offset), nil
}

func (r *memoryReservationRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *memoryReservationRepository) FindByUser(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	sorted, err := r.selectSorted(ctx, byUser(email))
	if err != nil {
		return nil, err
	}
	return paginate(sorted, limit, offset), nil
}

func (r *memoryReservationRepository) CountByUser(ctx context.Context, email string) (int64, error) {
	matches, err := r.selectSorted(ctx, byUser(email))
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

func (r *memoryReservationRepository) FindOverlapping(ctx context.Context, seatID int64, begin, end time.Time) ([]*model.Reservation, error) {
	return r.selectSorted(ctx, func(res *model.Reservation) bool {
		return res.SeatID == seatID && !res.BeginTime.After(end) && !res.EndTime.Before(begin)
	})
}

func (r *memoryReservationRepository) FindByUserAndDay(ctx context.Context, email, day string) ([]*model.Reservation, error) {
	return r.selectSorted(ctx, func(res *model.Reservation) bool {
		return res.UserEmail == email && res.Day == day
	})
}

func (r *memoryReservationRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx := &memoryTx{}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		r.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

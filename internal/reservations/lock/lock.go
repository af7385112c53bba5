package lock

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Release gives up every key taken by one Acquire call. It is safe to call more
// than once.
type Release func(ctx context.Context) error

// Locker grants mutually exclusive, time-bounded ownership of a set of keys.
// Acquire takes all keys or none; it fails with ErrLockTimeout when the wait
// budget runs out.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

type Options struct {
	// TTL bounds how long a key stays held if its holder never releases it.
	TTL time.Duration
	// WaitTimeout bounds how long Acquire waits for contended keys.
	WaitTimeout time.Duration
	// RetryInterval is the poll period for lockers that cannot block on a key.
	RetryInterval time.Duration
}

func SeatKey(seatID int64) string {
	return fmt.Sprintf("seat:%d", seatID)
}

func UserDayKey(email, day string) string {
	return "user:" + strings.ToLower(email) + ":" + day
}

// normalize sorts and de-duplicates keys. Every locker takes keys in this order,
// so two callers contending for overlapping sets cannot deadlock.
func normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"
	"deskbook/pkg/config"
	"deskbook/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LocksCollection = "Reservation_locks"

type lockDocument struct {
	Key       string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoLocker keeps advisory locks as documents keyed by lock name, so the
// unique _id index arbitrates between service instances. Expired documents are
// taken over in place and swept by a TTL index.
type MongoLocker struct {
	collection   *mongo.Collection
	opts         Options
	writeTimeout time.Duration
	log          *logger.Logger
	now          func() time.Time
}

func NewMongoLocker(cfg *config.Config) *MongoLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoLocker{
		collection: db.Collection(LocksCollection),
		opts: Options{
			TTL:           cfg.LockTTL,
			WaitTimeout:   cfg.LockWaitTimeout,
			RetryInterval: cfg.LockRetryInterval,
		},
		writeTimeout: cfg.WriteTimeout,
		log:          cfg.Log,
		now:          time.Now,
	}
}

func (l *MongoLocker) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = normalize(keys)
	owner := uuid.NewString()

	deadline := l.now().Add(l.opts.WaitTimeout)
	held := make([]string, 0, len(keys))

	for _, key := range keys {
		if err := l.acquireOne(ctx, key, owner, deadline); err != nil {
			if releaseErr := l.release(context.WithoutCancel(ctx), owner, held); releaseErr != nil {
				l.log.Warn("Failed to roll back partially acquired locks",
					"keys", held,
					"owner", owner,
					"error", releaseErr,
				)
			}
			return nil, err
		}
		held = append(held, key)
	}

	return func(ctx context.Context) error {
		return l.release(ctx, owner, held)
	}, nil
}

func (l *MongoLocker) acquireOne(ctx context.Context, key, owner string, deadline time.Time) error {
	interval := l.opts.RetryInterval
	for {
		ok, err := l.tryAcquire(ctx, key, owner)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if !l.now().Add(interval).Before(deadline) {
			return fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, key)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval = min(interval*2, 250*time.Millisecond)
	}
}

// tryAcquire inserts the lock document, or replaces it when the current holder's
// lease has run out. false means the key is held by a live owner.
func (l *MongoLocker) tryAcquire(ctx context.Context, key, owner string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	now := l.now()
	doc := lockDocument{
		Key:       key,
		Owner:     owner,
		ExpiresAt: now.Add(l.opts.TTL),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert lock %s: %w", key, err)
	}

	err = l.collection.FindOneAndReplace(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lt": now}},
		doc,
		options.FindOneAndReplace().SetProjection(bson.M{"_id": 1}),
	).Err()
	switch {
	case err == nil:
		l.log.Warn("Took over expired reservation lock", "key", key, "owner", owner)
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("take over lock %s: %w", key, err)
	}
}

func (l *MongoLocker) release(ctx context.Context, owner string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	res, err := l.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}, "owner": owner})
	if err != nil {
		return fmt.Errorf("release locks %v: %w", keys, err)
	}
	if res.DeletedCount < int64(len(keys)) {
		return fmt.Errorf("%w: %d of %d keys expired before release", reservationserrors.ErrLockNotHeld, int64(len(keys))-res.DeletedCount, len(keys))
	}
	return nil
}

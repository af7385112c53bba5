package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"
	"deskbook/pkg/config"
	mongotx "deskbook/pkg/db/mongo"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	counters   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		counters:   db.Collection(CountersCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

var byBeginTime = bson.D{{Key: "begin_time", Value: 1}, {Key: "_id", Value: 1}}

// nextID hands out increasing integer ids from the Counters collection. Inside a
// transaction the increment commits or rolls back with the insert.
func (r *mongoReservationRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": reservationCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate reservation id: %w", err)
	}
	return counter.Seq, nil
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	reservation.ID = id

	now := time.Now().UTC()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = reservation.CreatedAt
	}
	reservation.CreatedAt = reservation.CreatedAt.Truncate(time.Millisecond)
	reservation.UpdatedAt = reservation.UpdatedAt.Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func page(limit int, offset int64) *options.FindOptions {
	return options.Find().
		SetSort(byBeginTime).
		SetLimit(int64(limit)).
		SetSkip(offset)
}

func (r *mongoReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return r.find(ctx, bson.M{}, page(limit, offset))
}

func (r *mongoReservationRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoReservationRepository) FindByUser(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	return r.find(ctx, bson.M{"user_email": email}, page(limit, offset))
}

func (r *mongoReservationRepository) CountByUser(ctx context.Context, email string) (int64, error) {
	return r.count(ctx, bson.M{"user_email": email})
}

func (r *mongoReservationRepository) FindOverlapping(ctx context.Context, seatID int64, begin, end time.Time) ([]*model.Reservation, error) {
	filter := bson.M{
		"seat_id":    seatID,
		"begin_time": bson.M{"$lte": end},
		"end_time":   bson.M{"$gte": begin},
	}
	return r.find(ctx, filter, options.Find().SetSort(byBeginTime))
}

func (r *mongoReservationRepository) FindByUserAndDay(ctx context.Context, email, day string) ([]*model.Reservation, error) {
	return r.find(ctx, bson.M{"user_email": email, "day": day}, options.Find().SetSort(byBeginTime))
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
	if err != nil && mongotx.IsTransient(err) && !errors.Is(err, reservationserrors.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", reservationserrors.ErrStoreUnavailable, err)
	}
	return err
}

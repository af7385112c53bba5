package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"deskbook/internal/migrations/mongo/validators"
	"deskbook/internal/reservations/lock"
	"deskbook/internal/reservations/repository"
	"deskbook/pkg/logger"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "seat_id", Value: 1},
			{Key: "begin_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "day", Value: 1}}},
		{Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "begin_time", Value: 1}}},
		{Keys: bson.D{{Key: "begin_time", Value: 1}}},
	}

	// Expired locks are also taken over on acquire; the TTL index only keeps the
	// collection from growing.
	LocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: repository.CollectionName, Indexes: ReservationsIndexes, Validator: validators.ReservationValidator},
		{Name: lock.LocksCollection, Indexes: LocksIndexes, Validator: validators.LockValidator},
		{Name: repository.CountersCollection},
	}
}

// RunMigration creates missing collections, refreshes validators on existing
// ones and ensures every index. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log = log.With("database", db.Name())
	log.Info("Running Mongo migrations")

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}

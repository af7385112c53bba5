package main

import (
	"context"
	"time"

	mongoMigration "deskbook/internal/migrations/mongo"
	"deskbook/pkg/config"
)

const (
	JobName          = "mongo-migration"
	migrationTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		cancel()
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration job exited with errors")
	}
	cfg.Log.Info("Migration completed successfully")
}

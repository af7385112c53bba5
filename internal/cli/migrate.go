package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	mongoMigration "deskbook/internal/migrations/mongo"
	"deskbook/pkg/config"
)

const migrateTimeout = 2 * time.Minute

// newMigrateCmd runs the Mongo migration in-process using the service
// environment (MONGO_URI, MONGO_DATABASE_NAME).
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create collections, validators and indexes in MongoDB",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load("deskctl")
			cfg.SetMongo()
			defer cfg.GracefulShutdown()

			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()
			return mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
		},
	}
}

package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"deskbook/internal/reservations/lock"
	"deskbook/internal/reservations/repository"
	"deskbook/pkg/logger"
)

func TestCollectionsCoverStores(t *testing.T) {
	names := map[string]bool{}
	for _, def := range Collections() {
		names[def.Name] = true
	}
	assert.True(t, names[repository.CollectionName])
	assert.True(t, names[lock.LocksCollection])
	assert.True(t, names[repository.CountersCollection])

	require.Len(t, LocksIndexes, 1)
	require.NotNil(t, LocksIndexes[0].Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *LocksIndexes[0].Options.ExpireAfterSeconds)
}

func TestRunMigration_Idempotent(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("deskbook_migrate_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	log := logger.Discard()
	require.NoError(t, RunMigration(ctx, db, log))
	require.NoError(t, RunMigration(ctx, db, log))

	_, err = db.Collection(repository.CollectionName).InsertOne(ctx, bson.M{"_id": int64(1), "seat_id": "A1"})
	assert.Error(t, err, "schema validator should refuse a malformed reservation")
}

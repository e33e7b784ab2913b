package repotest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoURIEnv names the variable that enables MongoDB integration tests.
const MongoURIEnv = "JENGACALC_TEST_MONGO_URI"

// NewMongo connects to the server named by JENGACALC_TEST_MONGO_URI and
// returns a throwaway database that is dropped on cleanup. The test is
// skipped when the variable is unset.
func NewMongo(t testing.TB) *mongo.Database {
	t.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", MongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("jengacalc_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// RequireReplicaSet skips the test unless db is served by a replica set
// member, which multi-document transactions need.
func RequireReplicaSet(t testing.TB, db *mongo.Database) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var hello bson.M
	require.NoError(t, db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello))
	if _, ok := hello["setName"]; !ok {
		t.Skip("mongo server is not a replica set member")
	}
}

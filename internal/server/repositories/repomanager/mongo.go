package repomanager

import (
	"context"
	"fmt"

	"github.com/jengacalc/jengacalc/internal/server/repositories/entitlements"
	"github.com/jengacalc/jengacalc/internal/server/repositories/payments"
	"github.com/jengacalc/jengacalc/internal/server/repositories/sessions"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRepositoryManager serves the MongoDB backend. Transactions need a
// replica set; the repositories pick the session up from the context.
type MongoRepositoryManager struct {
	client       *mongo.Client
	entitlements *entitlements.MongoRepository
	payments     *payments.MongoRepository
	sessions     *sessions.MongoRepository
}

// OpenMongo connects to uri and uses database name.
func OpenMongo(ctx context.Context, uri, name string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}
	return NewMongoRepositoryManager(client, client.Database(name)), nil
}

func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:       client,
		entitlements: entitlements.NewMongoRepository(db),
		payments:     payments.NewMongoRepository(db),
		sessions:     sessions.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Entitlements() entitlements.Repository { return m.entitlements }
func (m *MongoRepositoryManager) Payments() payments.Repository         { return m.payments }
func (m *MongoRepositoryManager) Sessions() sessions.Repository         { return m.sessions }

func (m *MongoRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, m)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo session error: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, m)
	})
	return err
}

// RunMigrations creates the indexes the repositories rely on.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.entitlements.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := m.payments.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.sessions.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

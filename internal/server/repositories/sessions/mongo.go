package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const CollectionName = "sessions"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, s *models.Session) error {
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}

package payments

import (
	"context"
	"fmt"

	"github.com/jengacalc/jengacalc/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "payments"

// MongoRepository keys documents by reference (_id), so the primary key
// index performs the de-duplication.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Record upserts by reference with $setOnInsert. A redelivery must not fail
// a write, since that aborts the enclosing transaction.
func (r *MongoRepository) Record(ctx context.Context, p *models.Payment) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": p.Reference},
		bson.M{"$setOnInsert": bson.M{
			"email":      p.Email,
			"amount":     p.Amount,
			"kind":       p.Kind,
			"created_at": p.CreatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		// Outside a transaction a racing upsert may still lose on the _id index.
		if mongo.IsDuplicateKeyError(err) && mongo.SessionFromContext(ctx) == nil {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *MongoRepository) ListByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	cur, err := r.coll.Find(ctx, bson.M{"email": email},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var result []*models.Payment
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	for _, p := range result {
		p.CreatedAt = p.CreatedAt.UTC()
	}
	return result, nil
}

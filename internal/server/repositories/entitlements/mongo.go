package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding entitlement documents.
const CollectionName = "entitlements"

// MongoRepository implements Repository over a MongoDB collection with a
// unique index on email. Conditional updates use FindOneAndUpdate so each
// mutation is a single atomic document operation.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository constructs a repository over db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindOrCreate(ctx context.Context, email string) (*models.Entitlement, error) {
	ts := now()
	update := bson.M{"$setOnInsert": bson.M{
		"_id":                 uuid.NewString(),
		"calculations_used":   int64(0),
		"subscription_active": false,
		"token_balance":       int64(0),
		"created_at":          ts,
		"updated_at":          ts,
	}}
	return r.upsert(ctx, email, update)
}

func (r *MongoRepository) Get(ctx context.Context, email string) (*models.Entitlement, error) {
	var e models.Entitlement
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return normalize(&e), nil
}

func (r *MongoRepository) ConsumeFreeCalculation(ctx context.Context, email string, limit int64) (*models.Entitlement, bool, error) {
	filter := bson.M{"email": email, "calculations_used": bson.M{"$lt": limit}}
	update := bson.M{
		"$inc": bson.M{"calculations_used": int64(1)},
		"$set": bson.M{"updated_at": now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Entitlement
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e)
	if err == nil {
		return normalize(&e), true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	got, err := r.Get(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return got, false, nil
}

func (r *MongoRepository) ActivateSubscription(ctx context.Context, email string, expires time.Time) (*models.Entitlement, error) {
	ts := now()
	update := bson.M{
		"$set": bson.M{
			"subscription_active":  true,
			"subscription_expires": expires.UTC(),
			"updated_at":           ts,
		},
		"$setOnInsert": bson.M{
			"_id":               uuid.NewString(),
			"calculations_used": int64(0),
			"token_balance":     int64(0),
			"created_at":        ts,
		},
	}
	return r.upsert(ctx, email, update)
}

func (r *MongoRepository) AddTokens(ctx context.Context, email string, n int64) (*models.Entitlement, error) {
	ts := now()
	update := bson.M{
		"$inc": bson.M{"token_balance": n},
		"$set": bson.M{"updated_at": ts},
		"$setOnInsert": bson.M{
			"_id":                 uuid.NewString(),
			"calculations_used":   int64(0),
			"subscription_active": false,
			"created_at":          ts,
		},
	}
	return r.upsert(ctx, email, update)
}

func (r *MongoRepository) ResetUsage(ctx context.Context, email string) (*models.Entitlement, error) {
	update := bson.M{"$set": bson.M{"calculations_used": int64(0), "updated_at": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Entitlement
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return normalize(&e), nil
}

// upsert applies update to the document for email, inserting it when absent.
// Two concurrent upserts of a new email can race on the unique index; the
// loser retries once and then matches the winner's document.
func (r *MongoRepository) upsert(ctx context.Context, email string, update bson.M) (*models.Entitlement, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var e models.Entitlement
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&e)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&e)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return normalize(&e), nil
}

// normalize converts BSON dates, which decode in local time, to UTC.
func normalize(e *models.Entitlement) *models.Entitlement {
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.SubscriptionExpires != nil {
		t := e.SubscriptionExpires.UTC()
		e.SubscriptionExpires = &t
	}
	return e
}

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/nebula-feed/internal/models"
)

// MongoAuditStore appends audit events to MongoDB.
type MongoAuditStore struct {
	col *mongo.Collection
}

func NewMongoAuditStore(db *mongo.Database) *MongoAuditStore {
	return &MongoAuditStore{col: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes used by Recent and per-account lookups.
func (s *MongoAuditStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo audit indexes: %w", err)
	}
	return nil
}

func (s *MongoAuditStore) Record(ctx context.Context, ev models.AuditEvent) error {
	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo audit insert: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *MongoAuditStore) Recent(ctx context.Context, limit int64) ([]models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo audit find: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.AuditEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo audit decode: %w", err)
	}
	return events, nil
}

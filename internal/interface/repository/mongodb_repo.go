package repository

import (
	"context"
	"fmt"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuditRepository implements the AuditRepository interface
type MongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new MongoDB audit repository
func NewMongoAuditRepository(db *mongo.Database) repository.AuditRepository {
	collection := db.Collection("audit_logs")

	ctx := context.Background()

	// Lookups of one object's history, newest first
	objectIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "modelName", Value: 1},
			{Key: "objectId", Value: 1},
			{Key: "timestamp", Value: -1},
		},
	}

	timestampIndex := mongo.IndexModel{
		Keys: bson.M{"timestamp": -1},
	}

	actionIndex := mongo.IndexModel{
		Keys: bson.M{"action": 1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		objectIndex,
		timestampIndex,
		actionIndex,
	})

	return &MongoAuditRepository{
		collection: collection,
	}
}

// Record appends an audit entry
func (r *MongoAuditRepository) Record(ctx context.Context, entry *entity.AuditLog) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// ListByObject returns the history of one object, newest first
func (r *MongoAuditRepository) ListByObject(ctx context.Context, modelName, objectID string, limit int) ([]*entity.AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"modelName": modelName, "objectId": objectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*entity.AuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit logs: %w", err)
	}
	return entries, nil
}

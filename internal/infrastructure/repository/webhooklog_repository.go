package repository

import (
	"context"
	"fmt"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/infrastructure/repository/entity"
	"metaforge-shopify-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookLogRepository implements WebhookLogRepository using MongoDB
type MongoWebhookLogRepository struct {
	collection *mongo.Collection
}

// NewMongoWebhookLogRepository creates a new MongoDB webhook log repository
func NewMongoWebhookLogRepository(db *mongo.Database) ports.WebhookLogRepository {
	return &MongoWebhookLogRepository{
		collection: db.Collection("webhook_logs"),
	}
}

// Append inserts one audit record. The log is append-only: no update or
// delete operations exist on this collection.
func (r *MongoWebhookLogRepository) Append(ctx context.Context, log *domain.WebhookLog) error {
	doc := entity.WebhookLogDocFromDomain(log)
	doc.ID = primitive.NewObjectID()
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append webhook log: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/infrastructure/repository/entity"
	"metaforge-shopify-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMetaRuleRepository implements MetaRuleRepository using MongoDB
type MongoMetaRuleRepository struct {
	collection *mongo.Collection
}

// NewMongoMetaRuleRepository creates a new MongoDB meta rule repository
func NewMongoMetaRuleRepository(db *mongo.Database) ports.MetaRuleRepository {
	return &MongoMetaRuleRepository{
		collection: db.Collection("meta_rules"),
	}
}

// Create inserts a new rule and returns it with its identifier populated
func (r *MongoMetaRuleRepository) Create(ctx context.Context, rule *domain.MetaRule) (*domain.MetaRule, error) {
	doc := entity.MetaRuleDocFromDomain(rule)
	now := time.Now()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create meta rule: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetByID retrieves a rule by its identifier
func (r *MongoMetaRuleRepository) GetByID(ctx context.Context, id string) (*domain.MetaRule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid rule id %q: %w", id, err)
	}

	var doc entity.MetaRuleDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meta rule: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListByShop retrieves all rules of a shop, newest first
func (r *MongoMetaRuleRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.MetaRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shopId": shopID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*domain.MetaRule
	for cursor.Next(ctx) {
		var doc entity.MetaRuleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode meta rule: %w", err)
		}
		rules = append(rules, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return rules, nil
}

// MarkRunning stores the bulk-operation handle and moves the rule to
// RUNNING. Guarded on PENDING so a duplicate submission cannot clobber a
// rule the reconciler has already finalized.
func (r *MongoMetaRuleRepository) MarkRunning(ctx context.Context, id string, operationID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid rule id %q: %w", id, err)
	}

	filter := bson.M{"_id": oid, "status": string(domain.RuleStatusPending)}
	update := bson.M{"$set": bson.M{
		"status":          string(domain.RuleStatusRunning),
		"bulkOperationId": operationID,
		"updatedAt":       time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark rule running: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("rule %s is not pending", id)
	}
	return nil
}

// MarkApplied flags a rule applied after the direct path finishes
func (r *MongoMetaRuleRepository) MarkApplied(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid rule id %q: %w", id, err)
	}

	update := bson.M{"$set": bson.M{"isApplied": true, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to mark rule applied: %w", err)
	}
	if result.MatchedCount == 0 {
		return &domain.NotFoundError{Entity: "meta rule", ID: id}
	}
	return nil
}

// ResolveByOperation finalizes the rule whose stored handle equals
// operationID and whose status is currently RUNNING, in a single conditional
// update. The filter is the concurrency guard: a notification for a rule the
// queue has not yet transitioned, or one already finalized, matches nothing
// and returns nil.
func (r *MongoMetaRuleRepository) ResolveByOperation(ctx context.Context, operationID string, status domain.RuleStatus, applied bool, updatedAt time.Time) (*domain.MetaRule, error) {
	filter := bson.M{
		"bulkOperationId": operationID,
		"status":          string(domain.RuleStatusRunning),
	}
	update := bson.M{"$set": bson.M{
		"status":    string(status),
		"isApplied": applied,
		"updatedAt": updatedAt,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc entity.MetaRuleDoc
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rule by operation: %w", err)
	}
	return doc.ToDomain(), nil
}

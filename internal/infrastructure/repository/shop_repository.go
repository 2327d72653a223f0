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

// MongoShopRepository implements ShopRepository using MongoDB
type MongoShopRepository struct {
	collection *mongo.Collection
}

// NewMongoShopRepository creates a new MongoDB shop repository
func NewMongoShopRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoShopRepository{
		collection: db.Collection("shops"),
	}
}

// Upsert saves or refreshes a shop keyed by domain
func (r *MongoShopRepository) Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	now := time.Now()
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{
		"$set": bson.M{
			"name":        shop.Name,
			"email":       shop.Email,
			"accessToken": shop.AccessToken,
			"plan":        shop.Plan,
			"currency":    shop.Currency,
			"isActive":    shop.IsActive,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"domain":    shop.Domain,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc entity.ShopDoc
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to upsert shop: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetByDomain retrieves a shop by domain
func (r *MongoShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.ShopDoc
	err := r.collection.FindOne(ctx, bson.M{"domain": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetByID retrieves a shop by its identifier
func (r *MongoShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid shop id %q: %w", id, err)
	}

	var doc entity.ShopDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return doc.ToDomain(), nil
}

// Deactivate marks a shop inactive, keeping the record for audit purposes
func (r *MongoShopRepository) Deactivate(ctx context.Context, shopDomain string) error {
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"domain": shopDomain}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate shop: %w", err)
	}
	return nil
}

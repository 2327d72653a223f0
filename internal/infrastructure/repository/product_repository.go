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

// MongoProductRepository implements ProductRepository using MongoDB
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) ports.ProductRepository {
	return &MongoProductRepository{
		collection: db.Collection("products"),
	}
}

// UpsertWithImages saves a product keyed by (shop, remote id). The images
// field is overwritten wholesale: a resync replaces the collection, it never
// merges.
func (r *MongoProductRepository) UpsertWithImages(ctx context.Context, product *domain.Product) error {
	doc := entity.ProductDocFromDomain(product)
	now := time.Now()

	filter := bson.M{"shopId": product.ShopID, "remoteId": product.RemoteID}
	update := bson.M{
		"$set": productUpsertSet(doc, now),
		"$setOnInsert": bson.M{
			"shopId":    doc.ShopID,
			"remoteId":  doc.RemoteID,
			"createdAt": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// productUpsertSet builds the $set document for an upsert. A nil meta title
// is omitted entirely rather than written as null: webhook-shaped products
// carry no SEO fields, and writing null would clobber the generated title a
// rule has already persisted.
func productUpsertSet(doc *entity.ProductDoc, now time.Time) bson.M {
	set := bson.M{
		"title":     doc.Title,
		"images":    doc.Images,
		"updatedAt": now,
	}
	if doc.MetaTitle != nil {
		set["metaTitle"] = doc.MetaTitle
	}
	if doc.MetaDescription != nil {
		set["metaDescription"] = doc.MetaDescription
	}
	return set
}

// ListByShop retrieves all products of a shop, with images, in stored order
func (r *MongoProductRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shopId": shopID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc entity.ProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return products, nil
}

// UpdateMeta persists the generated SEO title and description
func (r *MongoProductRepository) UpdateMeta(ctx context.Context, productID string, metaTitle string, metaDescription *string) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", productID, err)
	}

	update := bson.M{"$set": bson.M{
		"metaTitle":       metaTitle,
		"metaDescription": metaDescription,
		"updatedAt":       time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update product meta: %w", err)
	}
	if result.MatchedCount == 0 {
		return &domain.NotFoundError{Entity: "product", ID: productID}
	}
	return nil
}

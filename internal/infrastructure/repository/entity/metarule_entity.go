package entity

import (
	"time"

	"metaforge-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetaRuleDoc represents a meta rule in MongoDB
type MetaRuleDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ShopID          string             `bson:"shopId"`
	Name            string             `bson:"name"`
	Type            string             `bson:"type"`
	Pattern         string             `bson:"pattern"`
	Description     *string            `bson:"description,omitempty"`
	IsActive        bool               `bson:"isActive"`
	IsApplied       bool               `bson:"isApplied"`
	Status          string             `bson:"status"`
	BulkOperationID string             `bson:"bulkOperationId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MetaRuleDoc) ToDomain() *domain.MetaRule {
	return &domain.MetaRule{
		ID:              d.ID.Hex(),
		ShopID:          d.ShopID,
		Name:            d.Name,
		Type:            domain.RuleType(d.Type),
		Pattern:         d.Pattern,
		Description:     d.Description,
		IsActive:        d.IsActive,
		IsApplied:       d.IsApplied,
		Status:          domain.RuleStatus(d.Status),
		BulkOperationID: d.BulkOperationID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MetaRuleDocFromDomain converts a domain entity to a MongoDB document
func MetaRuleDocFromDomain(r *domain.MetaRule) *MetaRuleDoc {
	doc := &MetaRuleDoc{
		ShopID:          r.ShopID,
		Name:            r.Name,
		Type:            string(r.Type),
		Pattern:         r.Pattern,
		Description:     r.Description,
		IsActive:        r.IsActive,
		IsApplied:       r.IsApplied,
		Status:          string(r.Status),
		BulkOperationID: r.BulkOperationID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(r.ID); err == nil {
			doc.ID = oid
		}
	}
	return doc
}

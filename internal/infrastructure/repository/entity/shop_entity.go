package entity

import (
	"time"

	"metaforge-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShopDoc represents a shop in MongoDB
type ShopDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Domain      string             `bson:"domain"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	AccessToken string             `bson:"accessToken"`
	Plan        string             `bson:"plan"`
	Currency    string             `bson:"currency"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *ShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:          d.ID.Hex(),
		Domain:      d.Domain,
		Name:        d.Name,
		Email:       d.Email,
		AccessToken: d.AccessToken,
		Plan:        d.Plan,
		Currency:    d.Currency,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ShopDocFromDomain converts a domain entity to a MongoDB document
func ShopDocFromDomain(s *domain.Shop) *ShopDoc {
	doc := &ShopDoc{
		Domain:      s.Domain,
		Name:        s.Name,
		Email:       s.Email,
		AccessToken: s.AccessToken,
		Plan:        s.Plan,
		Currency:    s.Currency,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(s.ID); err == nil {
			doc.ID = oid
		}
	}
	return doc
}

package entity

import (
	"time"

	"metaforge-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImageDoc is an embedded product image. Embedding the collection in the
// product document gives the delete-then-recreate replace semantics of a
// resync for free: the whole array is overwritten.
type ImageDoc struct {
	RemoteID string  `bson:"remoteId"`
	Src      string  `bson:"src"`
	Alt      *string `bson:"alt,omitempty"`
}

// ProductDoc represents a product in MongoDB
type ProductDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ShopID          string             `bson:"shopId"`
	RemoteID        string             `bson:"remoteId"`
	Title           string             `bson:"title"`
	MetaTitle       *string            `bson:"metaTitle,omitempty"`
	MetaDescription *string            `bson:"metaDescription,omitempty"`
	Images          []ImageDoc         `bson:"images"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *ProductDoc) ToDomain() *domain.Product {
	p := &domain.Product{
		ID:              d.ID.Hex(),
		ShopID:          d.ShopID,
		RemoteID:        d.RemoteID,
		Title:           d.Title,
		MetaTitle:       d.MetaTitle,
		MetaDescription: d.MetaDescription,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, domain.Image{
			RemoteID: img.RemoteID,
			Src:      img.Src,
			Alt:      img.Alt,
		})
	}
	return p
}

// ProductDocFromDomain converts a domain entity to a MongoDB document
func ProductDocFromDomain(p *domain.Product) *ProductDoc {
	doc := &ProductDoc{
		ShopID:          p.ShopID,
		RemoteID:        p.RemoteID,
		Title:           p.Title,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Images:          make([]ImageDoc, 0, len(p.Images)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	for _, img := range p.Images {
		doc.Images = append(doc.Images, ImageDoc{
			RemoteID: img.RemoteID,
			Src:      img.Src,
			Alt:      img.Alt,
		})
	}
	if p.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(p.ID); err == nil {
			doc.ID = oid
		}
	}
	return doc
}

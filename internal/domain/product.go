package domain

import "time"

// Product belongs to exactly one Shop. RemoteID is the Shopify product
// identifier (bare or gid form). Images are owned as a child collection and
// fully replaced on each resync, never merged.
type Product struct {
	ID              string    `json:"id"`
	ShopID          string    `json:"shop_id"`
	RemoteID        string    `json:"remote_id"`
	Title           string    `json:"title"`
	MetaTitle       *string   `json:"meta_title,omitempty"`
	MetaDescription *string   `json:"meta_description,omitempty"`
	Images          []Image   `json:"images"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Image belongs to exactly one Product. Lifecycle is tied to the parent's
// resync: the whole collection is deleted and recreated as a batch.
type Image struct {
	RemoteID string  `json:"remote_id"`
	Src      string  `json:"src"`
	Alt      *string `json:"alt,omitempty"`
}

package entity

import (
	"time"

	"metaforge-shopify-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookLogDoc represents a webhook audit record in MongoDB
type WebhookLogDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ShopID      string             `bson:"shopId"`
	Topic       string             `bson:"topic"`
	Payload     string             `bson:"payload"`
	Success     bool               `bson:"success"`
	Error       string             `bson:"error,omitempty"`
	ProcessedAt time.Time          `bson:"processedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *WebhookLogDoc) ToDomain() *domain.WebhookLog {
	return &domain.WebhookLog{
		ID:          d.ID.Hex(),
		ShopID:      d.ShopID,
		Topic:       d.Topic,
		Payload:     d.Payload,
		Success:     d.Success,
		Error:       d.Error,
		ProcessedAt: d.ProcessedAt,
	}
}

// WebhookLogDocFromDomain converts a domain entity to a MongoDB document
func WebhookLogDocFromDomain(l *domain.WebhookLog) *WebhookLogDoc {
	return &WebhookLogDoc{
		ShopID:      l.ShopID,
		Topic:       l.Topic,
		Payload:     l.Payload,
		Success:     l.Success,
		Error:       l.Error,
		ProcessedAt: l.ProcessedAt,
	}
}

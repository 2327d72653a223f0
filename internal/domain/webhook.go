package domain

import "time"

// Webhook topics this system subscribes to.
const (
	TopicBulkOperationsFinish = "bulk_operations/finish"
	TopicProductsCreate       = "products/create"
	TopicProductsUpdate       = "products/update"
	TopicAppUninstalled       = "app/uninstalled"
)

// UnmatchedShopID is the sentinel recorded on a WebhookLog when the
// notification could not be matched to any shop's rule.
const UnmatchedShopID = "unmatched"

// WebhookEvent is an inbound notification after HMAC verification.
type WebhookEvent struct {
	Topic    string `json:"topic"`
	Shop     string `json:"shop"`
	Payload  []byte `json:"payload"`
	Verified bool   `json:"verified"`
}

// WebhookLog is the append-only audit record of every bulk-operation-finish
// notification, raw payload included.
type WebhookLog struct {
	ID          string    `json:"id"`
	ShopID      string    `json:"shop_id"`
	Topic       string    `json:"topic"`
	Payload     string    `json:"payload"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// BulkOperationNotification is the bulk_operations/finish payload shape.
type BulkOperationNotification struct {
	AdminGraphqlAPIID string     `json:"admin_graphql_api_id"`
	Status            string     `json:"status"`
	ErrorCode         string     `json:"error_code,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// Completed reports whether the remote operation finished successfully.
func (n *BulkOperationNotification) Completed() bool {
	return n.Status == "completed"
}

// FinishedAt returns the notification's completion time, falling back to its
// creation time, then to now.
func (n *BulkOperationNotification) FinishedAt() time.Time {
	if n.CompletedAt != nil {
		return *n.CompletedAt
	}
	if n.CreatedAt != nil {
		return *n.CreatedAt
	}
	return time.Now()
}

package ports

import (
	"context"
	"time"

	"metaforge-shopify-sync/internal/domain"
)

// ShopRepository persists tenant records.
type ShopRepository interface {
	// Upsert creates or refreshes a shop keyed by domain and returns the
	// stored record with its identifier populated.
	Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error)

	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	GetByID(ctx context.Context, id string) (*domain.Shop, error)

	// Deactivate flips the active flag off. Shops are never deleted.
	Deactivate(ctx context.Context, shopDomain string) error
}

// ProductRepository persists products and their owned image collections.
type ProductRepository interface {
	// UpsertWithImages creates or updates a product keyed by (shop, remote
	// id) and replaces its image collection wholesale.
	UpsertWithImages(ctx context.Context, product *domain.Product) error

	ListByShop(ctx context.Context, shopID string) ([]*domain.Product, error)

	// UpdateMeta persists the generated SEO title and description.
	UpdateMeta(ctx context.Context, productID string, metaTitle string, metaDescription *string) error
}

// MetaRuleRepository persists rules and drives their lifecycle.
//
// PENDING -> RUNNING happens through MarkRunning once a bulk-operation
// handle exists. RUNNING -> COMPLETED/FAILED happens only through
// ResolveByOperation, a conditional update matching both the handle and the
// RUNNING status so that duplicate or late notifications are no-ops.
type MetaRuleRepository interface {
	Create(ctx context.Context, rule *domain.MetaRule) (*domain.MetaRule, error)
	GetByID(ctx context.Context, id string) (*domain.MetaRule, error)
	ListByShop(ctx context.Context, shopID string) ([]*domain.MetaRule, error)

	// MarkRunning stores the bulk-operation handle and transitions the rule
	// to RUNNING.
	MarkRunning(ctx context.Context, id string, operationID string) error

	// MarkApplied flags a rule applied after the direct (non-bulk) path has
	// updated every product.
	MarkApplied(ctx context.Context, id string) error

	// ResolveByOperation atomically finalizes the rule whose stored handle
	// equals operationID and whose status is currently RUNNING. It returns
	// the updated rule, or nil when no rule matched.
	ResolveByOperation(ctx context.Context, operationID string, status domain.RuleStatus, applied bool, updatedAt time.Time) (*domain.MetaRule, error)
}

// WebhookLogRepository is the append-only audit log.
type WebhookLogRepository interface {
	Append(ctx context.Context, log *domain.WebhookLog) error
}

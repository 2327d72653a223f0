package ports

import (
	"context"

	"metaforge-shopify-sync/internal/domain"
)

// ShopInfo is the remote shop record returned at auth time.
type ShopInfo struct {
	ID       string
	Name     string
	Domain   string
	Email    string
	Plan     string
	Currency string
}

// RemoteImage is a product image as returned by the admin API.
type RemoteImage struct {
	ID  string
	Src string
	Alt *string
}

// RemoteProduct is a catalog product as returned by the admin API.
type RemoteProduct struct {
	ID        string
	Title     string
	MetaTitle *string
	Images    []RemoteImage
}

// ProductPage is one cursor-paginated slice of the remote catalog.
type ProductPage struct {
	Products    []RemoteProduct
	HasNextPage bool
	EndCursor   string
}

// UploadParameter is one form field of a staged upload target.
type UploadParameter struct {
	Name  string
	Value string
}

// StagedTarget is a short-lived, pre-authorized upload destination issued by
// the remote platform.
type StagedTarget struct {
	URL         string
	ResourceURL string
	Parameters  []UploadParameter
}

// Key returns the storage key parameter the bulk submission references, or
// "" when the target carries none.
func (t *StagedTarget) Key() string {
	for _, p := range t.Parameters {
		if p.Name == "key" {
			return p.Value
		}
	}
	return ""
}

// BulkOperation is the remote bulk job status record. ObjectCount and
// FileSize are decimal strings, matching the wire format.
type BulkOperation struct {
	ID             string
	Status         string
	ErrorCode      string
	CreatedAt      string
	CompletedAt    string
	ObjectCount    string
	FileSize       string
	URL            string
	PartialDataURL string
}

// AdminClient is the surface of the remote platform this system needs.
// Remote interaction failures surface as the domain error taxonomy:
// *domain.TransportError for network-level failures, *domain.StagingError /
// *domain.UploadError / *domain.SubmissionError for rejected operations.
type AdminClient interface {
	// ExchangeToken trades an OAuth authorization code for an access token.
	ExchangeToken(ctx context.Context, shopDomain string, code string) (string, error)

	// GetShopInfo fetches the remote shop record; also serves as the
	// lightweight re-authentication check a queue job performs.
	GetShopInfo(ctx context.Context, session domain.AdminSession) (*ShopInfo, error)

	// ListProductsPage fetches one page of the catalog with images.
	ListProductsPage(ctx context.Context, session domain.AdminSession, cursor string, pageSize int) (*ProductPage, error)

	// UpdateProductSEO performs the direct, per-product SEO mutation.
	UpdateProductSEO(ctx context.Context, session domain.AdminSession, productID string, title string, description *string) error

	// CreateWebhookSubscription registers a webhook topic delivery.
	CreateWebhookSubscription(ctx context.Context, session domain.AdminSession, topic string, callbackURL string) error

	// CreateStagedUpload requests a one-time upload target for a bulk
	// mutation variables file.
	CreateStagedUpload(ctx context.Context, session domain.AdminSession) (*StagedTarget, error)

	// UploadStagedPayload transfers the payload bytes to the staged target.
	UploadStagedPayload(ctx context.Context, target *StagedTarget, payload []byte) error

	// SubmitBulkMutation starts the asynchronous bulk job and returns its
	// opaque operation identifier.
	SubmitBulkMutation(ctx context.Context, session domain.AdminSession, mutation string, stagedUploadPath string) (string, error)

	// GetBulkOperation queries a bulk job by operation identifier.
	GetBulkOperation(ctx context.Context, session domain.AdminSession, operationID string) (*BulkOperation, error)
}

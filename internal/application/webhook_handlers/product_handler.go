package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ProductHandler keeps the local catalog mirror current as products change
// remotely.
type ProductHandler struct {
	shops    ports.ShopRepository
	products ports.ProductRepository
	logger   zerolog.Logger
}

// NewProductHandler creates a product webhook handler.
func NewProductHandler(shops ports.ShopRepository, products ports.ProductRepository, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		shops:    shops,
		products: products,
		logger:   logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == domain.TopicProductsCreate ||
		topic == domain.TopicProductsUpdate
}

// productPayload is the REST-shaped product delivered on product topics.
type productPayload struct {
	ID                json.Number `json:"id"`
	AdminGraphqlAPIID string      `json:"admin_graphql_api_id"`
	Title             string      `json:"title"`
	Images            []struct {
		ID                json.Number `json:"id"`
		AdminGraphqlAPIID string      `json:"admin_graphql_api_id"`
		Src               string      `json:"src"`
		Alt               *string     `json:"alt"`
	} `json:"images"`
}

// Handle upserts the notified product into the local mirror.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload productPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}

	shop, err := h.shops.GetByDomain(ctx, event.Shop)
	if err != nil {
		return fmt.Errorf("failed to look up shop %s: %w", event.Shop, err)
	}
	if shop == nil {
		h.logger.Warn().
			Str("shop", event.Shop).
			Str("topic", event.Topic).
			Msg("Product webhook for unknown shop, skipping")
		return nil
	}

	product := &domain.Product{
		ShopID:   shop.ID,
		RemoteID: remoteProductID(payload),
		Title:    payload.Title,
	}
	for _, img := range payload.Images {
		id := img.AdminGraphqlAPIID
		if id == "" {
			id = img.ID.String()
		}
		product.Images = append(product.Images, domain.Image{
			RemoteID: id,
			Src:      img.Src,
			Alt:      img.Alt,
		})
	}

	if err := h.products.UpsertWithImages(ctx, product); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.RemoteID, err)
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Str("topic", event.Topic).
		Str("productId", product.RemoteID).
		Str("title", product.Title).
		Msg("Product mirror updated")
	return nil
}

func remoteProductID(p productPayload) string {
	if p.AdminGraphqlAPIID != "" {
		return p.AdminGraphqlAPIID
	}
	return p.ID.String()
}

package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler deactivates a shop when the merchant removes the app.
type AppUninstalledHandler struct {
	shops  ports.ShopRepository
	logger zerolog.Logger
}

// NewAppUninstalledHandler creates an app uninstalled webhook handler.
func NewAppUninstalledHandler(shops ports.ShopRepository, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		shops:  shops,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle marks the shop inactive. The record is kept for audit purposes.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var payload struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to parse app uninstalled payload: %w", err)
		}
		shopDomain = payload.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = payload.Domain
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled event carries no shop domain")
	}

	if err := h.shops.Deactivate(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to deactivate shop %s: %w", shopDomain, err)
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Msg("Shop deactivated after app uninstall")
	return nil
}

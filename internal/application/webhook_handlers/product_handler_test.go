package webhook_handlers

import (
	"context"
	"testing"

	"metaforge-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShopRepo struct {
	shop        *domain.Shop
	deactivated []string
}

func (f *fakeShopRepo) Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	return shop, nil
}

func (f *fakeShopRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	if f.shop != nil && f.shop.Domain == shopDomain {
		return f.shop, nil
	}
	return nil, nil
}

func (f *fakeShopRepo) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	return f.shop, nil
}

func (f *fakeShopRepo) Deactivate(ctx context.Context, shopDomain string) error {
	f.deactivated = append(f.deactivated, shopDomain)
	return nil
}

type fakeProductRepo struct {
	upserted []*domain.Product
}

func (f *fakeProductRepo) UpsertWithImages(ctx context.Context, product *domain.Product) error {
	f.upserted = append(f.upserted, product)
	return nil
}

func (f *fakeProductRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) UpdateMeta(ctx context.Context, productID, metaTitle string, metaDescription *string) error {
	return nil
}

func TestProductHandler_UpsertsMirror(t *testing.T) {
	shops := &fakeShopRepo{shop: &domain.Shop{ID: "shop-1", Domain: "acme.myshopify.com"}}
	products := &fakeProductRepo{}
	h := NewProductHandler(shops, products, zerolog.Nop())

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic: domain.TopicProductsUpdate,
		Shop:  "acme.myshopify.com",
		Payload: []byte(`{
			"id": 632910392,
			"admin_graphql_api_id": "gid://shopify/Product/632910392",
			"title": "Blue Mug",
			"images": [
				{"id": 850703190, "admin_graphql_api_id": "gid://shopify/MediaImage/850703190", "src": "https://cdn.example.com/mug.png", "alt": "a mug"}
			]
		}`),
	})
	require.NoError(t, err)

	require.Len(t, products.upserted, 1)
	p := products.upserted[0]
	assert.Equal(t, "shop-1", p.ShopID)
	assert.Equal(t, "gid://shopify/Product/632910392", p.RemoteID)
	assert.Equal(t, "Blue Mug", p.Title)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "gid://shopify/MediaImage/850703190", p.Images[0].RemoteID)
	require.NotNil(t, p.Images[0].Alt)
	assert.Equal(t, "a mug", *p.Images[0].Alt)
}

func TestProductHandler_UnknownShopSkipped(t *testing.T) {
	products := &fakeProductRepo{}
	h := NewProductHandler(&fakeShopRepo{}, products, zerolog.Nop())

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   domain.TopicProductsCreate,
		Shop:    "ghost.myshopify.com",
		Payload: []byte(`{"id": 1, "title": "x"}`),
	})

	require.NoError(t, err)
	assert.Empty(t, products.upserted)
}

func TestAppUninstalledHandler_DeactivatesShop(t *testing.T) {
	shops := &fakeShopRepo{shop: &domain.Shop{ID: "shop-1", Domain: "acme.myshopify.com"}}
	h := NewAppUninstalledHandler(shops, zerolog.Nop())

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   domain.TopicAppUninstalled,
		Shop:    "acme.myshopify.com",
		Payload: []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"acme.myshopify.com"}, shops.deactivated)
}

func TestAppUninstalledHandler_DomainFromPayload(t *testing.T) {
	shops := &fakeShopRepo{}
	h := NewAppUninstalledHandler(shops, zerolog.Nop())

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic:   domain.TopicAppUninstalled,
		Payload: []byte(`{"myshopify_domain": "acme.myshopify.com"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"acme.myshopify.com"}, shops.deactivated)
}

package application

import (
	"testing"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_WalksAllPages(t *testing.T) {
	alt := "front view"
	client := &fakeAdminClient{pages: []*ports.ProductPage{
		{
			Products: []ports.RemoteProduct{
				{ID: "gid://shopify/Product/1", Title: "Blue Mug", Images: []ports.RemoteImage{
					{ID: "gid://shopify/MediaImage/10", Src: "https://cdn.example.com/1.png", Alt: &alt},
				}},
				{ID: "gid://shopify/Product/2", Title: "Red Mug"},
			},
			HasNextPage: true,
			EndCursor:   "cursor-1",
		},
		{
			Products: []ports.RemoteProduct{
				{ID: "gid://shopify/Product/3", Title: "Green Mug"},
			},
			HasNextPage: false,
		},
	}}
	products := &fakeProductRepo{}
	svc := NewSyncService(products, client, zerolog.Nop())

	shop := &domain.Shop{ID: "shop-1", Domain: "acme.myshopify.com", AccessToken: "token"}
	total, err := svc.SyncCatalog(shopCtx(shop.Domain), shop)
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"", "cursor-1"}, client.pageCalls)

	require.Len(t, products.upserts, 3)
	first := products.upserts[0]
	assert.Equal(t, "shop-1", first.ShopID)
	assert.Equal(t, "gid://shopify/Product/1", first.RemoteID)
	assert.Equal(t, "Blue Mug", first.Title)
	require.Len(t, first.Images, 1)
	assert.Equal(t, "gid://shopify/MediaImage/10", first.Images[0].RemoteID)
	require.NotNil(t, first.Images[0].Alt)
	assert.Equal(t, "front view", *first.Images[0].Alt)
}

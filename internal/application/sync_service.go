package application

import (
	"context"
	"fmt"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

const syncPageSize = 50

// SyncService mirrors a shop's product catalog into the local store.
type SyncService struct {
	products ports.ProductRepository
	client   ports.AdminClient
	logger   zerolog.Logger
}

// NewSyncService creates a catalog sync service.
func NewSyncService(products ports.ProductRepository, client ports.AdminClient, logger zerolog.Logger) *SyncService {
	return &SyncService{
		products: products,
		client:   client,
		logger:   logger,
	}
}

// SyncCatalog walks the remote product listing with cursor pagination and
// upserts every product with its images. Returns the number of products
// synced.
func (s *SyncService) SyncCatalog(ctx context.Context, shop *domain.Shop) (int, error) {
	session := shop.Session()
	cursor := ""
	total := 0

	for {
		page, err := s.client.ListProductsPage(ctx, session, cursor, syncPageSize)
		if err != nil {
			return total, fmt.Errorf("failed to list products: %w", err)
		}

		for _, remote := range page.Products {
			if err := s.products.UpsertWithImages(ctx, remoteToProduct(shop.ID, remote)); err != nil {
				return total, fmt.Errorf("failed to upsert product %s: %w", remote.ID, err)
			}
			total++
		}

		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor = page.EndCursor
	}

	s.logger.Info().
		Str("shop", shop.Domain).
		Int("products", total).
		Msg("Catalog sync complete")
	return total, nil
}

func remoteToProduct(shopID string, remote ports.RemoteProduct) *domain.Product {
	product := &domain.Product{
		ShopID:    shopID,
		RemoteID:  remote.ID,
		Title:     remote.Title,
		MetaTitle: remote.MetaTitle,
	}
	for _, img := range remote.Images {
		product.Images = append(product.Images, domain.Image{
			RemoteID: img.ID,
			Src:      img.Src,
			Alt:      img.Alt,
		})
	}
	return product
}

package repository

import (
	"testing"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/infrastructure/repository/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestProductUpsertSet_OmitsMissingMetaFields(t *testing.T) {
	// Webhook-delivered products carry no SEO fields; the update must not
	// touch a stored meta title.
	doc := entity.ProductDocFromDomain(&domain.Product{
		ShopID:   "shop-1",
		RemoteID: "gid://shopify/Product/1",
		Title:    "Blue Mug",
	})

	set := productUpsertSet(doc, time.Now())

	_, hasTitle := set["metaTitle"]
	assert.False(t, hasTitle)
	_, hasDescription := set["metaDescription"]
	assert.False(t, hasDescription)

	// The omission survives BSON encoding: no null key reaches the server.
	raw, err := bson.Marshal(set)
	require.NoError(t, err)
	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	_, hasTitle = decoded["metaTitle"]
	assert.False(t, hasTitle)
}

func TestProductUpsertSet_WritesPresentMetaFields(t *testing.T) {
	metaTitle := "Blue Mug | Acme"
	metaDescription := "Buy Blue Mug today"
	doc := entity.ProductDocFromDomain(&domain.Product{
		ShopID:          "shop-1",
		RemoteID:        "gid://shopify/Product/1",
		Title:           "Blue Mug",
		MetaTitle:       &metaTitle,
		MetaDescription: &metaDescription,
	})

	set := productUpsertSet(doc, time.Now())

	require.Contains(t, set, "metaTitle")
	assert.Equal(t, &metaTitle, set["metaTitle"])
	require.Contains(t, set, "metaDescription")
	assert.Equal(t, &metaDescription, set["metaDescription"])
	assert.Equal(t, "Blue Mug", set["title"])
}

package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"metaforge-shopify-sync/internal/domain"
)

// Mutation documents submitted alongside the staged variables file. The bulk
// runner executes the document once per JSONL record.
const (
	productSEOBulkMutation = `
mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

	imageAltBulkMutation = `
mutation productUpdateMedia($media: [UpdateMediaInput!]!, $productId: ID!) {
  productUpdateMedia(media: $media, productId: $productId) {
    media {
      id
      alt
    }
    mediaUserErrors {
      field
      message
    }
  }
}`
)

// BulkMutationDocument returns the mutation text for a rule type.
func BulkMutationDocument(t domain.RuleType) string {
	if t == domain.RuleTypeImage {
		return imageAltBulkMutation
	}
	return productSEOBulkMutation
}

// seoInput carries the generated SEO fields. Description deliberately has no
// omitempty: an absent description template must encode as JSON null, not
// drop the key.
type seoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type productSEORecord struct {
	Input struct {
		ID  string   `json:"id"`
		SEO seoInput `json:"seo"`
	} `json:"input"`
}

type mediaRecord struct {
	ProductID string       `json:"productId"`
	Media     []mediaInput `json:"media"`
}

type mediaInput struct {
	ID  string `json:"id"`
	Alt string `json:"alt"`
}

// productGID normalizes a stored remote product id to its gid form. Ids that
// already carry a gid prefix pass through unchanged.
func productGID(remoteID string) string {
	if strings.HasPrefix(remoteID, "gid://") {
		return remoteID
	}
	return "gid://shopify/Product/" + remoteID
}

func mediaImageGID(remoteID string) string {
	if strings.HasPrefix(remoteID, "gid://") {
		return remoteID
	}
	return "gid://shopify/MediaImage/" + remoteID
}

// ruleDescription returns the rule's description template, treating an empty
// string the same as an absent one so both encode as JSON null downstream.
func ruleDescription(rule *domain.MetaRule) *string {
	if rule.Description == nil || *rule.Description == "" {
		return nil
	}
	return rule.Description
}

// BuildMutationPayload expands a rule over the shop's catalog into the
// newline-delimited JSON file a bulk operation consumes: one record per
// product for product rules, one record per (product, image) pair for image
// rules, in product order then stored image order. Zero-image products
// contribute no records to an image rule.
func BuildMutationPayload(rule *domain.MetaRule, shopName string, products []*domain.Product) ([]byte, error) {
	var buf bytes.Buffer
	write := func(record any) error {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode mutation record: %w", err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
		return nil
	}

	switch rule.Type {
	case domain.RuleTypeProduct:
		for _, product := range products {
			tc := domain.TemplateContext{ProductTitle: product.Title, ShopName: shopName}
			var record productSEORecord
			record.Input.ID = productGID(product.RemoteID)
			record.Input.SEO = seoInput{
				Title:       domain.ExpandTemplate(rule.Pattern, tc),
				Description: domain.ExpandOptional(ruleDescription(rule), tc),
			}
			if err := write(record); err != nil {
				return nil, err
			}
		}

	case domain.RuleTypeImage:
		for _, product := range products {
			for i, image := range product.Images {
				tc := domain.TemplateContext{
					ProductTitle:  product.Title,
					ShopName:      shopName,
					ImagePosition: i + 1,
				}
				record := mediaRecord{
					ProductID: productGID(product.RemoteID),
					Media: []mediaInput{{
						ID:  mediaImageGID(image.RemoteID),
						Alt: domain.ExpandTemplate(rule.Pattern, tc),
					}},
				}
				if err := write(record); err != nil {
					return nil, err
				}
			}
		}

	default:
		return nil, fmt.Errorf("unknown rule type %q", rule.Type)
	}

	return buf.Bytes(), nil
}

package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const apiVersion = "2024-10"

type client struct {
	app        goshopify.App
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an admin API client adapter. OAuth goes through the
// go-shopify app; everything else is the GraphQL admin API, which the
// library does not cover for the operations this system needs.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) ports.AdminClient {
	return &client{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *client) ExchangeToken(ctx context.Context, shopDomain string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shopDomain, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// graphqlRequest is the admin GraphQL wire request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// userError is the userErrors shape shared by admin mutations.
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func firstUserError(errs []userError) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Message
}

// doGraphQL executes one admin GraphQL call and decodes the data payload
// into out. Network-level failures come back as *domain.TransportError.
func (c *client) doGraphQL(ctx context.Context, session domain.AdminSession, op string, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", session.ShopDomain, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.TransportError{
			Op:  op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%s returned errors: %s", op, envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("failed to decode data: %w", err)}
		}
	}
	return nil
}

const shopInfoQuery = `
query {
  shop {
    id
    name
    myshopifyDomain
    email
    plan {
      displayName
    }
    currencyCode
  }
}`

func (c *client) GetShopInfo(ctx context.Context, session domain.AdminSession) (*ports.ShopInfo, error) {
	var data struct {
		Shop struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			MyshopifyDomain string `json:"myshopifyDomain"`
			Email           string `json:"email"`
			Plan            struct {
				DisplayName string `json:"displayName"`
			} `json:"plan"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"shop"`
	}
	if err := c.doGraphQL(ctx, session, "shop query", shopInfoQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.Shop.MyshopifyDomain == "" {
		return nil, fmt.Errorf("shop query returned no domain")
	}
	return &ports.ShopInfo{
		ID:       data.Shop.ID,
		Name:     data.Shop.Name,
		Domain:   data.Shop.MyshopifyDomain,
		Email:    data.Shop.Email,
		Plan:     data.Shop.Plan.DisplayName,
		Currency: data.Shop.CurrencyCode,
	}, nil
}

const productsPageQuery = `
query getProducts($cursor: String, $pageSize: Int!) {
  products(first: $pageSize, after: $cursor) {
    edges {
      node {
        id
        title
        seo {
          title
        }
        images(first: 10) {
          edges {
            node {
              id
              src
              altText
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

func (c *client) ListProductsPage(ctx context.Context, session domain.AdminSession, cursor string, pageSize int) (*ports.ProductPage, error) {
	variables := map[string]any{"pageSize": pageSize}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	var data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID    string `json:"id"`
					Title string `json:"title"`
					SEO   struct {
						Title *string `json:"title"`
					} `json:"seo"`
					Images struct {
						Edges []struct {
							Node struct {
								ID      string  `json:"id"`
								Src     string  `json:"src"`
								AltText *string `json:"altText"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"images"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	}
	if err := c.doGraphQL(ctx, session, "products query", productsPageQuery, variables, &data); err != nil {
		return nil, err
	}

	page := &ports.ProductPage{
		HasNextPage: data.Products.PageInfo.HasNextPage,
		EndCursor:   data.Products.PageInfo.EndCursor,
	}
	for _, edge := range data.Products.Edges {
		product := ports.RemoteProduct{
			ID:        edge.Node.ID,
			Title:     edge.Node.Title,
			MetaTitle: edge.Node.SEO.Title,
		}
		for _, img := range edge.Node.Images.Edges {
			product.Images = append(product.Images, ports.RemoteImage{
				ID:  img.Node.ID,
				Src: img.Node.Src,
				Alt: img.Node.AltText,
			})
		}
		page.Products = append(page.Products, product)
	}
	return page, nil
}

const productSEOMutation = `
mutation updateProductSEO($input: ProductInput!) {
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

func (c *client) UpdateProductSEO(ctx context.Context, session domain.AdminSession, productID string, title string, description *string) error {
	seo := map[string]any{"title": title, "description": description}
	variables := map[string]any{
		"input": map[string]any{
			"id":  productID,
			"seo": seo,
		},
	}

	var data struct {
		ProductUpdate struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"productUpdate"`
	}
	if err := c.doGraphQL(ctx, session, "product SEO update", productSEOMutation, variables, &data); err != nil {
		return err
	}
	if msg := firstUserError(data.ProductUpdate.UserErrors); msg != "" {
		return fmt.Errorf("product SEO update rejected: %s", msg)
	}
	return nil
}

const webhookSubscriptionMutation = `
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: WebhookSubscriptionInput!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

// topicEnums maps webhook topic names to their GraphQL enum values.
var topicEnums = map[string]string{
	domain.TopicBulkOperationsFinish: "BULK_OPERATIONS_FINISH",
	domain.TopicProductsCreate:       "PRODUCTS_CREATE",
	domain.TopicProductsUpdate:       "PRODUCTS_UPDATE",
	domain.TopicAppUninstalled:       "APP_UNINSTALLED",
}

func (c *client) CreateWebhookSubscription(ctx context.Context, session domain.AdminSession, topic string, callbackURL string) error {
	enum, ok := topicEnums[topic]
	if !ok {
		return fmt.Errorf("unknown webhook topic %q", topic)
	}
	variables := map[string]any{
		"topic": enum,
		"webhookSubscription": map[string]any{
			"format":      "JSON",
			"callbackUrl": callbackURL,
		},
	}

	var data struct {
		WebhookSubscriptionCreate struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"webhookSubscriptionCreate"`
	}
	if err := c.doGraphQL(ctx, session, "webhook subscription", webhookSubscriptionMutation, variables, &data); err != nil {
		return err
	}
	if msg := firstUserError(data.WebhookSubscriptionCreate.UserErrors); msg != "" {
		return fmt.Errorf("webhook subscription rejected: %s", msg)
	}

	c.logger.Info().
		Str("shop", session.ShopDomain).
		Str("topic", topic).
		Msg("Webhook subscription created")
	return nil
}

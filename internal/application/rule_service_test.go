package application

import (
	"context"
	"testing"

	"metaforge-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShopRepo struct {
	shop *domain.Shop
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

func (f *fakeShopRepo) Deactivate(ctx context.Context, shopDomain string) error { return nil }

type fakeJobQueue struct {
	jobs []*domain.Job
}

func (f *fakeJobQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func shopCtx(shopDomain string) context.Context {
	return domain.WithShopDomain(context.Background(), shopDomain)
}

func TestRuleService_CreateRule(t *testing.T) {
	shops := &fakeShopRepo{shop: &domain.Shop{
		ID:          "shop-1",
		Domain:      "acme.myshopify.com",
		AccessToken: "token",
		IsActive:    true,
	}}
	rules := &fakeRuleRepo{}
	queue := &fakeJobQueue{}
	svc := NewRuleService(shops, rules, &fakeAdminClient{}, queue, zerolog.Nop())

	rule, err := svc.CreateRule(shopCtx("acme.myshopify.com"), CreateRuleInput{
		Name:    "SEO titles",
		Type:    domain.RuleTypeProduct,
		Pattern: "{product_title} | {shop_name}",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RuleStatusPending, rule.Status)
	assert.Equal(t, "shop-1", rule.ShopID)
	assert.True(t, rule.IsActive)
	assert.False(t, rule.IsApplied)

	// The job carries the session captured at enqueue time.
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, rule.ID, queue.jobs[0].RuleID)
	assert.Equal(t, "acme.myshopify.com", queue.jobs[0].Session.ShopDomain)
	assert.Equal(t, "token", queue.jobs[0].Session.AccessToken)
	assert.NotEmpty(t, queue.jobs[0].ID)
}

func TestRuleService_CreateRule_UnknownShop(t *testing.T) {
	svc := NewRuleService(&fakeShopRepo{}, &fakeRuleRepo{}, &fakeAdminClient{}, &fakeJobQueue{}, zerolog.Nop())

	_, err := svc.CreateRule(shopCtx("ghost.myshopify.com"), CreateRuleInput{
		Name:    "x",
		Type:    domain.RuleTypeProduct,
		Pattern: "x",
	})

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRuleService_CreateRule_InvalidInput(t *testing.T) {
	shops := &fakeShopRepo{shop: &domain.Shop{ID: "shop-1", Domain: "acme.myshopify.com"}}
	queue := &fakeJobQueue{}
	svc := NewRuleService(shops, &fakeRuleRepo{}, &fakeAdminClient{}, queue, zerolog.Nop())

	tests := []struct {
		name  string
		input CreateRuleInput
	}{
		{"missing pattern", CreateRuleInput{Name: "x", Type: domain.RuleTypeProduct}},
		{"missing name", CreateRuleInput{Type: domain.RuleTypeProduct, Pattern: "x"}},
		{"unknown type", CreateRuleInput{Name: "x", Type: "collection", Pattern: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRule(shopCtx("acme.myshopify.com"), tt.input)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, queue.jobs)
}

func TestRuleService_CreateRule_NoShopContext(t *testing.T) {
	svc := NewRuleService(&fakeShopRepo{}, &fakeRuleRepo{}, &fakeAdminClient{}, &fakeJobQueue{}, zerolog.Nop())

	_, err := svc.CreateRule(context.Background(), CreateRuleInput{
		Name:    "x",
		Type:    domain.RuleTypeProduct,
		Pattern: "x",
	})
	assert.Error(t, err)
}

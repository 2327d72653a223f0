package application

import (
	"context"
	"fmt"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CreateRuleInput is the request payload for creating a meta rule.
type CreateRuleInput struct {
	Name        string          `json:"name"`
	Type        domain.RuleType `json:"type"`
	Pattern     string          `json:"pattern"`
	Description *string         `json:"description,omitempty"`
}

// RuleService creates and lists meta rules and hands accepted rules to the
// job queue for asynchronous application.
type RuleService struct {
	shops  ports.ShopRepository
	rules  ports.MetaRuleRepository
	client ports.AdminClient
	queue  ports.JobQueue
	logger zerolog.Logger
}

// NewRuleService creates a rule service.
func NewRuleService(
	shops ports.ShopRepository,
	rules ports.MetaRuleRepository,
	client ports.AdminClient,
	queue ports.JobQueue,
	logger zerolog.Logger,
) *RuleService {
	return &RuleService{
		shops:  shops,
		rules:  rules,
		client: client,
		queue:  queue,
		logger: logger,
	}
}

// CreateRule validates and persists a new rule for the shop carried in ctx,
// then enqueues a job to apply it. The rule is returned in PENDING state;
// application happens asynchronously.
func (s *RuleService) CreateRule(ctx context.Context, in CreateRuleInput) (*domain.MetaRule, error) {
	shopDomain := domain.ShopDomainFromContext(ctx)
	if shopDomain == "" {
		return nil, fmt.Errorf("no shop domain in request context")
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up shop: %w", err)
	}
	if shop == nil {
		return nil, &domain.NotFoundError{Entity: "shop", ID: shopDomain}
	}

	// Confirm the stored token still works before accepting work for it.
	if _, err := s.client.GetShopInfo(ctx, shop.Session()); err != nil {
		return nil, fmt.Errorf("session validation failed for %s: %w", shopDomain, err)
	}

	now := time.Now().UTC()
	rule := &domain.MetaRule{
		ShopID:      shop.ID,
		Name:        in.Name,
		Type:        in.Type,
		Pattern:     in.Pattern,
		Description: in.Description,
		IsActive:    true,
		Status:      domain.RuleStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	created, err := s.rules.Create(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		RuleID:    created.ID,
		Session:   shop.Session(),
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue rule job: %w", err)
	}

	s.logger.Info().
		Str("ruleId", created.ID).
		Str("jobId", job.ID).
		Str("shop", shopDomain).
		Str("ruleType", string(created.Type)).
		Msg("Meta rule accepted")

	return created, nil
}

// ListRules returns all rules for the shop carried in ctx, newest first.
func (s *RuleService) ListRules(ctx context.Context) ([]*domain.MetaRule, error) {
	shopDomain := domain.ShopDomainFromContext(ctx)
	if shopDomain == "" {
		return nil, fmt.Errorf("no shop domain in request context")
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up shop: %w", err)
	}
	if shop == nil {
		return nil, &domain.NotFoundError{Entity: "shop", ID: shopDomain}
	}

	return s.rules.ListByShop(ctx, shop.ID)
}

package application

import (
	"context"
	"fmt"
	"time"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ProductRulePath selects which pipeline applies product rules.
type ProductRulePath string

const (
	// ProductPathDirect applies product rules synchronously, one remote
	// call per product, chunked and rate-limited. The authoritative
	// default.
	ProductPathDirect ProductRulePath = "direct"
	// ProductPathBulk routes product rules through the asynchronous bulk
	// pipeline like image rules.
	ProductPathBulk ProductRulePath = "bulk"
)

// ProcessorOptions tunes the rule processor.
type ProcessorOptions struct {
	// ChunkSize is how many products the direct path updates before
	// pausing.
	ChunkSize int
	// ChunkDelay is the courtesy pause between chunks.
	ChunkDelay time.Duration
	// ProductPath picks the pipeline for product rules. Image rules are
	// always bulk.
	ProductPath ProductRulePath
}

// DefaultProcessorOptions returns the production processing configuration.
func DefaultProcessorOptions() ProcessorOptions {
	return ProcessorOptions{
		ChunkSize:   100,
		ChunkDelay:  time.Second,
		ProductPath: ProductPathDirect,
	}
}

// RuleProcessor consumes queue jobs and applies the referenced rule to the
// shop's catalog. It implements ports.JobHandler.
type RuleProcessor struct {
	products ports.ProductRepository
	rules    ports.MetaRuleRepository
	client   ports.AdminClient
	logger   zerolog.Logger
	opts     ProcessorOptions
}

// NewRuleProcessor creates a rule processor.
func NewRuleProcessor(
	products ports.ProductRepository,
	rules ports.MetaRuleRepository,
	client ports.AdminClient,
	logger zerolog.Logger,
	opts ProcessorOptions,
) *RuleProcessor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 100
	}
	if opts.ProductPath == "" {
		opts.ProductPath = ProductPathDirect
	}
	return &RuleProcessor{
		products: products,
		rules:    rules,
		client:   client,
		logger:   logger,
		opts:     opts,
	}
}

// Handle processes one job. Any returned error is permanent: the queue
// records the failure and does not retry.
func (p *RuleProcessor) Handle(ctx context.Context, job *domain.Job, progress ports.ProgressFunc) error {
	progress(0)

	rule, err := p.rules.GetByID(ctx, job.RuleID)
	if err != nil {
		return fmt.Errorf("failed to load rule: %w", err)
	}
	if rule == nil {
		return &domain.NotFoundError{Entity: "meta rule", ID: job.RuleID}
	}

	// Re-authenticate the carried session before touching the catalog.
	info, err := p.client.GetShopInfo(ctx, job.Session)
	if err != nil {
		return fmt.Errorf("failed to re-authenticate session for %s: %w", job.Session.ShopDomain, err)
	}

	p.logger.Info().
		Str("jobId", job.ID).
		Str("ruleId", rule.ID).
		Str("ruleType", string(rule.Type)).
		Str("shop", info.Domain).
		Msg("Processing meta rule")

	switch {
	case rule.Type == domain.RuleTypeProduct && p.opts.ProductPath == ProductPathDirect:
		err = p.applyDirect(ctx, rule, job.Session, info.Name, progress)
	default:
		err = p.applyBulk(ctx, rule, job.Session, info.Name, progress)
	}
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("ruleId", rule.ID).
			Msg("Rule application failed")
		return err
	}

	progress(100)
	return nil
}

// applyDirect is the synchronous path: expand the template for every product
// and issue one SEO update per product, in chunks, pausing between chunks to
// stay inside the remote API budget.
func (p *RuleProcessor) applyDirect(ctx context.Context, rule *domain.MetaRule, session domain.AdminSession, shopName string, progress ports.ProgressFunc) error {
	products, err := p.products.ListByShop(ctx, rule.ShopID)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	for start := 0; start < len(products); start += p.opts.ChunkSize {
		progress(start * 100 / len(products))

		end := start + p.opts.ChunkSize
		if end > len(products) {
			end = len(products)
		}
		for _, product := range products[start:end] {
			tc := domain.TemplateContext{ProductTitle: product.Title, ShopName: shopName}
			metaTitle := domain.ExpandTemplate(rule.Pattern, tc)
			metaDescription := domain.ExpandOptional(ruleDescription(rule), tc)

			if err := p.client.UpdateProductSEO(ctx, session, productGID(product.RemoteID), metaTitle, metaDescription); err != nil {
				return fmt.Errorf("failed to update product %s: %w", product.RemoteID, err)
			}
			if err := p.products.UpdateMeta(ctx, product.ID, metaTitle, metaDescription); err != nil {
				return fmt.Errorf("failed to persist product meta: %w", err)
			}
		}

		if end < len(products) {
			select {
			case <-time.After(p.opts.ChunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if err := p.rules.MarkApplied(ctx, rule.ID); err != nil {
		return fmt.Errorf("failed to mark rule applied: %w", err)
	}
	return nil
}

// applyBulk stages the expanded mutations as a file upload, submits the
// asynchronous bulk job, and leaves the rule RUNNING; the webhook reconciler
// finalizes it when the remote platform reports completion.
func (p *RuleProcessor) applyBulk(ctx context.Context, rule *domain.MetaRule, session domain.AdminSession, shopName string, progress ports.ProgressFunc) error {
	products, err := p.products.ListByShop(ctx, rule.ShopID)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	payload, err := BuildMutationPayload(rule, shopName, products)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		// Nothing to mutate: no remote job to wait on.
		p.logger.Info().
			Str("ruleId", rule.ID).
			Msg("Rule expands to zero mutations, marking applied")
		return p.rules.MarkApplied(ctx, rule.ID)
	}
	progress(25)

	target, err := p.client.CreateStagedUpload(ctx, session)
	if err != nil {
		return err
	}
	progress(40)

	if err := p.client.UploadStagedPayload(ctx, target, payload); err != nil {
		return err
	}
	progress(60)

	key := target.Key()
	if key == "" {
		return &domain.StagingError{Message: "staged target has no key parameter"}
	}

	operationID, err := p.client.SubmitBulkMutation(ctx, session, BulkMutationDocument(rule.Type), key)
	if err != nil {
		return err
	}
	progress(80)

	if err := p.rules.MarkRunning(ctx, rule.ID, operationID); err != nil {
		return fmt.Errorf("failed to mark rule running: %w", err)
	}

	p.logger.Info().
		Str("ruleId", rule.ID).
		Str("operationId", operationID).
		Msg("Bulk operation running")
	return nil
}

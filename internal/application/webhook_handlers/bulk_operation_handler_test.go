package webhook_handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"metaforge-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolveCall struct {
	OperationID string
	Status      domain.RuleStatus
	Applied     bool
}

type fakeRuleRepo struct {
	resolved   *domain.MetaRule
	resolveErr error
	calls      []resolveCall
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *domain.MetaRule) (*domain.MetaRule, error) {
	return rule, nil
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*domain.MetaRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.MetaRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) MarkRunning(ctx context.Context, id, operationID string) error { return nil }

func (f *fakeRuleRepo) MarkApplied(ctx context.Context, id string) error { return nil }

func (f *fakeRuleRepo) ResolveByOperation(ctx context.Context, operationID string, status domain.RuleStatus, applied bool, updatedAt time.Time) (*domain.MetaRule, error) {
	f.calls = append(f.calls, resolveCall{OperationID: operationID, Status: status, Applied: applied})
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.resolved, nil
}

type fakeWebhookLogRepo struct {
	logs      []*domain.WebhookLog
	appendErr error
}

func (f *fakeWebhookLogRepo) Append(ctx context.Context, log *domain.WebhookLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.logs = append(f.logs, log)
	return nil
}

func finishEvent(payload string) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		Topic:    domain.TopicBulkOperationsFinish,
		Shop:     "acme.myshopify.com",
		Payload:  []byte(payload),
		Verified: true,
	}
}

func TestBulkOperationHandler_CanHandle(t *testing.T) {
	h := NewBulkOperationHandler(&fakeRuleRepo{}, &fakeWebhookLogRepo{}, zerolog.Nop())

	assert.True(t, h.CanHandle(domain.TopicBulkOperationsFinish))
	assert.False(t, h.CanHandle(domain.TopicProductsUpdate))
}

func TestBulkOperationHandler_CompletedOperation(t *testing.T) {
	rules := &fakeRuleRepo{resolved: &domain.MetaRule{
		ID:              "rule-1",
		ShopID:          "shop-1",
		Status:          domain.RuleStatusCompleted,
		BulkOperationID: "gid://shopify/BulkOperation/42",
	}}
	logs := &fakeWebhookLogRepo{}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	err := h.Handle(context.Background(), finishEvent(
		`{"admin_graphql_api_id":"gid://shopify/BulkOperation/42","status":"completed","completed_at":"2024-06-01T12:00:00Z"}`,
	))
	require.NoError(t, err)

	require.Len(t, rules.calls, 1)
	assert.Equal(t, "gid://shopify/BulkOperation/42", rules.calls[0].OperationID)
	assert.Equal(t, domain.RuleStatusCompleted, rules.calls[0].Status)
	assert.True(t, rules.calls[0].Applied)

	require.Len(t, logs.logs, 1)
	assert.Equal(t, "shop-1", logs.logs[0].ShopID)
	assert.True(t, logs.logs[0].Success)
	assert.Empty(t, logs.logs[0].Error)
}

func TestBulkOperationHandler_FailedOperation(t *testing.T) {
	rules := &fakeRuleRepo{resolved: &domain.MetaRule{
		ID:     "rule-1",
		ShopID: "shop-1",
		Status: domain.RuleStatusFailed,
	}}
	logs := &fakeWebhookLogRepo{}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	err := h.Handle(context.Background(), finishEvent(
		`{"admin_graphql_api_id":"gid://shopify/BulkOperation/42","status":"failed","error_code":"ACCESS_DENIED"}`,
	))
	require.NoError(t, err)

	require.Len(t, rules.calls, 1)
	assert.Equal(t, domain.RuleStatusFailed, rules.calls[0].Status)
	assert.False(t, rules.calls[0].Applied)

	require.Len(t, logs.logs, 1)
	assert.False(t, logs.logs[0].Success)
	assert.Equal(t, "ACCESS_DENIED", logs.logs[0].Error)
}

func TestBulkOperationHandler_UnmatchedNotificationAcknowledged(t *testing.T) {
	rules := &fakeRuleRepo{resolved: nil}
	logs := &fakeWebhookLogRepo{}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	event := finishEvent(`{"admin_graphql_api_id":"gid://shopify/BulkOperation/99","status":"completed"}`)
	err := h.Handle(context.Background(), event)

	// Unmatched deliveries ack so the platform stops retrying.
	require.NoError(t, err)

	require.Len(t, logs.logs, 1)
	assert.Equal(t, domain.UnmatchedShopID, logs.logs[0].ShopID)
	assert.True(t, logs.logs[0].Success)
	assert.Equal(t, string(event.Payload), logs.logs[0].Payload)
}

func TestBulkOperationHandler_DuplicateDeliveryIsNoOp(t *testing.T) {
	// First delivery resolves the rule; the second matches nothing because
	// the rule is no longer RUNNING.
	rules := &fakeRuleRepo{resolved: &domain.MetaRule{ID: "rule-1", ShopID: "shop-1", Status: domain.RuleStatusCompleted}}
	logs := &fakeWebhookLogRepo{}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	payload := `{"admin_graphql_api_id":"gid://shopify/BulkOperation/42","status":"completed"}`
	require.NoError(t, h.Handle(context.Background(), finishEvent(payload)))

	rules.resolved = nil
	require.NoError(t, h.Handle(context.Background(), finishEvent(payload)))

	require.Len(t, logs.logs, 2)
	assert.Equal(t, "shop-1", logs.logs[0].ShopID)
	assert.Equal(t, domain.UnmatchedShopID, logs.logs[1].ShopID)
}

func TestBulkOperationHandler_RepositoryFailurePropagates(t *testing.T) {
	rules := &fakeRuleRepo{resolveErr: errors.New("connection reset")}
	logs := &fakeWebhookLogRepo{}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	err := h.Handle(context.Background(), finishEvent(
		`{"admin_graphql_api_id":"gid://shopify/BulkOperation/42","status":"completed"}`,
	))
	require.Error(t, err)

	// The attempt is still logged for the audit trail.
	require.Len(t, logs.logs, 1)
	assert.False(t, logs.logs[0].Success)
}

func TestBulkOperationHandler_AuditAppendFailurePropagates(t *testing.T) {
	// A resolved operation whose audit row cannot be written must not ack:
	// the platform redelivers and the already-finalized rule makes the retry
	// an unmatched delivery that only re-attempts the log.
	rules := &fakeRuleRepo{resolved: &domain.MetaRule{ID: "rule-1", ShopID: "shop-1", Status: domain.RuleStatusCompleted}}
	logs := &fakeWebhookLogRepo{appendErr: errors.New("connection reset")}
	h := NewBulkOperationHandler(rules, logs, zerolog.Nop())

	payload := `{"admin_graphql_api_id":"gid://shopify/BulkOperation/42","status":"completed"}`
	err := h.Handle(context.Background(), finishEvent(payload))
	require.Error(t, err)
	require.Len(t, rules.calls, 1)

	// The redelivery lands on the unmatched branch once the log is writable.
	rules.resolved = nil
	logs.appendErr = nil
	require.NoError(t, h.Handle(context.Background(), finishEvent(payload)))

	require.Len(t, logs.logs, 1)
	assert.Equal(t, domain.UnmatchedShopID, logs.logs[0].ShopID)
}

func TestBulkOperationHandler_MissingOperationID(t *testing.T) {
	h := NewBulkOperationHandler(&fakeRuleRepo{}, &fakeWebhookLogRepo{}, zerolog.Nop())

	err := h.Handle(context.Background(), finishEvent(`{"status":"completed"}`))
	assert.Error(t, err)
}

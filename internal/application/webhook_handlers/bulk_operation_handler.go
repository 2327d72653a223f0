package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"

	"github.com/rs/zerolog"
)

// BulkOperationHandler reconciles bulk_operations/finish notifications with
// the rule that submitted the operation. Every notification is recorded in
// the webhook audit log, matched or not.
type BulkOperationHandler struct {
	rules       ports.MetaRuleRepository
	webhookLogs ports.WebhookLogRepository
	logger      zerolog.Logger
}

// NewBulkOperationHandler creates a bulk operation webhook handler.
func NewBulkOperationHandler(
	rules ports.MetaRuleRepository,
	webhookLogs ports.WebhookLogRepository,
	logger zerolog.Logger,
) *BulkOperationHandler {
	return &BulkOperationHandler{
		rules:       rules,
		webhookLogs: webhookLogs,
		logger:      logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *BulkOperationHandler) CanHandle(topic string) bool {
	return topic == domain.TopicBulkOperationsFinish
}

// Handle finalizes the rule whose stored operation handle matches the
// notification. Unmatched notifications are logged and acknowledged, never
// retried; only an internal failure propagates an error.
func (h *BulkOperationHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var notification domain.BulkOperationNotification
	if err := json.Unmarshal(event.Payload, &notification); err != nil {
		return fmt.Errorf("failed to parse bulk operation payload: %w", err)
	}
	if notification.AdminGraphqlAPIID == "" {
		return fmt.Errorf("bulk operation payload has no operation id")
	}

	status := domain.RuleStatusFailed
	if notification.Completed() {
		status = domain.RuleStatusCompleted
	}

	rule, err := h.rules.ResolveByOperation(ctx, notification.AdminGraphqlAPIID, status, notification.Completed(), notification.FinishedAt())
	if err != nil {
		// The notification will be redelivered; log the attempt best-effort.
		if logErr := h.appendLog(ctx, domain.UnmatchedShopID, event, false, err.Error()); logErr != nil {
			h.logger.Error().Err(logErr).Str("topic", event.Topic).Msg("Failed to append webhook log")
		}
		return fmt.Errorf("failed to resolve bulk operation %s: %w", notification.AdminGraphqlAPIID, err)
	}

	if rule == nil {
		// No RUNNING rule holds this handle: a duplicate delivery, a late
		// notification for an already-resolved rule, or an operation started
		// outside this system. Acknowledge so the platform stops retrying.
		h.logger.Warn().
			Str("operationId", notification.AdminGraphqlAPIID).
			Str("status", notification.Status).
			Str("shop", event.Shop).
			Msg("Bulk operation notification matched no running rule")
		return h.appendLog(ctx, domain.UnmatchedShopID, event, true, "")
	}

	h.logger.Info().
		Str("ruleId", rule.ID).
		Str("operationId", notification.AdminGraphqlAPIID).
		Str("status", string(rule.Status)).
		Str("errorCode", notification.ErrorCode).
		Msg("Bulk operation reconciled")

	// The audit row must land before the delivery is acknowledged. A failed
	// append returns the error so the platform redelivers; the rule is
	// already resolved, so the redelivery lands on the unmatched branch and
	// only retries the log.
	return h.appendLog(ctx, rule.ShopID, event, notification.Completed(), notification.ErrorCode)
}

func (h *BulkOperationHandler) appendLog(ctx context.Context, shopID string, event *domain.WebhookEvent, success bool, errMsg string) error {
	log := &domain.WebhookLog{
		ShopID:  shopID,
		Topic:   event.Topic,
		Payload: string(event.Payload),
		Success: success,
		Error:   errMsg,
	}
	if err := h.webhookLogs.Append(ctx, log); err != nil {
		return fmt.Errorf("failed to append webhook log: %w", err)
	}
	return nil
}

package domain

import (
	"fmt"
	"time"
)

// RuleType selects which kind of catalog text a rule generates.
type RuleType string

const (
	RuleTypeProduct RuleType = "product" // SEO title/description
	RuleTypeImage   RuleType = "image"   // image alt text
)

// RuleStatus is the lifecycle state of a meta rule.
//
// PENDING -> RUNNING -> {COMPLETED, FAILED}
//
// A rule moves to RUNNING only once a bulk-operation handle has been
// assigned. COMPLETED and FAILED are set exclusively by the webhook
// reconciler matching that handle, never by the submitter.
type RuleStatus string

const (
	RuleStatusPending   RuleStatus = "PENDING"
	RuleStatusRunning   RuleStatus = "RUNNING"
	RuleStatusCompleted RuleStatus = "COMPLETED"
	RuleStatusFailed    RuleStatus = "FAILED"
)

// MetaRule is a merchant-authored template controlling generated SEO text or
// image alt text. BulkOperationID is a correlation key into the remote
// platform's job namespace, not an owned resource.
type MetaRule struct {
	ID              string     `json:"id"`
	ShopID          string     `json:"shop_id"`
	Name            string     `json:"name"`
	Type            RuleType   `json:"type"`
	Pattern         string     `json:"pattern"`
	Description     *string    `json:"description,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsApplied       bool       `json:"is_applied"`
	Status          RuleStatus `json:"status"`
	BulkOperationID string     `json:"bulk_operation_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks the fields a merchant supplies at creation time.
func (r *MetaRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}
	switch r.Type {
	case RuleTypeProduct, RuleTypeImage:
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
	return nil
}

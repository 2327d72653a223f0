package shopify

import (
	"context"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"
)

const bulkRunMutation = `
mutation bulkOperationRunMutation($mutation: String!, $stagedUploadPath: String!) {
  bulkOperationRunMutation(mutation: $mutation, stagedUploadPath: $stagedUploadPath) {
    bulkOperation {
      id
      url
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// SubmitBulkMutation starts the asynchronous bulk job against the staged
// file. User errors and a missing operation identifier both surface as
// *domain.SubmissionError.
func (c *client) SubmitBulkMutation(ctx context.Context, session domain.AdminSession, mutation string, stagedUploadPath string) (string, error) {
	variables := map[string]any{
		"mutation":         mutation,
		"stagedUploadPath": stagedUploadPath,
	}

	var data struct {
		BulkOperationRunMutation struct {
			BulkOperation *struct {
				ID     string `json:"id"`
				URL    string `json:"url"`
				Status string `json:"status"`
			} `json:"bulkOperation"`
			UserErrors []userError `json:"userErrors"`
		} `json:"bulkOperationRunMutation"`
	}
	if err := c.doGraphQL(ctx, session, "bulk mutation run", bulkRunMutation, variables, &data); err != nil {
		return "", err
	}
	if msg := firstUserError(data.BulkOperationRunMutation.UserErrors); msg != "" {
		return "", &domain.SubmissionError{Message: msg}
	}
	op := data.BulkOperationRunMutation.BulkOperation
	if op == nil || op.ID == "" {
		return "", &domain.SubmissionError{Message: "no bulk operation id returned"}
	}

	c.logger.Info().
		Str("shop", session.ShopDomain).
		Str("operationId", op.ID).
		Str("status", op.Status).
		Msg("Bulk operation submitted")
	return op.ID, nil
}

const bulkOperationQuery = `
query getBulkOperation($id: ID!) {
  node(id: $id) {
    ... on BulkOperation {
      id
      status
      errorCode
      createdAt
      completedAt
      objectCount
      fileSize
      url
      partialDataUrl
    }
  }
}`

// GetBulkOperation queries a bulk job by its operation identifier, for
// polling alongside the webhook notification.
func (c *client) GetBulkOperation(ctx context.Context, session domain.AdminSession, operationID string) (*ports.BulkOperation, error) {
	variables := map[string]any{"id": operationID}

	var data struct {
		Node *struct {
			ID             string `json:"id"`
			Status         string `json:"status"`
			ErrorCode      string `json:"errorCode"`
			CreatedAt      string `json:"createdAt"`
			CompletedAt    string `json:"completedAt"`
			ObjectCount    string `json:"objectCount"`
			FileSize       string `json:"fileSize"`
			URL            string `json:"url"`
			PartialDataURL string `json:"partialDataUrl"`
		} `json:"node"`
	}
	if err := c.doGraphQL(ctx, session, "bulk operation query", bulkOperationQuery, variables, &data); err != nil {
		return nil, err
	}
	if data.Node == nil || data.Node.ID == "" {
		return nil, &domain.NotFoundError{Entity: "bulk operation", ID: operationID}
	}

	return &ports.BulkOperation{
		ID:             data.Node.ID,
		Status:         data.Node.Status,
		ErrorCode:      data.Node.ErrorCode,
		CreatedAt:      data.Node.CreatedAt,
		CompletedAt:    data.Node.CompletedAt,
		ObjectCount:    data.Node.ObjectCount,
		FileSize:       data.Node.FileSize,
		URL:            data.Node.URL,
		PartialDataURL: data.Node.PartialDataURL,
	}, nil
}

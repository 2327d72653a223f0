package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"metaforge-shopify-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitBulkMutation(t *testing.T) {
	var gotVariables map[string]any
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotVariables = req.Variables
		io.WriteString(w, graphqlResponse(`{
			"bulkOperationRunMutation": {
				"bulkOperation": {"id": "gid://shopify/BulkOperation/42", "status": "CREATED"},
				"userErrors": []
			}
		}`))
	})

	id, err := c.SubmitBulkMutation(context.Background(), session, "mutation doc", "tmp/file.jsonl")
	require.NoError(t, err)

	assert.Equal(t, "gid://shopify/BulkOperation/42", id)
	assert.Equal(t, "mutation doc", gotVariables["mutation"])
	assert.Equal(t, "tmp/file.jsonl", gotVariables["stagedUploadPath"])
}

func TestSubmitBulkMutation_UserError(t *testing.T) {
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, graphqlResponse(`{
			"bulkOperationRunMutation": {
				"bulkOperation": null,
				"userErrors": [{"field": null, "message": "a bulk operation is already running"}]
			}
		}`))
	})

	_, err := c.SubmitBulkMutation(context.Background(), session, "mutation doc", "tmp/file.jsonl")

	var submission *domain.SubmissionError
	require.ErrorAs(t, err, &submission)
	assert.Contains(t, submission.Error(), "already running")
}

func TestSubmitBulkMutation_MissingOperationID(t *testing.T) {
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, graphqlResponse(`{
			"bulkOperationRunMutation": {"bulkOperation": null, "userErrors": []}
		}`))
	})

	_, err := c.SubmitBulkMutation(context.Background(), session, "mutation doc", "tmp/file.jsonl")

	var submission *domain.SubmissionError
	assert.ErrorAs(t, err, &submission)
}

func TestGetBulkOperation(t *testing.T) {
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, graphqlResponse(`{
			"node": {
				"id": "gid://shopify/BulkOperation/42",
				"status": "COMPLETED",
				"objectCount": "150",
				"fileSize": "20480",
				"url": "https://storage.example.com/results.jsonl"
			}
		}`))
	})

	op, err := c.GetBulkOperation(context.Background(), session, "gid://shopify/BulkOperation/42")
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", op.Status)
	assert.Equal(t, "150", op.ObjectCount)
	assert.Equal(t, "https://storage.example.com/results.jsonl", op.URL)
}

func TestGetBulkOperation_NotFound(t *testing.T) {
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, graphqlResponse(`{"node": null}`))
	})

	_, err := c.GetBulkOperation(context.Background(), session, "gid://shopify/BulkOperation/999")

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

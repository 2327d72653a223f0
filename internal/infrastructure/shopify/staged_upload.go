package shopify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/ports"
)

const (
	stagedUploadFilename = "mutations.jsonl"
	stagedUploadMimeType = "application/jsonl"
)

const stagedUploadsMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

// CreateStagedUpload requests a one-time upload target for a bulk mutation
// variables file. User errors from the staged-target request surface as
// *domain.StagingError before any transfer is attempted.
func (c *client) CreateStagedUpload(ctx context.Context, session domain.AdminSession) (*ports.StagedTarget, error) {
	variables := map[string]any{
		"input": []map[string]any{{
			"resource":   "BULK_MUTATION_VARIABLES",
			"filename":   stagedUploadFilename,
			"mimeType":   stagedUploadMimeType,
			"httpMethod": "POST",
		}},
	}

	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []struct {
				URL         string `json:"url"`
				ResourceURL string `json:"resourceUrl"`
				Parameters  []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"parameters"`
			} `json:"stagedTargets"`
			UserErrors []userError `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := c.doGraphQL(ctx, session, "staged upload create", stagedUploadsMutation, variables, &data); err != nil {
		return nil, err
	}
	if msg := firstUserError(data.StagedUploadsCreate.UserErrors); msg != "" {
		return nil, &domain.StagingError{Message: msg}
	}
	if len(data.StagedUploadsCreate.StagedTargets) == 0 {
		return nil, &domain.StagingError{Message: "no staged target returned"}
	}

	raw := data.StagedUploadsCreate.StagedTargets[0]
	target := &ports.StagedTarget{
		URL:         raw.URL,
		ResourceURL: raw.ResourceURL,
	}
	for _, p := range raw.Parameters {
		target.Parameters = append(target.Parameters, ports.UploadParameter{Name: p.Name, Value: p.Value})
	}
	return target, nil
}

// UploadStagedPayload performs the multipart form submission to the staged
// target: every upload parameter as a form field, then the payload bytes as
// the file field. A non-2xx transport response surfaces as
// *domain.UploadError.
func (c *client) UploadStagedPayload(ctx context.Context, target *ports.StagedTarget, payload []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, p := range target.Parameters {
		if err := writer.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", p.Name, err)
		}
	}
	part, err := writer.CreateFormFile("file", stagedUploadFilename)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "staged upload transfer", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.UploadError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Debug().
		Int("bytes", len(payload)).
		Msg("Staged payload uploaded")
	return nil
}

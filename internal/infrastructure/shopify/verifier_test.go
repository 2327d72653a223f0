package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifier(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	payload := []byte(`{"admin_graphql_api_id":"gid://shopify/BulkOperation/42"}`)

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, v.Verify(payload, sign("shhh", payload)))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.Error(t, v.Verify(payload, sign("other", payload)))
	})

	t.Run("tampered payload", func(t *testing.T) {
		assert.Error(t, v.Verify([]byte(`{"tampered":true}`), sign("shhh", payload)))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Error(t, v.Verify(payload, ""))
	})
}

package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testWebhookKey = "test-webhook-key-0123456789abcdef"

func signSvix(key []byte, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", id, timestamp, body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyClerkSignature(t *testing.T) {
	key := []byte(testWebhookKey)
	secret := "whsec_" + base64.StdEncoding.EncodeToString(key)
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	id, timestamp := "msg_1", "1724800000"
	goodSig := signSvix(key, id, timestamp, body)

	tests := []struct {
		name      string
		signature string
		want      bool
	}{
		{name: "valid signature", signature: goodSig, want: true},
		{name: "second of several signatures matches", signature: "v1,bm90LXRoaXMtb25l " + goodSig, want: true},
		{name: "wrong signature", signature: "v1,AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=", want: false},
		{name: "unversioned entries are skipped", signature: "v2,something", want: false},
		{name: "empty header", signature: "", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/webhooks/clerk", nil)
			r.Header.Set("svix-id", id)
			r.Header.Set("svix-timestamp", timestamp)
			if tc.signature != "" {
				r.Header.Set("svix-signature", tc.signature)
			}

			require.Equal(t, tc.want, verifyClerkSignature(r, body))
		})
	}
}

func TestVerifyClerkSignatureRawSecretFallback(t *testing.T) {
	// a secret that is not valid base64 after the prefix is used verbatim
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_!!not-base64!!")

	body := []byte(`{}`)
	id, timestamp := "msg_2", "1724800001"
	sig := signSvix([]byte("!!not-base64!!"), id, timestamp, body)

	r := httptest.NewRequest("POST", "/webhooks/clerk", nil)
	r.Header.Set("svix-id", id)
	r.Header.Set("svix-timestamp", timestamp)
	r.Header.Set("svix-signature", sig)

	require.True(t, verifyClerkSignature(r, body))
}

func TestVerifyClerkSignatureMissingHeaders(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_"+base64.StdEncoding.EncodeToString([]byte(testWebhookKey)))

	r := httptest.NewRequest("POST", "/webhooks/clerk", nil)
	require.False(t, verifyClerkSignature(r, []byte(`{}`)))
}

package validation_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/validation"
)

func TestQRContentRoundTrip(t *testing.T) {
	token := uuid.New().String()

	content := validation.QRContent(token)
	require.Equal(t, "unibloc://validate/"+token, content)
	require.Equal(t, token, validation.TokenFromQRContent(content))
}

func TestTokenFromQRContent(t *testing.T) {
	require.Equal(t, "abc-123", validation.TokenFromQRContent("abc-123"), "bare token passes through")
	require.Equal(t, "abc-123", validation.TokenFromQRContent("  unibloc://validate/abc-123 \n"))
	require.Equal(t, "", validation.TokenFromQRContent("   "))
}

package attempt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/attempt"
)

func TestStatusForSendCount(t *testing.T) {
	require.Equal(t, attempt.StatusNone, attempt.StatusForSendCount(0))
	require.Equal(t, attempt.StatusFlash, attempt.StatusForSendCount(1))

	for count := 2; count <= attempt.MaxSendAttempts; count++ {
		require.Equal(t, attempt.StatusSent, attempt.StatusForSendCount(count))
	}
}

func TestValidSendCount(t *testing.T) {
	for count := 0; count <= attempt.MaxSendAttempts; count++ {
		require.True(t, attempt.ValidSendCount(count), "count=%d", count)
	}

	require.False(t, attempt.ValidSendCount(-1))
	require.False(t, attempt.ValidSendCount(6))
	require.False(t, attempt.ValidSendCount(42))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/attempt"
)

// scanLedgerRow fills the attemptColumns destinations for one stored entry.
func scanLedgerRow(userID uuid.UUID, sendAttempts int, status attempt.Status, validated bool) func(dest []any) error {
	return func(dest []any) error {
		*(dest[0].(*string)) = "a_1"
		*(dest[1].(*uuid.UUID)) = userID
		*(dest[2].(*string)) = "b_1"
		*(dest[3].(*int)) = 1
		*(dest[4].(*int)) = sendAttempts
		*(dest[5].(*attempt.Status)) = status
		*(dest[6].(*bool)) = validated
		*(dest[7].(*time.Time)) = time.Now()
		return nil
	}
}

func TestSetAttemptRejectsValidatedEntry(t *testing.T) {
	climber := uuid.New()

	db := &stubDB{
		queryRow: func(sql string, args []any) pgx.Row {
			return stubRow{scan: scanLedgerRow(climber, 2, attempt.StatusSent, true)}
		},
	}
	svc := NewAttemptService(db)

	err := svc.SetAttempt(context.Background(), climber, "b_1", 1, 4, false)
	require.ErrorIs(t, err, attempt.ErrValidatedImmutable)

	// the ledger row is untouched: no write of any kind was issued
	require.False(t, db.touched("INSERT INTO attempts"))
	require.False(t, db.touched("UPDATE attempts"))
	require.False(t, db.touched("DELETE FROM attempts"))
}

func TestSetAttemptClearRejectedOnValidatedEntry(t *testing.T) {
	climber := uuid.New()

	db := &stubDB{
		queryRow: func(sql string, args []any) pgx.Row {
			return stubRow{scan: scanLedgerRow(climber, 1, attempt.StatusFlash, true)}
		},
	}
	svc := NewAttemptService(db)

	err := svc.SetAttempt(context.Background(), climber, "b_1", 1, 0, false)
	require.ErrorIs(t, err, attempt.ErrValidatedImmutable)
	require.False(t, db.touched("DELETE FROM attempts"))
}

func TestApplyValidatedAttemptWritesCountStatusAndFlag(t *testing.T) {
	climber := uuid.New()

	cases := []struct {
		name       string
		count      int
		wantStatus attempt.Status
	}{
		{name: "first attempt is a flash", count: 1, wantStatus: attempt.StatusFlash},
		{name: "third attempt is a send", count: 3, wantStatus: attempt.StatusSent},
		{name: "fifth attempt is a send", count: 5, wantStatus: attempt.StatusSent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := &stubDB{}
			svc := NewAttemptService(db)

			err := svc.ApplyValidatedAttempt(context.Background(), climber, "b_1", 7, tc.count)
			require.NoError(t, err)

			calls := db.recorded()
			require.Len(t, calls, 1)
			require.Contains(t, calls[0].sql, "INSERT INTO attempts")

			// id, user_id, boulder_id, competition_id, count, status, validated
			require.Equal(t, climber, calls[0].args[1])
			require.Equal(t, tc.count, calls[0].args[4])
			require.Equal(t, tc.wantStatus, calls[0].args[5])
			require.Equal(t, true, calls[0].args[6])
		})
	}
}

func TestApplyValidatedAttemptRejectsBadCount(t *testing.T) {
	db := &stubDB{}
	svc := NewAttemptService(db)

	for _, count := range []int{0, -1, 6} {
		err := svc.ApplyValidatedAttempt(context.Background(), uuid.New(), "b_1", 1, count)
		require.ErrorIs(t, err, attempt.ErrInvalidSendCount)
	}
	require.Empty(t, db.recorded())
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/validation"
	"uniBlocAPI/realtime"
)

// scanRequestRow fills the validationColumns destinations for one request.
func scanRequestRow(climber uuid.UUID, attemptCount int, token string, status validation.Status) func(dest []any) error {
	return func(dest []any) error {
		*(dest[0].(*uuid.UUID)) = uuid.MustParse("11111111-1111-1111-1111-111111111111")
		*(dest[1].(*uuid.UUID)) = climber
		*(dest[2].(*string)) = "b_1"
		// dest[3] validator_id stays nil
		*(dest[4].(*validation.Status)) = status
		*(dest[5].(*int)) = attemptCount
		*(dest[6].(*string)) = token
		*(dest[7].(*time.Time)) = time.Now()
		*(dest[8].(*time.Time)) = time.Now()
		// dest[9] scanned_at stays nil
		return nil
	}
}

func newTestValidationService(db *stubDB) *ValidationService {
	dispatcher := NewNotificationDispatcher(db, NewProfileService(db))
	attempts := NewAttemptService(db)
	return NewValidationService(db, attempts, dispatcher, realtime.NewHub())
}

func TestRejectionNeverTouchesTheLedger(t *testing.T) {
	climber := uuid.New()
	validator := uuid.New()
	token := uuid.New().String()

	db := &stubDB{}
	db.queryRow = func(sql string, args []any) pgx.Row {
		status := validation.StatusPending
		if strings.Contains(sql, "UPDATE validation_requests") {
			status = validation.StatusRejected
		}
		return stubRow{scan: scanRequestRow(climber, 3, token, status)}
	}

	svc := newTestValidationService(db)

	resolved, err := svc.ResolveValidation(context.Background(), validator, 1,
		&validation.ResolveRequestBody{Token: token, Approve: false})
	require.NoError(t, err)
	require.Equal(t, validation.StatusRejected, resolved.Status)

	// the request is terminal but the attempts table was never read or written
	for _, c := range db.recorded() {
		require.NotContains(t, c.sql, "FROM attempts")
		require.NotContains(t, c.sql, "INSERT INTO attempts")
		require.NotContains(t, c.sql, "UPDATE attempts")
	}
}

func TestApprovalWritesStoredCountToLedger(t *testing.T) {
	climber := uuid.New()
	validator := uuid.New()
	token := uuid.New().String()

	db := &stubDB{}
	db.queryRow = func(sql string, args []any) pgx.Row {
		status := validation.StatusPending
		if strings.Contains(sql, "UPDATE validation_requests") {
			status = validation.StatusApproved
		}
		return stubRow{scan: scanRequestRow(climber, 2, token, status)}
	}

	svc := newTestValidationService(db)

	resolved, err := svc.ResolveValidation(context.Background(), validator, 1,
		&validation.ResolveRequestBody{Token: token, Approve: true})
	require.NoError(t, err)
	require.Equal(t, validation.StatusApproved, resolved.Status)

	var upsert *stubCall
	for _, c := range db.recorded() {
		if strings.Contains(c.sql, "INSERT INTO attempts") {
			c := c
			upsert = &c
			break
		}
	}
	require.NotNil(t, upsert, "approval must write the ledger")

	// id, user_id, boulder_id, competition_id, count, status, validated
	require.Equal(t, climber, upsert.args[1])
	require.Equal(t, 2, upsert.args[4])
	require.Equal(t, attempt.StatusSent, upsert.args[5])
	require.Equal(t, true, upsert.args[6])
}

func TestResolveRejectsSelfValidation(t *testing.T) {
	climber := uuid.New()
	token := uuid.New().String()

	db := &stubDB{}
	db.queryRow = func(sql string, args []any) pgx.Row {
		return stubRow{scan: scanRequestRow(climber, 1, token, validation.StatusPending)}
	}

	svc := newTestValidationService(db)

	_, err := svc.ResolveValidation(context.Background(), climber, 1,
		&validation.ResolveRequestBody{Token: token, Approve: true})
	require.ErrorIs(t, err, validation.ErrSelfValidation)
	require.False(t, db.touched("UPDATE validation_requests"))
}

func TestResolveUnknownTokenNotFound(t *testing.T) {
	db := &stubDB{} // every lookup misses

	svc := newTestValidationService(db)

	_, err := svc.ResolveValidation(context.Background(), uuid.New(), 1,
		&validation.ResolveRequestBody{Token: "nope", Approve: true})
	require.ErrorIs(t, err, validation.ErrRequestNotFound)
}

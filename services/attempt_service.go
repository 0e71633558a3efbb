package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"uniBlocAPI/internal/attempt"
)

type AttemptService struct {
	db DB
}

func NewAttemptService(db DB) *AttemptService {
	return &AttemptService{db: db}
}

const attemptColumns = `id, user_id, boulder_id, competition_id, send_attempts, status, validated, "timestamp"`

func scanAttempt(row pgx.Row) (*attempt.Attempt, error) {
	a := &attempt.Attempt{}
	err := row.Scan(&a.ID, &a.UserID, &a.BoulderID, &a.CompetitionID, &a.SendAttempts, &a.Status, &a.Validated, &a.Timestamp)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAttempt returns the single ledger entry for (user, boulder), or nil
// when the climber has nothing recorded.
func (s *AttemptService) GetAttempt(ctx context.Context, userID uuid.UUID, boulderID string) (*attempt.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE user_id = $1 AND boulder_id = $2`, userID, boulderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return a, nil
}

func (s *AttemptService) GetUserAttempts(ctx context.Context, userID uuid.UUID, competitionID int) ([]*attempt.Attempt, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE user_id = $1 AND competition_id = $2`, userID, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*attempt.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

// SetAttempt records the climber's current attempt count for a boulder.
//
// Count 1..5 upserts the entry with the status the count implies. Count 0
// with the zone flag stores zone-only credit; count 0 without it deletes
// the row, never leaving a zero-row behind. A validated entry is immutable
// to the climber and the call fails before any write.
func (s *AttemptService) SetAttempt(ctx context.Context, userID uuid.UUID, boulderID string, competitionID, count int, zone bool) error {
	if !attempt.ValidSendCount(count) {
		return attempt.ErrInvalidSendCount
	}

	existing, err := s.GetAttempt(ctx, userID, boulderID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Validated {
		return attempt.ErrValidatedImmutable
	}

	if count == 0 {
		if zone {
			return s.upsertZone(ctx, userID, boulderID, competitionID)
		}
		if existing == nil {
			return nil
		}
		if _, err := s.db.Exec(ctx, `DELETE FROM attempts WHERE id = $1`, existing.ID); err != nil {
			return fmt.Errorf("failed to delete attempt: %w", err)
		}
		return nil
	}

	return s.upsertAttempt(ctx, userID, boulderID, competitionID, count, false)
}

func (s *AttemptService) upsertZone(ctx context.Context, userID uuid.UUID, boulderID string, competitionID int) error {
	id := fmt.Sprintf("%s_%s_%d", userID, boulderID, competitionID)

	query := `
	INSERT INTO attempts (id, user_id, boulder_id, competition_id, send_attempts, status, validated, "timestamp")
	VALUES ($1, $2, $3, $4, 0, $5, false, NOW())
	ON CONFLICT (user_id, boulder_id) DO UPDATE
	SET send_attempts = 0,
	    status = EXCLUDED.status,
	    "timestamp" = EXCLUDED."timestamp"
	`

	if _, err := s.db.Exec(ctx, query, id, userID, boulderID, competitionID, attempt.StatusZone); err != nil {
		return fmt.Errorf("failed to record zone: %w", err)
	}
	return nil
}

// ApplyValidatedAttempt overwrites the ledger entry with the attempt count
// stored on an approved validation request and marks it validated. The
// upsert is idempotent so the approval path can retry it safely.
func (s *AttemptService) ApplyValidatedAttempt(ctx context.Context, userID uuid.UUID, boulderID string, competitionID, count int) error {
	if count < 1 || count > attempt.MaxSendAttempts {
		return attempt.ErrInvalidSendCount
	}
	return s.upsertAttempt(ctx, userID, boulderID, competitionID, count, true)
}

func (s *AttemptService) upsertAttempt(ctx context.Context, userID uuid.UUID, boulderID string, competitionID, count int, validated bool) error {
	id := fmt.Sprintf("%s_%s_%d", userID, boulderID, competitionID)
	status := attempt.StatusForSendCount(count)

	// validated is only forced true by the approval path; a climber edit
	// preserves whatever the row already holds (false, pre-approval).
	query := `
	INSERT INTO attempts (id, user_id, boulder_id, competition_id, send_attempts, status, validated, "timestamp")
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	ON CONFLICT (user_id, boulder_id) DO UPDATE
	SET send_attempts = EXCLUDED.send_attempts,
	    status = EXCLUDED.status,
	    validated = attempts.validated OR EXCLUDED.validated,
	    "timestamp" = EXCLUDED."timestamp"
	`

	if _, err := s.db.Exec(ctx, query, id, userID, boulderID, competitionID, count, status, validated); err != nil {
		return fmt.Errorf("failed to upsert attempt: %w", err)
	}
	return nil
}

// IsBoulderValidated is a pure lookup used by the UI to lock the selector.
func (s *AttemptService) IsBoulderValidated(ctx context.Context, userID uuid.UUID, boulderID string) (bool, error) {
	var validated bool
	err := s.db.QueryRow(ctx,
		`SELECT validated FROM attempts WHERE user_id = $1 AND boulder_id = $2`, userID, boulderID).Scan(&validated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check validation status: %w", err)
	}
	return validated, nil
}

const forceSetRetries = 3

// ForceSetValidated flips the validated flag directly, used as the recovery
// path when the approval upsert fails. One authoritative UPDATE with a
// bounded retry; exhausting the retries is reported, not fatal.
func (s *AttemptService) ForceSetValidated(ctx context.Context, userID uuid.UUID, boulderID string, validated bool) error {
	var lastErr error
	for i := 0; i < forceSetRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i) * 200 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		tag, err := s.db.Exec(ctx,
			`UPDATE attempts SET validated = $3 WHERE user_id = $1 AND boulder_id = $2`, userID, boulderID, validated)
		if err != nil {
			lastErr = err
			log.Printf("ForceSetValidated: attempt %d failed for user %s boulder %s: %v", i+1, userID, boulderID, err)
			continue
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("no attempt exists for user %s on boulder %s", userID, boulderID)
		}
		return nil
	}

	return fmt.Errorf("failed to set validated flag after %d attempts: %w", forceSetRetries, lastErr)
}

package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/skip2/go-qrcode"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/notification"
	"uniBlocAPI/internal/validation"
	"uniBlocAPI/realtime"
)

type ValidationService struct {
	db         DB
	attempts   *AttemptService
	dispatcher *NotificationDispatcher
	hub        *realtime.Hub
}

func NewValidationService(db DB, attempts *AttemptService, dispatcher *NotificationDispatcher, hub *realtime.Hub) *ValidationService {
	return &ValidationService{db: db, attempts: attempts, dispatcher: dispatcher, hub: hub}
}

// QRResponse carries the request plus the rendered code. PNG is base64 so
// the app can drop it straight into an image source.
type QRResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Token     string    `json:"token"`
	QRContent string    `json:"qr_content"`
	QRImage   string    `json:"qr_image"`
}

const validationColumns = `id, climber_id, boulder_id, validator_id, status, attempt_count, qr_token, created_at, updated_at, scanned_at`

func scanValidationRequest(row pgx.Row) (*validation.Request, error) {
	r := &validation.Request{}
	err := row.Scan(&r.ID, &r.ClimberID, &r.BoulderID, &r.ValidatorID, &r.Status, &r.AttemptCount,
		&r.QRToken, &r.CreatedAt, &r.UpdatedAt, &r.ScannedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RequestValidation opens (or re-serves) the climber's validation request
// for a boulder. An existing pending request keeps its token so a code left
// on screen stays scannable; the attempt count is refreshed to the claim.
func (s *ValidationService) RequestValidation(ctx context.Context, climberID uuid.UUID, competitionID int, body *validation.CreateRequestBody) (*QRResponse, error) {
	if body.AttemptCount < 1 || body.AttemptCount > attempt.MaxSendAttempts {
		return nil, attempt.ErrInvalidSendCount
	}

	validated, err := s.attempts.IsBoulderValidated(ctx, climberID, body.BoulderID)
	if err != nil {
		return nil, err
	}
	if validated {
		return nil, attempt.ErrValidatedImmutable
	}

	existing, err := scanValidationRequest(s.db.QueryRow(ctx, `
		SELECT `+validationColumns+` FROM validation_requests
		WHERE climber_id = $1 AND boulder_id = $2 AND status = $3`,
		climberID, body.BoulderID, validation.StatusPending))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up pending request: %w", err)
	}

	if existing != nil {
		if existing.AttemptCount != body.AttemptCount {
			_, err := s.db.Exec(ctx,
				`UPDATE validation_requests SET attempt_count = $2, updated_at = NOW() WHERE id = $1`,
				existing.ID, body.AttemptCount)
			if err != nil {
				return nil, fmt.Errorf("failed to update attempt count: %w", err)
			}
		}
		return s.buildQRResponse(existing.ID, existing.QRToken)
	}

	req, err := s.insertRequest(ctx, climberID, body.BoulderID, body.AttemptCount)
	if err != nil {
		return nil, err
	}

	s.notifyRequestCreated(ctx, req, competitionID)
	return s.buildQRResponse(req.ID, req.QRToken)
}

// RegenerateToken invalidates the climber's current code for a boulder and
// issues a fresh one. The old pending row is deleted, not updated, so a
// stale QR can never resolve.
func (s *ValidationService) RegenerateToken(ctx context.Context, climberID uuid.UUID, competitionID int, body *validation.CreateRequestBody) (*QRResponse, error) {
	validated, err := s.attempts.IsBoulderValidated(ctx, climberID, body.BoulderID)
	if err != nil {
		return nil, err
	}
	if validated {
		return nil, attempt.ErrValidatedImmutable
	}

	_, err = s.db.Exec(ctx, `
		DELETE FROM validation_requests
		WHERE climber_id = $1 AND boulder_id = $2 AND status = $3`,
		climberID, body.BoulderID, validation.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to delete stale request: %w", err)
	}

	req, err := s.insertRequest(ctx, climberID, body.BoulderID, body.AttemptCount)
	if err != nil {
		return nil, err
	}

	s.notifyRequestCreated(ctx, req, competitionID)
	return s.buildQRResponse(req.ID, req.QRToken)
}

func (s *ValidationService) insertRequest(ctx context.Context, climberID uuid.UUID, boulderID string, attemptCount int) (*validation.Request, error) {
	query := `
	INSERT INTO validation_requests (id, climber_id, boulder_id, status, attempt_count, qr_token, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	RETURNING ` + validationColumns

	req, err := scanValidationRequest(s.db.QueryRow(ctx, query,
		uuid.New(), climberID, boulderID, validation.StatusPending, attemptCount, uuid.New().String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create validation request: %w", err)
	}
	return req, nil
}

func (s *ValidationService) buildQRResponse(requestID uuid.UUID, token string) (*QRResponse, error) {
	content := validation.QRContent(token)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	return &QRResponse{
		RequestID: requestID,
		Token:     token,
		QRContent: content,
		QRImage:   base64.StdEncoding.EncodeToString(png),
	}, nil
}

// GetPendingRequests lists open requests a reviewer can act on. The
// reviewer's own requests are excluded; self-validation is also rejected
// again at resolve time.
func (s *ValidationService) GetPendingRequests(ctx context.Context, reviewerID uuid.UUID) ([]*validation.PendingRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT vr.id, vr.climber_id, p.name, vr.boulder_id, b.name, b.color, vr.attempt_count, vr.created_at
		FROM validation_requests vr
		JOIN profiles p ON p.id = vr.climber_id
		JOIN boulders b ON b.id = vr.boulder_id
		WHERE vr.status = $1 AND vr.climber_id <> $2
		ORDER BY vr.created_at ASC`, validation.StatusPending, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	defer rows.Close()

	var pending []*validation.PendingRequest
	for rows.Next() {
		r := &validation.PendingRequest{}
		err := rows.Scan(&r.ID, &r.ClimberID, &r.ClimberName, &r.BoulderID, &r.BoulderName,
			&r.BoulderColor, &r.AttemptCount, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		pending = append(pending, r)
	}
	return pending, nil
}

// ResolveValidation settles a scanned code. Approval writes the request's
// stored attempt count into the ledger and marks it validated; rejection
// leaves the ledger untouched. Either way the request becomes terminal and
// the token stops resolving.
func (s *ValidationService) ResolveValidation(ctx context.Context, validatorID uuid.UUID, competitionID int, body *validation.ResolveRequestBody) (*validation.Request, error) {
	token := validation.TokenFromQRContent(body.Token)
	if token == "" {
		return nil, validation.ErrRequestNotFound
	}

	req, err := scanValidationRequest(s.db.QueryRow(ctx, `
		SELECT `+validationColumns+` FROM validation_requests
		WHERE qr_token = $1 AND status = $2`, token, validation.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validation.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}

	if req.ClimberID == validatorID {
		return nil, validation.ErrSelfValidation
	}

	status := validation.StatusRejected
	if body.Approve {
		status = validation.StatusApproved
	}

	// the status guard makes concurrent scans race safely: exactly one
	// resolver wins, the rest fall through to ErrRequestNotFound
	resolved, err := scanValidationRequest(s.db.QueryRow(ctx, `
		UPDATE validation_requests
		SET status = $2, validator_id = $3, scanned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING `+validationColumns,
		req.ID, status, validatorID, validation.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validation.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to resolve request: %w", err)
	}

	if body.Approve {
		err := s.attempts.ApplyValidatedAttempt(ctx, resolved.ClimberID, resolved.BoulderID, competitionID, resolved.AttemptCount)
		if err != nil {
			log.Printf("Validation %s: approval upsert failed, forcing flag: %v", resolved.ID, err)
			if ferr := s.attempts.ForceSetValidated(ctx, resolved.ClimberID, resolved.BoulderID, true); ferr != nil {
				return nil, fmt.Errorf("approval recorded but attempt not validated: %w", ferr)
			}
		}
	}

	s.notifyResolved(ctx, resolved, competitionID)
	return resolved, nil
}

func (s *ValidationService) notifyRequestCreated(ctx context.Context, req *validation.Request, competitionID int) {
	data := map[string]any{
		"request_id": req.ID.String(),
		"boulder_id": req.BoulderID,
	}
	s.dispatcher.NotifyOthers(ctx, req.ClimberID, "Validation needed", "A climber nearby needs a witness", data)

	s.hub.BroadcastValidationEvent(realtime.ValidationEvent{
		Type:          "request_created",
		RequestID:     req.ID.String(),
		CompetitionID: competitionID,
		ClimberID:     req.ClimberID.String(),
		BoulderID:     req.BoulderID,
		Status:        string(req.Status),
	})
}

func (s *ValidationService) notifyResolved(ctx context.Context, req *validation.Request, competitionID int) {
	typ := notification.NotificationValidationRejected
	title, body := "Send rejected", "Your witness did not confirm the send"
	if req.Status == validation.StatusApproved {
		typ = notification.NotificationValidationApproved
		title, body = "Send validated", "Your send is confirmed and counts toward your score"
	}

	data := map[string]any{
		"request_id": req.ID.String(),
		"boulder_id": req.BoulderID,
		"status":     string(req.Status),
	}
	if err := s.dispatcher.NotifyUser(ctx, req.ClimberID, typ, title, body, data); err != nil {
		log.Printf("Failed to notify climber %s: %v", req.ClimberID, err)
	}

	s.hub.BroadcastValidationEvent(realtime.ValidationEvent{
		Type:          "request_resolved",
		RequestID:     req.ID.String(),
		CompetitionID: competitionID,
		ClimberID:     req.ClimberID.String(),
		BoulderID:     req.BoulderID,
		Status:        string(req.Status),
	})
}

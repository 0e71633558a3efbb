package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of a validation request. Pending requests are superseded by
// regeneration; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	// ErrRequestNotFound means the token does not resolve to a pending
	// request: already resolved, superseded, or never existed.
	ErrRequestNotFound = errors.New("invalid or expired code")

	// ErrSelfValidation means the climber scanned their own code.
	ErrSelfValidation = errors.New("cannot validate your own attempt")
)

// Request links one attempt claim to one validating peer.
type Request struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ClimberID    uuid.UUID  `json:"climber_id" db:"climber_id"`
	BoulderID    string     `json:"boulder_id" db:"boulder_id"`
	ValidatorID  *uuid.UUID `json:"validator_id" db:"validator_id"`
	Status       Status     `json:"status" db:"status"`
	AttemptCount int        `json:"attempt_count" db:"attempt_count"`
	QRToken      string     `json:"qr_token" db:"qr_token"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	ScannedAt    *time.Time `json:"scanned_at" db:"scanned_at"`
}

// PendingRequest is the reviewer-facing view, joined with display names.
type PendingRequest struct {
	ID           uuid.UUID `json:"id"`
	ClimberID    uuid.UUID `json:"climber_id"`
	ClimberName  string    `json:"climber_name"`
	BoulderID    string    `json:"boulder_id"`
	BoulderName  string    `json:"boulder_name"`
	BoulderColor string    `json:"boulder_color"`
	AttemptCount int       `json:"attempt_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateRequestBody struct {
	BoulderID    string `json:"boulder_id"`
	AttemptCount int    `json:"attempt_count"`
}

type ResolveRequestBody struct {
	Token   string `json:"token"`
	Approve bool   `json:"approve"`
}

// qrScheme is the deep link prefix scanners produce.
const qrScheme = "unibloc://validate/"

// QRContent wraps a token in the app deep link encoded into the QR image.
func QRContent(token string) string {
	return qrScheme + token
}

// TokenFromQRContent accepts either the deep link or a bare token, so a
// manual token entry works the same as a scan.
func TokenFromQRContent(data string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(data), qrScheme))
}

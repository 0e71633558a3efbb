package attempt

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status reflects a climber's best recorded result on one boulder.
type Status string

const (
	StatusNone  Status = "none"
	StatusZone  Status = "zone"
	StatusSent  Status = "sent"
	StatusFlash Status = "flash"
)

// MaxSendAttempts is the highest attempt count a climber can log.
const MaxSendAttempts = 5

// ErrValidatedImmutable is returned when a climber tries to change an
// attempt that a peer already validated.
var ErrValidatedImmutable = errors.New("cannot modify a validated boulder")

// ErrInvalidSendCount is returned for attempt counts outside 0..5.
var ErrInvalidSendCount = errors.New("send attempt count must be between 0 and 5")

// Attempt is the single ledger entry per (user, boulder) pair.
type Attempt struct {
	ID            string    `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	BoulderID     string    `json:"boulder_id" db:"boulder_id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	SendAttempts  int       `json:"send_attempts" db:"send_attempts"`
	Status        Status    `json:"status" db:"status"`
	Validated     bool      `json:"validated" db:"validated"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}

// SetAttemptRequest is the body of the attempt upsert endpoint. Zone marks
// partial credit and only matters with a send count of zero; any send
// subsumes the zone.
type SetAttemptRequest struct {
	BoulderID     string `json:"boulder_id"`
	CompetitionID int    `json:"competition_id"`
	SendAttempts  int    `json:"send_attempts"`
	Zone          bool   `json:"zone,omitempty"`
}

// StatusForSendCount maps an attempt count to the ledger status:
// flash on the first attempt, sent on attempts two through five.
func StatusForSendCount(count int) Status {
	switch {
	case count == 1:
		return StatusFlash
	case count >= 2:
		return StatusSent
	default:
		return StatusNone
	}
}

// ValidSendCount reports whether count is storable (0 clears the attempt).
func ValidSendCount(count int) bool {
	return count >= 0 && count <= MaxSendAttempts
}

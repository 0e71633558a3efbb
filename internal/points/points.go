package points

import "math"

const (
	// MaxCountedAttempts is the last attempt number with its own point value.
	// Sends on later attempts score the same as the fifth.
	MaxCountedAttempts = 5

	decayPerAttempt = 0.05
)

// ForAttempt returns the points awarded for sending a boulder with the given
// maximum on the given attempt. Points decay 5% per attempt with integer
// rounding and never drop below 1 for a completed send.
func ForAttempt(maxPoints, attemptNumber int) int {
	if maxPoints <= 0 || attemptNumber <= 0 {
		return 0
	}
	if attemptNumber > MaxCountedAttempts {
		attemptNumber = MaxCountedAttempts
	}

	reduction := decayPerAttempt * float64(attemptNumber-1)
	pts := int(math.Round(float64(maxPoints) * (1 - reduction)))
	if pts < 1 {
		pts = 1
	}
	return pts
}

// Schedule holds the precomputed point values stored on a boulder row.
// Zone points are taken verbatim from the configured maximum, not decayed.
type Schedule struct {
	ForFirst  int `json:"points_for_first"`
	ForSecond int `json:"points_for_second"`
	ForThird  int `json:"points_for_third"`
	ForFourth int `json:"points_for_fourth"`
	ForFifth  int `json:"points_for_fifth"`
	ForZone   int `json:"points_for_zone"`
}

// NewSchedule derives the five send values from maxPoints so later scoring
// never has to re-derive them from a possibly edited maximum.
func NewSchedule(maxPoints, maxZonePoints int) Schedule {
	return Schedule{
		ForFirst:  ForAttempt(maxPoints, 1),
		ForSecond: ForAttempt(maxPoints, 2),
		ForThird:  ForAttempt(maxPoints, 3),
		ForFourth: ForAttempt(maxPoints, 4),
		ForFifth:  ForAttempt(maxPoints, 5),
		ForZone:   maxZonePoints,
	}
}

// ForSendCount maps a recorded attempt count to the stored schedule value.
// Counts above five reuse the fifth value; zero or negative counts score 0.
func (s Schedule) ForSendCount(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return s.ForFirst
	case count == 2:
		return s.ForSecond
	case count == 3:
		return s.ForThird
	case count == 4:
		return s.ForFourth
	default:
		return s.ForFifth
	}
}

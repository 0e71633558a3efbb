package scoring

import (
	"sort"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/points"
)

// BestBouldersCount is how many boulders count toward the total score.
const BestBouldersCount = 6

// Entry is one ledger record joined with its boulder's stored schedule,
// which is everything the engine needs to price it.
type Entry struct {
	UserID       string
	BoulderID    string
	SendAttempts int
	Status       attempt.Status
	Validated    bool
	Schedule     points.Schedule
}

// Totals is the per-user aggregation over one competition.
type Totals struct {
	TotalPoints   int
	TotalBoulders int
	TotalFlashes  int
}

// EntryPoints prices a single validated entry: sends use the decayed
// schedule value for the attempt count (counts past five reuse the fifth),
// a zone without a send earns the zone value.
func EntryPoints(e Entry) int {
	if e.SendAttempts > 0 {
		return e.Schedule.ForSendCount(e.SendAttempts)
	}
	if e.Status == attempt.StatusZone {
		return e.Schedule.ForZone
	}
	return 0
}

// ComputeTotals aggregates validated entries per user. Only the
// BestBouldersCount highest-scoring boulders contribute to TotalPoints;
// the send and flash counters run over all validated entries.
func ComputeTotals(entries []Entry) map[string]Totals {
	totals := make(map[string]Totals)
	boulderPoints := make(map[string][]int)

	for _, e := range entries {
		if !e.Validated {
			continue
		}

		t := totals[e.UserID]

		if e.SendAttempts > 0 {
			boulderPoints[e.UserID] = append(boulderPoints[e.UserID], EntryPoints(e))
			t.TotalBoulders++
			if e.SendAttempts == 1 {
				t.TotalFlashes++
			}
		} else if e.Status == attempt.StatusZone {
			boulderPoints[e.UserID] = append(boulderPoints[e.UserID], e.Schedule.ForZone)
		}

		totals[e.UserID] = t
	}

	for userID, pts := range boulderPoints {
		t := totals[userID]
		t.TotalPoints = BestPointsSum(pts)
		totals[userID] = t
	}

	return totals
}

// BestPointsSum sums the BestBouldersCount largest values.
func BestPointsSum(pts []int) int {
	sorted := make([]int, len(pts))
	copy(sorted, pts)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	if len(sorted) > BestBouldersCount {
		sorted = sorted[:BestBouldersCount]
	}

	sum := 0
	for _, p := range sorted {
		sum += p
	}
	return sum
}

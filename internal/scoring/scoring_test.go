package scoring_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/points"
	"uniBlocAPI/internal/scoring"
)

func sendEntry(userID string, boulderID string, maxPoints, sendAttempts int, validated bool) scoring.Entry {
	return scoring.Entry{
		UserID:       userID,
		BoulderID:    boulderID,
		SendAttempts: sendAttempts,
		Status:       attempt.StatusForSendCount(sendAttempts),
		Validated:    validated,
		Schedule:     points.NewSchedule(maxPoints, maxPoints/4),
	}
}

func TestEntryPoints(t *testing.T) {
	flash := sendEntry("u1", "b1", 100, 1, true)
	require.Equal(t, 100, scoring.EntryPoints(flash))

	thirdGo := sendEntry("u1", "b1", 100, 3, true)
	require.Equal(t, 90, scoring.EntryPoints(thirdGo))

	grinder := sendEntry("u1", "b1", 100, 9, true)
	require.Equal(t, 80, scoring.EntryPoints(grinder), "no decay past the fifth attempt")

	zone := scoring.Entry{
		UserID:    "u1",
		BoulderID: "b1",
		Status:    attempt.StatusZone,
		Validated: true,
		Schedule:  points.NewSchedule(100, 25),
	}
	require.Equal(t, 25, scoring.EntryPoints(zone), "zone credit is not decayed")

	empty := scoring.Entry{UserID: "u1", BoulderID: "b1", Validated: true}
	require.Equal(t, 0, scoring.EntryPoints(empty))
}

func TestComputeTotalsBestSix(t *testing.T) {
	// Seven validated flashes worth 100, 95, 90, 85, 80, 75, 70.
	var entries []scoring.Entry
	for i, max := range []int{100, 95, 90, 85, 80, 75, 70} {
		entries = append(entries, sendEntry("u1", fmt.Sprintf("b%d", i+1), max, 1, true))
	}

	totals := scoring.ComputeTotals(entries)

	require.Equal(t, 525, totals["u1"].TotalPoints, "seventh boulder does not count")
	require.Equal(t, 7, totals["u1"].TotalBoulders, "counters run over all validated entries")
	require.Equal(t, 7, totals["u1"].TotalFlashes)
}

func TestComputeTotalsTopSixInvariantUnderWeakerEntry(t *testing.T) {
	var entries []scoring.Entry
	for i := 0; i < scoring.BestBouldersCount; i++ {
		entries = append(entries, sendEntry("u1", fmt.Sprintf("b%d", i), 100, 1, true))
	}

	before := scoring.ComputeTotals(entries)["u1"].TotalPoints

	weaker := sendEntry("u1", "extra", 50, 1, true)
	after := scoring.ComputeTotals(append(entries, weaker))["u1"].TotalPoints

	require.Equal(t, before, after, "adding a weaker seventh boulder must not change the total")
}

func TestComputeTotalsSkipsUnvalidated(t *testing.T) {
	entries := []scoring.Entry{
		sendEntry("u1", "b1", 100, 1, true),
		sendEntry("u1", "b2", 100, 1, false),
	}

	totals := scoring.ComputeTotals(entries)

	require.Equal(t, 100, totals["u1"].TotalPoints)
	require.Equal(t, 1, totals["u1"].TotalBoulders)
	require.Equal(t, 1, totals["u1"].TotalFlashes)
}

func TestComputeTotalsZoneOnlyEntry(t *testing.T) {
	zone := scoring.Entry{
		UserID:    "u1",
		BoulderID: "b1",
		Status:    attempt.StatusZone,
		Validated: true,
		Schedule:  points.NewSchedule(100, 25),
	}

	totals := scoring.ComputeTotals([]scoring.Entry{zone})

	require.Equal(t, 25, totals["u1"].TotalPoints)
	require.Equal(t, 0, totals["u1"].TotalBoulders, "a zone is not a send")
	require.Equal(t, 0, totals["u1"].TotalFlashes)
}

func TestComputeTotalsMultipleUsers(t *testing.T) {
	entries := []scoring.Entry{
		sendEntry("u1", "b1", 100, 1, true),
		sendEntry("u2", "b1", 100, 2, true),
		sendEntry("u2", "b2", 60, 1, true),
	}

	totals := scoring.ComputeTotals(entries)

	require.Equal(t, scoring.Totals{TotalPoints: 100, TotalBoulders: 1, TotalFlashes: 1}, totals["u1"])
	require.Equal(t, scoring.Totals{TotalPoints: 155, TotalBoulders: 2, TotalFlashes: 1}, totals["u2"])
}

func TestBestPointsSum(t *testing.T) {
	require.Equal(t, 0, scoring.BestPointsSum(nil))
	require.Equal(t, 10, scoring.BestPointsSum([]int{10}))
	require.Equal(t, 21, scoring.BestPointsSum([]int{1, 2, 3, 4, 5, 6}))
	require.Equal(t, 450, scoring.BestPointsSum([]int{100, 90, 80, 70, 60, 50, 40, 30}))
}

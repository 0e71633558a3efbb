package leaderboard_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/leaderboard"
)

func entry(id, name, university, gender string, pts int) leaderboard.Entry {
	return leaderboard.Entry{
		UserID:      id,
		UserName:    name,
		University:  university,
		Gender:      gender,
		TotalPoints: pts,
	}
}

func TestRankFinalistCapPerGender(t *testing.T) {
	var entries []leaderboard.Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, entry(fmt.Sprintf("m%d", i), fmt.Sprintf("Male %d", i), "Uni", "male", 800-i*10))
	}
	for i := 0; i < 4; i++ {
		entries = append(entries, entry(fmt.Sprintf("f%d", i), fmt.Sprintf("Female %d", i), "Uni", "female", 900-i*10))
	}

	ranked := leaderboard.Rank(entries, leaderboard.Options{Gender: leaderboard.GenderAll})

	// 6 best males plus all 4 females
	require.Len(t, ranked, 10)

	males, females := 0, 0
	for _, e := range ranked {
		switch e.Gender {
		case "male":
			males++
		case "female":
			females++
		}
		require.True(t, e.IsFinalist)
	}
	require.Equal(t, 6, males)
	require.Equal(t, 4, females)

	// the two weakest males were cut
	for _, e := range ranked {
		require.NotEqual(t, "m6", e.UserID)
		require.NotEqual(t, "m7", e.UserID)
	}

	// merged list is re-sorted by points with 1-based ranks
	for i, e := range ranked {
		require.Equal(t, i+1, e.Rank)
		if i > 0 {
			require.GreaterOrEqual(t, ranked[i-1].TotalPoints, e.TotalPoints)
		}
	}
}

func TestRankSingleGenderKeepsEveryoneAndFlagsTopSix(t *testing.T) {
	var entries []leaderboard.Entry
	for i := 0; i < 9; i++ {
		entries = append(entries, entry(fmt.Sprintf("f%d", i), fmt.Sprintf("Climber %d", i), "Uni", "female", 500-i*5))
	}
	entries = append(entries, entry("m0", "Someone Else", "Uni", "male", 999))

	ranked := leaderboard.Rank(entries, leaderboard.Options{Gender: leaderboard.GenderFemale})

	require.Len(t, ranked, 9, "no cap outside finalist mode, other genders excluded")
	for i, e := range ranked {
		require.Equal(t, "female", e.Gender)
		require.Equal(t, i+1, e.Rank)
		require.Equal(t, i < leaderboard.FinalistsPerGender, e.IsFinalist, "rank %d", i+1)
	}
}

func TestRankSortKeys(t *testing.T) {
	entries := []leaderboard.Entry{
		{UserID: "a", UserName: "A", Gender: "male", TotalPoints: 100, TotalBoulders: 2, TotalFlashes: 0},
		{UserID: "b", UserName: "B", Gender: "male", TotalPoints: 90, TotalBoulders: 5, TotalFlashes: 1},
		{UserID: "c", UserName: "C", Gender: "male", TotalPoints: 80, TotalBoulders: 3, TotalFlashes: 4},
	}

	byBoulders := leaderboard.Rank(entries, leaderboard.Options{
		Gender: leaderboard.GenderMale,
		SortBy: leaderboard.SortByBoulders,
	})
	require.Equal(t, []string{"b", "c", "a"}, ids(byBoulders))

	byFlashes := leaderboard.Rank(entries, leaderboard.Options{
		Gender: leaderboard.GenderMale,
		SortBy: leaderboard.SortByFlashes,
	})
	require.Equal(t, []string{"c", "b", "a"}, ids(byFlashes))

	ascending := leaderboard.Rank(entries, leaderboard.Options{
		Gender:    leaderboard.GenderMale,
		SortBy:    leaderboard.SortByPoints,
		Ascending: true,
	})
	require.Equal(t, []string{"c", "b", "a"}, ids(ascending))
}

func TestRankTiebreakIsDeterministic(t *testing.T) {
	entries := []leaderboard.Entry{
		entry("z9", "Zoe", "Uni", "female", 100),
		entry("a1", "Anna", "Uni", "female", 100),
		entry("b2", "Anna", "Uni", "female", 100),
	}

	ranked := leaderboard.Rank(entries, leaderboard.Options{Gender: leaderboard.GenderFemale})

	// equal points: name ascending, then user id
	require.Equal(t, []string{"a1", "b2", "z9"}, ids(ranked))
}

func TestRankSearchAndUniversityFilters(t *testing.T) {
	entries := []leaderboard.Entry{
		entry("a", "Alice Stone", "ETH Zurich", "female", 100),
		entry("b", "Bob Crag", "EPFL", "male", 90),
		entry("c", "Carol Boulder", "ETH Zurich", "female", 80),
	}

	bySearch := leaderboard.Rank(entries, leaderboard.Options{
		Gender: leaderboard.GenderFemale,
		Search: "stone",
	})
	require.Equal(t, []string{"a"}, ids(bySearch))

	byUniversity := leaderboard.Rank(entries, leaderboard.Options{
		Gender:     leaderboard.GenderFemale,
		University: "ETH Zurich",
	})
	require.Equal(t, []string{"a", "c"}, ids(byUniversity))

	searchMatchesUniversity := leaderboard.Rank(entries, leaderboard.Options{
		Gender: leaderboard.GenderAll,
		Search: "epfl",
	})
	require.Equal(t, []string{"b"}, ids(searchMatchesUniversity))
}

func TestRankZeroScoreEntriesAreKept(t *testing.T) {
	entries := []leaderboard.Entry{
		entry("a", "Alice", "Uni", "female", 120),
		entry("b", "Beth", "Uni", "female", 0),
	}

	ranked := leaderboard.Rank(entries, leaderboard.Options{Gender: leaderboard.GenderFemale})

	require.Len(t, ranked, 2)
	require.Equal(t, "b", ranked[1].UserID)
	require.Equal(t, 2, ranked[1].Rank)
}

func ids(entries []leaderboard.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UserID)
	}
	return out
}

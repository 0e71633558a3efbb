package leaderboard

import (
	"sort"
	"strings"
)

// FinalistsPerGender is the cutoff for advancing to the final round.
const FinalistsPerGender = 6

type Gender string

const (
	GenderAll    Gender = "all"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type SortKey string

const (
	SortByPoints   SortKey = "totalPoints"
	SortByBoulders SortKey = "totalBoulders"
	SortByFlashes  SortKey = "totalFlashes"
)

// Entry is one scored row of the leaderboard. Rank and IsFinalist are
// derived per request by Rank, never persisted.
type Entry struct {
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	University    string `json:"university"`
	Gender        string `json:"gender"`
	TotalPoints   int    `json:"total_points"`
	TotalBoulders int    `json:"total_boulders"`
	TotalFlashes  int    `json:"total_flashes"`
	CompetitionID int    `json:"competition_id"`
	Rank          int    `json:"rank"`
	IsFinalist    bool   `json:"is_finalist"`
}

// Options selects and orders the view of one competition's entries.
type Options struct {
	Gender     Gender
	SortBy     SortKey
	Ascending  bool
	Search     string // free text over name and university
	University string // exact match
}

// Rank filters, sorts and annotates entries.
//
// With Gender == GenderAll the result is the finalist list: the top six
// male and top six female entries by the active key, merged and re-sorted.
// With a specific gender every entry of that gender is returned and the
// first six are flagged as finalists.
//
// Ties on the sort key break by name and then user id so repeated calls
// over the same data always rank identically.
func Rank(entries []Entry, opts Options) []Entry {
	if opts.Gender == "" {
		opts.Gender = GenderAll
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByPoints
	}

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if matches(e, opts) {
			filtered = append(filtered, e)
		}
	}

	var ranked []Entry
	if opts.Gender == GenderAll {
		males := genderSubset(filtered, GenderMale)
		females := genderSubset(filtered, GenderFemale)
		sortEntries(males, opts)
		sortEntries(females, opts)

		ranked = append(ranked, capEntries(males, FinalistsPerGender)...)
		ranked = append(ranked, capEntries(females, FinalistsPerGender)...)
		sortEntries(ranked, opts)

		for i := range ranked {
			ranked[i].Rank = i + 1
			ranked[i].IsFinalist = true
		}
		return ranked
	}

	ranked = genderSubset(filtered, opts.Gender)
	sortEntries(ranked, opts)
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].IsFinalist = i < FinalistsPerGender
	}
	return ranked
}

func matches(e Entry, opts Options) bool {
	if opts.University != "" && e.University != opts.University {
		return false
	}
	if opts.Search != "" {
		q := strings.ToLower(opts.Search)
		if !strings.Contains(strings.ToLower(e.UserName), q) &&
			!strings.Contains(strings.ToLower(e.University), q) {
			return false
		}
	}
	return true
}

func genderSubset(entries []Entry, gender Gender) []Entry {
	subset := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Gender(e.Gender) == gender {
			subset = append(subset, e)
		}
	}
	return subset
}

func capEntries(entries []Entry, n int) []Entry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func sortEntries(entries []Entry, opts Options) {
	factor := -1
	if opts.Ascending {
		factor = 1
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := sortValue(entries[i], opts.SortBy), sortValue(entries[j], opts.SortBy)
		if a != b {
			return (a-b)*factor < 0
		}
		if entries[i].UserName != entries[j].UserName {
			return entries[i].UserName < entries[j].UserName
		}
		return entries[i].UserID < entries[j].UserID
	})
}

func sortValue(e Entry, key SortKey) int {
	switch key {
	case SortByBoulders:
		return e.TotalBoulders
	case SortByFlashes:
		return e.TotalFlashes
	default:
		return e.TotalPoints
	}
}

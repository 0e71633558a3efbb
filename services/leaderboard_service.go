package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"uniBlocAPI/internal/attempt"
	"uniBlocAPI/internal/leaderboard"
	"uniBlocAPI/internal/points"
	"uniBlocAPI/internal/scoring"
)

type LeaderboardService struct {
	db       DB
	profiles *ProfileService
}

func NewLeaderboardService(db DB, profiles *ProfileService) *LeaderboardService {
	return &LeaderboardService{db: db, profiles: profiles}
}

// ErrLeaderboardHidden means the competition's leaderboard is not public
// and the caller is not an admin.
var ErrLeaderboardHidden = errors.New("leaderboard is not public for this competition")

type profileRow struct {
	userID     uuid.UUID
	name       string
	university string
	gender     string
}

// GetLeaderboard builds the ranked view of one competition. Visibility is
// enforced here: a hidden leaderboard is only served to admins.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, callerID uuid.UUID, competitionID int, opts leaderboard.Options) ([]leaderboard.Entry, error) {
	var isPublic bool
	err := s.db.QueryRow(ctx, `SELECT is_leaderboard_public FROM competitions WHERE id = $1`, competitionID).Scan(&isPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to check leaderboard visibility: %w", err)
	}
	if !isPublic {
		isAdmin, err := s.profiles.IsAdmin(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrLeaderboardHidden
		}
	}

	entries, err := s.buildEntries(ctx, competitionID)
	if err != nil {
		// a failed read serves an empty board, never an error page; the
		// app polls and will pick up the real standings on the next fetch
		log.Printf("Leaderboard: serving empty board for competition %d after read failure: %v", competitionID, err)
		return []leaderboard.Entry{}, nil
	}

	return leaderboard.Rank(entries, opts), nil
}

// buildEntries scores every profile against the competition's validated
// attempts. Profiles with nothing validated still appear with zero totals.
func (s *LeaderboardService) buildEntries(ctx context.Context, competitionID int) ([]leaderboard.Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.user_id, a.boulder_id, a.send_attempts, a.status, a.validated,
		       b.points_for_first, b.points_for_second, b.points_for_third,
		       b.points_for_fourth, b.points_for_fifth, b.points_for_zone
		FROM attempts a
		JOIN boulders b ON b.id = a.boulder_id
		WHERE a.competition_id = $1`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attempts: %w", err)
	}
	defer rows.Close()

	var scoringEntries []scoring.Entry
	for rows.Next() {
		var (
			userID uuid.UUID
			e      scoring.Entry
			sched  points.Schedule
		)
		err := rows.Scan(&userID, &e.BoulderID, &e.SendAttempts, &e.Status, &e.Validated,
			&sched.ForFirst, &sched.ForSecond, &sched.ForThird, &sched.ForFourth, &sched.ForFifth, &sched.ForZone)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		e.UserID = userID.String()
		e.Schedule = sched
		scoringEntries = append(scoringEntries, e)
	}

	totals := scoring.ComputeTotals(scoringEntries)

	profileRows, err := s.db.Query(ctx,
		`SELECT id, name, university, COALESCE(gender, '') FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	defer profileRows.Close()

	var entries []leaderboard.Entry
	for profileRows.Next() {
		var p profileRow
		if err := profileRows.Scan(&p.userID, &p.name, &p.university, &p.gender); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		t := totals[p.userID.String()]
		entries = append(entries, leaderboard.Entry{
			UserID:        p.userID.String(),
			UserName:      p.name,
			University:    p.university,
			Gender:        p.gender,
			TotalPoints:   t.TotalPoints,
			TotalBoulders: t.TotalBoulders,
			TotalFlashes:  t.TotalFlashes,
			CompetitionID: competitionID,
		})
	}

	return entries, nil
}

// CompetitionResult is one line of a climber's results history.
type CompetitionResult struct {
	CompetitionID   int    `json:"competition_id"`
	CompetitionName string `json:"competition_name"`
	Rank            int    `json:"rank"`
	Participants    int    `json:"participants"`
	TotalPoints     int    `json:"total_points"`
	BouldersSent    int    `json:"boulders_sent"`
	Flashes         int    `json:"flashes"`
	Zones           int    `json:"zones"`
}

// GetUserResults returns the climber's placement in every competition they
// recorded a validated attempt in, ranked within their gender group.
func (s *LeaderboardService) GetUserResults(ctx context.Context, userID uuid.UUID) ([]CompetitionResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT a.competition_id, c.name
		FROM attempts a
		JOIN competitions c ON c.id = a.competition_id
		WHERE a.user_id = $1 AND a.validated = true
		ORDER BY a.competition_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competition history: %w", err)
	}
	defer rows.Close()

	type comp struct {
		id   int
		name string
	}
	var comps []comp
	for rows.Next() {
		var c comp
		if err := rows.Scan(&c.id, &c.name); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		comps = append(comps, c)
	}

	var gender string
	if err := s.db.QueryRow(ctx, `SELECT COALESCE(gender, '') FROM profiles WHERE id = $1`, userID).Scan(&gender); err != nil {
		return nil, fmt.Errorf("failed to resolve gender: %w", err)
	}

	results := make([]CompetitionResult, 0, len(comps))
	for _, c := range comps {
		entries, err := s.buildEntries(ctx, c.id)
		if err != nil {
			return nil, err
		}

		opts := leaderboard.Options{Gender: leaderboard.Gender(gender)}
		if opts.Gender != leaderboard.GenderMale && opts.Gender != leaderboard.GenderFemale {
			opts.Gender = leaderboard.GenderAll
		}
		ranked := leaderboard.Rank(entries, opts)

		result := CompetitionResult{CompetitionID: c.id, CompetitionName: c.name, Participants: len(ranked)}
		for _, e := range ranked {
			if e.UserID == userID.String() {
				result.Rank = e.Rank
				result.TotalPoints = e.TotalPoints
				result.BouldersSent = e.TotalBoulders
				result.Flashes = e.TotalFlashes
				break
			}
		}

		zones, err := s.countZones(ctx, userID, c.id)
		if err != nil {
			return nil, err
		}
		result.Zones = zones

		results = append(results, result)
	}

	return results, nil
}

func (s *LeaderboardService) countZones(ctx context.Context, userID uuid.UUID, competitionID int) (int, error) {
	var zones int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM attempts
		WHERE user_id = $1 AND competition_id = $2 AND validated = true AND status = $3`,
		userID, competitionID, attempt.StatusZone).Scan(&zones)
	if err != nil {
		return 0, fmt.Errorf("failed to count zones: %w", err)
	}
	return zones, nil
}

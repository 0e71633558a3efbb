package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uniBlocAPI/internal/competition"
)

type CompetitionService struct {
	db       *pgxpool.Pool
	profiles *ProfileService
}

func NewCompetitionService(db *pgxpool.Pool, profiles *ProfileService) *CompetitionService {
	return &CompetitionService{db: db, profiles: profiles}
}

func (s *CompetitionService) GetCompetitions(ctx context.Context) ([]*competition.Competition, error) {
	query := `
	SELECT id, name, location, is_leaderboard_public, created_at
	FROM competitions
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competitions: %w", err)
	}
	defer rows.Close()

	var comps []*competition.Competition
	for rows.Next() {
		c := &competition.Competition{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.IsLeaderboardPublic, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		comps = append(comps, c)
	}

	return comps, nil
}

func (s *CompetitionService) GetCompetition(ctx context.Context, id int) (*competition.Competition, error) {
	query := `
	SELECT id, name, location, is_leaderboard_public, created_at
	FROM competitions
	WHERE id = $1
	`

	c := &competition.Competition{}
	err := s.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Location, &c.IsLeaderboardPublic, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("competition not found")
		}
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}

	return c, nil
}

// GetCurrentCompetition returns the most recently created competition,
// which is the one attempts and validations run against.
func (s *CompetitionService) GetCurrentCompetition(ctx context.Context) (*competition.Competition, error) {
	query := `
	SELECT id, name, location, is_leaderboard_public, created_at
	FROM competitions
	ORDER BY created_at DESC
	LIMIT 1
	`

	c := &competition.Competition{}
	err := s.db.QueryRow(ctx, query).Scan(&c.ID, &c.Name, &c.Location, &c.IsLeaderboardPublic, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no competitions exist")
		}
		return nil, fmt.Errorf("failed to get current competition: %w", err)
	}

	return c, nil
}

func (s *CompetitionService) CreateCompetition(ctx context.Context, callerID uuid.UUID, req *competition.CreateCompetitionRequest) (*competition.Competition, error) {
	isSuperAdmin, err := s.profiles.IsSuperAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isSuperAdmin {
		return nil, ErrNotAuthorized
	}

	query := `
	INSERT INTO competitions (name, location, is_leaderboard_public, created_at)
	VALUES ($1, $2, $3, NOW())
	RETURNING id, name, location, is_leaderboard_public, created_at
	`

	c := &competition.Competition{}
	err = s.db.QueryRow(ctx, query, req.Name, req.Location, req.IsLeaderboardPublic).Scan(
		&c.ID, &c.Name, &c.Location, &c.IsLeaderboardPublic, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}

	return c, nil
}

func (s *CompetitionService) UpdateCompetition(ctx context.Context, callerID uuid.UUID, id int, req *competition.UpdateCompetitionRequest) (*competition.Competition, error) {
	isSuperAdmin, err := s.profiles.IsSuperAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isSuperAdmin {
		return nil, ErrNotAuthorized
	}

	query := `
	UPDATE competitions
	SET name = COALESCE($2, name),
	    location = COALESCE($3, location),
	    is_leaderboard_public = COALESCE($4, is_leaderboard_public)
	WHERE id = $1
	RETURNING id, name, location, is_leaderboard_public, created_at
	`

	c := &competition.Competition{}
	err = s.db.QueryRow(ctx, query, id, req.Name, req.Location, req.IsLeaderboardPublic).Scan(
		&c.ID, &c.Name, &c.Location, &c.IsLeaderboardPublic, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("competition not found")
		}
		return nil, fmt.Errorf("failed to update competition: %w", err)
	}

	return c, nil
}

// DeleteCompetition removes a competition and everything scoped to it:
// validation requests, attempts, then boulders, then the row itself.
func (s *CompetitionService) DeleteCompetition(ctx context.Context, callerID uuid.UUID, id int) error {
	isSuperAdmin, err := s.profiles.IsSuperAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isSuperAdmin {
		return ErrNotAuthorized
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM validation_requests
		WHERE boulder_id IN (SELECT id FROM boulders WHERE competition_id = $1)`, id); err != nil {
		return fmt.Errorf("failed to delete validation requests: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM attempts WHERE competition_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete attempts: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM boulders WHERE competition_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete boulders: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM competitions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit competition delete: %w", err)
	}

	log.Printf("Competition %d deleted by %s", id, callerID)
	return nil
}

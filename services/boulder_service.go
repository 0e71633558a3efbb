package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uniBlocAPI/internal/boulder"
	"uniBlocAPI/internal/points"
)

type BoulderService struct {
	db       *pgxpool.Pool
	profiles *ProfileService
}

func NewBoulderService(db *pgxpool.Pool, profiles *ProfileService) *BoulderService {
	return &BoulderService{db: db, profiles: profiles}
}

// ErrBoulderReferenced blocks deletion of a boulder that attempts point at.
var ErrBoulderReferenced = errors.New("boulder has recorded attempts and cannot be deleted")

const boulderColumns = `id, name, color, points_for_first, points_for_second, points_for_third,
	points_for_fourth, points_for_fifth, points_for_zone, is_active, "order", competition_id`

func scanBoulder(row pgx.Row) (*boulder.Boulder, error) {
	b := &boulder.Boulder{}
	err := row.Scan(
		&b.ID, &b.Name, &b.Color,
		&b.PointsFirst, &b.PointsSecond, &b.PointsThird, &b.PointsFourth, &b.PointsFifth,
		&b.PointsZone, &b.IsActive, &b.Order, &b.CompetitionID,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBoulders lists a competition's boulders in display order.
func (s *BoulderService) GetBoulders(ctx context.Context, competitionID int, activeOnly bool) ([]*boulder.Boulder, error) {
	query := `SELECT ` + boulderColumns + ` FROM boulders WHERE competition_id = $1`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY "order" ASC`

	rows, err := s.db.Query(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boulders: %w", err)
	}
	defer rows.Close()

	var boulders []*boulder.Boulder
	for rows.Next() {
		b, err := scanBoulder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boulder: %w", err)
		}
		boulders = append(boulders, b)
	}

	return boulders, nil
}

func (s *BoulderService) GetBoulder(ctx context.Context, id string) (*boulder.Boulder, error) {
	b, err := scanBoulder(s.db.QueryRow(ctx, `SELECT `+boulderColumns+` FROM boulders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("boulder not found")
		}
		return nil, fmt.Errorf("failed to get boulder: %w", err)
	}
	return b, nil
}

// CreateBoulder derives the full point schedule from the configured maximum
// and stores it on the row, so scoring never re-derives from an edited max.
func (s *BoulderService) CreateBoulder(ctx context.Context, callerID uuid.UUID, req *boulder.CreateBoulderRequest) (*boulder.Boulder, error) {
	isAdmin, err := s.profiles.IsAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	b := &boulder.Boulder{
		ID:            fmt.Sprintf("b_%d", time.Now().UnixMilli()),
		Name:          req.Name,
		Color:         req.Color,
		IsActive:      req.IsActive,
		Order:         req.Order,
		CompetitionID: req.CompetitionID,
	}
	b.ApplySchedule(points.NewSchedule(req.MaxPoints, req.MaxZonePoints))

	query := `
	INSERT INTO boulders (id, name, color, points_for_first, points_for_second, points_for_third,
		points_for_fourth, points_for_fifth, points_for_zone, is_active, "order", competition_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING ` + boulderColumns

	created, err := scanBoulder(s.db.QueryRow(ctx, query,
		b.ID, b.Name, b.Color,
		b.PointsFirst, b.PointsSecond, b.PointsThird, b.PointsFourth, b.PointsFifth,
		b.PointsZone, b.IsActive, b.Order, b.CompetitionID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create boulder: %w", err)
	}

	return created, nil
}

// UpdateBoulder applies partial edits. A changed MaxPoints recomputes and
// overwrites all five stored send values; MaxZonePoints is taken verbatim.
func (s *BoulderService) UpdateBoulder(ctx context.Context, callerID uuid.UUID, id string, req *boulder.UpdateBoulderRequest) (*boulder.Boulder, error) {
	isAdmin, err := s.profiles.IsAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	b, err := s.GetBoulder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Color != nil {
		b.Color = *req.Color
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if req.Order != nil {
		b.Order = *req.Order
	}
	if req.MaxPoints != nil || req.MaxZonePoints != nil {
		maxPoints := b.PointsFirst
		if req.MaxPoints != nil {
			maxPoints = *req.MaxPoints
		}
		zonePoints := b.PointsZone
		if req.MaxZonePoints != nil {
			zonePoints = *req.MaxZonePoints
		}
		b.ApplySchedule(points.NewSchedule(maxPoints, zonePoints))
	}

	query := `
	UPDATE boulders
	SET name = $2, color = $3, points_for_first = $4, points_for_second = $5, points_for_third = $6,
	    points_for_fourth = $7, points_for_fifth = $8, points_for_zone = $9, is_active = $10, "order" = $11
	WHERE id = $1
	RETURNING ` + boulderColumns

	updated, err := scanBoulder(s.db.QueryRow(ctx, query,
		b.ID, b.Name, b.Color,
		b.PointsFirst, b.PointsSecond, b.PointsThird, b.PointsFourth, b.PointsFifth,
		b.PointsZone, b.IsActive, b.Order,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update boulder: %w", err)
	}

	return updated, nil
}

// DeleteBoulder refuses to orphan attempt rows: deletion is rejected while
// any attempt references the boulder. Deactivate instead to hide it.
func (s *BoulderService) DeleteBoulder(ctx context.Context, callerID uuid.UUID, id string) error {
	isAdmin, err := s.profiles.IsAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAuthorized
	}

	var attemptCount int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM attempts WHERE boulder_id = $1`, id).Scan(&attemptCount); err != nil {
		return fmt.Errorf("failed to check boulder references: %w", err)
	}
	if attemptCount > 0 {
		return ErrBoulderReferenced
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM validation_requests WHERE boulder_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete validation requests: %w", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM boulders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete boulder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boulder not found")
	}

	return nil
}

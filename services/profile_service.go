package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"uniBlocAPI/internal/notification"
	"uniBlocAPI/internal/profile"
)

type ProfileService struct {
	db DB
}

func NewProfileService(db DB) *ProfileService {
	return &ProfileService{db: db}
}

var ErrNotAuthorized = errors.New("not authorized")

func (s *ProfileService) CreateProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	p := &profile.Profile{
		ID:         uuid.New(),
		ClerkID:    req.ClerkID,
		Name:       req.Name,
		University: req.University,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if req.Gender != "" {
		p.Gender = &req.Gender
	}

	query := `
	INSERT INTO profiles (id, clerk_id, name, university, gender, is_admin, is_super_admin, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, false, false, $6, $7)
	ON CONFLICT (clerk_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
	RETURNING id, clerk_id, name, university, gender, is_admin, is_super_admin, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query, p.ID, p.ClerkID, p.Name, p.University, p.Gender, p.CreatedAt, p.UpdatedAt).Scan(
		&p.ID, &p.ClerkID, &p.Name, &p.University, &p.Gender, &p.IsAdmin, &p.IsSuperAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `
	SELECT id, clerk_id, name, university, gender, is_admin, is_super_admin, created_at, updated_at
	FROM profiles
	WHERE clerk_id = $1
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&p.ID, &p.ClerkID, &p.Name, &p.University, &p.Gender, &p.IsAdmin, &p.IsSuperAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// ResolveUserID maps the Clerk subject from the auth middleware to the
// internal profile id every service operates on.
func (s *ProfileService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("profile not found for clerk_id %s", clerkID)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

func (s *ProfileService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	query := `
	UPDATE profiles
	SET name = COALESCE($2, name),
	    university = COALESCE($3, university),
	    gender = COALESCE($4, gender),
	    updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, name, university, gender, is_admin, is_super_admin, created_at, updated_at
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID, req.Name, req.University, req.Gender).Scan(
		&p.ID, &p.ClerkID, &p.Name, &p.University, &p.Gender, &p.IsAdmin, &p.IsSuperAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) DeleteProfileByClerkID(ctx context.Context, clerkID string) error {
	userID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	// attempts and validation requests go first so no rows are orphaned
	if _, err := s.db.Exec(ctx, `DELETE FROM validation_requests WHERE climber_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete validation requests: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM attempts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete attempts: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM device_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete device tokens: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return nil
}

// IsAdmin reports whether the user may manage boulders. Super admins are
// admins everywhere.
func (s *ProfileService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var isAdmin, isSuperAdmin bool
	err := s.db.QueryRow(ctx, `SELECT is_admin, is_super_admin FROM profiles WHERE id = $1`, userID).Scan(&isAdmin, &isSuperAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin status: %w", err)
	}
	return isAdmin || isSuperAdmin, nil
}

func (s *ProfileService) IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var isSuperAdmin bool
	err := s.db.QueryRow(ctx, `SELECT is_super_admin FROM profiles WHERE id = $1`, userID).Scan(&isSuperAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check super admin status: %w", err)
	}
	return isSuperAdmin, nil
}

// SetRole flips admin flags on a target profile. Only super admins may call
// this; the caller's identity is threaded in explicitly.
func (s *ProfileService) SetRole(ctx context.Context, callerID uuid.UUID, req *profile.SetRoleRequest) error {
	isSuperAdmin, err := s.IsSuperAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isSuperAdmin {
		return ErrNotAuthorized
	}

	query := `
	UPDATE profiles
	SET is_admin = COALESCE($2, is_admin),
	    is_super_admin = COALESCE($3, is_super_admin),
	    updated_at = NOW()
	WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, req.UserID, req.IsAdmin, req.IsSuperAdmin)
	if err != nil {
		return fmt.Errorf("failed to update role flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile not found")
	}

	return nil
}

// RegisterDevice stores a push token for validation notifications.
func (s *ProfileService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
	`

	if _, err := s.db.Exec(ctx, query, userID, req.Token, req.Platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// DeviceTokens returns every push token registered by users other than the
// climber, so a new validation request can reach potential reviewers.
func (s *ProfileService) DeviceTokensExcept(ctx context.Context, exclude uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id <> $1`, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

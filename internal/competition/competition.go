package competition

import "time"

// Competition scopes boulders, attempts and leaderboard visibility.
type Competition struct {
	ID                  int       `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Location            string    `json:"location" db:"location"`
	IsLeaderboardPublic bool      `json:"is_leaderboard_public" db:"is_leaderboard_public"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

type CreateCompetitionRequest struct {
	Name                string `json:"name"`
	Location            string `json:"location"`
	IsLeaderboardPublic bool   `json:"is_leaderboard_public"`
}

type UpdateCompetitionRequest struct {
	Name                *string `json:"name,omitempty"`
	Location            *string `json:"location,omitempty"`
	IsLeaderboardPublic *bool   `json:"is_leaderboard_public,omitempty"`
}

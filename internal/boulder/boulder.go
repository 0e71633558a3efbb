package boulder

import "uniBlocAPI/internal/points"

// Boulder is one problem in a competition. The five send values and the zone
// value are stored on the row at create/edit time (see points.NewSchedule).
type Boulder struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Color         string `json:"color" db:"color"`
	PointsFirst   int    `json:"points_for_first" db:"points_for_first"`
	PointsSecond  int    `json:"points_for_second" db:"points_for_second"`
	PointsThird   int    `json:"points_for_third" db:"points_for_third"`
	PointsFourth  int    `json:"points_for_fourth" db:"points_for_fourth"`
	PointsFifth   int    `json:"points_for_fifth" db:"points_for_fifth"`
	PointsZone    int    `json:"points_for_zone" db:"points_for_zone"`
	IsActive      bool   `json:"is_active" db:"is_active"`
	Order         int    `json:"order" db:"order"`
	CompetitionID int    `json:"competition_id" db:"competition_id"`
}

// Schedule returns the stored point values as a schedule.
func (b *Boulder) Schedule() points.Schedule {
	return points.Schedule{
		ForFirst:  b.PointsFirst,
		ForSecond: b.PointsSecond,
		ForThird:  b.PointsThird,
		ForFourth: b.PointsFourth,
		ForFifth:  b.PointsFifth,
		ForZone:   b.PointsZone,
	}
}

// ApplySchedule overwrites all stored point values from a freshly derived
// schedule. Called whenever an admin edits the boulder's maximum points.
func (b *Boulder) ApplySchedule(s points.Schedule) {
	b.PointsFirst = s.ForFirst
	b.PointsSecond = s.ForSecond
	b.PointsThird = s.ForThird
	b.PointsFourth = s.ForFourth
	b.PointsFifth = s.ForFifth
	b.PointsZone = s.ForZone
}

// CreateBoulderRequest is the admin form payload. Point values are derived
// server-side from MaxPoints and MaxZonePoints.
type CreateBoulderRequest struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	MaxPoints     int    `json:"max_points"`
	MaxZonePoints int    `json:"max_zone_points"`
	IsActive      bool   `json:"is_active"`
	Order         int    `json:"order"`
	CompetitionID int    `json:"competition_id"`
}

// UpdateBoulderRequest carries only the fields the admin changed. A non-nil
// MaxPoints recomputes the whole send schedule.
type UpdateBoulderRequest struct {
	Name          *string `json:"name,omitempty"`
	Color         *string `json:"color,omitempty"`
	MaxPoints     *int    `json:"max_points,omitempty"`
	MaxZonePoints *int    `json:"max_zone_points,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	Order         *int    `json:"order,omitempty"`
}

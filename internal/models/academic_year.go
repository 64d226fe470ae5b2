package models

import "time"

// AcademicYear is a yearly container. Exactly one year is active at a time;
// at most one is marked ready to become active at the next transition.
type AcademicYear struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	IsReady   bool       `db:"is_ready" json:"is_ready"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Semester belongs to one academic year and one program level. At most one
// semester may be active per (level, academic year) pair.
type Semester struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	AcademicYearID   string     `db:"academic_year_id" json:"academic_year_id"`
	LevelID          string     `db:"level_id" json:"level_id"`
	StartDate        *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	RegistrationOpen bool       `db:"registration_open" json:"registration_open"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

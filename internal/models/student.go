package models

import "time"

// Student represents a learner admitted into a program. The level pointer
// records the program level the student currently belongs to and is advanced
// by the transition engine.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	StudentNo string    `db:"student_no" json:"student_no"`
	FullName  string    `db:"full_name" json:"full_name"`
	ProgramID *string   `db:"program_id" json:"program_id,omitempty"`
	LevelID   *string   `db:"level_id" json:"level_id,omitempty"`
	FeePaid   bool      `db:"fee_paid" json:"fee_paid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentLevel joins a student with their current level order, the shape the
// transition engine validates and promotes against.
type StudentLevel struct {
	StudentID  string  `db:"student_id" json:"student_id"`
	FullName   string  `db:"full_name" json:"full_name"`
	LevelID    *string `db:"level_id" json:"level_id,omitempty"`
	LevelOrder *int    `db:"level_order" json:"level_order,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	LevelID   string
	Page      int
	PageSize  int
}

package models

import "time"

// AwardType categorises programs and drives level numbering.
type AwardType string

const (
	AwardBachelor    AwardType = "BACHELOR"
	AwardDiploma     AwardType = "DIPLOMA"
	AwardCertificate AwardType = "CERTIFICATE"
	AwardMasters     AwardType = "MASTERS"
)

// Program is a course of study offered by a department.
type Program struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	DepartmentID  *string   `db:"department_id" json:"department_id,omitempty"`
	AwardType     AwardType `db:"award_type" json:"award_type"`
	DurationYears int       `db:"duration_years" json:"duration_years"`
	Description   *string   `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ProgramLevel is an ordered stage within a program's curriculum. Order
// defines the promotion sequence; Number is the display numbering
// (100, 200, ... for bachelor programs).
type ProgramLevel struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	Name      string    `db:"name" json:"name"`
	Number    int       `db:"number" json:"number"`
	Order     int       `db:"sort_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Course is a catalog entry belonging to a program. Offerings are
// instantiated per level and semester as ProgramCourse rows.
type Course struct {
	ID           string    `db:"id" json:"id"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	CreditHours  int       `db:"credit_hours" json:"credit_hours"`
	Description  *string   `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProgramCourse is a level-and-semester-specific offering instance of a
// catalog Course. Offerings are deactivated, never mutated, when a cohort
// transitions so historical transcripts stay intact.
type ProgramCourse struct {
	ID           string    `db:"id" json:"id"`
	BaseCourseID string    `db:"base_course_id" json:"base_course_id"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	LevelID      string    `db:"level_id" json:"level_id"`
	SemesterID   string    `db:"semester_id" json:"semester_id"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	CreditHours  int       `db:"credit_hours" json:"credit_hours"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Department groups programs under a dean.
type Department struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	DeanID      *string   `db:"dean_id" json:"dean_id,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

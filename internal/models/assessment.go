package models

import "time"

// CategoryRole identifies the fixed system role of an assessment category.
type CategoryRole string

const (
	CategoryInternal CategoryRole = "INTERNAL"
	CategoryExternal CategoryRole = "EXTERNAL"
)

// AssessmentCategory carries the weight a category contributes to the final
// course score. The INTERNAL and EXTERNAL weights must sum to 100 for the
// aggregation to be meaningful; that is a configuration invariant, not a
// schema constraint.
type AssessmentCategory struct {
	ID               string       `db:"id" json:"id"`
	Name             string       `db:"name" json:"name"`
	SystemRole       CategoryRole `db:"system_role" json:"system_role"`
	WeightPercentage float64      `db:"weight_percentage" json:"weight_percentage"`
}

// AssessmentTask is one gradable item (quiz, assignment, exam) tied to a
// course offering and semester.
type AssessmentTask struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	SemesterID   string    `db:"semester_id" json:"semester_id"`
	CategoryID   string    `db:"category_id" json:"category_id"`
	Title        string    `db:"title" json:"title"`
	TaskType     string    `db:"task_type" json:"task_type"`
	TotalMarks   float64   `db:"total_marks" json:"total_marks"`
	CreatedBy    *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AssessmentTaskScore is one row per (task, student); marks stay null until
// the lecturer grades the task.
type AssessmentTaskScore struct {
	ID            string     `db:"id" json:"id"`
	TaskID        string     `db:"task_id" json:"task_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	MarksObtained *float64   `db:"marks_obtained" json:"marks_obtained,omitempty"`
	GradedBy      *string    `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt      *time.Time `db:"graded_at" json:"graded_at,omitempty"`
}

// GradedScore is a task score joined with the task fields the aggregator
// needs: the maximum marks and the category system role.
type GradedScore struct {
	MarksObtained float64      `db:"marks_obtained" json:"marks_obtained"`
	TotalMarks    float64      `db:"total_marks" json:"total_marks"`
	CategoryRole  CategoryRole `db:"category_role" json:"category_role"`
}

// Assessment is the derived course-level final record per
// (student, course, semester). It is a materialized value recomputed on every
// score write, never hand-edited, and is the sole input to GPA calculations.
type Assessment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	SemesterID   string    `db:"semester_id" json:"semester_id"`
	Score        float64   `db:"score" json:"score"`
	Grade        string    `db:"grade" json:"grade"`
	RecordedBy   *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	DateRecorded time.Time `db:"date_recorded" json:"date_recorded"`
}

// GradeBand maps a score range onto a letter grade. Bands are kept ordered by
// descending min score; the first band containing a score wins.
type GradeBand struct {
	ID       string  `db:"id" json:"id"`
	Letter   string  `db:"letter" json:"letter"`
	MinScore float64 `db:"min_score" json:"min_score"`
	MaxScore float64 `db:"max_score" json:"max_score"`
}

package models

import "time"

// TransitionResult is the audit record returned by a transition run. The log
// lines are a deliverable: admins review them to verify what happened.
type TransitionResult struct {
	Success          bool      `json:"success"`
	Timestamp        time.Time `json:"timestamp"`
	Logs             []string  `json:"logs"`
	CreatedCount     int       `json:"created_count"`
	DeactivatedCount int       `json:"deactivated_count"`
	PromotedCount    int       `json:"promoted_count"`
}

// LevelSemester pairs a validated next level with its single active semester
// under the ready academic year.
type LevelSemester struct {
	Level    ProgramLevel `json:"level"`
	Semester Semester     `json:"semester"`
}

// StudentPromotion records one planned level advance.
type StudentPromotion struct {
	StudentID string       `json:"student_id"`
	FullName  string       `json:"full_name"`
	ToLevel   ProgramLevel `json:"to_level"`
}

// TransitionPlan is the fully validated set of mutations a transition run
// will apply atomically. It is assembled before any write happens.
type TransitionPlan struct {
	Program        Program            `json:"program"`
	ActiveYear     AcademicYear       `json:"active_year"`
	ReadyYear      AcademicYear       `json:"ready_year"`
	LevelSemesters []LevelSemester    `json:"level_semesters"`
	BaseCourses    []Course           `json:"base_courses"`
	Promotions     []StudentPromotion `json:"promotions"`
}

// CourseCreation describes one offering created during a transition.
type CourseCreation struct {
	Title        string `json:"title"`
	Code         string `json:"code"`
	LevelName    string `json:"level_name"`
	SemesterName string `json:"semester_name"`
}

// CourseSkip describes one offering left untouched because an identical
// (program, level, semester, title) row already existed.
type CourseSkip struct {
	Title        string `json:"title"`
	LevelName    string `json:"level_name"`
	SemesterName string `json:"semester_name"`
}

// TransitionOutcome reports what the atomic apply phase actually changed.
type TransitionOutcome struct {
	DeactivatedCount int                `json:"deactivated_count"`
	Created          []CourseCreation   `json:"created"`
	Skipped          []CourseSkip       `json:"skipped"`
	Promoted         []StudentPromotion `json:"promoted"`
}

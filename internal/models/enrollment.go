package models

import "time"

// Enrollment is the payment-verified proof that a student belongs to a
// level+semester. Exactly one enrollment per student carries is_current=true;
// creating a new current enrollment clears the others.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	LevelID    string    `db:"level_id" json:"level_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	IsCurrent  bool      `db:"is_current" json:"is_current"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// Payment records a student's fee payment for an academic year + semester.
// Admin verification of a payment is what produces the Enrollment.
type Payment struct {
	ID             string     `db:"id" json:"id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	SemesterID     string     `db:"semester_id" json:"semester_id"`
	AmountExpected float64    `db:"amount_expected" json:"amount_expected"`
	AmountPaid     float64    `db:"amount_paid" json:"amount_paid"`
	Reference      string     `db:"reference" json:"reference"`
	IsVerified     bool       `db:"is_verified" json:"is_verified"`
	DatePaid       *time.Time `db:"date_paid" json:"date_paid,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// RegistrationStatus tracks review of a submitted course registration.
type RegistrationStatus string

const (
	RegistrationSubmitted RegistrationStatus = "SUBMITTED"
	RegistrationApproved  RegistrationStatus = "APPROVED"
	RegistrationRejected  RegistrationStatus = "REJECTED"
)

// StudentRegistration is the student's selected course set for a semester,
// distinct from Enrollment (payment proof). Unique per
// (student, academic year, semester).
type StudentRegistration struct {
	ID             string             `db:"id" json:"id"`
	StudentID      string             `db:"student_id" json:"student_id"`
	AcademicYearID string             `db:"academic_year_id" json:"academic_year_id"`
	SemesterID     string             `db:"semester_id" json:"semester_id"`
	ProgramID      string             `db:"program_id" json:"program_id"`
	LevelID        *string            `db:"level_id" json:"level_id,omitempty"`
	Status         RegistrationStatus `db:"status" json:"status"`
	SubmittedAt    time.Time          `db:"submitted_at" json:"submitted_at"`
	CourseIDs      []string           `json:"course_ids,omitempty"`
}

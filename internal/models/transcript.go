package models

import "time"

// TranscriptRow is one finalized assessment joined with the course, semester
// and level context needed to build a transcript.
type TranscriptRow struct {
	CourseID      string     `db:"course_id" json:"course_id"`
	CourseCode    string     `db:"course_code" json:"course_code"`
	CourseTitle   string     `db:"course_title" json:"course_title"`
	CreditHours   int        `db:"credit_hours" json:"credit_hours"`
	Score         float64    `db:"score" json:"score"`
	Grade         string     `db:"grade" json:"grade"`
	SemesterID    string     `db:"semester_id" json:"semester_id"`
	SemesterName  string     `db:"semester_name" json:"semester_name"`
	SemesterStart *time.Time `db:"semester_start" json:"semester_start,omitempty"`
	LevelID       string     `db:"level_id" json:"level_id"`
	LevelName     string     `db:"level_name" json:"level_name"`
	LevelOrder    int        `db:"level_order" json:"level_order"`
}

// TranscriptCourse is one course line on a transcript.
type TranscriptCourse struct {
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	CreditHours int     `json:"credit_hours"`
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	GradePoint  float64 `json:"grade_point"`
}

// TranscriptSemester groups courses under one semester with its GPA. GPA is
// nil when the semester carries zero credit hours.
type TranscriptSemester struct {
	SemesterID   string             `json:"semester_id"`
	SemesterName string             `json:"semester_name"`
	Courses      []TranscriptCourse `json:"courses"`
	GPA          *float64           `json:"gpa,omitempty"`
}

// TranscriptLevel groups semesters under one program level.
type TranscriptLevel struct {
	LevelID   string               `json:"level_id"`
	LevelName string               `json:"level_name"`
	Semesters []TranscriptSemester `json:"semesters"`
}

// Transcript is the full nested level -> semester -> course structure with
// the cumulative CGPA. It is a plain read model; snapshots of it may be
// persisted verbatim for the approval workflow.
type Transcript struct {
	StudentID   string            `json:"student_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Levels      []TranscriptLevel `json:"levels"`
	CGPA        *float64          `json:"cgpa,omitempty"`
}

// TranscriptRequestStatus tracks the approval state of a snapshot request.
type TranscriptRequestStatus string

const (
	TranscriptRequestPending  TranscriptRequestStatus = "PENDING"
	TranscriptRequestApproved TranscriptRequestStatus = "APPROVED"
	TranscriptRequestRejected TranscriptRequestStatus = "REJECTED"
)

// TranscriptRequest stores a point-in-time transcript snapshot awaiting
// administrative approval.
type TranscriptRequest struct {
	ID          string                  `db:"id" json:"id"`
	StudentID   string                  `db:"student_id" json:"student_id"`
	Snapshot    []byte                  `db:"snapshot" json:"-"`
	Status      TranscriptRequestStatus `db:"status" json:"status"`
	RequestedBy *string                 `db:"requested_by" json:"requested_by,omitempty"`
	ReviewedBy  *string                 `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RequestedAt time.Time               `db:"requested_at" json:"requested_at"`
	ReviewedAt  *time.Time              `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

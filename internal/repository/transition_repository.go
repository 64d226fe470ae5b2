package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// CourseCodeGenerator produces course offering codes. Random gives a fresh
// candidate on every call; Deterministic gives a stable code derived from its
// inputs, used once the random attempts are exhausted.
type CourseCodeGenerator interface {
	Random(title string, levelNumber int) string
	Deterministic(title string, levelNumber int, salt string) string
}

// TransitionRepository owns the atomic apply phase of an academic year
// transition. All mutations run inside one transaction; a failure anywhere
// leaves the institution exactly as it was.
type TransitionRepository struct {
	db           *sqlx.DB
	codes        CourseCodeGenerator
	codeAttempts int
}

// NewTransitionRepository constructs the repository. codeAttempts bounds the
// random course code retries before the deterministic fallback kicks in.
func NewTransitionRepository(db *sqlx.DB, codes CourseCodeGenerator, codeAttempts int) *TransitionRepository {
	if codeAttempts <= 0 {
		codeAttempts = 10
	}
	return &TransitionRepository{db: db, codes: codes, codeAttempts: codeAttempts}
}

// Apply executes a validated transition plan: deactivate the program's
// current offerings, create next-year offerings per level+semester, promote
// students, and flip the year flags. Offerings that already exist for the
// same (program, level, semester, title) are skipped, which makes a retried
// run converge instead of duplicating.
func (r *TransitionRepository) Apply(ctx context.Context, plan *models.TransitionPlan) (*models.TransitionOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}

	outcome := &models.TransitionOutcome{}

	res, err := tx.ExecContext(ctx,
		`UPDATE program_courses SET is_active = FALSE WHERE program_id = $1 AND is_active = TRUE`,
		plan.Program.ID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("deactivate offerings: %w", err)
	}
	deactivated, _ := res.RowsAffected()
	outcome.DeactivatedCount = int(deactivated)

	now := time.Now().UTC()
	for _, ls := range plan.LevelSemesters {
		for _, base := range plan.BaseCourses {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS(SELECT 1 FROM program_courses WHERE program_id = $1 AND level_id = $2 AND semester_id = $3 AND title = $4)`,
				plan.Program.ID, ls.Level.ID, ls.Semester.ID, base.Title); err != nil {
				tx.Rollback() //nolint:errcheck
				return nil, fmt.Errorf("check offering exists: %w", err)
			}
			if exists {
				outcome.Skipped = append(outcome.Skipped, models.CourseSkip{
					Title:        base.Title,
					LevelName:    ls.Level.Name,
					SemesterName: ls.Semester.Name,
				})
				continue
			}

			code, err := r.uniqueCode(ctx, tx, base.Title, ls.Level.Number, ls.Semester.ID)
			if err != nil {
				tx.Rollback() //nolint:errcheck
				return nil, err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO program_courses (id, base_course_id, program_id, level_id, semester_id, code, title, credit_hours, is_active, created_at)
                 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)`,
				uuid.NewString(), base.ID, plan.Program.ID, ls.Level.ID, ls.Semester.ID,
				code, base.Title, base.CreditHours, now); err != nil {
				tx.Rollback() //nolint:errcheck
				return nil, fmt.Errorf("create offering: %w", err)
			}
			outcome.Created = append(outcome.Created, models.CourseCreation{
				Title:        base.Title,
				Code:         code,
				LevelName:    ls.Level.Name,
				SemesterName: ls.Semester.Name,
			})
		}
	}

	for _, promotion := range plan.Promotions {
		if _, err := tx.ExecContext(ctx,
			`UPDATE students SET level_id = $2, updated_at = $3 WHERE id = $1`,
			promotion.StudentID, promotion.ToLevel.ID, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("promote student: %w", err)
		}
		outcome.Promoted = append(outcome.Promoted, promotion)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE academic_years SET is_active = FALSE WHERE id = $1`, plan.ActiveYear.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("retire active year: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE academic_years SET is_active = TRUE, is_ready = FALSE WHERE id = $1`, plan.ReadyYear.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("activate ready year: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return outcome, nil
}

// uniqueCode tries bounded random candidates against the codes already in
// program_courses, then falls back to a deterministic code. The fallback is
// inserted even on collision risk; the unique constraint is the last word.
func (r *TransitionRepository) uniqueCode(ctx context.Context, tx *sqlx.Tx, title string, levelNumber int, salt string) (string, error) {
	for attempt := 0; attempt < r.codeAttempts; attempt++ {
		candidate := r.codes.Random(title, levelNumber)
		var taken bool
		if err := tx.GetContext(ctx, &taken,
			`SELECT EXISTS(SELECT 1 FROM program_courses WHERE code = $1)`, candidate); err != nil {
			return "", fmt.Errorf("check course code: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return r.codes.Deterministic(title, levelNumber, salt), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/uni-payroll/catams-api/internal/models"
)

const courseColumns = `id, code, name, lecturer_id, budget_allocated, budget_used, active, created_at, updated_at`

// CourseRepository provides read access to courses plus the atomic
// budget_used adjustment used by the approval workflow.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByIDForUpdate loads a course under a row-level lock inside tx, so a
// budget check and the subsequent adjustment observe the same value.
func (r *CourseRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 FOR UPDATE`, courseColumns)
	var course models.Course
	if err := tx.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course for update: %w", err)
	}
	return &course, nil
}

// ExistsByIDAndLecturer reports whether the course is owned by the lecturer.
func (r *CourseRepository) ExistsByIDAndLecturer(ctx context.Context, courseID, lecturerID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND lecturer_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, courseID, lecturerID); err != nil {
		return false, fmt.Errorf("check course ownership: %w", err)
	}
	return exists, nil
}

// ListByLecturerAndActive returns the lecturer's active courses.
func (r *CourseRepository) ListByLecturerAndActive(ctx context.Context, lecturerID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE lecturer_id = $1 AND active = TRUE ORDER BY code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, lecturerID); err != nil {
		return nil, fmt.Errorf("list courses by lecturer: %w", err)
	}
	return courses, nil
}

// ListActive returns all active courses.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE active = TRUE ORDER BY code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}

// AdjustBudgetUsed applies a delta to budget_used in the same transaction
// that moves a timesheet across the counted-status boundary.
func (r *CourseRepository) AdjustBudgetUsed(ctx context.Context, tx *sqlx.Tx, courseID string, delta decimal.Decimal) error {
	const query = `UPDATE courses SET budget_used = budget_used + $2, updated_at = $3 WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, courseID, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adjust course budget: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust course budget rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

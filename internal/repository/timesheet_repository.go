package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-payroll/catams-api/internal/models"
)

const timesheetColumns = `id, tutor_id, course_id, week_start_date, task_type, qualification, repeat_activity,
	delivery_hours, associated_hours, hourly_rate, amount, rate_code, clause_reference, formula,
	description, status, rejection_reason, created_by, version, created_at, updated_at`

// TimesheetRepository provides database access for timesheets and their
// approval history.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository creates a new instance of TimesheetRepository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// FindByID returns a timesheet by identifier.
func (r *TimesheetRepository) FindByID(ctx context.Context, id string) (*models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets WHERE id = $1 LIMIT 1`, timesheetColumns)
	var ts models.Timesheet
	if err := r.db.GetContext(ctx, &ts, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timesheet by id: %w", err)
	}
	return &ts, nil
}

// FindByIDForUpdate loads a timesheet under a row-level lock inside tx.
func (r *TimesheetRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets WHERE id = $1 FOR UPDATE`, timesheetColumns)
	var ts models.Timesheet
	if err := tx.GetContext(ctx, &ts, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timesheet for update: %w", err)
	}
	return &ts, nil
}

// ExistsForWeek reports whether a timesheet already exists for the
// (tutor, course, week) tuple.
func (r *TimesheetRepository) ExistsForWeek(ctx context.Context, tutorID, courseID string, weekStart time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM timesheets WHERE tutor_id = $1 AND course_id = $2 AND week_start_date = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, tutorID, courseID, weekStart); err != nil {
		return false, fmt.Errorf("check timesheet week uniqueness: %w", err)
	}
	return exists, nil
}

// Create inserts a new timesheet.
func (r *TimesheetRepository) Create(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet) error {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ts.CreatedAt.IsZero() {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
	if ts.Version == 0 {
		ts.Version = 1
	}

	const query = `INSERT INTO timesheets (id, tutor_id, course_id, week_start_date, task_type, qualification, repeat_activity,
		delivery_hours, associated_hours, hourly_rate, amount, rate_code, clause_reference, formula,
		description, status, rejection_reason, created_by, version, created_at, updated_at)
		VALUES (:id, :tutor_id, :course_id, :week_start_date, :task_type, :qualification, :repeat_activity,
		:delivery_hours, :associated_hours, :hourly_rate, :amount, :rate_code, :clause_reference, :formula,
		:description, :status, :rejection_reason, :created_by, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, ts); err != nil {
		return fmt.Errorf("create timesheet: %w", err)
	}
	return nil
}

// Update writes mutable fields with an optimistic version check. It returns
// sql.ErrNoRows when the expected version no longer matches.
func (r *TimesheetRepository) Update(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet, expectedVersion int64) error {
	const query = `UPDATE timesheets SET week_start_date = :week_start_date, task_type = :task_type,
		qualification = :qualification, repeat_activity = :repeat_activity, delivery_hours = :delivery_hours,
		associated_hours = :associated_hours, hourly_rate = :hourly_rate, amount = :amount, rate_code = :rate_code,
		clause_reference = :clause_reference, formula = :formula, description = :description, status = :status,
		rejection_reason = :rejection_reason, version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :expected_version`

	args := map[string]interface{}{
		"id":               ts.ID,
		"week_start_date":  ts.WeekStartDate,
		"task_type":        ts.TaskType,
		"qualification":    ts.Qualification,
		"repeat_activity":  ts.Repeat,
		"delivery_hours":   ts.DeliveryHours,
		"associated_hours": ts.AssociatedHours,
		"hourly_rate":      ts.HourlyRate,
		"amount":           ts.Amount,
		"rate_code":        ts.RateCode,
		"clause_reference": ts.ClauseReference,
		"formula":          ts.Formula,
		"description":      ts.Description,
		"status":           ts.Status,
		"rejection_reason": ts.RejectionReason,
		"version":          ts.Version,
		"updated_at":       ts.UpdatedAt,
		"expected_version": expectedVersion,
	}

	result, err := tx.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("update timesheet: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timesheet rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a timesheet and its history.
func (r *TimesheetRepository) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM approval_history WHERE timesheet_id = $1`, id); err != nil {
		return fmt.Errorf("delete timesheet history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timesheets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timesheet: %w", err)
	}
	return nil
}

// List returns timesheets matching the filter with a total count. Results
// order by (created_at DESC, id DESC) for a stable pagination cursor.
func (r *TimesheetRepository) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, int, error) {
	baseQuery := `FROM timesheets WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM courses c WHERE c.id = course_id AND c.lecturer_id = $%d)", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.WeekFrom != nil {
		conditions = append(conditions, fmt.Sprintf("week_start_date >= $%d", len(args)+1))
		args = append(args, *filter.WeekFrom)
	}
	if filter.WeekTo != nil {
		conditions = append(conditions, fmt.Sprintf("week_start_date <= $%d", len(args)+1))
		args = append(args, *filter.WeekTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		timesheetColumns, baseQuery, pageSize, offset)

	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list timesheets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timesheets: %w", err)
	}

	return timesheets, total, nil
}

// PendingForTutor returns timesheets awaiting the tutor's confirmation.
func (r *TimesheetRepository) PendingForTutor(ctx context.Context, tutorID string) ([]models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets WHERE tutor_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC`, timesheetColumns)
	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, query, tutorID, models.StatusPendingTutorConfirmation); err != nil {
		return nil, fmt.Errorf("pending for tutor: %w", err)
	}
	return timesheets, nil
}

// PendingForLecturer returns tutor-confirmed timesheets across the
// lecturer's courses.
func (r *TimesheetRepository) PendingForLecturer(ctx context.Context, lecturerID string) ([]models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets t WHERE t.status = $1
		AND EXISTS (SELECT 1 FROM courses c WHERE c.id = t.course_id AND c.lecturer_id = $2)
		ORDER BY t.created_at DESC, t.id DESC`, prefixColumns("t", timesheetColumns))
	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, query, models.StatusTutorConfirmed, lecturerID); err != nil {
		return nil, fmt.Errorf("pending for lecturer: %w", err)
	}
	return timesheets, nil
}

// PendingForAdmin returns lecturer-confirmed timesheets awaiting HR.
func (r *TimesheetRepository) PendingForAdmin(ctx context.Context) ([]models.Timesheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM timesheets WHERE status = $1 ORDER BY created_at DESC, id DESC`, timesheetColumns)
	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, query, models.StatusLecturerConfirmed); err != nil {
		return nil, fmt.Errorf("pending for admin: %w", err)
	}
	return timesheets, nil
}

// AppendHistory stores one approval history entry. History is append-only;
// there is no update or delete counterpart.
func (r *TimesheetRepository) AppendHistory(ctx context.Context, tx *sqlx.Tx, entry *models.ApprovalHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_history (id, timesheet_id, action, from_status, to_status, actor_id, actor_role, comment, created_at)
		VALUES (:id, :timesheet_id, :action, :from_status, :to_status, :actor_id, :actor_role, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append approval history: %w", err)
	}
	return nil
}

// ListHistory returns the full ordered history for a timesheet.
func (r *TimesheetRepository) ListHistory(ctx context.Context, timesheetID string) ([]models.ApprovalHistoryEntry, error) {
	const query = `SELECT id, timesheet_id, action, from_status, to_status, actor_id, actor_role, comment, created_at
		FROM approval_history WHERE timesheet_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.ApprovalHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, timesheetID); err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	return entries, nil
}

// AggregateTotals returns scoped totals over a week range. Empty tutorID
// or courseID leaves that dimension unscoped; pendingStatus drives the
// pending count column.
func (r *TimesheetRepository) AggregateTotals(ctx context.Context, tutorID, courseID string, from, to time.Time, pendingStatus models.TimesheetStatus) (*models.TimesheetTotals, error) {
	baseQuery := `FROM timesheets WHERE week_start_date >= $1 AND week_start_date <= $2`
	args := []interface{}{from, to, pendingStatus}
	if tutorID != "" {
		baseQuery += fmt.Sprintf(" AND tutor_id = $%d", len(args)+1)
		args = append(args, tutorID)
	}
	if courseID != "" {
		baseQuery += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, courseID)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) AS total_count,
		COALESCE(SUM(delivery_hours + associated_hours), 0) AS total_hours,
		COALESCE(SUM(amount), 0) AS total_amount,
		COUNT(*) FILTER (WHERE status = $3) AS pending_count %s`, baseQuery)

	var totals models.TimesheetTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate timesheet totals: %w", err)
	}
	return &totals, nil
}

// StatusCounts returns per-status row counts for the scope.
func (r *TimesheetRepository) StatusCounts(ctx context.Context, tutorID, courseID string, from, to time.Time) ([]models.StatusCount, error) {
	baseQuery := `FROM timesheets WHERE week_start_date >= $1 AND week_start_date <= $2`
	args := []interface{}{from, to}
	if tutorID != "" {
		baseQuery += fmt.Sprintf(" AND tutor_id = $%d", len(args)+1)
		args = append(args, tutorID)
	}
	if courseID != "" {
		baseQuery += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, courseID)
	}

	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count %s GROUP BY status`, baseQuery)
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return counts, nil
}

// WeekTotals returns hours and pay for a single week in the scope.
func (r *TimesheetRepository) WeekTotals(ctx context.Context, tutorID, courseID string, weekStart time.Time) (*models.WeekTotals, error) {
	baseQuery := `FROM timesheets WHERE week_start_date = $1`
	args := []interface{}{weekStart}
	if tutorID != "" {
		baseQuery += fmt.Sprintf(" AND tutor_id = $%d", len(args)+1)
		args = append(args, tutorID)
	}
	if courseID != "" {
		baseQuery += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, courseID)
	}

	query := fmt.Sprintf(`SELECT COALESCE(SUM(delivery_hours + associated_hours), 0) AS hours,
		COALESCE(SUM(amount), 0) AS amount %s`, baseQuery)

	var totals models.WeekTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("week totals: %w", err)
	}
	return &totals, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

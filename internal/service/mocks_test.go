package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/uni-payroll/catams-api/internal/models"
)

// memTimesheets is an in-memory stand-in for the timesheet repository. The
// tx argument is ignored; service tests bypass the database by overriding
// runTx with a function that invokes the closure with a nil tx.
type memTimesheets struct {
	items   map[string]*models.Timesheet
	history []models.ApprovalHistoryEntry
}

func newMemTimesheets() *memTimesheets {
	return &memTimesheets{items: make(map[string]*models.Timesheet)}
}

func (m *memTimesheets) put(ts *models.Timesheet) {
	clone := *ts
	m.items[ts.ID] = &clone
}

func (m *memTimesheets) FindByID(_ context.Context, id string) (*models.Timesheet, error) {
	ts, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *ts
	return &clone, nil
}

func (m *memTimesheets) FindByIDForUpdate(ctx context.Context, _ *sqlx.Tx, id string) (*models.Timesheet, error) {
	return m.FindByID(ctx, id)
}

func (m *memTimesheets) ExistsForWeek(_ context.Context, tutorID, courseID string, weekStart time.Time) (bool, error) {
	for _, ts := range m.items {
		if ts.TutorID == tutorID && ts.CourseID == courseID && ts.WeekStartDate.Equal(weekStart) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTimesheets) Create(_ context.Context, _ *sqlx.Tx, ts *models.Timesheet) error {
	m.put(ts)
	return nil
}

func (m *memTimesheets) Update(_ context.Context, _ *sqlx.Tx, ts *models.Timesheet, expectedVersion int64) error {
	current, ok := m.items[ts.ID]
	if !ok || current.Version != expectedVersion {
		return sql.ErrNoRows
	}
	m.put(ts)
	return nil
}

func (m *memTimesheets) Delete(_ context.Context, _ *sqlx.Tx, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memTimesheets) List(_ context.Context, filter models.TimesheetFilter) ([]models.Timesheet, int, error) {
	var out []models.Timesheet
	for _, ts := range m.items {
		if filter.TutorID != "" && ts.TutorID != filter.TutorID {
			continue
		}
		if filter.CourseID != "" && ts.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != nil && ts.Status != *filter.Status {
			continue
		}
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memTimesheets) PendingForTutor(_ context.Context, tutorID string) ([]models.Timesheet, error) {
	return m.byStatus(func(ts *models.Timesheet) bool {
		return ts.TutorID == tutorID && ts.Status == models.StatusPendingTutorConfirmation
	}), nil
}

func (m *memTimesheets) PendingForLecturer(_ context.Context, _ string) ([]models.Timesheet, error) {
	return m.byStatus(func(ts *models.Timesheet) bool {
		return ts.Status == models.StatusTutorConfirmed
	}), nil
}

func (m *memTimesheets) PendingForAdmin(_ context.Context) ([]models.Timesheet, error) {
	return m.byStatus(func(ts *models.Timesheet) bool {
		return ts.Status == models.StatusLecturerConfirmed
	}), nil
}

func (m *memTimesheets) byStatus(match func(*models.Timesheet) bool) []models.Timesheet {
	var out []models.Timesheet
	for _, ts := range m.items {
		if match(ts) {
			out = append(out, *ts)
		}
	}
	return out
}

func (m *memTimesheets) AggregateTotals(_ context.Context, tutorID, courseID string, from, to time.Time, pendingStatus models.TimesheetStatus) (*models.TimesheetTotals, error) {
	totals := &models.TimesheetTotals{
		TotalHours:  decimal.Zero,
		TotalAmount: decimal.Zero,
	}
	for _, ts := range m.items {
		if !inScope(ts, tutorID, courseID) || ts.WeekStartDate.Before(from) || ts.WeekStartDate.After(to) {
			continue
		}
		totals.TotalCount++
		totals.TotalHours = totals.TotalHours.Add(ts.PayableHours())
		totals.TotalAmount = totals.TotalAmount.Add(ts.Amount)
		if ts.Status == pendingStatus {
			totals.PendingCount++
		}
	}
	return totals, nil
}

func (m *memTimesheets) StatusCounts(_ context.Context, tutorID, courseID string, from, to time.Time) ([]models.StatusCount, error) {
	counts := make(map[models.TimesheetStatus]int)
	for _, ts := range m.items {
		if !inScope(ts, tutorID, courseID) || ts.WeekStartDate.Before(from) || ts.WeekStartDate.After(to) {
			continue
		}
		counts[ts.Status]++
	}
	out := make([]models.StatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, models.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (m *memTimesheets) WeekTotals(_ context.Context, tutorID, courseID string, weekStart time.Time) (*models.WeekTotals, error) {
	totals := &models.WeekTotals{Hours: decimal.Zero, Amount: decimal.Zero}
	for _, ts := range m.items {
		if !inScope(ts, tutorID, courseID) || !ts.WeekStartDate.Equal(weekStart) {
			continue
		}
		totals.Hours = totals.Hours.Add(ts.PayableHours())
		totals.Amount = totals.Amount.Add(ts.Amount)
	}
	return totals, nil
}

func inScope(ts *models.Timesheet, tutorID, courseID string) bool {
	if tutorID != "" && ts.TutorID != tutorID {
		return false
	}
	if courseID != "" && ts.CourseID != courseID {
		return false
	}
	return true
}

func (m *memTimesheets) AppendHistory(_ context.Context, _ *sqlx.Tx, entry *models.ApprovalHistoryEntry) error {
	m.history = append(m.history, *entry)
	return nil
}

func (m *memTimesheets) ListHistory(_ context.Context, timesheetID string) ([]models.ApprovalHistoryEntry, error) {
	var out []models.ApprovalHistoryEntry
	for _, entry := range m.history {
		if entry.TimesheetID == timesheetID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memCourses struct {
	items map[string]*models.Course
}

func newMemCourses(courses ...*models.Course) *memCourses {
	m := &memCourses{items: make(map[string]*models.Course)}
	for _, c := range courses {
		clone := *c
		m.items[c.ID] = &clone
	}
	return m
}

func (m *memCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *course
	return &clone, nil
}

func (m *memCourses) FindByIDForUpdate(ctx context.Context, _ *sqlx.Tx, id string) (*models.Course, error) {
	return m.FindByID(ctx, id)
}

func (m *memCourses) ExistsByIDAndLecturer(_ context.Context, courseID, lecturerID string) (bool, error) {
	course, ok := m.items[courseID]
	return ok && course.LecturerID == lecturerID, nil
}

func (m *memCourses) ListByLecturerAndActive(_ context.Context, lecturerID string) ([]models.Course, error) {
	var out []models.Course
	for _, course := range m.items {
		if course.LecturerID == lecturerID && course.Active {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (m *memCourses) ListActive(_ context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, course := range m.items {
		if course.Active {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (m *memCourses) AdjustBudgetUsed(_ context.Context, _ *sqlx.Tx, courseID string, delta decimal.Decimal) error {
	course, ok := m.items[courseID]
	if !ok {
		return sql.ErrNoRows
	}
	course.BudgetUsed = course.BudgetUsed.Add(delta)
	return nil
}

type memUsers struct {
	items map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{items: make(map[string]*models.User)}
	for _, u := range users {
		clone := *u
		m.items[u.ID] = &clone
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *memUsers) CountTutors(_ context.Context) (int, int, error) {
	total, active := 0, 0
	for _, user := range m.items {
		if user.Role != models.RoleTutor {
			continue
		}
		total++
		if user.Active {
			active++
		}
	}
	return total, active, nil
}

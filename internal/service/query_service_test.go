package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

func seedTimesheet(timesheets *memTimesheets, id string, tutor string, status models.TimesheetStatus, createdAt time.Time) *models.Timesheet {
	ts := &models.Timesheet{
		ID:            id,
		TutorID:       tutor,
		CourseID:      courseID,
		WeekStartDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		TaskType:      models.TaskTutorial,
		Qualification: models.QualificationStandard,
		DeliveryHours: decimal.NewFromInt(1),
		Amount:        decimal.RequireFromString("175.94"),
		Status:        status,
		Version:       1,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	timesheets.put(ts)
	return ts
}

func newTestQueryService(timesheets *memTimesheets, courses *memCourses, users *memUsers) *QueryService {
	return NewQueryService(timesheets, courses, users, nil, zap.NewNop())
}

func TestListScopesTutorToOwnTimesheets(t *testing.T) {
	timesheets := newMemTimesheets()
	otherTutor := "00000000-0000-4000-8000-000000000001"
	seedTimesheet(timesheets, "mine", tutorID, models.StatusDraft, testNow)
	seedTimesheet(timesheets, "theirs", otherTutor, models.StatusDraft, testNow)
	svc := newTestQueryService(timesheets, newMemCourses(testCourse("10000", "0")), testUsers())

	items, page, err := svc.List(context.Background(), dto.TimesheetQuery{}, claimsFor(tutorID, models.RoleTutor))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", items[0].ID)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
}

func TestListDeniesTutorListingOthers(t *testing.T) {
	svc := newTestQueryService(newMemTimesheets(), newMemCourses(testCourse("10000", "0")), testUsers())

	_, _, err := svc.List(context.Background(),
		dto.TimesheetQuery{TutorID: "00000000-0000-4000-8000-000000000001"}, claimsFor(tutorID, models.RoleTutor))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)
}

func TestListDeniesTutorCourseFilter(t *testing.T) {
	svc := newTestQueryService(newMemTimesheets(), newMemCourses(testCourse("10000", "0")), testUsers())

	_, _, err := svc.List(context.Background(),
		dto.TimesheetQuery{CourseID: courseID}, claimsFor(tutorID, models.RoleTutor))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)
}

func TestListDeniesLecturerForeignCourseFilter(t *testing.T) {
	otherCourse := "00000000-0000-4000-8000-000000000002"
	courses := newMemCourses(testCourse("10000", "0"), &models.Course{
		ID: otherCourse, LecturerID: "someone-else", Active: true,
		BudgetAllocated: decimal.Zero, BudgetUsed: decimal.Zero,
	})
	svc := newTestQueryService(newMemTimesheets(), courses, testUsers())

	_, _, err := svc.List(context.Background(),
		dto.TimesheetQuery{CourseID: otherCourse}, claimsFor(lecturerID, models.RoleLecturer))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	svc := newTestQueryService(newMemTimesheets(), newMemCourses(testCourse("10000", "0")), testUsers())

	_, _, err := svc.List(context.Background(),
		dto.TimesheetQuery{Status: "HALF_APPROVED"}, claimsFor(adminID, models.RoleAdmin))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGetEnforcesViewRights(t *testing.T) {
	timesheets := newMemTimesheets()
	seedTimesheet(timesheets, "mine", tutorID, models.StatusDraft, testNow)
	users := testUsers()
	otherTutor := "00000000-0000-4000-8000-000000000003"
	users.items[otherTutor] = &models.User{ID: otherTutor, Role: models.RoleTutor, Active: true}
	svc := newTestQueryService(timesheets, newMemCourses(testCourse("10000", "0")), users)

	ts, err := svc.Get(context.Background(), "mine", claimsFor(tutorID, models.RoleTutor))
	require.NoError(t, err)
	assert.Equal(t, "mine", ts.ID)

	_, err = svc.Get(context.Background(), "mine", claimsFor(otherTutor, models.RoleTutor))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)

	_, err = svc.Get(context.Background(), "missing", claimsFor(adminID, models.RoleAdmin))
	assert.ErrorIs(t, err, appErrors.ErrResourceNotFound)
}

func TestPendingQueuesPerRole(t *testing.T) {
	timesheets := newMemTimesheets()
	seedTimesheet(timesheets, "awaiting-tutor", tutorID, models.StatusPendingTutorConfirmation, testNow)
	seedTimesheet(timesheets, "awaiting-lecturer", tutorID, models.StatusTutorConfirmed, testNow)
	seedTimesheet(timesheets, "awaiting-admin", tutorID, models.StatusLecturerConfirmed, testNow)
	svc := newTestQueryService(timesheets, newMemCourses(testCourse("10000", "0")), testUsers())

	items, err := svc.Pending(context.Background(), claimsFor(tutorID, models.RoleTutor))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "awaiting-tutor", items[0].ID)

	items, err = svc.Pending(context.Background(), claimsFor(lecturerID, models.RoleLecturer))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "awaiting-lecturer", items[0].ID)

	items, err = svc.Pending(context.Background(), claimsFor(adminID, models.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "awaiting-admin", items[0].ID)
}

func TestPendingFinalAdminOnly(t *testing.T) {
	timesheets := newMemTimesheets()
	seedTimesheet(timesheets, "awaiting-admin", tutorID, models.StatusLecturerConfirmed, testNow)
	svc := newTestQueryService(timesheets, newMemCourses(testCourse("10000", "0")), testUsers())

	items, err := svc.PendingFinal(context.Background(), claimsFor(adminID, models.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.PendingFinal(context.Background(), claimsFor(lecturerID, models.RoleLecturer))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)
}

func TestMyTimesheetsIgnoresForeignFilters(t *testing.T) {
	timesheets := newMemTimesheets()
	otherTutor := "00000000-0000-4000-8000-000000000004"
	seedTimesheet(timesheets, "mine", tutorID, models.StatusDraft, testNow)
	seedTimesheet(timesheets, "theirs", otherTutor, models.StatusDraft, testNow)
	svc := newTestQueryService(timesheets, newMemCourses(testCourse("10000", "0")), testUsers())

	items, _, err := svc.MyTimesheets(context.Background(),
		dto.TimesheetQuery{TutorID: otherTutor}, claimsFor(tutorID, models.RoleTutor))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", items[0].ID)
}

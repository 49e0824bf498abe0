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

func newTestDashboardService(timesheets *memTimesheets, courses *memCourses, users *memUsers) *DashboardService {
	svc := NewDashboardService(timesheets, courses, users, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedDashboardData(timesheets *memTimesheets) {
	currentWeek := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	previousWeek := currentWeek.AddDate(0, 0, -7)

	for _, row := range []struct {
		id     string
		week   time.Time
		status models.TimesheetStatus
	}{
		{"current-pending", currentWeek, models.StatusPendingTutorConfirmation},
		{"current-draft", currentWeek, models.StatusDraft},
		{"previous-final", previousWeek, models.StatusFinalConfirmed},
	} {
		timesheets.put(&models.Timesheet{
			ID:              row.id,
			TutorID:         tutorID,
			CourseID:        courseID,
			WeekStartDate:   row.week,
			TaskType:        models.TaskTutorial,
			Qualification:   models.QualificationStandard,
			DeliveryHours:   decimal.NewFromInt(1),
			AssociatedHours: decimal.NewFromInt(2),
			Amount:          decimal.RequireFromString("175.94"),
			Status:          row.status,
			Version:         1,
			CreatedAt:       testNow,
			UpdatedAt:       testNow,
		})
	}
}

func TestSummaryForTutor(t *testing.T) {
	timesheets := newMemTimesheets()
	seedDashboardData(timesheets)
	svc := newTestDashboardService(timesheets, newMemCourses(testCourse("10000", "351.88")), testUsers())

	summary, err := svc.Summary(context.Background(), dto.DashboardQuery{}, claimsFor(tutorID, models.RoleTutor))
	require.NoError(t, err)

	assert.Equal(t, "TUTOR", summary.Role)
	assert.Equal(t, 3, summary.TotalTimesheets)
	assert.Equal(t, 1, summary.PendingConfirmations)
	assert.True(t, summary.TotalHours.Equal(decimal.NewFromInt(9)), "hours %s", summary.TotalHours)
	assert.True(t, summary.Workload.CurrentWeekHours.Equal(decimal.NewFromInt(6)))
	assert.True(t, summary.Workload.PreviousWeekHours.Equal(decimal.NewFromInt(3)))
	assert.Nil(t, summary.Budget, "tutors see no budget block")
	assert.Nil(t, summary.TutorsTotal)

	statuses := make(map[string]int)
	for _, entry := range summary.StatusBreakdown {
		statuses[entry.Status] = entry.Count
	}
	assert.Equal(t, 1, statuses["DRAFT"])
	assert.Equal(t, 1, statuses["PENDING_TUTOR_CONFIRMATION"])
	assert.Equal(t, 1, statuses["FINAL_CONFIRMED"])
}

func TestSummaryForLecturerIncludesBudget(t *testing.T) {
	timesheets := newMemTimesheets()
	seedDashboardData(timesheets)
	svc := newTestDashboardService(timesheets, newMemCourses(testCourse("10000", "351.88")), testUsers())

	summary, err := svc.Summary(context.Background(), dto.DashboardQuery{}, claimsFor(lecturerID, models.RoleLecturer))
	require.NoError(t, err)

	require.NotNil(t, summary.Budget)
	assert.True(t, summary.Budget.Allocated.Equal(decimal.NewFromInt(10000)))
	assert.True(t, summary.Budget.Used.Equal(decimal.RequireFromString("351.88")))
	assert.True(t, summary.Budget.Remaining.Equal(decimal.RequireFromString("9648.12")))
	assert.True(t, summary.Budget.Utilization.Equal(decimal.RequireFromString("3.52")), "utilization %s", summary.Budget.Utilization)
	assert.Nil(t, summary.TutorsTotal)
}

func TestSummaryForAdminIncludesTutorCounts(t *testing.T) {
	timesheets := newMemTimesheets()
	seedDashboardData(timesheets)
	users := testUsers()
	users.items["inactive-tutor"] = &models.User{ID: "inactive-tutor", Role: models.RoleTutor, Active: false}
	svc := newTestDashboardService(timesheets, newMemCourses(testCourse("10000", "351.88")), users)

	summary, err := svc.Summary(context.Background(), dto.DashboardQuery{}, claimsFor(adminID, models.RoleAdmin))
	require.NoError(t, err)

	require.NotNil(t, summary.TutorsTotal)
	assert.Equal(t, 2, *summary.TutorsTotal)
	assert.Equal(t, 1, *summary.TutorsActive)
	require.NotNil(t, summary.Budget)
}

func TestSummaryCourseFilterRules(t *testing.T) {
	timesheets := newMemTimesheets()
	seedDashboardData(timesheets)
	foreign := "00000000-0000-4000-8000-000000000010"
	courses := newMemCourses(testCourse("10000", "0"), &models.Course{
		ID: foreign, LecturerID: "someone-else", Active: true,
		BudgetAllocated: decimal.Zero, BudgetUsed: decimal.Zero,
	})
	svc := newTestDashboardService(timesheets, courses, testUsers())

	// Tutors never filter by course.
	_, err := svc.Summary(context.Background(), dto.DashboardQuery{CourseID: courseID}, claimsFor(tutorID, models.RoleTutor))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)

	// Lecturers only within owned courses, even when the course exists.
	_, err = svc.Summary(context.Background(), dto.DashboardQuery{CourseID: foreign}, claimsFor(lecturerID, models.RoleLecturer))
	assert.ErrorIs(t, err, appErrors.ErrAuthorizationFailed)

	// Unknown ids surface as missing resources for admins.
	missing := "00000000-0000-4000-8000-000000000011"
	_, err = svc.Summary(context.Background(), dto.DashboardQuery{CourseID: missing}, claimsFor(adminID, models.RoleAdmin))
	assert.ErrorIs(t, err, appErrors.ErrResourceNotFound)

	// Owned course filter narrows the lecturer's view.
	summary, err := svc.Summary(context.Background(), dto.DashboardQuery{CourseID: courseID}, claimsFor(lecturerID, models.RoleLecturer))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalTimesheets)
}

func TestSummaryRejectsInvertedRange(t *testing.T) {
	svc := newTestDashboardService(newMemTimesheets(), newMemCourses(testCourse("10000", "0")), testUsers())

	_, err := svc.Summary(context.Background(),
		dto.DashboardQuery{From: "2025-03-10", To: "2025-02-01"}, claimsFor(adminID, models.RoleAdmin))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/workflow"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

// defaultRangeWeeks is the trailing window used when the caller gives no
// explicit date range.
const defaultRangeWeeks = 12

type dashboardStore interface {
	AggregateTotals(ctx context.Context, tutorID, courseID string, from, to time.Time, pendingStatus models.TimesheetStatus) (*models.TimesheetTotals, error)
	StatusCounts(ctx context.Context, tutorID, courseID string, from, to time.Time) ([]models.StatusCount, error)
	WeekTotals(ctx context.Context, tutorID, courseID string, weekStart time.Time) (*models.WeekTotals, error)
}

type dashboardCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByIDAndLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
	ListByLecturerAndActive(ctx context.Context, lecturerID string) ([]models.Course, error)
	ListActive(ctx context.Context) ([]models.Course, error)
}

type tutorCounter interface {
	CountTutors(ctx context.Context) (total int, active int, err error)
}

// aggScope is one (tutorID, courseID) pair the aggregates are summed over.
// Lecturers without a course filter get one scope per owned course.
type aggScope struct {
	tutorID  string
	courseID string
}

// DashboardService assembles the per-role summary aggregates.
type DashboardService struct {
	timesheets  dashboardStore
	courses     dashboardCourseStore
	users       tutorCounter
	permissions *workflow.Permissions
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger

	now func() time.Time
}

// NewDashboardService constructs the dashboard aggregator.
func NewDashboardService(timesheets dashboardStore, courses dashboardCourseStore, users tutorCounter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DashboardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		timesheets:  timesheets,
		courses:     courses,
		users:       users,
		permissions: workflow.NewPermissions(),
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Summary builds the dashboard aggregate for the actor's role. Results are
// cached per user, course filter and range.
func (s *DashboardService) Summary(ctx context.Context, q dto.DashboardQuery, actor *models.JWTClaims) (*dto.DashboardSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(q); err != nil {
		return nil, validationError(err)
	}

	from, to, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourseFilter(ctx, q.CourseID, actor); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%s:%s", DashboardKey(actor.UserID, q.CourseID), from.Format("2006-01-02"), to.Format("2006-01-02"))
	if s.cache != nil {
		var cached dto.DashboardSummary
		if s.cache.GetDashboard(ctx, key, &cached) {
			return &cached, nil
		}
	}

	scopes, courses, err := s.resolveScopes(ctx, q.CourseID, actor)
	if err != nil {
		return nil, err
	}

	summary, err := s.assemble(ctx, scopes, from, to, actor)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleTutor {
		summary.Budget = budgetUsage(courses)
	}
	if actor.Role == models.RoleAdmin {
		total, active, err := s.users.CountTutors(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to count tutors")
		}
		summary.TutorsTotal = &total
		summary.TutorsActive = &active
	}

	if s.cache != nil {
		s.cache.SetDashboard(ctx, key, summary)
	}
	return summary, nil
}

// checkCourseFilter enforces the scoping rules: tutors never filter by
// course, lecturers only within owned courses; ownership is checked before
// existence so lecturers cannot probe foreign course ids.
func (s *DashboardService) checkCourseFilter(ctx context.Context, courseID string, actor *models.JWTClaims) error {
	if courseID == "" {
		return nil
	}
	switch actor.Role {
	case models.RoleTutor:
		if decision := s.permissions.CanFilterByCourse(actor.Role, false); !decision.Allowed {
			return appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
		}
	case models.RoleLecturer:
		owns, err := s.courses.ExistsByIDAndLecturer(ctx, courseID, actor.UserID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve course ownership")
		}
		if decision := s.permissions.CanFilterByCourse(actor.Role, owns); !decision.Allowed {
			return appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
		}
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
	}
	return nil
}

func (s *DashboardService) resolveScopes(ctx context.Context, courseID string, actor *models.JWTClaims) ([]aggScope, []models.Course, error) {
	switch actor.Role {
	case models.RoleTutor:
		return []aggScope{{tutorID: actor.UserID}}, nil, nil
	case models.RoleLecturer:
		if courseID != "" {
			course, err := s.courses.FindByID(ctx, courseID)
			if err != nil {
				return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
			}
			return []aggScope{{courseID: courseID}}, []models.Course{*course}, nil
		}
		owned, err := s.courses.ListByLecturerAndActive(ctx, actor.UserID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list courses")
		}
		scopes := make([]aggScope, 0, len(owned))
		for _, course := range owned {
			scopes = append(scopes, aggScope{courseID: course.ID})
		}
		return scopes, owned, nil
	case models.RoleAdmin:
		if courseID != "" {
			course, err := s.courses.FindByID(ctx, courseID)
			if err != nil {
				return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
			}
			return []aggScope{{courseID: courseID}}, []models.Course{*course}, nil
		}
		all, err := s.courses.ListActive(ctx)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list courses")
		}
		return []aggScope{{}}, all, nil
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrAuthorizationFailed, "unknown role")
	}
}

func (s *DashboardService) assemble(ctx context.Context, scopes []aggScope, from, to time.Time, actor *models.JWTClaims) (*dto.DashboardSummary, error) {
	summary := &dto.DashboardSummary{
		Role:            string(actor.Role),
		TotalHours:      decimal.Zero,
		TotalPay:        decimal.Zero,
		StatusBreakdown: []dto.StatusBreakdownEntry{},
		Workload: dto.WorkloadSummary{
			CurrentWeekHours:  decimal.Zero,
			CurrentWeekPay:    decimal.Zero,
			PreviousWeekHours: decimal.Zero,
			PreviousWeekPay:   decimal.Zero,
			AverageWeekHours:  decimal.Zero,
		},
	}

	pendingStatus := pendingStatusFor(actor.Role)
	currentWeek := models.MondayOf(s.now())
	previousWeek := currentWeek.AddDate(0, 0, -7)
	breakdown := make(map[models.TimesheetStatus]int)

	for _, scope := range scopes {
		totals, err := s.timesheets.AggregateTotals(ctx, scope.tutorID, scope.courseID, from, to, pendingStatus)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to aggregate totals")
		}
		summary.TotalTimesheets += totals.TotalCount
		summary.PendingConfirmations += totals.PendingCount
		summary.TotalHours = summary.TotalHours.Add(totals.TotalHours)
		summary.TotalPay = summary.TotalPay.Add(totals.TotalAmount)

		counts, err := s.timesheets.StatusCounts(ctx, scope.tutorID, scope.courseID, from, to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to count statuses")
		}
		for _, c := range counts {
			breakdown[c.Status] += c.Count
		}

		current, err := s.timesheets.WeekTotals(ctx, scope.tutorID, scope.courseID, currentWeek)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to total current week")
		}
		previous, err := s.timesheets.WeekTotals(ctx, scope.tutorID, scope.courseID, previousWeek)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to total previous week")
		}
		summary.Workload.CurrentWeekHours = summary.Workload.CurrentWeekHours.Add(current.Hours)
		summary.Workload.CurrentWeekPay = summary.Workload.CurrentWeekPay.Add(current.Amount)
		summary.Workload.PreviousWeekHours = summary.Workload.PreviousWeekHours.Add(previous.Hours)
		summary.Workload.PreviousWeekPay = summary.Workload.PreviousWeekPay.Add(previous.Amount)
	}

	statuses := make([]models.TimesheetStatus, 0, len(breakdown))
	for status := range breakdown {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, status := range statuses {
		summary.StatusBreakdown = append(summary.StatusBreakdown, dto.StatusBreakdownEntry{
			Status: string(status),
			Count:  breakdown[status],
		})
	}

	if weeks := weeksBetween(from, to); weeks > 0 {
		summary.Workload.AverageWeekHours = summary.TotalHours.DivRound(decimal.NewFromInt(int64(weeks)), 2)
	}
	return summary, nil
}

// pendingStatusFor is the status awaiting this role's confirmation.
func pendingStatusFor(role models.UserRole) models.TimesheetStatus {
	switch role {
	case models.RoleTutor:
		return models.StatusPendingTutorConfirmation
	case models.RoleLecturer:
		return models.StatusTutorConfirmed
	default:
		return models.StatusLecturerConfirmed
	}
}

func budgetUsage(courses []models.Course) *dto.BudgetUsage {
	usage := &dto.BudgetUsage{
		Allocated: decimal.Zero,
		Used:      decimal.Zero,
		Remaining: decimal.Zero,
	}
	for _, course := range courses {
		usage.Allocated = usage.Allocated.Add(course.BudgetAllocated)
		usage.Used = usage.Used.Add(course.BudgetUsed)
	}
	usage.Remaining = usage.Allocated.Sub(usage.Used)
	if usage.Allocated.IsPositive() {
		usage.Utilization = usage.Used.Mul(decimal.NewFromInt(100)).DivRound(usage.Allocated, 2)
	} else {
		usage.Utilization = decimal.Zero
	}
	return usage
}

func (s *DashboardService) resolveRange(q dto.DashboardQuery) (time.Time, time.Time, error) {
	now := s.now()
	to := now
	from := models.MondayOf(now).AddDate(0, 0, -7*(defaultRangeWeeks-1))

	if q.From != "" {
		parsed, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be formatted YYYY-MM-DD")
		}
		from = parsed
	}
	if q.To != "" {
		parsed, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be formatted YYYY-MM-DD")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from, to, nil
}

// weeksBetween counts the Monday-aligned weeks the range spans.
func weeksBetween(from, to time.Time) int {
	start := models.MondayOf(from)
	end := models.MondayOf(to)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/(24*7)) + 1
}

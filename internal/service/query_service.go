package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/workflow"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

type queryStore interface {
	FindByID(ctx context.Context, id string) (*models.Timesheet, error)
	List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, int, error)
	PendingForTutor(ctx context.Context, tutorID string) ([]models.Timesheet, error)
	PendingForLecturer(ctx context.Context, lecturerID string) ([]models.Timesheet, error)
	PendingForAdmin(ctx context.Context) ([]models.Timesheet, error)
}

// QueryService serves scoped reads. Tutors see their own timesheets,
// lecturers their courses', admins everything.
type QueryService struct {
	timesheets  queryStore
	courses     courseOwnership
	users       userReader
	permissions *workflow.Permissions
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewQueryService constructs the read-side service.
func NewQueryService(timesheets queryStore, courses courseOwnership, users userReader, validate *validator.Validate, logger *zap.Logger) *QueryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		timesheets:  timesheets,
		courses:     courses,
		users:       users,
		permissions: workflow.NewPermissions(),
		validator:   validate,
		logger:      logger,
	}
}

// List returns timesheets matching the query, scoped to what the actor may
// see, newest first.
func (s *QueryService) List(ctx context.Context, q dto.TimesheetQuery, actor *models.JWTClaims) ([]models.Timesheet, models.Pagination, error) {
	if actor == nil {
		return nil, models.Pagination{}, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(q); err != nil {
		return nil, models.Pagination{}, validationError(err)
	}

	filter, err := s.buildFilter(ctx, q, actor)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	items, total, err := s.timesheets.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list timesheets")
	}
	return items, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one timesheet if the actor may view it.
func (s *QueryService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Timesheet, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ts, err := s.timesheets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load timesheet")
	}
	wfActor, err := resolveActor(ctx, s.users, s.courses, actor.UserID, ts)
	if err != nil {
		return nil, err
	}
	if decision := s.permissions.CanView(wfActor); !decision.Allowed {
		return nil, appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
	}
	return ts, nil
}

// MyTimesheets lists the actor's own timesheets regardless of role.
func (s *QueryService) MyTimesheets(ctx context.Context, q dto.TimesheetQuery, actor *models.JWTClaims) ([]models.Timesheet, models.Pagination, error) {
	if actor == nil {
		return nil, models.Pagination{}, appErrors.ErrUnauthorized
	}
	q.TutorID = actor.UserID
	q.CourseID = ""

	filter := models.TimesheetFilter{
		TutorID:  actor.UserID,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if err := applyCommonFilters(&filter, q); err != nil {
		return nil, models.Pagination{}, err
	}
	items, total, err := s.timesheets.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list timesheets")
	}
	return items, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Pending returns the actor's approval queue: timesheets awaiting tutor
// confirmation for tutors, lecturer confirmation for lecturers, and final
// confirmation for admins.
func (s *QueryService) Pending(ctx context.Context, actor *models.JWTClaims) ([]models.Timesheet, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var (
		items []models.Timesheet
		err   error
	)
	switch actor.Role {
	case models.RoleTutor:
		items, err = s.timesheets.PendingForTutor(ctx, actor.UserID)
	case models.RoleLecturer:
		items, err = s.timesheets.PendingForLecturer(ctx, actor.UserID)
	case models.RoleAdmin:
		items, err = s.timesheets.PendingForAdmin(ctx)
	default:
		return nil, appErrors.Clone(appErrors.ErrAuthorizationFailed, "unknown role")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list pending timesheets")
	}
	return items, nil
}

// PendingFinal returns the HR queue. Admin only.
func (s *QueryService) PendingFinal(ctx context.Context, actor *models.JWTClaims) ([]models.Timesheet, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrAuthorizationFailed, "only admins review final confirmations")
	}
	items, err := s.timesheets.PendingForAdmin(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list pending timesheets")
	}
	return items, nil
}

func (s *QueryService) buildFilter(ctx context.Context, q dto.TimesheetQuery, actor *models.JWTClaims) (models.TimesheetFilter, error) {
	filter := models.TimesheetFilter{
		TutorID:  q.TutorID,
		CourseID: q.CourseID,
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	switch actor.Role {
	case models.RoleTutor:
		if q.TutorID != "" && q.TutorID != actor.UserID {
			return filter, appErrors.Clone(appErrors.ErrAuthorizationFailed, "tutors may only list their own timesheets")
		}
		if q.CourseID != "" {
			if decision := s.permissions.CanFilterByCourse(actor.Role, false); !decision.Allowed {
				return filter, appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
			}
		}
		filter.TutorID = actor.UserID
	case models.RoleLecturer:
		if q.CourseID != "" {
			owns, err := s.courses.ExistsByIDAndLecturer(ctx, q.CourseID, actor.UserID)
			if err != nil {
				return filter, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve course ownership")
			}
			if decision := s.permissions.CanFilterByCourse(actor.Role, owns); !decision.Allowed {
				return filter, appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
			}
		}
		filter.LecturerID = actor.UserID
	case models.RoleAdmin:
		// unrestricted
	default:
		return filter, appErrors.Clone(appErrors.ErrAuthorizationFailed, "unknown role")
	}

	if err := applyCommonFilters(&filter, q); err != nil {
		return filter, err
	}
	return filter, nil
}

func applyCommonFilters(filter *models.TimesheetFilter, q dto.TimesheetQuery) error {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if q.Status != "" {
		status := models.TimesheetStatus(q.Status)
		if !status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unsupported status filter")
		}
		filter.Status = &status
	}
	if q.WeekFrom != "" {
		from, err := time.Parse("2006-01-02", q.WeekFrom)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "weekFrom must be formatted YYYY-MM-DD")
		}
		filter.WeekFrom = &from
	}
	if q.WeekTo != "" {
		to, err := time.Parse("2006-01-02", q.WeekTo)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "weekTo must be formatted YYYY-MM-DD")
		}
		filter.WeekTo = &to
	}
	return nil
}

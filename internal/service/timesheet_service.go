package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/policy"
	"github.com/uni-payroll/catams-api/internal/workflow"
	"github.com/uni-payroll/catams-api/pkg/config"
	"github.com/uni-payroll/catams-api/pkg/database"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

const maxDescriptionLength = 1000

type timesheetStore interface {
	FindByID(ctx context.Context, id string) (*models.Timesheet, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Timesheet, error)
	ExistsForWeek(ctx context.Context, tutorID, courseID string, weekStart time.Time) (bool, error)
	Create(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet) error
	Update(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet, expectedVersion int64) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
}

type courseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Course, error)
	ExistsByIDAndLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
}

// TimesheetService owns the timesheet lifecycle outside the approval
// workflow: quoting, creation, editing and deletion.
type TimesheetService struct {
	timesheets  timesheetStore
	courses     courseStore
	users       userReader
	calculator  *policy.Calculator
	permissions *workflow.Permissions
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.TimesheetConfig

	runTx func(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	now   func() time.Time
}

// NewTimesheetService constructs the lifecycle service.
func NewTimesheetService(
	db *sqlx.DB,
	timesheets timesheetStore,
	courses courseStore,
	users userReader,
	calculator *policy.Calculator,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.TimesheetConfig,
) *TimesheetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{
		timesheets:  timesheets,
		courses:     courses,
		users:       users,
		calculator:  calculator,
		permissions: workflow.NewPermissions(),
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		runTx: func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
			return database.WithinTx(ctx, db, fn)
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices proposed inputs without persisting anything.
func (s *TimesheetService) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionDate must be formatted YYYY-MM-DD")
	}
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveQuote(time.Since(started))
		}
	}()
	quote, err := s.calculator.Calculate(policy.CalculationInput{
		TaskType:        req.TaskType,
		Qualification:   req.Qualification,
		Repeat:          req.Repeat,
		Contemporaneous: req.Contemporaneous,
		DeliveryHours:   req.Hours,
		SessionDate:     sessionDate,
	})
	if err != nil {
		return nil, err
	}
	return &dto.QuoteResponse{
		TaskType:        req.TaskType,
		Qualification:   req.Qualification,
		RateCode:        quote.RateCode,
		HourlyRate:      quote.HourlyRate,
		DeliveryHours:   quote.DeliveryHours,
		AssociatedHours: quote.AssociatedHours,
		PayableHours:    quote.PayableHours,
		Amount:          quote.Amount,
		Currency:        s.cfg.Currency,
		Formula:         quote.Formula,
		ClauseReference: quote.ClauseReference,
	}, nil
}

// Create persists a new DRAFT timesheet on behalf of a tutor. Lecturers may
// only create within courses they own; tutors never create.
func (s *TimesheetService) Create(ctx context.Context, req dto.CreateTimesheetRequest, actor *models.JWTClaims) (*models.Timesheet, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekStart must be formatted YYYY-MM-DD")
	}
	if err := s.checkWeekStart(weekStart); err != nil {
		return nil, err
	}
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}

	tutor, err := s.users.FindByID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load tutor")
	}
	if tutor.Role != models.RoleTutor || !tutor.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutorId must reference an active tutor")
	}

	ownsCourse := false
	if actor.Role == models.RoleLecturer {
		ownsCourse, err = s.courses.ExistsByIDAndLecturer(ctx, req.CourseID, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve course ownership")
		}
	}
	if decision := s.permissions.CanCreate(actor.Role, ownsCourse); !decision.Allowed {
		return nil, appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
	}

	quote, err := s.calculator.Calculate(policy.CalculationInput{
		TaskType:        req.TaskType,
		Qualification:   req.Qualification,
		Repeat:          req.Repeat,
		Contemporaneous: req.Contemporaneous,
		DeliveryHours:   req.Hours,
		SessionDate:     weekStart,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	ts := &models.Timesheet{
		ID:              uuid.NewString(),
		TutorID:         req.TutorID,
		CourseID:        req.CourseID,
		WeekStartDate:   weekStart,
		TaskType:        req.TaskType,
		Qualification:   req.Qualification,
		Repeat:          req.Repeat,
		DeliveryHours:   quote.DeliveryHours,
		AssociatedHours: quote.AssociatedHours,
		HourlyRate:      quote.HourlyRate,
		Amount:          quote.Amount,
		RateCode:        quote.RateCode,
		ClauseReference: quote.ClauseReference,
		Formula:         quote.Formula,
		Description:     description,
		Status:          models.StatusDraft,
		CreatedBy:       actor.UserID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		course, err := s.courses.FindByIDForUpdate(ctx, tx, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
		}
		if !course.Active {
			return appErrors.Clone(appErrors.ErrValidation, "course is not active")
		}
		if !course.CanAfford(ts.Amount) {
			return appErrors.Clone(appErrors.ErrBudgetExceeded, "")
		}
		exists, err := s.timesheets.ExistsForWeek(ctx, req.TutorID, req.CourseID, weekStart)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check week uniqueness")
		}
		if exists {
			return appErrors.ErrDuplicateTimesheet
		}
		if err := s.timesheets.Create(ctx, tx, ts); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create timesheet")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ts, actor.UserID)
	return ts, nil
}

// Update re-quotes and saves the editable fields. Only DRAFT and
// MODIFICATION_REQUESTED timesheets may change, and only by an admin, the
// course lecturer, or the owning tutor while modification is requested.
func (s *TimesheetService) Update(ctx context.Context, id string, req dto.UpdateTimesheetRequest, actor *models.JWTClaims) (*models.Timesheet, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}
	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekStart must be formatted YYYY-MM-DD")
	}

	var updated *models.Timesheet
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		ts, err := s.timesheets.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrResourceNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load timesheet")
		}

		wfActor, err := resolveActor(ctx, s.users, s.courses, actor.UserID, ts)
		if err != nil {
			return err
		}
		if !ts.Status.Editable() {
			return appErrors.Clone(appErrors.ErrNotEditable, "timesheet in status "+string(ts.Status)+" is not editable")
		}
		if decision := s.permissions.CanEdit(wfActor, ts.Status); !decision.Allowed {
			return appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
		}
		if req.Version != ts.Version {
			return appErrors.ErrConcurrentModification
		}

		// A moved week repeats create-time validation: Monday alignment, not
		// in the future, and one timesheet per (tutor, course, week).
		if !weekStart.Equal(ts.WeekStartDate) {
			if err := s.checkWeekStart(weekStart); err != nil {
				return err
			}
			exists, err := s.timesheets.ExistsForWeek(ctx, ts.TutorID, ts.CourseID, weekStart)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check week uniqueness")
			}
			if exists {
				return appErrors.ErrDuplicateTimesheet
			}
		}

		quote, err := s.calculator.Calculate(policy.CalculationInput{
			TaskType:        req.TaskType,
			Qualification:   req.Qualification,
			Repeat:          req.Repeat,
			Contemporaneous: req.Contemporaneous,
			DeliveryHours:   req.Hours,
			SessionDate:     weekStart,
		})
		if err != nil {
			return err
		}

		// Editable statuses are outside the counted-budget boundary, so
		// nothing was reserved for the old amount; only the new amount
		// must fit the remaining allocation.
		course, err := s.courses.FindByIDForUpdate(ctx, tx, ts.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
		}
		if !course.CanAfford(quote.Amount) {
			return appErrors.Clone(appErrors.ErrBudgetExceeded, "")
		}

		ts.WeekStartDate = weekStart
		ts.TaskType = req.TaskType
		ts.Qualification = req.Qualification
		ts.Repeat = req.Repeat
		ts.DeliveryHours = quote.DeliveryHours
		ts.AssociatedHours = quote.AssociatedHours
		ts.HourlyRate = quote.HourlyRate
		ts.Amount = quote.Amount
		ts.RateCode = quote.RateCode
		ts.ClauseReference = quote.ClauseReference
		ts.Formula = quote.Formula
		ts.Description = description
		ts.Version++
		ts.UpdatedAt = s.now()

		if err := s.timesheets.Update(ctx, tx, ts, req.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrConcurrentModification
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update timesheet")
		}
		updated = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated, actor.UserID)
	return updated, nil
}

// Delete removes a DRAFT timesheet and its history.
func (s *TimesheetService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}

	var removed *models.Timesheet
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		ts, err := s.timesheets.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrResourceNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load timesheet")
		}
		wfActor, err := resolveActor(ctx, s.users, s.courses, actor.UserID, ts)
		if err != nil {
			return err
		}
		if ts.Status != models.StatusDraft {
			return appErrors.Clone(appErrors.ErrNotEditable, "only draft timesheets may be deleted")
		}
		if decision := s.permissions.CanDelete(wfActor, ts.Status); !decision.Allowed {
			return appErrors.Clone(appErrors.ErrAuthorizationFailed, decision.Reason)
		}
		if err := s.timesheets.Delete(ctx, tx, id); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete timesheet")
		}
		removed = ts
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, removed, actor.UserID)
	return nil
}

// Config reports the entry constraints the UI should enforce client-side.
func (s *TimesheetService) Config() dto.TimesheetConfig {
	return dto.TimesheetConfig{
		HoursMin:        s.cfg.HoursMin,
		HoursMax:        s.cfg.HoursMax,
		HoursStep:       s.cfg.HoursStep,
		WeekStartMonday: s.cfg.MondayOnly,
		Currency:        s.cfg.Currency,
	}
}

func (s *TimesheetService) checkWeekStart(weekStart time.Time) error {
	if s.cfg.MondayOnly && !models.IsMonday(weekStart) {
		return appErrors.ErrWeekNotMonday
	}
	if weekStart.After(models.MondayOf(s.now())) {
		return appErrors.ErrWeekInFuture
	}
	return nil
}

// invalidate schedules dashboard cache removal for every view the change
// touches: the tutor, the acting user and the course lecturer.
func (s *TimesheetService) invalidate(ctx context.Context, ts *models.Timesheet, actorID string) {
	if s.cache == nil || ts == nil {
		return
	}
	ids := []string{ts.TutorID, actorID}
	if course, err := s.courses.FindByID(ctx, ts.CourseID); err == nil {
		ids = append(ids, course.LecturerID)
	}
	s.cache.InvalidateDashboards(ids...)
}

func normalizeDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if description == "" {
		return "", appErrors.ErrDescriptionRequired
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", appErrors.Clone(appErrors.ErrValidation, "description must be at most 1000 characters")
	}
	return description, nil
}

// validationError converts validator failures into a VALIDATION_FAILED
// error carrying a per-field message map.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = fe.StructField()
		}
		fields[lowerFirst(name)] = "failed on " + fe.Tag()
	}
	return appErrors.WithFields(fields)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

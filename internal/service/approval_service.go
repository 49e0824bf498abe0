package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uni-payroll/catams-api/internal/dto"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/workflow"
	"github.com/uni-payroll/catams-api/pkg/database"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

type approvalStore interface {
	FindByID(ctx context.Context, id string) (*models.Timesheet, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Timesheet, error)
	Update(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet, expectedVersion int64) error
	AppendHistory(ctx context.Context, tx *sqlx.Tx, entry *models.ApprovalHistoryEntry) error
	ListHistory(ctx context.Context, timesheetID string) ([]models.ApprovalHistoryEntry, error)
}

type budgetStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Course, error)
	ExistsByIDAndLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
	AdjustBudgetUsed(ctx context.Context, tx *sqlx.Tx, courseID string, delta decimal.Decimal) error
}

// ApprovalService drives the confirmation workflow. Every action runs in
// one transaction: row lock, transition, optimistic save, budget movement
// across the counted-status boundary, history append.
type ApprovalService struct {
	timesheets  approvalStore
	courses     budgetStore
	users       userReader
	machine     *workflow.StateMachine
	permissions *workflow.Permissions
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger

	runTx func(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	now   func() time.Time
}

// NewApprovalService constructs the workflow service.
func NewApprovalService(
	db *sqlx.DB,
	timesheets approvalStore,
	courses budgetStore,
	users userReader,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		timesheets:  timesheets,
		courses:     courses,
		users:       users,
		machine:     workflow.NewStateMachine(),
		permissions: workflow.NewPermissions(),
		cache:       cache,
		validator:   validate,
		logger:      logger,
		runTx: func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
			return database.WithinTx(ctx, db, fn)
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Apply performs one workflow action and returns the updated timesheet plus
// the appended history entry.
func (s *ApprovalService) Apply(ctx context.Context, timesheetID string, req dto.ApprovalRequest, actor *models.JWTClaims) (*models.Timesheet, *models.ApprovalHistoryEntry, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}
	if !req.Action.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unsupported approval action")
	}

	var (
		updated *models.Timesheet
		entry   *models.ApprovalHistoryEntry
	)
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		ts, err := s.timesheets.FindByIDForUpdate(ctx, tx, timesheetID)
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

		expectedVersion := ts.Version
		entry, err = s.machine.Apply(ts, req.Action, wfActor, req.Comment, s.now())
		if err != nil {
			return err
		}

		if err := s.moveBudget(ctx, tx, ts, entry); err != nil {
			return err
		}

		if err := s.timesheets.Update(ctx, tx, ts, expectedVersion); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrConcurrentModification
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save timesheet")
		}
		if err := s.timesheets.AppendHistory(ctx, tx, entry); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to append approval history")
		}
		updated = ts
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		ids := []string{updated.TutorID, actor.UserID}
		if course, err := s.courses.FindByID(ctx, updated.CourseID); err == nil {
			ids = append(ids, course.LecturerID)
		}
		s.cache.InvalidateDashboards(ids...)
	}
	s.logger.Info("approval action applied",
		zap.String("timesheet_id", updated.ID),
		zap.String("action", string(req.Action)),
		zap.String("from", string(entry.FromStatus)),
		zap.String("to", string(entry.ToStatus)),
		zap.String("actor_id", actor.UserID),
	)
	return updated, entry, nil
}

// History lists the append-only audit trail, oldest first.
func (s *ApprovalService) History(ctx context.Context, timesheetID string, actor *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ts, err := s.timesheets.FindByID(ctx, timesheetID)
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
	entries, err := s.timesheets.ListHistory(ctx, timesheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list approval history")
	}
	return entries, nil
}

// moveBudget adjusts course budget-used when the transition crosses the
// counted-status boundary. Entering the counted set re-checks affordability
// under the course row lock.
func (s *ApprovalService) moveBudget(ctx context.Context, tx *sqlx.Tx, ts *models.Timesheet, entry *models.ApprovalHistoryEntry) error {
	fromCounted := entry.FromStatus.CountsTowardBudget()
	toCounted := entry.ToStatus.CountsTowardBudget()
	if fromCounted == toCounted {
		return nil
	}

	course, err := s.courses.FindByIDForUpdate(ctx, tx, ts.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load course")
	}

	delta := ts.Amount
	if toCounted {
		if !course.CanAfford(ts.Amount) {
			return appErrors.Clone(appErrors.ErrBudgetExceeded, "")
		}
	} else {
		delta = ts.Amount.Neg()
	}
	if err := s.courses.AdjustBudgetUsed(ctx, tx, course.ID, delta); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to adjust course budget")
	}
	return nil
}

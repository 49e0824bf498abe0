package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/workflow"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

type courseOwnership interface {
	ExistsByIDAndLecturer(ctx context.Context, courseID, lecturerID string) (bool, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// resolveActor loads the acting user and computes their relationship to the
// timesheet. Identity comes from the user store, not the token, so role and
// active changes take effect immediately.
func resolveActor(ctx context.Context, users userReader, courses courseOwnership, actorID string, ts *models.Timesheet) (workflow.Actor, error) {
	user, err := users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.Actor{}, appErrors.Clone(appErrors.ErrAuthorizationFailed, "acting user not found")
		}
		return workflow.Actor{}, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load acting user")
	}
	if !user.Active {
		return workflow.Actor{}, appErrors.Clone(appErrors.ErrAuthorizationFailed, "acting user is deactivated")
	}

	actor := workflow.Actor{
		ID:      user.ID,
		Role:    user.Role,
		IsOwner: ts != nil && ts.IsOwnedBy(user.ID),
	}
	if user.Role == models.RoleLecturer && ts != nil {
		owns, err := courses.ExistsByIDAndLecturer(ctx, ts.CourseID, user.ID)
		if err != nil {
			return workflow.Actor{}, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve course ownership")
		}
		actor.IsCourseLecturer = owns
	}
	return actor, nil
}

package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

// Apply performs one approval action on the aggregate: it validates the
// transition and any required comment, mutates status, stamps updated_at,
// bumps the version, and returns the immutable history entry to append.
// Nothing is mutated when an error is returned.
func (m *StateMachine) Apply(ts *models.Timesheet, action models.ApprovalAction, actor Actor, comment string, now time.Time) (*models.ApprovalHistoryEntry, error) {
	comment = strings.TrimSpace(comment)
	if action.RequiresComment() && comment == "" {
		return nil, appErrors.Clone(appErrors.ErrCommentRequired, "a comment is required for "+string(action))
	}

	to, err := m.Transition(ts.Status, action, actor)
	if err != nil {
		return nil, err
	}

	from := ts.Status
	ts.Status = to
	ts.UpdatedAt = now
	ts.Version++
	if action == models.ActionReject {
		reason := comment
		ts.RejectionReason = &reason
	}

	entry := &models.ApprovalHistoryEntry{
		ID:          uuid.NewString(),
		TimesheetID: ts.ID,
		Action:      action,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		CreatedAt:   now,
	}
	if comment != "" {
		entry.Comment = &comment
	}
	return entry, nil
}

package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

var (
	actorTutor    = Actor{ID: "tutor-1", Role: models.RoleTutor, IsOwner: true}
	actorOther    = Actor{ID: "tutor-2", Role: models.RoleTutor}
	actorLecturer = Actor{ID: "lect-1", Role: models.RoleLecturer, IsCourseLecturer: true}
	actorOutsider = Actor{ID: "lect-2", Role: models.RoleLecturer}
	actorAdmin    = Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func TestTransitionTable(t *testing.T) {
	m := NewStateMachine()

	cases := []struct {
		name   string
		from   models.TimesheetStatus
		action models.ApprovalAction
		actor  Actor
		want   models.TimesheetStatus
	}{
		{"lecturer submits draft", models.StatusDraft, models.ActionSubmitForApproval, actorLecturer, models.StatusPendingTutorConfirmation},
		{"admin submits draft", models.StatusDraft, models.ActionSubmitForApproval, actorAdmin, models.StatusPendingTutorConfirmation},
		{"tutor resubmits after modification", models.StatusModificationRequested, models.ActionSubmitForApproval, actorTutor, models.StatusPendingTutorConfirmation},
		{"tutor confirms", models.StatusPendingTutorConfirmation, models.ActionTutorConfirm, actorTutor, models.StatusTutorConfirmed},
		{"tutor rejects own pending", models.StatusPendingTutorConfirmation, models.ActionReject, actorTutor, models.StatusRejected},
		{"lecturer requests modification", models.StatusPendingTutorConfirmation, models.ActionRequestModification, actorLecturer, models.StatusModificationRequested},
		{"lecturer confirms", models.StatusTutorConfirmed, models.ActionLecturerConfirm, actorLecturer, models.StatusLecturerConfirmed},
		{"admin confirms for lecturer", models.StatusTutorConfirmed, models.ActionLecturerConfirm, actorAdmin, models.StatusLecturerConfirmed},
		{"hr confirm", models.StatusLecturerConfirmed, models.ActionHRConfirm, actorAdmin, models.StatusFinalConfirmed},
		{"admin rejects at final gate", models.StatusLecturerConfirmed, models.ActionReject, actorAdmin, models.StatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, err := m.Transition(tc.from, tc.action, tc.actor)
			require.NoError(t, err)
			assert.Equal(t, tc.want, to)
		})
	}
}

func TestTransitionRejectsInvalidTriples(t *testing.T) {
	m := NewStateMachine()

	cases := []struct {
		name   string
		from   models.TimesheetStatus
		action models.ApprovalAction
		actor  Actor
	}{
		{"tutor submits draft", models.StatusDraft, models.ActionSubmitForApproval, actorTutor},
		{"non-owning tutor confirms", models.StatusPendingTutorConfirmation, models.ActionTutorConfirm, actorOther},
		{"non-owning lecturer confirms", models.StatusTutorConfirmed, models.ActionLecturerConfirm, actorOutsider},
		{"lecturer hr-confirms", models.StatusLecturerConfirmed, models.ActionHRConfirm, actorLecturer},
		{"tutor rejects after own confirmation", models.StatusTutorConfirmed, models.ActionReject, actorTutor},
		{"confirm from terminal status", models.StatusFinalConfirmed, models.ActionTutorConfirm, actorTutor},
		{"re-submit from pending", models.StatusPendingTutorConfirmation, models.ActionSubmitForApproval, actorLecturer},
		{"reject from rejected", models.StatusRejected, models.ActionReject, actorAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Transition(tc.from, tc.action, tc.actor)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
		})
	}
}

func TestInvalidTransitionCarriesAllowedActions(t *testing.T) {
	m := NewStateMachine()

	_, err := m.Transition(models.StatusPendingTutorConfirmation, models.ActionLecturerConfirm, actorLecturer)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.ElementsMatch(t, []string{"REJECT", "REQUEST_MODIFICATION"}, appErr.AllowedActions)
}

func TestAllowedActionsPerRole(t *testing.T) {
	m := NewStateMachine()

	assert.ElementsMatch(t,
		[]models.ApprovalAction{models.ActionTutorConfirm, models.ActionReject},
		m.AllowedActions(models.StatusPendingTutorConfirmation, actorTutor))

	assert.Empty(t, m.AllowedActions(models.StatusFinalConfirmed, actorAdmin))
	assert.Empty(t, m.AllowedActions(models.StatusPendingTutorConfirmation, actorOutsider))
}

func TestApplyTransitionsAndAppendsHistory(t *testing.T) {
	m := NewStateMachine()
	now := time.Date(2025, time.February, 12, 9, 0, 0, 0, time.UTC)
	ts := &models.Timesheet{ID: "ts-1", TutorID: "tutor-1", Status: models.StatusPendingTutorConfirmation, Version: 3}

	entry, err := m.Apply(ts, models.ActionTutorConfirm, actorTutor, "", now)
	require.NoError(t, err)

	assert.Equal(t, models.StatusTutorConfirmed, ts.Status)
	assert.Equal(t, int64(4), ts.Version)
	assert.Equal(t, now, ts.UpdatedAt)

	assert.Equal(t, "ts-1", entry.TimesheetID)
	assert.Equal(t, models.StatusPendingTutorConfirmation, entry.FromStatus)
	assert.Equal(t, models.StatusTutorConfirmed, entry.ToStatus)
	assert.Equal(t, models.RoleTutor, entry.ActorRole)
	assert.Nil(t, entry.Comment)
}

func TestApplyRequiresCommentBeforeStateChange(t *testing.T) {
	m := NewStateMachine()
	ts := &models.Timesheet{ID: "ts-1", Status: models.StatusPendingTutorConfirmation, Version: 1}

	_, err := m.Apply(ts, models.ActionReject, actorTutor, "   ", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCommentRequired)

	// nothing changed
	assert.Equal(t, models.StatusPendingTutorConfirmation, ts.Status)
	assert.Equal(t, int64(1), ts.Version)
	assert.Nil(t, ts.RejectionReason)
}

func TestApplyRejectStampsReason(t *testing.T) {
	m := NewStateMachine()
	ts := &models.Timesheet{ID: "ts-1", Status: models.StatusTutorConfirmed, Version: 1}

	entry, err := m.Apply(ts, models.ActionReject, actorLecturer, "hours do not match roster", time.Now())
	require.NoError(t, err)

	require.NotNil(t, ts.RejectionReason)
	assert.Equal(t, "hours do not match roster", *ts.RejectionReason)
	require.NotNil(t, entry.Comment)
	assert.Equal(t, "hours do not match roster", *entry.Comment)
}

func TestApplyAcceptsOptionalComment(t *testing.T) {
	m := NewStateMachine()
	ts := &models.Timesheet{ID: "ts-1", TutorID: "tutor-1", Status: models.StatusPendingTutorConfirmation, Version: 1}

	entry, err := m.Apply(ts, models.ActionTutorConfirm, actorTutor, "all good", time.Now())
	require.NoError(t, err)
	require.NotNil(t, entry.Comment)
	assert.Equal(t, "all good", *entry.Comment)
}

func TestPermissionsMatrix(t *testing.T) {
	p := NewPermissions()

	assert.True(t, p.CanCreate(models.RoleAdmin, false).Allowed)
	assert.True(t, p.CanCreate(models.RoleLecturer, true).Allowed)
	assert.False(t, p.CanCreate(models.RoleLecturer, false).Allowed)
	assert.False(t, p.CanCreate(models.RoleTutor, true).Allowed)

	assert.True(t, p.CanEdit(actorAdmin, models.StatusDraft).Allowed)
	assert.True(t, p.CanEdit(actorLecturer, models.StatusModificationRequested).Allowed)
	assert.True(t, p.CanEdit(actorTutor, models.StatusModificationRequested).Allowed)
	assert.False(t, p.CanEdit(actorTutor, models.StatusDraft).Allowed, "tutor cannot edit drafts")
	assert.False(t, p.CanEdit(actorAdmin, models.StatusFinalConfirmed).Allowed, "terminal status is not editable")
	assert.False(t, p.CanEdit(actorAdmin, models.StatusPendingTutorConfirmation).Allowed)

	assert.True(t, p.CanDelete(actorLecturer, models.StatusDraft).Allowed)
	assert.False(t, p.CanDelete(actorLecturer, models.StatusPendingTutorConfirmation).Allowed)
	assert.False(t, p.CanDelete(actorTutor, models.StatusDraft).Allowed)

	assert.True(t, p.CanView(actorTutor).Allowed)
	assert.True(t, p.CanView(actorLecturer).Allowed)
	assert.True(t, p.CanView(actorAdmin).Allowed)
	assert.False(t, p.CanView(actorOutsider).Allowed)

	assert.True(t, p.CanFilterByCourse(models.RoleAdmin, false).Allowed)
	assert.True(t, p.CanFilterByCourse(models.RoleLecturer, true).Allowed)
	assert.False(t, p.CanFilterByCourse(models.RoleLecturer, false).Allowed)
	assert.False(t, p.CanFilterByCourse(models.RoleTutor, true).Allowed)
}

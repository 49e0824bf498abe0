package workflow

import (
	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

// Actor captures who is acting and how they relate to the timesheet.
// "Course lecturer" means the lecturer who owns the timesheet's course;
// "owner" means the tutor the timesheet belongs to.
type Actor struct {
	ID               string
	Role             models.UserRole
	IsOwner          bool
	IsCourseLecturer bool
}

// rolePredicate decides whether the actor satisfies a transition row.
type rolePredicate func(a Actor) bool

func admin(a Actor) bool          { return a.Role == models.RoleAdmin }
func courseLecturer(a Actor) bool { return a.Role == models.RoleLecturer && a.IsCourseLecturer }
func owningTutor(a Actor) bool    { return a.Role == models.RoleTutor && a.IsOwner }

// transition is one row of the declarative state-machine table.
type transition struct {
	from   models.TimesheetStatus
	action models.ApprovalAction
	to     models.TimesheetStatus
	roles  []rolePredicate
}

// transitions is the complete edge set of the approval workflow. Any
// (status, action, actor) triple not matched here is invalid.
var transitions = []transition{
	{models.StatusDraft, models.ActionSubmitForApproval, models.StatusPendingTutorConfirmation,
		[]rolePredicate{courseLecturer, admin}},
	{models.StatusModificationRequested, models.ActionSubmitForApproval, models.StatusPendingTutorConfirmation,
		[]rolePredicate{owningTutor, courseLecturer, admin}},

	{models.StatusPendingTutorConfirmation, models.ActionTutorConfirm, models.StatusTutorConfirmed,
		[]rolePredicate{owningTutor}},
	{models.StatusPendingTutorConfirmation, models.ActionReject, models.StatusRejected,
		[]rolePredicate{owningTutor, courseLecturer, admin}},
	{models.StatusPendingTutorConfirmation, models.ActionRequestModification, models.StatusModificationRequested,
		[]rolePredicate{courseLecturer, admin}},

	{models.StatusTutorConfirmed, models.ActionLecturerConfirm, models.StatusLecturerConfirmed,
		[]rolePredicate{courseLecturer, admin}},
	{models.StatusTutorConfirmed, models.ActionReject, models.StatusRejected,
		[]rolePredicate{courseLecturer, admin}},
	{models.StatusTutorConfirmed, models.ActionRequestModification, models.StatusModificationRequested,
		[]rolePredicate{courseLecturer, admin}},

	{models.StatusLecturerConfirmed, models.ActionHRConfirm, models.StatusFinalConfirmed,
		[]rolePredicate{admin}},
	{models.StatusLecturerConfirmed, models.ActionReject, models.StatusRejected,
		[]rolePredicate{admin}},
	{models.StatusLecturerConfirmed, models.ActionRequestModification, models.StatusModificationRequested,
		[]rolePredicate{admin}},
}

// StateMachine evaluates approval transitions against the table above.
type StateMachine struct{}

// NewStateMachine returns the workflow state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// Transition returns the resulting status for (from, action, actor), or
// INVALID_TRANSITION carrying the actions the actor could take instead.
func (m *StateMachine) Transition(from models.TimesheetStatus, action models.ApprovalAction, actor Actor) (models.TimesheetStatus, error) {
	for _, row := range transitions {
		if row.from != from || row.action != action {
			continue
		}
		if matches(row.roles, actor) {
			return row.to, nil
		}
	}

	allowed := m.AllowedActions(from, actor)
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", appErrors.WithAllowedActions(appErrors.ErrInvalidTransition, names)
}

// AllowedActions lists the actions the actor may take from the status.
func (m *StateMachine) AllowedActions(from models.TimesheetStatus, actor Actor) []models.ApprovalAction {
	var actions []models.ApprovalAction
	for _, row := range transitions {
		if row.from == from && matches(row.roles, actor) {
			actions = append(actions, row.action)
		}
	}
	return actions
}

func matches(predicates []rolePredicate, actor Actor) bool {
	for _, p := range predicates {
		if p(actor) {
			return true
		}
	}
	return false
}

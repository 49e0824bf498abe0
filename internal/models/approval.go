package models

import "time"

// ApprovalAction is a workflow action applied to a timesheet.
type ApprovalAction string

const (
	ActionSubmitForApproval   ApprovalAction = "SUBMIT_FOR_APPROVAL"
	ActionTutorConfirm        ApprovalAction = "TUTOR_CONFIRM"
	ActionLecturerConfirm     ApprovalAction = "LECTURER_CONFIRM"
	ActionHRConfirm           ApprovalAction = "HR_CONFIRM"
	ActionReject              ApprovalAction = "REJECT"
	ActionRequestModification ApprovalAction = "REQUEST_MODIFICATION"
)

// Valid returns true when the action is a supported value.
func (a ApprovalAction) Valid() bool {
	switch a {
	case ActionSubmitForApproval, ActionTutorConfirm, ActionLecturerConfirm,
		ActionHRConfirm, ActionReject, ActionRequestModification:
		return true
	default:
		return false
	}
}

// RequiresComment reports whether the action must carry a comment.
func (a ApprovalAction) RequiresComment() bool {
	return a == ActionReject || a == ActionRequestModification
}

// ApprovalHistoryEntry is an append-only audit record of one workflow
// transition. Entries are never updated or deleted.
type ApprovalHistoryEntry struct {
	ID          string          `db:"id" json:"id"`
	TimesheetID string          `db:"timesheet_id" json:"timesheet_id"`
	Action      ApprovalAction  `db:"action" json:"action"`
	FromStatus  TimesheetStatus `db:"from_status" json:"from_status"`
	ToStatus    TimesheetStatus `db:"to_status" json:"to_status"`
	ActorID     string          `db:"actor_id" json:"actor_id"`
	ActorRole   UserRole        `db:"actor_role" json:"actor_role"`
	Comment     *string         `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

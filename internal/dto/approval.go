package dto

import (
	"time"

	"github.com/uni-payroll/catams-api/internal/models"
)

// ApprovalRequest performs one workflow action against a timesheet.
type ApprovalRequest struct {
	Action  models.ApprovalAction `json:"action" validate:"required"`
	Comment string                `json:"comment" validate:"max=2000"`
}

// ApprovalResponse returns the post-action timesheet plus the recorded step.
type ApprovalResponse struct {
	Timesheet TimesheetResponse    `json:"timesheet"`
	History   ApprovalHistoryEntry `json:"history"`
}

// ApprovalHistoryEntry is the API projection of one recorded workflow step.
type ApprovalHistoryEntry struct {
	ID          string                 `json:"id"`
	TimesheetID string                 `json:"timesheetId"`
	Action      models.ApprovalAction  `json:"action"`
	ActorID     string                 `json:"actorId"`
	ActorRole   models.UserRole        `json:"actorRole"`
	FromStatus  models.TimesheetStatus `json:"fromStatus"`
	ToStatus    models.TimesheetStatus `json:"toStatus"`
	Comment     *string                `json:"comment,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NewApprovalHistoryEntry maps a history model to its API shape.
func NewApprovalHistoryEntry(e *models.ApprovalHistoryEntry) ApprovalHistoryEntry {
	return ApprovalHistoryEntry{
		ID:          e.ID,
		TimesheetID: e.TimesheetID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		ActorRole:   e.ActorRole,
		FromStatus:  e.FromStatus,
		ToStatus:    e.ToStatus,
		Comment:     e.Comment,
		CreatedAt:   e.CreatedAt,
	}
}

// NewApprovalHistoryEntries maps a slice of history models.
func NewApprovalHistoryEntries(items []models.ApprovalHistoryEntry) []ApprovalHistoryEntry {
	out := make([]ApprovalHistoryEntry, 0, len(items))
	for i := range items {
		out = append(out, NewApprovalHistoryEntry(&items[i]))
	}
	return out
}

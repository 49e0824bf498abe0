package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimesheetStatus tracks a timesheet through the approval workflow.
type TimesheetStatus string

const (
	StatusDraft                    TimesheetStatus = "DRAFT"
	StatusPendingTutorConfirmation TimesheetStatus = "PENDING_TUTOR_CONFIRMATION"
	StatusTutorConfirmed           TimesheetStatus = "TUTOR_CONFIRMED"
	StatusLecturerConfirmed        TimesheetStatus = "LECTURER_CONFIRMED"
	StatusFinalConfirmed           TimesheetStatus = "FINAL_CONFIRMED"
	StatusRejected                 TimesheetStatus = "REJECTED"
	StatusModificationRequested    TimesheetStatus = "MODIFICATION_REQUESTED"
)

// Valid returns true when the status is a supported value.
func (s TimesheetStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingTutorConfirmation, StatusTutorConfirmed,
		StatusLecturerConfirmed, StatusFinalConfirmed, StatusRejected,
		StatusModificationRequested:
		return true
	default:
		return false
	}
}

// Editable reports whether hours, description, task type, qualification,
// repeat flag or week start may still be mutated.
func (s TimesheetStatus) Editable() bool {
	return s == StatusDraft || s == StatusModificationRequested
}

// Terminal reports whether no further transitions are allowed.
func (s TimesheetStatus) Terminal() bool {
	return s == StatusFinalConfirmed || s == StatusRejected
}

// CountsTowardBudget reports whether the timesheet amount is reflected in
// course budget_used. DRAFT, MODIFICATION_REQUESTED and REJECTED are not
// counted.
func (s TimesheetStatus) CountsTowardBudget() bool {
	switch s {
	case StatusPendingTutorConfirmation, StatusTutorConfirmed,
		StatusLecturerConfirmed, StatusFinalConfirmed:
		return true
	default:
		return false
	}
}

// TaskType classifies the casual academic work being claimed.
type TaskType string

const (
	TaskTutorial TaskType = "TUTORIAL"
	TaskLecture  TaskType = "LECTURE"
	TaskORAA     TaskType = "ORAA"
	TaskDemo     TaskType = "DEMO"
	TaskMarking  TaskType = "MARKING"
	TaskOther    TaskType = "OTHER"
)

// Valid returns true when the task type is a supported value.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTutorial, TaskLecture, TaskORAA, TaskDemo, TaskMarking, TaskOther:
		return true
	default:
		return false
	}
}

// Qualification is the EA classification band of the tutor.
type Qualification string

const (
	QualificationStandard    Qualification = "STANDARD"
	QualificationPhD         Qualification = "PHD"
	QualificationCoordinator Qualification = "COORDINATOR"
)

// Valid returns true when the qualification is a supported value.
func (q Qualification) Valid() bool {
	switch q {
	case QualificationStandard, QualificationPhD, QualificationCoordinator:
		return true
	default:
		return false
	}
}

// HighBand reports whether the qualification attracts the higher
// Schedule 1 rate.
func (q Qualification) HighBand() bool {
	return q == QualificationPhD || q == QualificationCoordinator
}

// Timesheet is the aggregate root: one week of casual work for one tutor
// on one course, priced under Schedule 1 of the Enterprise Agreement.
type Timesheet struct {
	ID              string          `db:"id" json:"id"`
	TutorID         string          `db:"tutor_id" json:"tutor_id"`
	CourseID        string          `db:"course_id" json:"course_id"`
	WeekStartDate   time.Time       `db:"week_start_date" json:"week_start_date"`
	TaskType        TaskType        `db:"task_type" json:"task_type"`
	Qualification   Qualification   `db:"qualification" json:"qualification"`
	Repeat          bool            `db:"repeat_activity" json:"repeat"`
	DeliveryHours   decimal.Decimal `db:"delivery_hours" json:"delivery_hours"`
	AssociatedHours decimal.Decimal `db:"associated_hours" json:"associated_hours"`
	HourlyRate      decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	RateCode        string          `db:"rate_code" json:"rate_code"`
	ClauseReference string          `db:"clause_reference" json:"clause_reference"`
	Formula         string          `db:"formula" json:"formula"`
	Description     string          `db:"description" json:"description"`
	Status          TimesheetStatus `db:"status" json:"status"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	Version         int64           `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// PayableHours is delivery plus associated hours.
func (t *Timesheet) PayableHours() decimal.Decimal {
	return t.DeliveryHours.Add(t.AssociatedHours)
}

// IsOwnedBy reports whether the tutor owns this timesheet.
func (t *Timesheet) IsOwnedBy(userID string) bool {
	return t.TutorID == userID
}

// TimesheetFilter scopes listing queries. LecturerID restricts results to
// timesheets of courses owned by that lecturer.
type TimesheetFilter struct {
	TutorID    string
	CourseID   string
	LecturerID string
	Status     *TimesheetStatus
	WeekFrom   *time.Time
	WeekTo     *time.Time
	Page       int
	PageSize   int
}

// TimesheetTotals aggregates scoped counts, hours and pay.
type TimesheetTotals struct {
	TotalCount   int             `db:"total_count" json:"total_count"`
	TotalHours   decimal.Decimal `db:"total_hours" json:"total_hours"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	PendingCount int             `db:"pending_count" json:"pending_count"`
}

// StatusCount pairs a status with its row count.
type StatusCount struct {
	Status TimesheetStatus `db:"status" json:"status"`
	Count  int             `db:"count" json:"count"`
}

// WeekTotals aggregates a single week's hours and pay.
type WeekTotals struct {
	Hours  decimal.Decimal `db:"hours" json:"hours"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

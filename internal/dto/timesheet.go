package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uni-payroll/catams-api/internal/models"
)

// QuoteRequest asks for a Schedule 1 pay calculation without persisting anything.
type QuoteRequest struct {
	TaskType        models.TaskType      `json:"taskType" validate:"required"`
	Qualification   models.Qualification `json:"qualification" validate:"required"`
	Repeat          bool                 `json:"repeat"`
	Contemporaneous bool                 `json:"contemporaneous"`
	Hours           decimal.Decimal      `json:"hours" validate:"required"`
	SessionDate     string               `json:"sessionDate" validate:"required,datetime=2006-01-02"`
}

// QuoteResponse echoes the resolved rate line and computed amount.
type QuoteResponse struct {
	TaskType        models.TaskType      `json:"taskType"`
	Qualification   models.Qualification `json:"qualification"`
	RateCode        string               `json:"rateCode"`
	HourlyRate      decimal.Decimal      `json:"hourlyRate"`
	DeliveryHours   decimal.Decimal      `json:"deliveryHours"`
	AssociatedHours decimal.Decimal      `json:"associatedHours"`
	PayableHours    decimal.Decimal      `json:"payableHours"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        string               `json:"currency"`
	Formula         string               `json:"formula"`
	ClauseReference string               `json:"clauseReference"`
}

// CreateTimesheetRequest is the payload for creating a timesheet on behalf of a tutor.
type CreateTimesheetRequest struct {
	TutorID         string               `json:"tutorId" validate:"required,uuid4"`
	CourseID        string               `json:"courseId" validate:"required,uuid4"`
	WeekStart       string               `json:"weekStart" validate:"required,datetime=2006-01-02"`
	TaskType        models.TaskType      `json:"taskType" validate:"required"`
	Qualification   models.Qualification `json:"qualification" validate:"required"`
	Repeat          bool                 `json:"repeat"`
	Contemporaneous bool                 `json:"contemporaneous"`
	Hours           decimal.Decimal      `json:"hours" validate:"required"`
	Description     string               `json:"description" validate:"required"`
}

// UpdateTimesheetRequest carries the editable fields plus the version the
// caller last observed.
type UpdateTimesheetRequest struct {
	WeekStart       string               `json:"weekStart" validate:"required,datetime=2006-01-02"`
	TaskType        models.TaskType      `json:"taskType" validate:"required"`
	Qualification   models.Qualification `json:"qualification" validate:"required"`
	Repeat          bool                 `json:"repeat"`
	Contemporaneous bool                 `json:"contemporaneous"`
	Hours           decimal.Decimal      `json:"hours" validate:"required"`
	Description     string               `json:"description" validate:"required"`
	Version         int64                `json:"version" validate:"min=0"`
}

// TimesheetQuery mirrors the supported listing filters.
type TimesheetQuery struct {
	TutorID  string `form:"tutorId" validate:"omitempty,uuid4"`
	CourseID string `form:"courseId" validate:"omitempty,uuid4"`
	Status   string `form:"status"`
	WeekFrom string `form:"weekFrom" validate:"omitempty,datetime=2006-01-02"`
	WeekTo   string `form:"weekTo" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// TimesheetResponse is the API projection of a timesheet.
type TimesheetResponse struct {
	ID              string                 `json:"id"`
	TutorID         string                 `json:"tutorId"`
	CourseID        string                 `json:"courseId"`
	WeekStart       string                 `json:"weekStart"`
	TaskType        models.TaskType        `json:"taskType"`
	Qualification   models.Qualification   `json:"qualification"`
	Repeat          bool                   `json:"repeat"`
	DeliveryHours   decimal.Decimal        `json:"deliveryHours"`
	AssociatedHours decimal.Decimal        `json:"associatedHours"`
	PayableHours    decimal.Decimal        `json:"payableHours"`
	HourlyRate      decimal.Decimal        `json:"hourlyRate"`
	RateCode        string                 `json:"rateCode"`
	Amount          decimal.Decimal        `json:"amount"`
	Formula         string                 `json:"formula"`
	ClauseReference string                 `json:"clauseReference"`
	Description     string                 `json:"description"`
	Status          models.TimesheetStatus `json:"status"`
	RejectionReason *string                `json:"rejectionReason,omitempty"`
	Version         int64                  `json:"version"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// NewTimesheetResponse maps a timesheet model into its API shape.
func NewTimesheetResponse(ts *models.Timesheet) TimesheetResponse {
	return TimesheetResponse{
		ID:              ts.ID,
		TutorID:         ts.TutorID,
		CourseID:        ts.CourseID,
		WeekStart:       ts.WeekStartDate.Format("2006-01-02"),
		TaskType:        ts.TaskType,
		Qualification:   ts.Qualification,
		Repeat:          ts.Repeat,
		DeliveryHours:   ts.DeliveryHours,
		AssociatedHours: ts.AssociatedHours,
		PayableHours:    ts.PayableHours(),
		HourlyRate:      ts.HourlyRate,
		RateCode:        ts.RateCode,
		Amount:          ts.Amount,
		Formula:         ts.Formula,
		ClauseReference: ts.ClauseReference,
		Description:     ts.Description,
		Status:          ts.Status,
		RejectionReason: ts.RejectionReason,
		Version:         ts.Version,
		CreatedAt:       ts.CreatedAt,
		UpdatedAt:       ts.UpdatedAt,
	}
}

// NewTimesheetResponses maps a slice of timesheets.
func NewTimesheetResponses(items []models.Timesheet) []TimesheetResponse {
	out := make([]TimesheetResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTimesheetResponse(&items[i]))
	}
	return out
}

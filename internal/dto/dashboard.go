package dto

import "github.com/shopspring/decimal"

// StatusBreakdownEntry counts timesheets per workflow status.
type StatusBreakdownEntry struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// WorkloadSummary compares the current week against the previous one and
// the per-week average over the requested range.
type WorkloadSummary struct {
	CurrentWeekHours  decimal.Decimal `json:"currentWeekHours"`
	CurrentWeekPay    decimal.Decimal `json:"currentWeekPay"`
	PreviousWeekHours decimal.Decimal `json:"previousWeekHours"`
	PreviousWeekPay   decimal.Decimal `json:"previousWeekPay"`
	AverageWeekHours  decimal.Decimal `json:"averageWeekHours"`
}

// BudgetUsage summarises course budget consumption.
type BudgetUsage struct {
	Allocated   decimal.Decimal `json:"allocated"`
	Used        decimal.Decimal `json:"used"`
	Remaining   decimal.Decimal `json:"remaining"`
	Utilization decimal.Decimal `json:"utilizationPercent"`
}

// DashboardSummary is the per-role dashboard aggregate. Budget usage is
// present for lecturers and admins; tutor counts for admins only.
type DashboardSummary struct {
	Role                 string                 `json:"role"`
	TotalTimesheets      int                    `json:"totalTimesheets"`
	PendingConfirmations int                    `json:"pendingConfirmations"`
	TotalHours           decimal.Decimal        `json:"totalHours"`
	TotalPay             decimal.Decimal        `json:"totalPay"`
	StatusBreakdown      []StatusBreakdownEntry `json:"statusBreakdown"`
	Workload             WorkloadSummary        `json:"workload"`
	Budget               *BudgetUsage           `json:"budget,omitempty"`
	TutorsTotal          *int                   `json:"tutorsTotal,omitempty"`
	TutorsActive         *int                   `json:"tutorsActive,omitempty"`
}

// DashboardQuery mirrors the supported dashboard filters. The range binds
// from startDate/endDate, with from/to kept as aliases.
type DashboardQuery struct {
	CourseID string `form:"courseId" validate:"omitempty,uuid4"`
	From     string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// TimesheetConfig reports the UI entry constraints.
type TimesheetConfig struct {
	HoursMin        float64 `json:"hoursMin"`
	HoursMax        float64 `json:"hoursMax"`
	HoursStep       float64 `json:"hoursStep"`
	WeekStartMonday bool    `json:"weekStartMondayOnly"`
	Currency        string  `json:"currency"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is the collaborator view of a taught course. The core reads
// courses for ownership and budget checks and adjusts budget_used as
// timesheets move across the counted-status boundary.
type Course struct {
	ID              string          `db:"id" json:"id"`
	Code            string          `db:"code" json:"code"`
	Name            string          `db:"name" json:"name"`
	LecturerID      string          `db:"lecturer_id" json:"lecturer_id"`
	BudgetAllocated decimal.Decimal `db:"budget_allocated" json:"budget_allocated"`
	BudgetUsed      decimal.Decimal `db:"budget_used" json:"budget_used"`
	Active          bool            `db:"active" json:"active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// BudgetRemaining returns the unspent allocation.
func (c *Course) BudgetRemaining() decimal.Decimal {
	return c.BudgetAllocated.Sub(c.BudgetUsed)
}

// CanAfford reports whether an additional amount fits the allocation.
func (c *Course) CanAfford(amount decimal.Decimal) bool {
	return c.BudgetUsed.Add(amount).LessThanOrEqual(c.BudgetAllocated)
}

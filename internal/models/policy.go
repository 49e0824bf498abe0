package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PolicyRow is one dated row of the Schedule 1 rate table. For any
// (task type, qualification, repeat) key at most one row is active on a
// given date.
type PolicyRow struct {
	ID              string          `db:"id" json:"id"`
	TaskType        TaskType        `db:"task_type" json:"task_type"`
	Qualification   Qualification   `db:"qualification" json:"qualification"`
	Repeat          bool            `db:"repeat_activity" json:"repeat"`
	RateCode        string          `db:"rate_code" json:"rate_code"`
	HourlyRate      decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	StandardCap     decimal.Decimal `db:"standard_cap" json:"standard_cap"`
	RepeatCap       decimal.Decimal `db:"repeat_cap" json:"repeat_cap"`
	ClauseReference string          `db:"clause_reference" json:"clause_reference"`
	FormulaTemplate string          `db:"formula_template" json:"formula_template"`
	EffectiveFrom   time.Time       `db:"effective_from" json:"effective_from"`
	// EffectiveTo is exclusive; nil means open-ended.
	EffectiveTo *time.Time `db:"effective_to" json:"effective_to,omitempty"`
}

// Overlaps reports whether two date windows intersect.
func (p *PolicyRow) Overlaps(other *PolicyRow) bool {
	if other.EffectiveTo != nil && !p.EffectiveFrom.Before(*other.EffectiveTo) {
		return false
	}
	if p.EffectiveTo != nil && !other.EffectiveFrom.Before(*p.EffectiveTo) {
		return false
	}
	return true
}

// ActiveOn reports whether the row covers the session date.
func (p *PolicyRow) ActiveOn(date time.Time) bool {
	if date.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && !date.Before(*p.EffectiveTo) {
		return false
	}
	return true
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uni-payroll/catams-api/internal/models"
)

// PolicyRepository loads Schedule 1 rate rows. Rows are reference data
// administered outside this service; the core only reads them into the
// in-memory policy snapshot.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository creates a new instance of PolicyRepository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// LoadAll returns every policy row. Validation of overlaps happens in the
// policy provider at snapshot build time.
func (r *PolicyRepository) LoadAll(ctx context.Context) ([]models.PolicyRow, error) {
	const query = `SELECT id, task_type, qualification, repeat_activity, rate_code, hourly_rate,
		standard_cap, repeat_cap, clause_reference, formula_template, effective_from, effective_to
		FROM policy_rows ORDER BY effective_from ASC`
	var rows []models.PolicyRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load policy rows: %w", err)
	}
	return rows, nil
}

package policy

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

type policyKey struct {
	taskType      models.TaskType
	qualification models.Qualification
	repeat        bool
}

type snapshot struct {
	rows map[policyKey][]models.PolicyRow
}

// Provider resolves Schedule 1 rows by (task type, qualification, repeat)
// and session date. The row table lives behind an atomic pointer: lookups
// never block and a reload swaps the whole snapshot at once.
type Provider struct {
	current atomic.Pointer[snapshot]
}

// NewProvider builds a provider from the given rows. Overlapping effective
// windows for the same key are a configuration error.
func NewProvider(rows []models.PolicyRow) (*Provider, error) {
	snap, err := buildSnapshot(rows)
	if err != nil {
		return nil, err
	}
	p := &Provider{}
	p.current.Store(snap)
	return p, nil
}

// Reload replaces the entire rate table. In-flight lookups keep reading
// the previous snapshot.
func (p *Provider) Reload(rows []models.PolicyRow) error {
	snap, err := buildSnapshot(rows)
	if err != nil {
		return err
	}
	p.current.Store(snap)
	return nil
}

// Resolve returns the unique row active on sessionDate for the key, or
// POLICY_NOT_FOUND. The repeat flag only differentiates tutorial rows;
// for other task types it is cleared before lookup.
func (p *Provider) Resolve(taskType models.TaskType, qualification models.Qualification, repeat bool, sessionDate time.Time) (*models.PolicyRow, error) {
	if taskType != models.TaskTutorial {
		repeat = false
	}

	snap := p.current.Load()
	candidates := snap.rows[policyKey{taskType: taskType, qualification: qualification, repeat: repeat}]
	for i := range candidates {
		if candidates[i].ActiveOn(sessionDate) {
			row := candidates[i]
			return &row, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrPolicyNotFound,
		fmt.Sprintf("no rate for %s/%s (repeat=%t) on %s", taskType, qualification, repeat, sessionDate.Format("2006-01-02")))
}

func buildSnapshot(rows []models.PolicyRow) (*snapshot, error) {
	indexed := make(map[policyKey][]models.PolicyRow)
	for _, row := range rows {
		if !row.TaskType.Valid() || !row.Qualification.Valid() {
			return nil, fmt.Errorf("policy row %s: invalid key %s/%s", row.RateCode, row.TaskType, row.Qualification)
		}
		key := policyKey{taskType: row.TaskType, qualification: row.Qualification, repeat: row.Repeat}
		for i := range indexed[key] {
			if row.Overlaps(&indexed[key][i]) {
				return nil, fmt.Errorf("policy rows %s and %s overlap for %s/%s (repeat=%t)",
					row.RateCode, indexed[key][i].RateCode, row.TaskType, row.Qualification, row.Repeat)
			}
		}
		indexed[key] = append(indexed[key], row)
	}
	return &snapshot{rows: indexed}, nil
}

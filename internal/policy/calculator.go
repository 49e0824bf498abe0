package policy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
)

// CalculationInput carries everything needed to price one week of work.
type CalculationInput struct {
	TaskType      models.TaskType
	Qualification models.Qualification
	Repeat        bool
	// Contemporaneous only applies to MARKING: marking done alongside a
	// tutorial is already paid through tutorial associated hours.
	Contemporaneous bool
	DeliveryHours   decimal.Decimal
	SessionDate     time.Time
}

// Quote is the pay outcome for proposed inputs. It is pure data and never
// persisted by the calculator.
type Quote struct {
	RateCode        string          `json:"rate_code"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	DeliveryHours   decimal.Decimal `json:"delivery_hours"`
	AssociatedHours decimal.Decimal `json:"associated_hours"`
	PayableHours    decimal.Decimal `json:"payable_hours"`
	Amount          decimal.Decimal `json:"amount"`
	Formula         string          `json:"formula"`
	ClauseReference string          `json:"clause_reference"`
	SessionDate     time.Time       `json:"session_date"`
}

// CalculatorConfig bounds delivery hours for non-tutorial tasks.
type CalculatorConfig struct {
	MinHours decimal.Decimal
	MaxHours decimal.Decimal
}

// Calculator prices casual academic work under Schedule 1. It is pure and
// deterministic: the same policy snapshot and inputs always produce the
// same quote.
type Calculator struct {
	provider *Provider
	cfg      CalculatorConfig
}

// NewCalculator constructs a Calculator over the given policy provider.
func NewCalculator(provider *Provider, cfg CalculatorConfig) *Calculator {
	if cfg.MinHours.IsZero() {
		cfg.MinHours = decimal.RequireFromString("0.1")
	}
	if cfg.MaxHours.IsZero() {
		cfg.MaxHours = decimal.NewFromInt(40)
	}
	return &Calculator{provider: provider, cfg: cfg}
}

// Calculate produces a quote or a typed rejection. Monetary rounding is
// half-up to two places at the amount step only; intermediate values keep
// full precision.
func (c *Calculator) Calculate(input CalculationInput) (*Quote, error) {
	switch {
	case input.TaskType == models.TaskOther:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedTaskType, "")
	case !input.TaskType.Valid():
		return nil, appErrors.Clone(appErrors.ErrUnsupportedTaskType, "unknown task type "+string(input.TaskType))
	case input.TaskType == models.TaskMarking && input.Contemporaneous:
		return nil, appErrors.Clone(appErrors.ErrContemporaneousMarking, "")
	}

	if input.DeliveryHours.LessThanOrEqual(decimal.Zero) {
		return nil, appErrors.Clone(appErrors.ErrNonPositiveHours, "")
	}

	delivery := input.DeliveryHours.Round(2)
	if input.TaskType == models.TaskTutorial {
		if !delivery.Equal(decimal.NewFromInt(1)) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTutorialDelivery, "")
		}
	} else if delivery.LessThan(c.cfg.MinHours) || delivery.GreaterThan(c.cfg.MaxHours) {
		return nil, appErrors.Clone(appErrors.ErrHoursOutOfRange, "")
	}

	row, err := c.provider.Resolve(input.TaskType, input.Qualification, input.Repeat, input.SessionDate)
	if err != nil {
		return nil, err
	}

	associated := decimal.Zero
	if input.TaskType == models.TaskTutorial {
		if input.Repeat {
			associated = row.RepeatCap
		} else {
			associated = row.StandardCap
		}
	}

	payable := delivery.Add(associated)
	amount := payable.Mul(row.HourlyRate).Round(2)

	return &Quote{
		RateCode:        row.RateCode,
		HourlyRate:      row.HourlyRate,
		DeliveryHours:   delivery,
		AssociatedHours: associated,
		PayableHours:    payable,
		Amount:          amount,
		Formula:         renderFormula(row.FormulaTemplate, delivery, associated, row.HourlyRate),
		ClauseReference: row.ClauseReference,
		SessionDate:     input.SessionDate,
	}, nil
}

func renderFormula(template string, delivery, associated, rate decimal.Decimal) string {
	replacer := strings.NewReplacer(
		"{delivery}", trimZeros(delivery),
		"{associated}", trimZeros(associated),
		"{rate}", trimZeros(rate),
	)
	return replacer.Replace(template)
}

func trimZeros(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

package policy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uni-payroll/catams-api/internal/models"
)

const (
	tutorialFormula = "{delivery}h delivery + {associated}h associated @ {rate}"
	hourlyFormula   = "{delivery}h @ {rate}"
)

// Schedule1 returns the embedded Enterprise Agreement rate table effective
// from 1 January 2024. Rows are enumerated per concrete qualification so
// that provider lookup stays an exact key match; PHD and COORDINATOR share
// the higher band code.
func Schedule1() []models.PolicyRow {
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	var rows []models.PolicyRow

	addTutorial := func(code string, qual models.Qualification, repeat bool, rate, clause string) {
		rows = append(rows, models.PolicyRow{
			TaskType:        models.TaskTutorial,
			Qualification:   qual,
			Repeat:          repeat,
			RateCode:        code,
			HourlyRate:      decimal.RequireFromString(rate),
			StandardCap:     decimal.NewFromInt(2),
			RepeatCap:       decimal.NewFromInt(1),
			ClauseReference: clause,
			FormulaTemplate: tutorialFormula,
			EffectiveFrom:   from,
		})
	}

	addHourly := func(code string, task models.TaskType, qual models.Qualification, rate, clause string) {
		rows = append(rows, models.PolicyRow{
			TaskType:        task,
			Qualification:   qual,
			RateCode:        code,
			HourlyRate:      decimal.RequireFromString(rate),
			ClauseReference: clause,
			FormulaTemplate: hourlyFormula,
			EffectiveFrom:   from,
		})
	}

	highBand := []models.Qualification{models.QualificationPhD, models.QualificationCoordinator}
	allBands := []models.Qualification{models.QualificationStandard, models.QualificationPhD, models.QualificationCoordinator}

	// Tutorials: TU1/TU2 standard delivery, TU3/TU4 repeat delivery.
	for _, qual := range highBand {
		addTutorial("TU1", qual, false, "70.7360", "Schedule 1 cl 2.1")
		addTutorial("TU3", qual, true, "70.7360", "Schedule 1 cl 2.3")
	}
	addTutorial("TU2", models.QualificationStandard, false, "58.6467", "Schedule 1 cl 2.2")
	addTutorial("TU4", models.QualificationStandard, true, "58.6467", "Schedule 1 cl 2.4")

	// Lectures: one rate regardless of band.
	for _, qual := range allBands {
		addHourly("LE1", models.TaskLecture, qual, "140.2900", "Schedule 1 cl 1.1")
	}

	// Other required academic activity and demonstrations.
	for _, qual := range highBand {
		addHourly("AO1", models.TaskORAA, qual, "53.4600", "Schedule 1 cl 5.1")
		addHourly("DE1", models.TaskDemo, qual, "53.4600", "Schedule 1 cl 4.1")
	}
	addHourly("AO2", models.TaskORAA, models.QualificationStandard, "44.6900", "Schedule 1 cl 5.2")
	addHourly("DE2", models.TaskDemo, models.QualificationStandard, "44.6900", "Schedule 1 cl 4.2")

	// Non-contemporaneous marking: one rate regardless of band.
	for _, qual := range allBands {
		addHourly("MK1", models.TaskMarking, qual, "44.6900", "Schedule 1 cl 3.1")
	}

	return rows
}

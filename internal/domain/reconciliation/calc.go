package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kare/internal/domain/incapacity"
)

var (
	daysPerMonth = decimal.NewFromInt(30)

	// Statutory recognition rate for common-illness days: 66.67% of the
	// daily wage, paid first by the employer and then by the health insurer.
	commonIllnessRate = decimal.RequireFromString("0.6667")

	// Work-related and parental-leave days are recognized at 100%.
	fullRate = decimal.NewFromInt(1)
)

// Days the employer covers out of pocket at the start of a common-illness
// incapacity before the health insurer takes over.
const employerCoveredDays = 2

// Breakdown is the payment split for one incapacity: who covers which days
// and for how much. Every amount is rounded half up to 2 decimals per bucket,
// and the total is the sum of the rounded buckets so the figures a reader
// adds up always match.
type Breakdown struct {
	TotalDays  int
	DailyValue decimal.Decimal

	EmployerDays   int
	EmployerAmount decimal.Decimal
	HealthDays     int
	HealthAmount   decimal.Decimal
	RiskDays       int
	RiskAmount     decimal.Decimal

	TotalPayable decimal.Decimal
}

// Calculate derives the payment split for an incapacity. It is pure: same
// inputs, same split.
func Calculate(incapacityType string, totalDays int, wageBase decimal.Decimal) (Breakdown, error) {
	if !incapacity.ValidType(incapacityType) {
		return Breakdown{}, fmt.Errorf("%w: unknown incapacity type %q", ErrPrecondition, incapacityType)
	}
	if totalDays < 1 {
		return Breakdown{}, fmt.Errorf("%w: total days must be at least 1, got %d", ErrPrecondition, totalDays)
	}
	if !wageBase.IsPositive() {
		return Breakdown{}, fmt.Errorf("%w: wage base must be positive, got %s", ErrPrecondition, wageBase)
	}

	b := Breakdown{
		TotalDays:  totalDays,
		DailyValue: wageBase.Div(daysPerMonth),
	}

	switch incapacityType {
	case incapacity.TypeEPS:
		b.EmployerDays = min(employerCoveredDays, totalDays)
		b.HealthDays = totalDays - b.EmployerDays
		b.EmployerAmount = bucket(b.DailyValue, b.EmployerDays, commonIllnessRate)
		b.HealthAmount = bucket(b.DailyValue, b.HealthDays, commonIllnessRate)
	case incapacity.TypeARL:
		b.RiskDays = totalDays
		b.RiskAmount = bucket(b.DailyValue, b.RiskDays, fullRate)
	case incapacity.TypeMaternity, incapacity.TypePaternity:
		b.HealthDays = totalDays
		b.HealthAmount = bucket(b.DailyValue, b.HealthDays, fullRate)
	}

	b.EmployerAmount = round2(b.EmployerAmount)
	b.HealthAmount = round2(b.HealthAmount)
	b.RiskAmount = round2(b.RiskAmount)
	b.TotalPayable = b.EmployerAmount.Add(b.HealthAmount).Add(b.RiskAmount)
	return b, nil
}

func bucket(daily decimal.Decimal, days int, rate decimal.Decimal) decimal.Decimal {
	if days == 0 {
		return decimal.Zero
	}
	return daily.Mul(decimal.NewFromInt(int64(days))).Mul(rate)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

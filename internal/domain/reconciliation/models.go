package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reconciliation is the persisted payment split for one incapacity. Amounts
// are stored exactly as computed; the row is immutable except for notes.
type Reconciliation struct {
	ID             string          `json:"id"`
	IncapacityID   string          `json:"incapacityId"`
	EmployeeName   string          `json:"employeeName,omitempty"`
	IncapacityType string          `json:"incapacityType,omitempty"`
	TotalDays      int             `json:"totalDays"`
	WageBase       decimal.Decimal `json:"wageBase"`
	DailyValue     decimal.Decimal `json:"dailyValue"`
	EmployerDays   int             `json:"employerDays"`
	EmployerAmount decimal.Decimal `json:"employerAmount"`
	HealthDays     int             `json:"healthDays"`
	HealthAmount   decimal.Decimal `json:"healthAmount"`
	RiskDays       int             `json:"riskDays"`
	RiskAmount     decimal.Decimal `json:"riskAmount"`
	TotalPayable   decimal.Decimal `json:"totalPayable"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Stats aggregates the ledger for the finance dashboard.
type Stats struct {
	Count         int             `json:"count"`
	TotalDays     int             `json:"totalDays"`
	EmployerTotal decimal.Decimal `json:"employerTotal"`
	HealthTotal   decimal.Decimal `json:"healthTotal"`
	RiskTotal     decimal.Decimal `json:"riskTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

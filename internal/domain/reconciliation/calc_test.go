package reconciliation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"kare/internal/domain/incapacity"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}

func TestCalculateCommonIllnessSplit(t *testing.T) {
	b, err := Calculate(incapacity.TypeEPS, 5, money("900000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.EmployerDays != 2 || b.HealthDays != 3 || b.RiskDays != 0 {
		t.Fatalf("unexpected day split: %+v", b)
	}
	assertAmount(t, "daily value", b.DailyValue, money("30000"))
	assertAmount(t, "employer amount", b.EmployerAmount, money("40002"))
	assertAmount(t, "health amount", b.HealthAmount, money("60003"))
	assertAmount(t, "risk amount", b.RiskAmount, decimal.Zero)
	assertAmount(t, "total payable", b.TotalPayable, money("100005"))
}

func TestCalculateCommonIllnessShorterThanEmployerWindow(t *testing.T) {
	b, err := Calculate(incapacity.TypeEPS, 1, money("900000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.EmployerDays != 1 || b.HealthDays != 0 {
		t.Fatalf("unexpected day split: %+v", b)
	}
	assertAmount(t, "employer amount", b.EmployerAmount, money("20001"))
	assertAmount(t, "health amount", b.HealthAmount, decimal.Zero)
	assertAmount(t, "total payable", b.TotalPayable, money("20001"))
}

func TestCalculateWorkRelated(t *testing.T) {
	b, err := Calculate(incapacity.TypeARL, 10, money("1200000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.RiskDays != 10 || b.EmployerDays != 0 || b.HealthDays != 0 {
		t.Fatalf("unexpected day split: %+v", b)
	}
	assertAmount(t, "daily value", b.DailyValue, money("40000"))
	assertAmount(t, "risk amount", b.RiskAmount, money("400000"))
	assertAmount(t, "total payable", b.TotalPayable, money("400000"))
}

func TestCalculateParentalLeave(t *testing.T) {
	b, err := Calculate(incapacity.TypeMaternity, 126, money("1500000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.HealthDays != 126 || b.EmployerDays != 0 || b.RiskDays != 0 {
		t.Fatalf("unexpected day split: %+v", b)
	}
	assertAmount(t, "health amount", b.HealthAmount, money("6300000"))
	assertAmount(t, "total payable", b.TotalPayable, money("6300000"))

	b, err = Calculate(incapacity.TypePaternity, 14, money("900000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.HealthDays != 14 {
		t.Fatalf("unexpected day split: %+v", b)
	}
	assertAmount(t, "health amount", b.HealthAmount, money("420000"))
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	// daily value 1.005 exactly; half up lands on 1.01.
	b, err := Calculate(incapacity.TypeARL, 1, money("30.15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertAmount(t, "risk amount", b.RiskAmount, money("1.01"))
	assertAmount(t, "total payable", b.TotalPayable, money("1.01"))
}

func TestCalculateConservation(t *testing.T) {
	wage := money("1234567")
	for _, incType := range incapacity.AllTypes {
		for days := 1; days <= 40; days++ {
			b, err := Calculate(incType, days, wage)
			if err != nil {
				t.Fatalf("%s/%d: unexpected error: %v", incType, days, err)
			}
			if b.EmployerDays+b.HealthDays+b.RiskDays != days {
				t.Fatalf("%s/%d: day split does not conserve: %+v", incType, days, b)
			}
			sum := b.EmployerAmount.Add(b.HealthAmount).Add(b.RiskAmount)
			if !b.TotalPayable.Equal(sum) {
				t.Fatalf("%s/%d: total %s != bucket sum %s", incType, days, b.TotalPayable, sum)
			}
			for _, amount := range []decimal.Decimal{b.EmployerAmount, b.HealthAmount, b.RiskAmount} {
				if amount.Exponent() < -2 {
					t.Fatalf("%s/%d: amount %s has more than 2 decimal places", incType, days, amount)
				}
			}
		}
	}
}

func TestCalculatePreconditions(t *testing.T) {
	cases := []struct {
		name    string
		incType string
		days    int
		wage    decimal.Decimal
	}{
		{"zero days", incapacity.TypeEPS, 0, money("900000")},
		{"negative days", incapacity.TypeEPS, -3, money("900000")},
		{"zero wage", incapacity.TypeEPS, 5, decimal.Zero},
		{"negative wage", incapacity.TypeARL, 5, money("-100")},
		{"unknown type", "vacation", 5, money("900000")},
	}
	for _, tc := range cases {
		if _, err := Calculate(tc.incType, tc.days, tc.wage); !errors.Is(err, ErrPrecondition) {
			t.Fatalf("%s: expected ErrPrecondition, got %v", tc.name, err)
		}
	}
}

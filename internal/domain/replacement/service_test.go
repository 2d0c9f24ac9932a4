package replacement

import (
	"errors"
	"testing"
	"time"

	"kare/internal/domain/incapacity"
)

func TestValidateInput(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := CreateInput{
		IncapacityID:    "inc-1",
		CoverEmployeeID: "emp-2",
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 4),
		Duties:          "front desk coverage",
	}
	if err := ValidateInput(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing incapacity", func(in *CreateInput) { in.IncapacityID = "" }},
		{"missing cover", func(in *CreateInput) { in.CoverEmployeeID = "" }},
		{"blank duties", func(in *CreateInput) { in.Duties = "   " }},
		{"inverted period", func(in *CreateInput) { in.EndDate = in.StartDate.AddDate(0, 0, -1) }},
	}
	for _, tc := range cases {
		in := valid
		tc.mutate(&in)
		if err := ValidateInput(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestOpenLeaveStates(t *testing.T) {
	open := map[string]bool{}
	for _, state := range openLeaveStates {
		open[state] = true
	}
	for _, state := range []string{incapacity.StateReported, incapacity.StateInReview, incapacity.StateValidated, incapacity.StatePaid} {
		if !open[state] {
			t.Fatalf("expected %s to block a cover assignment", state)
		}
	}
	for _, state := range []string{incapacity.StateRejected, incapacity.StateReconciled, incapacity.StateArchived} {
		if open[state] {
			t.Fatalf("expected %s not to block a cover assignment", state)
		}
	}
}

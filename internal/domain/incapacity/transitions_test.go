package incapacity

import (
	"errors"
	"testing"
	"time"

	"kare/internal/domain/auth"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testRecord(state string) Record {
	return Record{
		ID:         "rec-1",
		EmployeeID: "emp-1",
		Type:       TypeEPS,
		StartDate:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
		TotalDays:  5,
		Diagnosis:  "lumbago",
		State:      state,
	}
}

func TestTransitionTableCompleteness(t *testing.T) {
	roles := []string{auth.RoleEmployee, auth.RoleSupervisor, auth.RoleHR, auth.RoleFinance, auth.RoleAdmin, RoleOwner}

	for _, from := range AllStates {
		for _, to := range AllStates {
			allowedRole, exists := AllowedRole(from, to)

			if !exists {
				_, err := RequestTransition(testRecord(from), to, auth.RoleHR, "notes", testNow)
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", from, to, err)
				}
				continue
			}

			updated, err := RequestTransition(testRecord(from), to, allowedRole, "notes", testNow)
			if err != nil {
				t.Fatalf("%s -> %s with role %s: unexpected error %v", from, to, allowedRole, err)
			}
			if updated.State != to {
				t.Fatalf("%s -> %s: state not applied, got %s", from, to, updated.State)
			}

			for _, role := range roles {
				if role == allowedRole {
					continue
				}
				_, err := RequestTransition(testRecord(from), to, role, "notes", testNow)
				if !errors.Is(err, ErrUnauthorized) {
					t.Fatalf("%s -> %s with role %s: expected ErrUnauthorized, got %v", from, to, role, err)
				}
			}
		}
	}
}

func TestNoMultiHopTransitions(t *testing.T) {
	for _, target := range []string{StateValidated, StatePaid, StateReconciled, StateArchived} {
		_, err := RequestTransition(testRecord(StateReported), target, auth.RoleHR, "", testNow)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("reported -> %s: expected ErrInvalidTransition, got %v", target, err)
		}
	}
}

func TestRejectionRequiresNotes(t *testing.T) {
	_, err := RequestTransition(testRecord(StateInReview), StateRejected, auth.RoleHR, "", testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	_, err = RequestTransition(testRecord(StateInReview), StateRejected, auth.RoleHR, "   ", testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank notes, got %v", err)
	}

	updated, err := RequestTransition(testRecord(StateInReview), StateRejected, auth.RoleHR, "missing diagnosis", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RejectionNotes != "missing diagnosis" {
		t.Fatalf("expected rejection notes to be set, got %q", updated.RejectionNotes)
	}
	if updated.UpdatedAt != testNow {
		t.Fatal("expected updated_at to be refreshed")
	}
}

func TestRejectionNotesClearedOnForwardProgress(t *testing.T) {
	rec := testRecord(StateReported)
	rec.RejectionNotes = "stale"
	updated, err := RequestTransition(rec, StateInReview, auth.RoleHR, "", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RejectionNotes != "" {
		t.Fatalf("expected rejection notes cleared, got %q", updated.RejectionNotes)
	}
}

func TestResubmission(t *testing.T) {
	rec := testRecord(StateRejected)
	rec.RejectionNotes = "missing diagnosis"

	in := ResubmitInput{
		Type:      TypeEPS,
		StartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC),
		Diagnosis: "acute lumbago, corrected",
	}
	updated, err := Resubmit(rec, in, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.State != StateReported {
		t.Fatalf("expected reported, got %s", updated.State)
	}
	if updated.RejectionNotes != "" {
		t.Fatalf("expected rejection notes cleared, got %q", updated.RejectionNotes)
	}
	if updated.TotalDays != 6 {
		t.Fatalf("expected 6 days, got %d", updated.TotalDays)
	}
	if updated.Diagnosis != "acute lumbago, corrected" {
		t.Fatalf("unexpected diagnosis %q", updated.Diagnosis)
	}
}

func TestResubmissionRequiresFields(t *testing.T) {
	rec := testRecord(StateRejected)

	cases := []struct {
		name string
		in   ResubmitInput
	}{
		{"missing diagnosis", ResubmitInput{Type: TypeEPS, StartDate: testNow, EndDate: testNow}},
		{"unknown type", ResubmitInput{Type: "sabbatical", StartDate: testNow, EndDate: testNow, Diagnosis: "x"}},
		{"inverted period", ResubmitInput{Type: TypeEPS, StartDate: testNow, EndDate: testNow.AddDate(0, 0, -2), Diagnosis: "x"}},
	}
	for _, tc := range cases {
		if _, err := Resubmit(rec, tc.in, testNow); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestResubmissionOnlyFromRejected(t *testing.T) {
	in := ResubmitInput{Type: TypeEPS, StartDate: testNow, EndDate: testNow, Diagnosis: "x"}
	for _, state := range []string{StateReported, StateInReview, StateValidated, StatePaid, StateReconciled, StateArchived} {
		if _, err := Resubmit(testRecord(state), in, testNow); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("resubmit from %s: expected ErrInvalidTransition, got %v", state, err)
		}
	}
}

func TestCountDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CountDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %d", days)
	}

	days, err = CountDays(start, start.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 5 {
		t.Fatalf("expected 5 days, got %d", days)
	}

	if _, err := CountDays(start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted period, got %v", err)
	}
}

func TestNextStates(t *testing.T) {
	next := NextStates(StateValidated)
	if len(next) != 2 {
		t.Fatalf("expected 2 targets from validated, got %v", next)
	}
	if len(NextStates(StateArchived)) != 0 {
		t.Fatal("archived must be terminal")
	}
}

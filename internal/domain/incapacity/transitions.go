package incapacity

import (
	"fmt"
	"strings"
	"time"

	"kare/internal/domain/auth"
)

type edge struct {
	from string
	to   string
}

// transitionRoles is the whole authorization matrix: one edge, one role.
// Anything absent from this table is an invalid transition, full stop.
var transitionRoles = map[edge]string{
	{StateReported, StateInReview}:   auth.RoleHR,
	{StateReported, StateRejected}:   auth.RoleHR,
	{StateInReview, StateValidated}:  auth.RoleHR,
	{StateInReview, StateRejected}:   auth.RoleHR,
	{StateValidated, StateRejected}:  auth.RoleHR,
	{StateValidated, StatePaid}:      auth.RoleFinance,
	{StatePaid, StateReconciled}:     auth.RoleFinance,
	{StateReconciled, StateArchived}: auth.RoleHR,
	{StateRejected, StateReported}:   RoleOwner,
}

// AllowedRole reports which role may traverse from -> to, if the edge exists.
func AllowedRole(from, to string) (string, bool) {
	role, ok := transitionRoles[edge{from, to}]
	return role, ok
}

// NextStates lists the targets reachable from the given state.
func NextStates(from string) []string {
	var out []string
	for e := range transitionRoles {
		if e.from == from {
			out = append(out, e.to)
		}
	}
	return out
}

// RequestTransition validates one explicit edge traversal and returns the
// updated record. It never skips states and never mutates business fields;
// the resubmission edge goes through Resubmit, which layers the field update
// on top of this same check.
func RequestTransition(rec Record, target, actorRole, notes string, now time.Time) (Record, error) {
	role, ok := AllowedRole(rec.State, target)
	if !ok {
		return rec, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.State, target)
	}
	if actorRole != role {
		return rec, fmt.Errorf("%w: %s -> %s requires %s", ErrUnauthorized, rec.State, target, role)
	}
	if target == StateRejected && strings.TrimSpace(notes) == "" {
		return rec, fmt.Errorf("%w: rejection requires notes", ErrValidation)
	}

	rec.State = target
	if target == StateRejected {
		rec.RejectionNotes = strings.TrimSpace(notes)
	} else if rec.RejectionNotes != "" {
		rec.RejectionNotes = ""
	}
	rec.UpdatedAt = now
	return rec, nil
}

// Resubmit is the owner's rejected -> reported edge. It is the only
// transition that touches business fields: the full editable set must be
// supplied again, and the rejection notes are cleared.
func Resubmit(rec Record, in ResubmitInput, now time.Time) (Record, error) {
	if !ValidType(in.Type) {
		return rec, fmt.Errorf("%w: unknown incapacity type %q", ErrValidation, in.Type)
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return rec, fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}
	days, err := CountDays(in.StartDate, in.EndDate)
	if err != nil {
		return rec, err
	}

	updated, err := RequestTransition(rec, StateReported, RoleOwner, "", now)
	if err != nil {
		return rec, err
	}

	updated.Type = in.Type
	updated.StartDate = in.StartDate
	updated.EndDate = in.EndDate
	updated.TotalDays = days
	updated.Diagnosis = strings.TrimSpace(in.Diagnosis)
	if in.DocumentID != "" {
		updated.DocumentID = in.DocumentID
	}
	return updated, nil
}

// CountDays returns the inclusive day count of a leave period.
func CountDays(start, end time.Time) (int, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

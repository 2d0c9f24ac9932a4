package replacement

import "errors"

var (
	// ErrActiveReplacementExists: the incapacity already has an active cover.
	ErrActiveReplacementExists = errors.New("incapacity already has an active replacement")

	// ErrCoverConflict: the proposed cover employee already holds an active
	// assignment elsewhere.
	ErrCoverConflict = errors.New("cover employee already holds an active replacement")

	// ErrCoverOnLeave: the proposed cover employee has an open incapacity of
	// their own.
	ErrCoverOnLeave = errors.New("cover employee is on leave")

	ErrInvalidState = errors.New("replacement is not active")
	ErrValidation   = errors.New("replacement validation failed")
	ErrNotFound     = errors.New("replacement not found")
)

package incapacity

import "errors"

var (
	// ErrInvalidTransition is returned when the requested (from, to) edge does
	// not exist in the transition table. Never retried.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthorized is returned when the edge exists but the actor's role is
	// not the one the table allows.
	ErrUnauthorized = errors.New("role not allowed for this transition")

	// ErrValidation is returned for missing mandatory input: rejection notes,
	// resubmission fields, malformed periods.
	ErrValidation = errors.New("validation failed")

	// ErrConcurrentModification is returned when the record's state changed
	// between read and write. The caller may re-read and retry.
	ErrConcurrentModification = errors.New("record modified concurrently")

	ErrNotFound         = errors.New("incapacity not found")
	ErrDocumentRequired = errors.New("supporting document required")
)

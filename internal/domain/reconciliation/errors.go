package reconciliation

import "errors"

// ErrPrecondition covers records that are not ready for the calculator: wrong
// state, missing wage base, or a broken day count.
var ErrPrecondition = errors.New("reconciliation preconditions not met")

// ErrAlreadyReconciled is returned when a second reconciliation is attempted
// for the same incapacity.
var ErrAlreadyReconciled = errors.New("incapacity is already reconciled")

var ErrNotFound = errors.New("reconciliation not found")

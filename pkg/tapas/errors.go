package tapas

import "errors"

var (
	// ErrNotFound is returned when a Tapas or one of its results does not exist for the user
	ErrNotFound = errors.New("tapas not found")
	// ErrOutOfRange is returned for check-ins outside the duration of the schedule
	ErrOutOfRange = errors.New("day is out of the schedule range")
	// ErrInvalidCheckin is returned for check-ins that conflict with the schedule or the ledger
	ErrInvalidCheckin = errors.New("invalid check-in")
	// ErrNotActive is returned when a Tapas is not in a state that allows the operation
	ErrNotActive = errors.New("tapas is not active")
	// ErrNotFinishable is returned when finishing a Tapas that has a schedule
	ErrNotFinishable = errors.New("only tapas without schedule can be finished")
	// ErrInvalidResult is returned for empty or future diary entries
	ErrInvalidResult = errors.New("invalid result")
	// ErrInvalidShare is returned for invitations to a Tapas that is not shared
	ErrInvalidShare = errors.New("invalid share")
)

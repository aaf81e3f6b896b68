package availability

import "errors"

var (
	// ErrWindowNotFound is returned when a doctor has no availability window.
	ErrWindowNotFound = errors.New("availability not set for this doctor")

	// ErrInvalidTimeInput is returned when the window times are missing.
	ErrInvalidTimeInput = errors.New("invalid time input")

	// ErrStartAfterEnd is returned when the window is not a positive interval.
	ErrStartAfterEnd = errors.New("start time must be before end time")
)

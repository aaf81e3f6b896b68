package credits

import "errors"

var (
	// ErrInsufficientCredits is returned when a patient cannot cover the
	// appointment cost.
	ErrInsufficientCredits = errors.New("insufficient credits to book an appointment")

	// ErrUserNotFound is returned when a balance update matches no user.
	ErrUserNotFound = errors.New("user not found for credit operation")
)

package users

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrDoctorNotFound is returned when the doctor is missing or not verified.
	ErrDoctorNotFound = errors.New("doctor not found or not verified")

	// ErrInvalidRole is returned for role values outside the closed set.
	ErrInvalidRole = errors.New("invalid role selected")

	// ErrIncompleteDoctorProfile is returned when doctor onboarding fields are missing.
	ErrIncompleteDoctorProfile = errors.New("all doctor profile fields are required")

	// ErrInvalidVerificationStatus is returned for unknown verification states.
	ErrInvalidVerificationStatus = errors.New("invalid verification status")
)

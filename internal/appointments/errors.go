package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when no appointment matches the id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrPatientNotFound is returned when the booking caller is not a patient.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrMissingDoctor is returned when the booking payload names no doctor.
	ErrMissingDoctor = errors.New("doctor id is required")

	// ErrInvalidInterval is returned for missing or inverted time ranges.
	ErrInvalidInterval = errors.New("invalid appointment time range")

	// ErrSlotUnavailable is returned when the interval overlaps an existing
	// scheduled appointment for the doctor.
	ErrSlotUnavailable = errors.New("this time slot is already booked")

	// ErrNotParty is returned when the caller is neither the patient nor the
	// doctor on the appointment.
	ErrNotParty = errors.New("you are not authorized for this appointment")

	// ErrNotScheduled is returned for transitions out of a terminal state.
	ErrNotScheduled = errors.New("appointment is not in scheduled state")

	// ErrNotYetEnded is returned when completion is attempted before the
	// appointment end time.
	ErrNotYetEnded = errors.New("appointment cannot be completed before its end time")

	// ErrVideoSession is returned when the video provider fails.
	ErrVideoSession = errors.New("failed to create video session")
)

package appointments

import (
	"strings"
	"time"
)

// Status is the appointment state machine. SCHEDULED is the only
// non-terminal state.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Appointment is a booked consultation between a patient and a doctor.
// The time range is immutable after booking; only status and notes change.
type Appointment struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	DoctorID       string    `json:"doctor_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         Status    `json:"status"`
	Description    string    `json:"description,omitempty"`
	VideoSessionID string    `json:"video_session_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BookRequest is the booking payload. PatientID is resolved from the
// caller identity, never taken from the body.
type BookRequest struct {
	PatientID   string    `json:"-"`
	DoctorID    string    `json:"doctor_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
}

// Validate checks required fields and interval ordering.
func (r *BookRequest) Validate() error {
	if strings.TrimSpace(r.DoctorID) == "" {
		return ErrMissingDoctor
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return ErrInvalidInterval
	}
	if !r.StartTime.Before(r.EndTime) {
		return ErrInvalidInterval
	}
	return nil
}

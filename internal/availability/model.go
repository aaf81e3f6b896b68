package availability

import "time"

// WindowStatus is the lifecycle state of an availability window.
type WindowStatus string

// StatusAvailable is the only active state; historical windows keep it too.
const StatusAvailable WindowStatus = "AVAILABLE"

// Window is a doctor's recurring daily availability. Start and end are
// stored as full timestamps but only their time-of-day matters to the slot
// generator; the date component is ignored.
type Window struct {
	ID        string       `json:"id"`
	DoctorID  string       `json:"doctor_id"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Status    WindowStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// SetWindowRequest is the payload for replacing a doctor's window.
type SetWindowRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Validate checks interval ordering.
func (r *SetWindowRequest) Validate() error {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return ErrInvalidTimeInput
	}
	if !r.StartTime.Before(r.EndTime) {
		return ErrStartAfterEnd
	}
	return nil
}

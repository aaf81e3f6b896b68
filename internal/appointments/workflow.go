package appointments

import (
	"context"
)

// Cancel transitions a scheduled appointment to CANCELLED. Only a party to
// the appointment may cancel; the compensating credit reversal runs in the
// same transaction as the status change.
func (s *Service) Cancel(ctx context.Context, callerID, appointmentID string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerID != appt.PatientID && callerID != appt.DoctorID {
		s.metrics.ObserveTransition("cancel", "forbidden")
		return nil, ErrNotParty
	}

	if err := s.store.Cancel(ctx, appt); err != nil {
		span.RecordError(err)
		if err == ErrNotScheduled {
			s.metrics.ObserveTransition("cancel", "conflict")
		} else {
			s.metrics.ObserveTransition("cancel", "error")
		}
		return nil, err
	}
	appt.Status = StatusCancelled

	s.metrics.ObserveTransition("cancel", "ok")
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, appt.DoctorID)
	}
	if s.notifier != nil {
		s.notifier.AppointmentCancelled(ctx, appt)
	}
	s.logger.Info("appointment cancelled",
		"appointment_id", appt.ID,
		"cancelled_by", callerID,
	)
	return appt, nil
}

// Complete transitions a scheduled appointment to COMPLETED. Only the
// doctor on the appointment may complete it, and only once the end time
// has passed. Terminal states reject a second attempt.
func (s *Service) Complete(ctx context.Context, callerID, appointmentID string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.complete")
	defer span.End()

	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerID != appt.DoctorID {
		s.metrics.ObserveTransition("complete", "forbidden")
		return nil, ErrNotParty
	}
	if s.now().Before(appt.EndTime) {
		s.metrics.ObserveTransition("complete", "too_early")
		return nil, ErrNotYetEnded
	}

	if err := s.store.Complete(ctx, appt.ID); err != nil {
		span.RecordError(err)
		if err == ErrNotScheduled {
			s.metrics.ObserveTransition("complete", "conflict")
		} else {
			s.metrics.ObserveTransition("complete", "error")
		}
		return nil, err
	}
	appt.Status = StatusCompleted

	s.metrics.ObserveTransition("complete", "ok")
	s.logger.Info("appointment completed", "appointment_id", appt.ID)
	return appt, nil
}

// AddNotes attaches doctor-authored notes. The appointment's doctor may
// write notes in any status, including after completion.
func (s *Service) AddNotes(ctx context.Context, callerID, appointmentID, notes string) (*Appointment, error) {
	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerID != appt.DoctorID {
		return nil, ErrNotParty
	}
	if err := s.store.UpdateNotes(ctx, appt.ID, notes); err != nil {
		return nil, err
	}
	appt.Notes = notes
	return appt, nil
}

package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medimeet/platform/internal/credits"
	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/observability/metrics"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/pkg/logging"
)

var bookingTracer = otel.Tracer("medimeet.internal.appointments")

// Store is the persistence surface the coordinator drives; *Repository is
// the production implementation.
type Store interface {
	HasOverlap(ctx context.Context, doctorID string, start, end time.Time) (bool, error)
	Book(ctx context.Context, req *BookRequest, videoSessionID string) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Cancel(ctx context.Context, appt *Appointment) error
	Complete(ctx context.Context, id string) error
	UpdateNotes(ctx context.Context, id, notes string) error
	ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error)
}

// UserSource supplies the parties of a booking.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
	GetVerifiedDoctor(ctx context.Context, doctorID string) (*users.User, error)
}

// SessionCreator acquires an opaque video session id from the external
// conferencing provider.
type SessionCreator interface {
	CreateSession(ctx context.Context) (string, error)
}

// Notifier sends best-effort booking emails; failures never fail the
// operation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, appt *Appointment)
	AppointmentCancelled(ctx context.Context, appt *Appointment)
}

// Invalidator drops cached slot schedules for a doctor.
type Invalidator interface {
	Invalidate(ctx context.Context, doctorID string)
}

// Service is the booking coordinator plus the cancellation/completion
// workflow on existing appointments.
type Service struct {
	store       Store
	users       UserSource
	sessions    SessionCreator
	notifier    Notifier
	invalidator Invalidator
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// NewService constructs the appointments service.
func NewService(store Store, userSource UserSource, sessions SessionCreator, notifier Notifier, invalidator Invalidator, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if store == nil || userSource == nil || sessions == nil {
		panic("appointments: store, users and sessions required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:       store,
		users:       userSource,
		sessions:    sessions,
		notifier:    notifier,
		invalidator: invalidator,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Book reserves a slot for the patient: preconditions checked in order,
// then the video session is acquired and the charge + insert run as one
// transaction. A session acquired before a failed charge is abandoned.
func (s *Service) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("medimeet.patient_id", req.PatientID),
		attribute.String("medimeet.doctor_id", req.DoctorID),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient, err := s.users.GetByID(ctx, req.PatientID)
	if err != nil || patient.Role != identity.RolePatient {
		s.metrics.ObserveBooking("patient_not_found")
		return nil, ErrPatientNotFound
	}

	doctor, err := s.users.GetVerifiedDoctor(ctx, req.DoctorID)
	if err != nil {
		s.metrics.ObserveBooking("doctor_not_found")
		return nil, err
	}

	// The balance must retain headroom beyond the charge itself.
	if patient.Credits <= credits.AppointmentCost {
		s.metrics.ObserveBooking("insufficient_credits")
		return nil, credits.ErrInsufficientCredits
	}

	overlap, err := s.store.HasOverlap(ctx, doctor.ID, req.StartTime, req.EndTime)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if overlap {
		s.metrics.ObserveBooking("conflict")
		return nil, ErrSlotUnavailable
	}

	sessionID, err := s.sessions.CreateSession(ctx)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("video_error")
		return nil, fmt.Errorf("%w: %v", ErrVideoSession, err)
	}

	appt, err := s.store.Book(ctx, req, sessionID)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrSlotUnavailable):
			s.metrics.ObserveBooking("conflict")
		case errors.Is(err, credits.ErrInsufficientCredits):
			s.metrics.ObserveBooking("insufficient_credits")
		default:
			s.metrics.ObserveBooking("error")
		}
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, appt.DoctorID)
	}
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, appt)
	}
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", appt.PatientID,
		"doctor_id", appt.DoctorID,
		"start", appt.StartTime,
	)
	return appt, nil
}

// ListForPatient returns the patient's appointments ordered by start time.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return s.store.ListForPatient(ctx, patientID)
}

// ListForDoctor returns the doctor's appointments ordered by start time.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return s.store.ListForDoctor(ctx, doctorID)
}

package notify

import (
	"context"
	"fmt"

	"github.com/medimeet/platform/internal/appointments"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/pkg/logging"
)

// UserDirectory resolves the parties of an appointment to their profiles.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Service sends appointment lifecycle emails to both parties. Every send is
// best effort: delivery failures are logged, never surfaced to the booking
// or cancellation flow.
type Service struct {
	email  EmailSender
	users  UserDirectory
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, directory UserDirectory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:  email,
		users:  directory,
		logger: logger,
	}
}

// BookingConfirmed emails the patient and the doctor after a successful
// booking.
func (s *Service) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) {
	patient, doctor, ok := s.parties(ctx, appt)
	if !ok {
		return
	}

	when := appt.StartTime.Format("Monday, January 2 at 3:04 PM")

	s.send(ctx, EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Your appointment is confirmed",
		Body: fmt.Sprintf(`Hi %s,

Your appointment with Dr. %s is confirmed for %s.

A video call link will be available on the appointment page when it starts.

— MediMeet`, patient.Name, doctor.Name, when),
	}, appt.ID)

	s.send(ctx, EmailMessage{
		To:      doctor.Email,
		ToName:  doctor.Name,
		Subject: "New appointment booked",
		Body: fmt.Sprintf(`Hi Dr. %s,

%s booked an appointment with you for %s.

— MediMeet`, doctor.Name, patient.Name, when),
	}, appt.ID)
}

// AppointmentCancelled emails both parties after a cancellation.
func (s *Service) AppointmentCancelled(ctx context.Context, appt *appointments.Appointment) {
	patient, doctor, ok := s.parties(ctx, appt)
	if !ok {
		return
	}

	when := appt.StartTime.Format("Monday, January 2 at 3:04 PM")
	body := fmt.Sprintf(`The appointment between %s and Dr. %s scheduled for %s has been cancelled. The booking credits have been returned to the patient.

— MediMeet`, patient.Name, doctor.Name, when)

	s.send(ctx, EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: "Appointment cancelled",
		Body:    body,
	}, appt.ID)

	s.send(ctx, EmailMessage{
		To:      doctor.Email,
		ToName:  doctor.Name,
		Subject: "Appointment cancelled",
		Body:    body,
	}, appt.ID)
}

func (s *Service) parties(ctx context.Context, appt *appointments.Appointment) (patient, doctor *users.User, ok bool) {
	if s.email == nil || s.users == nil {
		return nil, nil, false
	}
	patient, err := s.users.GetByID(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error("notify: resolve patient failed", "error", err, "appointment_id", appt.ID)
		return nil, nil, false
	}
	doctor, err = s.users.GetByID(ctx, appt.DoctorID)
	if err != nil {
		s.logger.Error("notify: resolve doctor failed", "error", err, "appointment_id", appt.ID)
		return nil, nil, false
	}
	return patient, doctor, true
}

func (s *Service) send(ctx context.Context, msg EmailMessage, appointmentID string) {
	if msg.To == "" {
		return
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: send failed", "error", err, "to", msg.To, "appointment_id", appointmentID)
		return
	}
	s.logger.Info("notify: email sent", "to", msg.To, "subject", msg.Subject, "appointment_id", appointmentID)
}

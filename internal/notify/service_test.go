package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medimeet/platform/internal/appointments"
	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/users"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type fakeDirectory struct {
	users map[string]*users.User
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func testAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:        "appt-1",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 20, 0, 0, time.UTC),
		Status:    appointments.StatusScheduled,
	}
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]*users.User{
		"patient-1": {ID: "patient-1", Name: "Pat", Email: "pat@example.com", Role: identity.RolePatient},
		"doctor-1":  {ID: "doctor-1", Name: "Dre", Email: "dre@example.com", Role: identity.RoleDoctor},
	}}
}

func TestBookingConfirmedEmailsBothParties(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, testDirectory(), nil)

	svc.BookingConfirmed(context.Background(), testAppointment())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "pat@example.com" {
		t.Fatalf("expected patient email first, got %s", sender.sent[0].To)
	}
	if sender.sent[1].To != "dre@example.com" {
		t.Fatalf("expected doctor email second, got %s", sender.sent[1].To)
	}
}

func TestAppointmentCancelledEmailsBothParties(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, testDirectory(), nil)

	svc.AppointmentCancelled(context.Background(), testAppointment())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	for _, msg := range sender.sent {
		if msg.Subject != "Appointment cancelled" {
			t.Fatalf("unexpected subject %q", msg.Subject)
		}
	}
}

func TestNotifySwallowsSendFailures(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, testDirectory(), nil)

	// Must not panic or propagate anything.
	svc.BookingConfirmed(context.Background(), testAppointment())
	svc.AppointmentCancelled(context.Background(), testAppointment())
}

func TestNotifySkipsUnknownParties(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{users: map[string]*users.User{}}, nil)

	svc.BookingConfirmed(context.Background(), testAppointment())

	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.sent))
	}
}

func TestNilSenderIsNoop(t *testing.T) {
	svc := NewService(nil, testDirectory(), nil)
	svc.BookingConfirmed(context.Background(), testAppointment())
}

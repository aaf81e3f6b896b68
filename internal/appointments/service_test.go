package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medimeet/platform/internal/credits"
	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/users"
)

type fakeStore struct {
	appointments map[string]*Appointment
	overlap      bool
	overlapErr   error
	bookErr      error
	cancelErr    error
	completeErr  error
	booked       *Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{appointments: map[string]*Appointment{}}
}

func (f *fakeStore) HasOverlap(ctx context.Context, doctorID string, start, end time.Time) (bool, error) {
	return f.overlap, f.overlapErr
}

func (f *fakeStore) Book(ctx context.Context, req *BookRequest, videoSessionID string) (*Appointment, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	appt := &Appointment{
		ID:             "appt-1",
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         StatusScheduled,
		Description:    req.Description,
		VideoSessionID: videoSessionID,
	}
	f.booked = appt
	f.appointments[appt.ID] = appt
	return appt, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeStore) Cancel(ctx context.Context, appt *Appointment) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	stored := f.appointments[appt.ID]
	if stored == nil || stored.Status != StatusScheduled {
		return ErrNotScheduled
	}
	stored.Status = StatusCancelled
	return nil
}

func (f *fakeStore) Complete(ctx context.Context, id string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	stored := f.appointments[id]
	if stored == nil || stored.Status != StatusScheduled {
		return ErrNotScheduled
	}
	stored.Status = StatusCompleted
	return nil
}

func (f *fakeStore) UpdateNotes(ctx context.Context, id, notes string) error {
	stored, ok := f.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	stored.Notes = notes
	return nil
}

func (f *fakeStore) ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return nil, nil
}

func (f *fakeStore) ListForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return nil, nil
}

type fakeUserSource struct {
	users map[string]*users.User
}

func (f *fakeUserSource) GetByID(ctx context.Context, id string) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserSource) GetVerifiedDoctor(ctx context.Context, doctorID string) (*users.User, error) {
	u, ok := f.users[doctorID]
	if !ok || !u.IsVerifiedDoctor() {
		return nil, users.ErrDoctorNotFound
	}
	return u, nil
}

type fakeSessions struct {
	id    string
	err   error
	calls int
}

func (f *fakeSessions) CreateSession(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeInvalidator struct {
	doctorIDs []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, doctorID string) {
	f.doctorIDs = append(f.doctorIDs, doctorID)
}

type fakeNotifier struct {
	confirmed []string
	cancelled []string
}

func (f *fakeNotifier) BookingConfirmed(ctx context.Context, appt *Appointment) {
	f.confirmed = append(f.confirmed, appt.ID)
}

func (f *fakeNotifier) AppointmentCancelled(ctx context.Context, appt *Appointment) {
	f.cancelled = append(f.cancelled, appt.ID)
}

type serviceFixture struct {
	svc         *Service
	store       *fakeStore
	users       *fakeUserSource
	sessions    *fakeSessions
	invalidator *fakeInvalidator
	notifier    *fakeNotifier
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newFakeStore()
	userSource := &fakeUserSource{users: map[string]*users.User{
		"patient-1": {ID: "patient-1", Role: identity.RolePatient, Credits: 10},
		"doctor-1": {
			ID: "doctor-1", Role: identity.RoleDoctor,
			VerificationStatus: users.VerificationVerified,
		},
	}}
	sessions := &fakeSessions{id: "session-1"}
	invalidator := &fakeInvalidator{}
	notifier := &fakeNotifier{}

	svc := NewService(store, userSource, sessions, notifier, invalidator, nil, nil)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	}
	return &serviceFixture{
		svc: svc, store: store, users: userSource,
		sessions: sessions, invalidator: invalidator, notifier: notifier,
	}
}

func bookRequest() *BookRequest {
	return &BookRequest{
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		StartTime: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 3, 10, 20, 0, 0, time.UTC),
	}
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), bookRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, "session-1", appt.VideoSessionID)
	assert.Equal(t, []string{"doctor-1"}, f.invalidator.doctorIDs)
	assert.Equal(t, []string{"appt-1"}, f.notifier.confirmed)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)

	req := bookRequest()
	req.DoctorID = ""
	_, err := f.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingDoctor)

	req = bookRequest()
	req.EndTime = req.StartTime
	_, err = f.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestBookNonPatientCaller(t *testing.T) {
	f := newFixture(t)
	f.users.users["patient-1"].Role = identity.RoleDoctor

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.Zero(t, f.sessions.calls)
}

func TestBookUnverifiedDoctor(t *testing.T) {
	f := newFixture(t)
	f.users.users["doctor-1"].VerificationStatus = users.VerificationPending

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, users.ErrDoctorNotFound)
	assert.Zero(t, f.sessions.calls)
}

// A balance equal to the appointment cost is not enough; booking requires
// strictly more.
func TestBookBalanceMustExceedCost(t *testing.T) {
	f := newFixture(t)
	f.users.users["patient-1"].Credits = credits.AppointmentCost

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
	assert.Zero(t, f.sessions.calls)
}

func TestBookOverlapRejected(t *testing.T) {
	f := newFixture(t)
	f.store.overlap = true

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Zero(t, f.sessions.calls, "no video session before the overlap check passes")
}

func TestBookVideoFailure(t *testing.T) {
	f := newFixture(t)
	f.sessions.err = errors.New("provider down")

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, ErrVideoSession)
	assert.Nil(t, f.store.booked)
}

func TestBookStoreConflict(t *testing.T) {
	f := newFixture(t)
	f.store.bookErr = ErrSlotUnavailable

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Empty(t, f.invalidator.doctorIDs)
	assert.Empty(t, f.notifier.confirmed)
}

func TestBookChargeRace(t *testing.T) {
	f := newFixture(t)
	f.store.bookErr = credits.ErrInsufficientCredits

	_, err := f.svc.Book(context.Background(), bookRequest())
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
}

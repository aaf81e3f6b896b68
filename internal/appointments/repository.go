package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medimeet/platform/internal/credits"
	"github.com/medimeet/platform/internal/schedule"
)

// exclusionViolation is the postgres error code raised by the gist
// exclusion constraint guarding (doctor_id, time range) overlap.
const exclusionViolation = "23P01"

// DB is the pgxpool subset the repository needs; pgxmock satisfies it.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists appointments and runs the booking transactions.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("appointments: db required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `id, patient_id, doctor_id, start_time, end_time, status,
	COALESCE(description, ''), COALESCE(video_session_id, ''), COALESCE(notes, ''),
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &a.EndTime, &a.Status,
		&a.Description, &a.VideoSessionID, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	return &a, nil
}

// HasOverlap reports whether the doctor already has a scheduled appointment
// strictly straddling [start, end). Appointments sharing only a boundary do
// not count as overlapping.
func (r *Repository) HasOverlap(ctx context.Context, doctorID string, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND status = 'SCHEDULED'
			  AND start_time < $3
			  AND end_time > $2
		)`, doctorID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("appointments: overlap check: %w", err)
	}
	return exists, nil
}

// Book charges the patient and inserts the appointment in one serializable
// transaction. The exclusion constraint on (doctor_id, time range) turns a
// lost race into ErrSlotUnavailable instead of a double booking; a failed
// charge leaves no appointment behind.
func (r *Repository) Book(ctx context.Context, req *BookRequest, videoSessionID string) (*Appointment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := credits.ChargeForAppointmentTx(ctx, tx, req.PatientID, req.DoctorID); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:             uuid.NewString(),
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         StatusScheduled,
		Description:    req.Description,
		VideoSessionID: videoSessionID,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, status, description, video_session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		appt.ID, appt.PatientID, appt.DoctorID, appt.StartTime, appt.EndTime,
		string(appt.Status), appt.Description, appt.VideoSessionID,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return appt, nil
}

// GetByID fetches a single appointment.
func (r *Repository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// Cancel transitions SCHEDULED -> CANCELLED and reverses the booking charge
// in the same transaction. The guarded update makes double cancellation
// surface as ErrNotScheduled.
func (r *Repository) Cancel(ctx context.Context, appt *Appointment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE appointments SET status = 'CANCELLED', updated_at = NOW()
		 WHERE id = $1 AND status = 'SCHEDULED'`, appt.ID)
	if err != nil {
		return fmt.Errorf("appointments: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotScheduled
	}

	if err := credits.ReverseAppointmentChargeTx(ctx, tx, appt.PatientID, appt.DoctorID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit: %w", err)
	}
	return nil
}

// Complete transitions SCHEDULED -> COMPLETED. Terminal states reject the
// transition via the guarded update.
func (r *Repository) Complete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET status = 'COMPLETED', updated_at = NOW()
		 WHERE id = $1 AND status = 'SCHEDULED'`, id)
	if err != nil {
		return fmt.Errorf("appointments: complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotScheduled
	}
	return nil
}

// UpdateNotes replaces the doctor-authored notes regardless of status.
func (r *Repository) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET notes = $2, updated_at = NOW()
		 WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("appointments: update notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ListForPatient returns the patient's appointments ordered by start time.
func (r *Repository) ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return r.list(ctx, `patient_id`, patientID)
}

// ListForDoctor returns the doctor's appointments ordered by start time.
func (r *Repository) ListForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return r.list(ctx, `doctor_id`, doctorID)
}

func (r *Repository) list(ctx context.Context, column, id string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE `+column+` = $1
		 ORDER BY start_time ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ScheduledIntervals feeds the slot generator with the doctor's booked
// ranges whose start falls inside [from, to).
func (r *Repository) ScheduledIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]schedule.Interval, error) {
	rows, err := r.db.Query(ctx,
		`SELECT start_time, end_time FROM appointments
		 WHERE doctor_id = $1
		   AND status = 'SCHEDULED'
		   AND start_time <= $3 AND end_time >= $2
		 ORDER BY start_time ASC`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: scheduled intervals: %w", err)
	}
	defer rows.Close()

	var out []schedule.Interval
	for rows.Next() {
		var iv schedule.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("appointments: scan interval: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

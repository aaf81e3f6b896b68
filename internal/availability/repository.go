package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the pgxpool subset the repository needs; pgxmock satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists availability windows.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("availability: db required")
	}
	return &Repository{db: db}
}

// SetWindow replaces the doctor's recurring window. Windows that no booked
// appointment falls inside are deleted; windows referenced by booking
// history persist untouched. Delete and insert run in one transaction.
func (r *Repository) SetWindow(ctx context.Context, doctorID string, start, end time.Time) (*Window, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`DELETE FROM availability_windows w
		 WHERE w.doctor_id = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM appointments a
		     WHERE a.doctor_id = w.doctor_id
		       AND a.status = 'SCHEDULED'
		       AND a.start_time::time >= w.start_time::time
		       AND a.end_time::time <= w.end_time::time
		   )`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: delete unused windows: %w", err)
	}

	window := &Window{
		ID:        uuid.NewString(),
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Status:    StatusAvailable,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO availability_windows (id, doctor_id, start_time, end_time, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		window.ID, window.DoctorID, window.StartTime, window.EndTime, string(window.Status),
	).Scan(&window.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("availability: insert window: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("availability: commit: %w", err)
	}
	return window, nil
}

// WindowForDoctor returns the doctor's most recent window.
func (r *Repository) WindowForDoctor(ctx context.Context, doctorID string) (*Window, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, doctor_id, start_time, end_time, status, created_at
		 FROM availability_windows
		 WHERE doctor_id = $1 AND status = 'AVAILABLE'
		 ORDER BY created_at DESC
		 LIMIT 1`, doctorID)

	var w Window
	if err := row.Scan(&w.ID, &w.DoctorID, &w.StartTime, &w.EndTime, &w.Status, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, fmt.Errorf("availability: load window: %w", err)
	}
	return &w, nil
}

// ListWindows returns all of the doctor's windows ordered by start time.
func (r *Repository) ListWindows(ctx context.Context, doctorID string) ([]*Window, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, doctor_id, start_time, end_time, status, created_at
		 FROM availability_windows
		 WHERE doctor_id = $1
		 ORDER BY start_time ASC`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: list windows: %w", err)
	}
	defer rows.Close()

	var out []*Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.StartTime, &w.EndTime, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("availability: scan window: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

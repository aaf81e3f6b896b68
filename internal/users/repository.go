package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists platform users.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("users: db required")
	}
	return &Repository{db: db}
}

const userColumns = `id, external_id, email, name, role, credits,
	COALESCE(specialty, ''), COALESCE(experience_years, 0),
	COALESCE(credential_url, ''), COALESCE(description, ''),
	COALESCE(verification_status, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.Credits,
		&u.Specialty, &u.ExperienceYears, &u.CredentialURL, &u.Description,
		&u.VerificationStatus, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return &u, nil
}

// GetByID fetches a user by platform id.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByExternalID fetches a user by the identity-provider id.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
	return scanUser(row)
}

// AssignPatientRole flips an unassigned user to the patient role.
func (r *Repository) AssignPatientRole(ctx context.Context, userID string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users SET role = 'PATIENT', updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns, userID)
	return scanUser(row)
}

// AssignDoctorRole flips a user to the doctor role with a pending profile.
func (r *Repository) AssignDoctorRole(ctx context.Context, req *AssignRoleRequest) (*User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET role = 'DOCTOR', specialty = $2, experience_years = $3,
		     credential_url = $4, description = $5,
		     verification_status = 'PENDING', updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		req.UserID, req.Specialty, req.ExperienceYears, req.CredentialURL, req.Description)
	return scanUser(row)
}

// ListDoctorsByStatus returns doctors in the given verification state.
// Pending doctors sort newest first (review queue), verified sort by name.
func (r *Repository) ListDoctorsByStatus(ctx context.Context, status VerificationStatus) ([]*User, error) {
	order := "name ASC"
	if status == VerificationPending {
		order = "created_at DESC"
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'DOCTOR' AND verification_status = $1
		 ORDER BY `+order, string(status))
	if err != nil {
		return nil, fmt.Errorf("users: list doctors: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListVerifiedDoctorsBySpecialty matches the specialty case-insensitively.
func (r *Repository) ListVerifiedDoctorsBySpecialty(ctx context.Context, specialty string) ([]*User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'DOCTOR' AND verification_status = 'VERIFIED'
		   AND LOWER(specialty) = LOWER(TRIM($1))
		 ORDER BY created_at ASC`, specialty)
	if err != nil {
		return nil, fmt.Errorf("users: list by specialty: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// SearchVerifiedDoctors matches doctor names case-insensitively.
func (r *Repository) SearchVerifiedDoctors(ctx context.Context, term string) ([]*User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'DOCTOR' AND verification_status = 'VERIFIED'
		   AND name ILIKE '%' || $1 || '%'
		 ORDER BY name ASC`, term)
	if err != nil {
		return nil, fmt.Errorf("users: search doctors: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// GetVerifiedDoctor fetches a doctor that has passed verification.
func (r *Repository) GetVerifiedDoctor(ctx context.Context, doctorID string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id = $1 AND role = 'DOCTOR' AND verification_status = 'VERIFIED'`, doctorID)
	u, err := scanUser(row)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrDoctorNotFound
	}
	return u, err
}

// UpdateVerificationStatus moves a doctor through the review workflow.
func (r *Repository) UpdateVerificationStatus(ctx context.Context, doctorID string, status VerificationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET verification_status = $2, updated_at = NOW()
		 WHERE id = $1 AND role = 'DOCTOR'`, doctorID, string(status))
	if err != nil {
		return fmt.Errorf("users: update verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResolveDoctorID maps an identity-provider id to the platform id of a
// doctor account. Used by handlers acting on "the calling doctor".
func (r *Repository) ResolveDoctorID(ctx context.Context, externalID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE external_id = $1 AND role = 'DOCTOR'`, externalID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrDoctorNotFound
		}
		return "", fmt.Errorf("users: resolve doctor: %w", err)
	}
	return id, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

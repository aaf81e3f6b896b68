package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medimeet/platform/internal/identity"
)

// Transaction is one append-only ledger entry. The signed amount credits
// (positive) or debits (negative) the user; the user's cached balance is
// the running sum of their entries.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Amount    int             `json:"amount"`
	Type      TransactionType `json:"type"`
	PackageID string          `json:"package_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// DB is the pgxpool subset the repository needs; pgxmock satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists ledger entries and cached balances.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("credits: db required")
	}
	return &Repository{db: db}
}

// LatestTransaction returns the user's most recent ledger entry, or nil
// when the ledger is empty.
func (r *Repository) LatestTransaction(ctx context.Context, userID string) (*Transaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, amount, type, COALESCE(package_id, ''), created_at
		 FROM credit_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, userID)

	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.PackageID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("credits: latest transaction: %w", err)
	}
	return &t, nil
}

// Allocate appends a CREDIT_PURCHASE entry and atomically increments the
// user's balance in one transaction. Returns the new balance.
func (r *Repository) Allocate(ctx context.Context, userID string, amount int, packageID string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("credits: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := appendTransaction(ctx, tx, userID, amount, TypeCreditPurchase, packageID); err != nil {
		return 0, err
	}

	var balance int
	err = tx.QueryRow(ctx,
		`UPDATE users SET credits = credits + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING credits`, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("credits: increment balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("credits: commit: %w", err)
	}
	return balance, nil
}

// ChargeForAppointmentTx moves the appointment fee from patient to doctor
// inside the caller's transaction: two signed ledger entries plus two
// atomic balance updates. The patient decrement is guarded so a concurrent
// spend can never push the balance negative.
func ChargeForAppointmentTx(ctx context.Context, tx pgx.Tx, patientID, doctorID string) error {
	var remaining int
	err := tx.QueryRow(ctx,
		`UPDATE users SET credits = credits - $2, updated_at = NOW()
		 WHERE id = $1 AND credits >= $2
		 RETURNING credits`, patientID, AppointmentCost).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientCredits
		}
		return fmt.Errorf("credits: charge patient: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $2, updated_at = NOW()
		 WHERE id = $1`, doctorID, AppointmentCost)
	if err != nil {
		return fmt.Errorf("credits: pay doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := appendTransaction(ctx, tx, patientID, -AppointmentCost, TypeAppointmentDeduction, ""); err != nil {
		return err
	}
	return appendTransaction(ctx, tx, doctorID, AppointmentCost, TypeAppointmentDeduction, "")
}

// ReverseAppointmentChargeTx undoes a booking charge on cancellation:
// the patient is refunded the fee and the doctor's earned fee is reversed,
// keeping the ledger sum unchanged. Runs inside the caller's transaction
// alongside the status change.
func ReverseAppointmentChargeTx(ctx context.Context, tx pgx.Tx, patientID, doctorID string) error {
	if err := refundOrDeductTx(ctx, tx, patientID, identity.RolePatient, AppointmentCost); err != nil {
		return err
	}
	return refundOrDeductTx(ctx, tx, doctorID, identity.RoleDoctor, AppointmentCost)
}

// refundOrDeductTx applies one side of a cancellation: patients get the
// amount credited back, doctors get it debited.
func refundOrDeductTx(ctx context.Context, tx pgx.Tx, userID string, role identity.Role, amount int) error {
	signed := amount
	if role == identity.RoleDoctor {
		signed = -amount
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $2, updated_at = NOW()
		 WHERE id = $1`, userID, signed)
	if err != nil {
		return fmt.Errorf("credits: adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return appendTransaction(ctx, tx, userID, signed, TypeAppointmentDeduction, "")
}

func appendTransaction(ctx context.Context, tx pgx.Tx, userID string, amount int, txType TransactionType, packageID string) error {
	var pkg any
	if packageID != "" {
		pkg = packageID
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO credit_transactions (id, user_id, amount, type, package_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), userID, amount, string(txType), pkg)
	if err != nil {
		return fmt.Errorf("credits: append transaction: %w", err)
	}
	return nil
}

package credits

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/users"
)

func newTestLedger(t *testing.T) (*Ledger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	ledger := NewLedger(NewRepository(mock), nil, nil)
	ledger.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return ledger, mock
}

func patientUser() *users.User {
	return &users.User{ID: "user-1", Role: identity.RolePatient, Credits: 4}
}

func expectLatest(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, amount, type, COALESCE(package_id, ''), created_at`)).
		WithArgs("user-1").
		WillReturnRows(rows)
}

func expectAllocate(mock pgxmock.PgxPoolIface, amount int, plan string, balance int) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_transactions`)).
		WithArgs(pgxmock.AnyArg(), "user-1", amount, "CREDIT_PURCHASE", plan).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET credits = credits + $2`)).
		WithArgs("user-1", amount).
		WillReturnRows(pgxmock.NewRows([]string{"credits"}).AddRow(balance))
	mock.ExpectCommit()
}

func TestAllocateMonthlyFirstOfMonth(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, amount, type, COALESCE(package_id, ''), created_at`)).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)
	expectAllocate(mock, 10, PlanStandard, 14)

	caller := identity.Identity{UserID: "ext-1", Role: identity.RolePatient, Plans: []string{PlanStandard}}
	updated, err := ledger.AllocateMonthly(context.Background(), patientUser(), caller)
	require.NoError(t, err)
	assert.Equal(t, 14, updated.Credits)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateMonthlyIdempotentWithinMonth(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectLatest(mock, pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "package_id", "created_at"}).
		AddRow("tx-1", "user-1", 10, "CREDIT_PURCHASE", PlanStandard,
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	caller := identity.Identity{UserID: "ext-1", Role: identity.RolePatient, Plans: []string{PlanStandard}}
	user := patientUser()
	updated, err := ledger.AllocateMonthly(context.Background(), user, caller)
	require.NoError(t, err)
	assert.Equal(t, user.Credits, updated.Credits, "no second allocation within the month")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateMonthlyNewMonth(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectLatest(mock, pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "package_id", "created_at"}).
		AddRow("tx-1", "user-1", 10, "CREDIT_PURCHASE", PlanStandard,
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	expectAllocate(mock, 10, PlanStandard, 14)

	caller := identity.Identity{UserID: "ext-1", Role: identity.RolePatient, Plans: []string{PlanStandard}}
	updated, err := ledger.AllocateMonthly(context.Background(), patientUser(), caller)
	require.NoError(t, err)
	assert.Equal(t, 14, updated.Credits)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateMonthlyPlanChangeWithinMonth(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectLatest(mock, pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "package_id", "created_at"}).
		AddRow("tx-1", "user-1", 10, "CREDIT_PURCHASE", PlanStandard,
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	expectAllocate(mock, 24, PlanPremium, 28)

	caller := identity.Identity{UserID: "ext-1", Role: identity.RolePatient, Plans: []string{PlanPremium}}
	updated, err := ledger.AllocateMonthly(context.Background(), patientUser(), caller)
	require.NoError(t, err)
	assert.Equal(t, 28, updated.Credits)
}

func TestAllocateMonthlyNonPatientPassThrough(t *testing.T) {
	ledger, mock := newTestLedger(t)

	doctor := &users.User{ID: "doc-1", Role: identity.RoleDoctor, Credits: 6}
	caller := identity.Identity{UserID: "ext-2", Role: identity.RoleDoctor, Plans: []string{PlanPremium}}

	updated, err := ledger.AllocateMonthly(context.Background(), doctor, caller)
	require.NoError(t, err)
	assert.Same(t, doctor, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateMonthlyNoPlan(t *testing.T) {
	ledger, mock := newTestLedger(t)

	caller := identity.Identity{UserID: "ext-1", Role: identity.RolePatient}
	user := patientUser()
	updated, err := ledger.AllocateMonthly(context.Background(), user, caller)
	require.NoError(t, err)
	assert.Same(t, user, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanEntitlements(t *testing.T) {
	assert.Equal(t, 0, PlanCredits[PlanFree])
	assert.Equal(t, 10, PlanCredits[PlanStandard])
	assert.Equal(t, 24, PlanCredits[PlanPremium])
	assert.Equal(t, 2, AppointmentCost)
}

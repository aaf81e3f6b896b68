package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medimeet/platform/pkg/logging"
)

func expectCount(mock sqlmock.Sqlmock, query string, value int) {
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(value))
}

func TestGetOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewDashboardHandler(db, logging.Default())
	handler.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR'`, 12)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'VERIFIED'`, 8)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'PENDING'`, 3)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'REJECTED'`, 1)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'PATIENT'`, 40)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'PATIENT' AND created_at >= $1`, 5)
	expectCount(mock, `SELECT COUNT(*) FROM appointments`, 100)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED'`, 20)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'COMPLETED'`, 70)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'CANCELLED'`, 10)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED' AND start_time > $1`, 15)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE start_time >= $1 AND start_time < $2`, 9)
	expectCount(mock, `SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE amount > 0 AND created_at >= $1`, 120)
	expectCount(mock, `SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE amount < 0 AND created_at >= $1`, -36)
	expectCount(mock, `SELECT COUNT(*) FROM credit_transactions WHERE created_at >= $1`, 60)
	// pending actions
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'PENDING'`, 3)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED' AND end_time < $1`, 0)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()

	handler.GetOverview(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp OverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, 12, resp.Doctors.Total)
	assert.Equal(t, 8, resp.Doctors.Verified)
	assert.Equal(t, 3, resp.Doctors.Pending)
	assert.Equal(t, 1, resp.Doctors.Rejected)
	assert.Equal(t, 40, resp.Patients.Total)
	assert.Equal(t, 5, resp.Patients.NewThisWeek)
	assert.Equal(t, 100, resp.Appointments.Total)
	assert.Equal(t, 20, resp.Appointments.Scheduled)
	assert.Equal(t, 15, resp.Appointments.Upcoming)
	assert.Equal(t, 120, resp.Credits.IssuedThisMonth)
	assert.Equal(t, 36, resp.Credits.SpentThisMonth)
	assert.Equal(t, 60, resp.Credits.TransactionCount)

	require.Len(t, resp.PendingActions, 1)
	assert.Equal(t, "verification", resp.PendingActions[0].Type)
	assert.Equal(t, 3, resp.PendingActions[0].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOverviewStaleAppointmentsAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewDashboardHandler(db, logging.Default())

	// The overview queries are best effort; leave them unmatched and only
	// seed the pending-action counts.
	mock.MatchExpectationsInOrder(false)
	expectCount(mock, `SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'PENDING'`, 0)
	expectCount(mock, `SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED' AND end_time < $1`, 4)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()

	handler.GetOverview(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp OverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	require.Len(t, resp.PendingActions, 1)
	assert.Equal(t, "appointments", resp.PendingActions[0].Type)
	assert.Equal(t, 4, resp.PendingActions[0].Count)
}

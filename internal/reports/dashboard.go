package reports

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/medimeet/platform/pkg/logging"
)

// DashboardHandler serves the admin platform overview. It reads through a
// plain database/sql connection so the aggregate queries stay independent
// of the transactional repositories.
type DashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewDashboardHandler creates the admin dashboard handler.
func NewDashboardHandler(db *sql.DB, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// OverviewResponse contains the main dashboard metrics.
type OverviewResponse struct {
	Period         string             `json:"period"`
	Doctors        DoctorMetrics      `json:"doctors"`
	Patients       PatientMetrics     `json:"patients"`
	Appointments   AppointmentMetrics `json:"appointments"`
	Credits        CreditMetrics      `json:"credits"`
	PendingActions []PendingAction    `json:"pending_actions"`
}

// DoctorMetrics breaks the doctor population down by verification status.
type DoctorMetrics struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// PatientMetrics summarizes the patient population.
type PatientMetrics struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
}

// AppointmentMetrics breaks appointments down by status and recency.
type AppointmentMetrics struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Upcoming  int `json:"upcoming"`
	ThisWeek  int `json:"this_week"`
}

// CreditMetrics summarizes ledger activity.
type CreditMetrics struct {
	IssuedThisMonth  int `json:"issued_this_month"`
	SpentThisMonth   int `json:"spent_this_month"`
	TransactionCount int `json:"transaction_count"`
}

// PendingAction represents an item requiring admin attention.
type PendingAction struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Link        string `json:"link,omitempty"`
}

// GetOverview returns the platform overview.
// GET /admin/dashboard
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overview := OverviewResponse{Period: "week"}

	now := h.now()
	weekAgo := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'DOCTOR'`,
	).Scan(&overview.Doctors.Total)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'VERIFIED'`,
	).Scan(&overview.Doctors.Verified)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'PENDING'`,
	).Scan(&overview.Doctors.Pending)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'REJECTED'`,
	).Scan(&overview.Doctors.Rejected)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'PATIENT'`,
	).Scan(&overview.Patients.Total)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'PATIENT' AND created_at >= $1`, weekAgo,
	).Scan(&overview.Patients.NewThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments`,
	).Scan(&overview.Appointments.Total)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED'`,
	).Scan(&overview.Appointments.Scheduled)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = 'COMPLETED'`,
	).Scan(&overview.Appointments.Completed)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = 'CANCELLED'`,
	).Scan(&overview.Appointments.Cancelled)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED' AND start_time > $1`, now,
	).Scan(&overview.Appointments.Upcoming)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE start_time >= $1 AND start_time < $2`, weekAgo, now,
	).Scan(&overview.Appointments.ThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE amount > 0 AND created_at >= $1`, monthStart,
	).Scan(&overview.Credits.IssuedThisMonth)
	var spent int
	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE amount < 0 AND created_at >= $1`, monthStart,
	).Scan(&spent)
	overview.Credits.SpentThisMonth = -spent
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_transactions WHERE created_at >= $1`, monthStart,
	).Scan(&overview.Credits.TransactionCount)

	overview.PendingActions = h.pendingActions(r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(overview); err != nil {
		h.logger.Error("failed to encode dashboard overview", "error", err)
	}
}

func (h *DashboardHandler) pendingActions(r *http.Request) []PendingAction {
	var actions []PendingAction

	var pendingDoctors int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM users WHERE role = 'DOCTOR' AND verification_status = 'PENDING'`,
	).Scan(&pendingDoctors)
	if pendingDoctors > 0 {
		actions = append(actions, PendingAction{
			Type:        "verification",
			Priority:    "high",
			Description: "Doctor verification requests awaiting review",
			Count:       pendingDoctors,
			Link:        "/admin/doctors/pending",
		})
	}

	var staleAppointments int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'SCHEDULED' AND end_time < $1`, h.now().AddDate(0, 0, -1),
	).Scan(&staleAppointments)
	if staleAppointments > 0 {
		actions = append(actions, PendingAction{
			Type:        "appointments",
			Priority:    "medium",
			Description: "Appointments past their end time still marked scheduled",
			Count:       staleAppointments,
		})
	}

	return actions
}

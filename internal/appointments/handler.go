package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medimeet/platform/internal/credits"
	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/pkg/logging"
)

// CallerResolver maps the external caller identity to a platform user.
type CallerResolver interface {
	GetByExternalID(ctx context.Context, externalID string) (*users.User, error)
}

// Handler serves the appointment booking and workflow endpoints.
type Handler struct {
	service  *Service
	resolver CallerResolver
	logger   *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(service *Service, resolver CallerResolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, resolver: resolver, logger: logger}
}

func (h *Handler) resolveCaller(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return nil, false
	}
	user, err := h.resolver.GetByExternalID(r.Context(), caller.UserID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return nil, false
	}
	return user, true
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.PatientID = user.ID

	appt, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "appointment": appt})
}

// ListMine handles GET /appointments; patients see their bookings, doctors
// their schedule.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}

	var (
		appts []*Appointment
		err   error
	)
	switch user.Role {
	case identity.RoleDoctor:
		appts, err = h.service.ListForDoctor(r.Context(), user.ID)
	case identity.RolePatient:
		appts, err = h.service.ListForPatient(r.Context(), user.ID)
	default:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts, "count": len(appts)})
}

// Cancel handles POST /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}

	appt, err := h.service.Cancel(r.Context(), user.ID, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointment": appt})
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}

	appt, err := h.service.Complete(r.Context(), user.ID, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointment": appt})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// AddNotes handles PUT /appointments/{appointmentID}/notes.
func (h *Handler) AddNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}

	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.AddNotes(r.Context(), user.ID, chi.URLParam(r, "appointmentID"), req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointment": appt})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, users.ErrDoctorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMissingDoctor), errors.Is(err, ErrInvalidInterval):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrNotScheduled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, credits.ErrInsufficientCredits):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, ErrNotParty):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotYetEnded):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
	case errors.Is(err, ErrVideoSession):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("appointments request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/pkg/logging"
)

// DoctorResolver maps the external caller identity to a doctor's platform id.
type DoctorResolver interface {
	ResolveDoctorID(ctx context.Context, externalID string) (string, error)
}

// CacheInvalidator drops cached slot schedules after a window change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, doctorID string)
}

// Handler serves the doctor's availability endpoints.
type Handler struct {
	repo        *Repository
	invalidator CacheInvalidator
	resolver    DoctorResolver
	logger      *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(repo *Repository, resolver DoctorResolver, invalidator CacheInvalidator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, resolver: resolver, invalidator: invalidator, logger: logger}
}

// SetWindow handles PUT /doctor/availability.
func (h *Handler) SetWindow(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return
	}

	doctorID, err := h.resolver.ResolveDoctorID(r.Context(), caller.UserID)
	if err != nil {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}

	var req SetWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	window, err := h.repo.SetWindow(r.Context(), doctorID, req.StartTime, req.EndTime)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate(r.Context(), doctorID)
	}

	h.logger.Info("availability window set",
		"doctor_id", doctorID,
		"start", window.StartTime,
		"end", window.EndTime,
	)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "window": window})
}

// ListWindows handles GET /doctor/availability.
func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return
	}

	doctorID, err := h.resolver.ResolveDoctorID(r.Context(), caller.UserID)
	if err != nil {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}

	windows, err := h.repo.ListWindows(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "windows": windows})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWindowNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTimeInput), errors.Is(err, ErrStartAfterEnd):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("availability request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/pkg/logging"
)

// CreditAllocator grants monthly plan credits when a patient profile loads.
type CreditAllocator interface {
	AllocateMonthly(ctx context.Context, user *User, caller identity.Identity) (*User, error)
}

// Handler serves user, onboarding and admin verification endpoints.
type Handler struct {
	repo      *Repository
	allocator CreditAllocator
	logger    *logging.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository, allocator CreditAllocator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, allocator: allocator, logger: logger}
}

// Me returns the acting user, topping up monthly plan credits for patients.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return
	}

	user, err := h.repo.GetByExternalID(r.Context(), caller.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.allocator != nil {
		if updated, err := h.allocator.AllocateMonthly(r.Context(), user, caller); err != nil {
			// Allocation failures never block profile loads.
			h.logger.Error("monthly credit allocation failed", "error", err, "user_id", user.ID)
		} else {
			user = updated
		}
	}

	writeJSON(w, http.StatusOK, user)
}

// AssignRole handles POST /onboarding/role.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return
	}

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.repo.GetByExternalID(r.Context(), caller.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	req.UserID = user.ID

	var updated *User
	switch identity.Role(req.Role) {
	case identity.RolePatient:
		updated, err = h.repo.AssignPatientRole(r.Context(), user.ID)
	case identity.RoleDoctor:
		updated, err = h.repo.AssignDoctorRole(r.Context(), &req)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("role assigned", "user_id", user.ID, "role", req.Role)
	writeJSON(w, http.StatusOK, updated)
}

// ListDoctorsBySpecialty handles GET /doctors?specialty=...
func (h *Handler) ListDoctorsBySpecialty(w http.ResponseWriter, r *http.Request) {
	specialty := r.URL.Query().Get("specialty")
	if specialty == "" {
		http.Error(w, "specialty is required", http.StatusBadRequest)
		return
	}
	doctors, err := h.repo.ListVerifiedDoctorsBySpecialty(r.Context(), specialty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorList{Doctors: doctors, Count: len(doctors)})
}

// GetDoctor handles GET /doctors/{doctorID}.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	doctor, err := h.repo.GetVerifiedDoctor(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// ListPendingDoctors handles GET /admin/doctors/pending.
func (h *Handler) ListPendingDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.repo.ListDoctorsByStatus(r.Context(), VerificationPending)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorList{Doctors: doctors, Count: len(doctors)})
}

// ListVerifiedDoctors handles GET /admin/doctors/verified, with optional
// name search via ?q=.
func (h *Handler) ListVerifiedDoctors(w http.ResponseWriter, r *http.Request) {
	var (
		doctors []*User
		err     error
	)
	if term := r.URL.Query().Get("q"); term != "" {
		doctors, err = h.repo.SearchVerifiedDoctors(r.Context(), term)
	} else {
		doctors, err = h.repo.ListDoctorsByStatus(r.Context(), VerificationVerified)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorList{Doctors: doctors, Count: len(doctors)})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateDoctorStatus handles POST /admin/doctors/{doctorID}/status.
func (h *Handler) UpdateDoctorStatus(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	status := VerificationStatus(req.Status)
	switch status {
	case VerificationPending, VerificationVerified, VerificationRejected:
	default:
		h.writeError(w, ErrInvalidVerificationStatus)
		return
	}

	if err := h.repo.UpdateVerificationStatus(r.Context(), doctorID, status); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("doctor verification updated", "doctor_id", doctorID, "status", status)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type suspendRequest struct {
	Suspend bool `json:"suspend"`
}

// SetDoctorSuspension handles POST /admin/doctors/{doctorID}/suspension.
// Suspending a doctor drops them back to the pending pool.
func (h *Handler) SetDoctorSuspension(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")

	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	status := VerificationVerified
	if req.Suspend {
		status = VerificationPending
	}
	if err := h.repo.UpdateVerificationStatus(r.Context(), doctorID, status); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("doctor suspension updated", "doctor_id", doctorID, "suspended", req.Suspend)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type doctorList struct {
	Doctors []*User `json:"doctors"`
	Count   int     `json:"count"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrDoctorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrIncompleteDoctorProfile),
		errors.Is(err, ErrInvalidVerificationStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("users request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

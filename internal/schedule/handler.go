package schedule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medimeet/platform/internal/availability"
	"github.com/medimeet/platform/pkg/logging"
)

// Handler serves the public slot discovery endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// GetSlots handles GET /doctors/{doctorID}/slots.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}

	days, err := h.service.DaySchedule(r.Context(), doctorID)
	if err != nil {
		if errors.Is(err, availability.ErrWindowNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("slot generation failed", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to load slots", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"days": days})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/schedule"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

type technicianDirectory interface {
	ListTechnicians(ctx context.Context) ([]identity.User, error)
}

// TechniciansHandler serves the public browse surface: the technician
// directory and per-technician schedules, plus the technician's own
// slot-block toggle.
type TechniciansHandler struct {
	directory technicianDirectory
	bookings  *appointments.Service
	logger    *logging.Logger
}

func NewTechniciansHandler(directory technicianDirectory, bookings *appointments.Service, logger *logging.Logger) *TechniciansHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TechniciansHandler{directory: directory, bookings: bookings, logger: logger}
}

// List returns all technicians.
// GET /api/technicians
func (h *TechniciansHandler) List(w http.ResponseWriter, r *http.Request) {
	techs, err := h.directory.ListTechnicians(r.Context())
	if err != nil {
		h.logger.Error("technician list failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if techs == nil {
		techs = []identity.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"technicians": techs})
}

// Schedule returns a technician's day schedules for browsing.
// GET /api/technicians/{techID}/schedule
func (h *TechniciansHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	techID := chi.URLParam(r, "techID")
	days, err := h.bookings.TechnicianSchedule(r.Context(), techID)
	if err != nil {
		h.logger.Error("schedule read failed", "technician_id", techID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []schedule.DaySchedule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"technician_id": techID, "days": days})
}

type blockRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ToggleBlock flips the blocked flag on one of the caller's own slots.
// POST /api/schedule/block
func (h *TechniciansHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Time == "" {
		jsonError(w, "date and time are required", http.StatusBadRequest)
		return
	}

	day, err := h.bookings.ToggleBlock(r.Context(), user, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, appointments.ErrSlotUnavailable) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("slot block toggle failed", "technician_id", user.ID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

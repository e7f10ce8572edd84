package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// AppointmentsHandler exposes the booking lifecycle over HTTP.
type AppointmentsHandler struct {
	svc    *appointments.Service
	logger *logging.Logger
}

func NewAppointmentsHandler(svc *appointments.Service, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{svc: svc, logger: logger}
}

// Book creates an appointment for the authenticated client.
// POST /api/appointments
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var in appointments.BookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := in.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), user, in)
	if err != nil {
		h.renderBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// List returns the caller's appointments, keyed off their role.
// GET /api/appointments
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var (
		list []appointments.Appointment
		err  error
	)
	if user.Role == identity.RoleTechnician {
		list, err = h.svc.ListForTechnician(r.Context(), user.ID)
	} else {
		list, err = h.svc.ListForClient(r.Context(), user.ID)
	}
	if err != nil {
		h.logger.Error("appointment list failed", "user_id", user.ID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []appointments.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

// Get returns one appointment visible to the caller.
// GET /api/appointments/{id}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	appt, err := h.svc.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		h.renderBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel cancels an appointment. Clients are held to the advance-notice
// window; technicians and moderators are not.
// POST /api/appointments/{id}/cancel
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req cancelRequest
	if r.Body != nil {
		// An empty body is fine; the reason is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.Cancel(r.Context(), user, chi.URLParam(r, "id"), req.Reason); err != nil {
		h.renderBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(appointments.StatusCancelled)})
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// UpdateStatus moves an appointment through its lifecycle.
// POST /api/appointments/{id}/status
func (h *AppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	err := h.svc.UpdateStatus(r.Context(), user, chi.URLParam(r, "id"), appointments.Status(req.Status), req.Reason)
	if err != nil {
		h.renderBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *AppointmentsHandler) renderBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointments.ErrSlotUnavailable):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, appointments.ErrCancelWindowClosed):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, appointments.ErrNotFound), errors.Is(err, identity.ErrUserNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, appointments.ErrForbidden):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, appointments.ErrUnknownStatus):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointment operation failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

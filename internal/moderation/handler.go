package moderation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/audit"
	"github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// Handler serves the /moderator route group. The router gates it to the
// moderator role before any of these run.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the dashboard endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/disputes", h.ListDisputes)
	r.Post("/disputes/{id}/resolve", h.ResolveDispute)
	r.Get("/disputes/{id}/audit", h.DisputeAudit)
	r.Get("/stats", h.Stats)
}

// ListDisputes returns the open dispute queue.
// GET /moderator/disputes
func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	queue, err := h.svc.Queue(r.Context())
	if err != nil {
		h.logger.Error("dispute queue read failed", "error", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if queue == nil {
		queue = []DisputedAppointment{}
	}
	writeBody(w, http.StatusOK, map[string]any{"disputes": queue})
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
	Note       string `json:"note,omitempty"`
}

// ResolveDispute closes one dispute.
// POST /moderator/disputes/{id}/resolve
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	moderator, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	err := h.svc.Resolve(r.Context(), moderator, chi.URLParam(r, "id"), appointments.Status(req.Resolution), req.Note)
	switch {
	case err == nil:
		writeBody(w, http.StatusOK, map[string]string{"status": req.Resolution})
	case errors.Is(err, appointments.ErrUnknownStatus):
		writeError(w, "resolution must be COMPLETED or CANCELLED", http.StatusBadRequest)
	case errors.Is(err, appointments.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("dispute resolution failed", "error", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

// DisputeAudit returns the audit trail for one appointment.
// GET /moderator/disputes/{id}/audit
func (h *Handler) DisputeAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("audit trail read failed", "error", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeBody(w, http.StatusOK, map[string]any{"events": events})
}

// Stats returns the platform overview.
// GET /moderator/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats read failed", "error", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeBody(w, http.StatusOK, stats)
}

func writeBody(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeBody(w, status, map[string]string{"error": message})
}

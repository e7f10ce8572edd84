package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/internal/reviews"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// ReviewsHandler exposes review submission and moderation-adjacent edits.
type ReviewsHandler struct {
	svc    *reviews.Service
	logger *logging.Logger
}

func NewReviewsHandler(svc *reviews.Service, logger *logging.Logger) *ReviewsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReviewsHandler{svc: svc, logger: logger}
}

type createReviewRequest struct {
	TechnicianID string   `json:"technician_id"`
	Rating       int      `json:"rating"`
	Comment      string   `json:"comment,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Create submits a review. An ineligible client gets a 403 with the
// displayable reason rather than a server error.
// POST /api/reviews
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.TechnicianID == "" {
		jsonError(w, "technician_id is required", http.StatusBadRequest)
		return
	}

	rv, elig, err := h.svc.Create(r.Context(), user, req.TechnicianID, req.Rating, req.Comment, req.Tags)
	if err != nil {
		h.renderReviewError(w, err)
		return
	}
	if !elig.Allowed {
		jsonError(w, elig.Reason, http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

type editReviewRequest struct {
	Rating  int      `json:"rating"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Edit rewrites the caller's own review.
// PUT /api/reviews/{id}
func (h *ReviewsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req editReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.svc.Edit(r.Context(), user, chi.URLParam(r, "id"), req.Rating, req.Comment, req.Tags); err != nil {
		h.renderReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type replyRequest struct {
	Text string `json:"text"`
}

// Reply attaches the technician's response to a review about them.
// POST /api/reviews/{id}/reply
func (h *ReviewsHandler) Reply(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.ReplyTo(r.Context(), user, chi.URLParam(r, "id"), req.Text); err != nil {
		h.renderReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "replied"})
}

// Delete soft-deletes a review.
// DELETE /api/reviews/{id}
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		h.renderReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TechnicianReviews lists a technician's visible reviews with the mean
// rating. Public browse surface.
// GET /api/technicians/{techID}/reviews
func (h *ReviewsHandler) TechnicianReviews(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.TechnicianSummary(r.Context(), chi.URLParam(r, "techID"))
	if err != nil {
		h.logger.Error("review summary failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if summary.Reviews == nil {
		summary.Reviews = []reviews.Review{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReviewsHandler) renderReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviews.ErrInvalidRating):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reviews.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, reviews.ErrForbidden):
		jsonError(w, err.Error(), http.StatusForbidden)
	default:
		h.logger.Error("review operation failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

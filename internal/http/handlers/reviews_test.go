package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/reviews"
)

func completedAppointment(id string) appointments.Appointment {
	return appointments.Appointment{
		ID: id, ClientID: "client-1", TechnicianID: "tech-1",
		Status: appointments.StatusCompleted,
	}
}

func TestCreateReviewAfterCompletedRepair(t *testing.T) {
	fx := newFixture(t)
	fx.appts.byID["appt-1"] = completedAppointment("appt-1")
	h := NewReviewsHandler(fx.reviews, nil)

	body := `{"technician_id":"tech-1","rating":5,"comment":"fixed in an hour","tags":["screen"]}`
	rec := doRequest(t, h.Create, http.MethodPost, "/api/reviews", body, &handlerClient, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rv reviews.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &rv); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rv.ClientName != "Ada Chen" || rv.Rating != 5 {
		t.Fatalf("unexpected review %+v", rv)
	}
}

func TestCreateReviewWithoutServiceIsForbidden(t *testing.T) {
	fx := newFixture(t)
	h := NewReviewsHandler(fx.reviews, nil)

	body := `{"technician_id":"tech-1","rating":5}`
	rec := doRequest(t, h.Create, http.MethodPost, "/api/reviews", body, &handlerClient, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "completed repair") {
		t.Fatalf("expected displayable reason, got %s", rec.Body.String())
	}
}

func TestCreateReviewTwiceIsForbidden(t *testing.T) {
	fx := newFixture(t)
	fx.appts.byID["appt-1"] = completedAppointment("appt-1")
	h := NewReviewsHandler(fx.reviews, nil)

	body := `{"technician_id":"tech-1","rating":5}`
	rec := doRequest(t, h.Create, http.MethodPost, "/api/reviews", body, &handlerClient, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first review: status = %d", rec.Code)
	}

	rec = doRequest(t, h.Create, http.MethodPost, "/api/reviews", body, &handlerClient, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second review: status = %d, want 403", rec.Code)
	}
}

func TestCreateReviewRejectsBadRating(t *testing.T) {
	fx := newFixture(t)
	h := NewReviewsHandler(fx.reviews, nil)

	body := `{"technician_id":"tech-1","rating":9}`
	rec := doRequest(t, h.Create, http.MethodPost, "/api/reviews", body, &handlerClient, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReplyOnlyByReviewedTechnician(t *testing.T) {
	fx := newFixture(t)
	fx.revs.byID["rv-1"] = reviews.Review{ID: "rv-1", ClientID: "client-1", TechnicianID: "tech-1", Rating: 5}
	h := NewReviewsHandler(fx.reviews, nil)

	rec := doRequest(t, h.Reply, http.MethodPost, "/api/reviews/rv-1/reply", `{"text":"thanks!"}`, &handlerTech, map[string]string{"id": "rv-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("technician reply: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fx.revs.byID["rv-1"].Reply == nil {
		t.Fatal("reply not stored")
	}

	rec = doRequest(t, h.Reply, http.MethodPost, "/api/reviews/rv-1/reply", `{"text":"me too"}`, &handlerClient, map[string]string{"id": "rv-1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client reply: status = %d, want 403", rec.Code)
	}
}

func TestDeleteReviewHidesItFromSummary(t *testing.T) {
	fx := newFixture(t)
	fx.revs.byID["rv-1"] = reviews.Review{ID: "rv-1", ClientID: "client-1", TechnicianID: "tech-1", Rating: 5}
	h := NewReviewsHandler(fx.reviews, nil)

	rec := doRequest(t, h.Delete, http.MethodDelete, "/api/reviews/rv-1", "", &handlerClient, map[string]string{"id": "rv-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = doRequest(t, h.TechnicianReviews, http.MethodGet, "/api/technicians/tech-1/reviews", "", nil, map[string]string{"techID": "tech-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status = %d", rec.Code)
	}
	var summary reviews.RatingSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 0 || summary.Average != 0 {
		t.Fatalf("deleted review still visible: %+v", summary)
	}
}

func TestTechnicianReviewsAggregates(t *testing.T) {
	fx := newFixture(t)
	fx.revs.byID["rv-1"] = reviews.Review{ID: "rv-1", ClientID: "client-1", TechnicianID: "tech-1", Rating: 5}
	fx.revs.byID["rv-2"] = reviews.Review{ID: "rv-2", ClientID: "client-2", TechnicianID: "tech-1", Rating: 3}
	h := NewReviewsHandler(fx.reviews, nil)

	rec := doRequest(t, h.TechnicianReviews, http.MethodGet, "/api/technicians/tech-1/reviews", "", nil, map[string]string{"techID": "tech-1"})
	var summary reviews.RatingSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 2 || summary.Average != 4 {
		t.Fatalf("summary = %+v, want count 2 average 4", summary)
	}
}

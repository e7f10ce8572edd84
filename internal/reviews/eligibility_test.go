package reviews

import (
	"testing"

	"github.com/fixloop/fixloop-platform/internal/appointments"
)

func TestValidateEligibilityNoCompletedAppointment(t *testing.T) {
	appts := []appointments.Appointment{
		{ClientID: "c1", TechnicianID: "t1", Status: appointments.StatusConfirmed},
		{ClientID: "c1", TechnicianID: "t2", Status: appointments.StatusCompleted},
		{ClientID: "c2", TechnicianID: "t1", Status: appointments.StatusCompleted},
	}

	got := ValidateEligibility(appts, nil, "c1", "t1")
	if got.Allowed {
		t.Fatal("expected denial without a completed appointment")
	}
	if got.Reason != ReasonNotServed {
		t.Fatalf("expected not-served reason, got %q", got.Reason)
	}
}

func TestValidateEligibilityAlreadyReviewed(t *testing.T) {
	appts := []appointments.Appointment{
		{ClientID: "c1", TechnicianID: "t1", Status: appointments.StatusCompleted},
	}
	existing := []Review{{ClientID: "c1", TechnicianID: "t1", Rating: 5}}

	got := ValidateEligibility(appts, existing, "c1", "t1")
	if got.Allowed {
		t.Fatal("expected denial for duplicate review")
	}
	if got.Reason != ReasonAlreadyReviewed {
		t.Fatalf("expected already-reviewed reason, got %q", got.Reason)
	}
}

func TestValidateEligibilityOrderOfChecks(t *testing.T) {
	// Both checks would fail; the not-served reason must win.
	existing := []Review{{ClientID: "c1", TechnicianID: "t1", Rating: 4}}

	got := ValidateEligibility(nil, existing, "c1", "t1")
	if got.Allowed || got.Reason != ReasonNotServed {
		t.Fatalf("expected not-served to short-circuit, got %+v", got)
	}
}

func TestValidateEligibilityAllowed(t *testing.T) {
	appts := []appointments.Appointment{
		{ClientID: "c1", TechnicianID: "t1", Status: appointments.StatusCompleted},
	}
	existing := []Review{{ClientID: "c1", TechnicianID: "t2", Rating: 3}}

	got := ValidateEligibility(appts, existing, "c1", "t1")
	if !got.Allowed {
		t.Fatalf("expected allowed, got %+v", got)
	}
	if got.Reason != "" {
		t.Fatalf("allowed result should carry no reason, got %q", got.Reason)
	}
}

func TestAverageRating(t *testing.T) {
	if got := AverageRating(nil); got != 0 {
		t.Fatalf("empty collection must average to 0, got %v", got)
	}
	if got := AverageRating([]Review{{Rating: 5}, {Rating: 3}}); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
	if got := AverageRating([]Review{{Rating: 5}, {Rating: 4}}); got != 4.5 {
		t.Fatalf("expected 4.5, got %v", got)
	}
}

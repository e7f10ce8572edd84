package reviews

import (
	"github.com/fixloop/fixloop-platform/internal/appointments"
)

// Denial reasons are end-user-displayable strings.
const (
	ReasonNotServed       = "you can only review a technician after a completed repair"
	ReasonAlreadyReviewed = "you have already reviewed this technician"
)

// Eligibility is the structured outcome of the review gate. Denial is a
// value, never an error.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ValidateEligibility decides whether clientID may review techID. The
// completed-appointment check runs first; its denial reason wins over the
// duplicate-review reason when both would fail.
func ValidateEligibility(appts []appointments.Appointment, existing []Review, clientID, techID string) Eligibility {
	served := false
	for _, a := range appts {
		if a.ClientID == clientID && a.TechnicianID == techID && a.Status == appointments.StatusCompleted {
			served = true
			break
		}
	}
	if !served {
		return Eligibility{Allowed: false, Reason: ReasonNotServed}
	}
	for _, r := range existing {
		if r.ClientID == clientID && r.TechnicianID == techID {
			return Eligibility{Allowed: false, Reason: ReasonAlreadyReviewed}
		}
	}
	return Eligibility{Allowed: true}
}

// AverageRating is the plain arithmetic mean of all ratings, 0 for an empty
// collection. Recomputed from scratch on every call.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// Package reviews gates review creation and aggregates technician ratings.
package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixloop/fixloop-platform/internal/identity"
)

// Reply is a technician's response to a review.
type Reply struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a client's rating of a technician. The client name is copied at
// creation time and never refreshed. At most one review exists per
// (client, technician) pair; the eligibility check enforces this.
type Review struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	TechnicianID string     `json:"technician_id"`
	Rating       int        `json:"rating"` // 1..5
	Comment      string     `json:"comment"`
	Tags         []string   `json:"tags,omitempty"`
	Reply        *Reply     `json:"reply,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// New constructs a fresh review with no reply. Eligibility is the caller's
// pre-check; this constructor never consults appointments.
func New(client identity.User, techID string, rating int, comment string, tags []string, now time.Time) Review {
	return Review{
		ID:           uuid.NewString(),
		ClientID:     client.ID,
		ClientName:   client.Name,
		TechnicianID: techID,
		Rating:       rating,
		Comment:      comment,
		Tags:         tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Package appointments implements the booking workflow: appointment
// construction, the client cancellation window, and status updates.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixloop/fixloop-platform/internal/identity"
)

// Status is the current lifecycle state of an appointment.
//
// Booking always produces CONFIRMED. The intended transitions are
// CONFIRMED -> COMPLETED | CANCELLED | NO_SHOW | DISPUTED and
// DISPUTED -> COMPLETED | CANCELLED (moderator resolution); all other
// states are terminal. UpdateStatus does not enforce this table; callers
// gate transitions, and tightening it here would change observed
// semantics.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
	StatusDisputed  Status = "DISPUTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusDisputed:
		return true
	}
	return false
}

// Appointment is a booked repair. Client and technician names are copied at
// booking time; later profile renames never rewrite history.
type Appointment struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	TechnicianID   string    `json:"technician_id"`
	TechnicianName string    `json:"technician_name"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Time           string    `json:"time"` // HH:MM
	DeviceModel    string    `json:"device_model"`
	Issue          string    `json:"issue"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// New constructs a CONFIRMED appointment. Availability is the caller's
// pre-check; this constructor never consults the schedule.
func New(client, technician identity.User, date, hhmm, deviceModel, issue string, now time.Time) Appointment {
	return Appointment{
		ID:             uuid.NewString(),
		ClientID:       client.ID,
		ClientName:     client.Name,
		TechnicianID:   technician.ID,
		TechnicianName: technician.Name,
		Date:           date,
		Time:           hhmm,
		DeviceModel:    deviceModel,
		Issue:          issue,
		Status:         StatusConfirmed,
		CreatedAt:      now,
	}
}

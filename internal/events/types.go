// Package events defines the booking lifecycle events and the Postgres
// outbox they are published through.
package events

import "time"

const (
	TypeBookingConfirmed = "booking.confirmed.v1"
	TypeBookingCancelled = "booking.cancelled.v1"
	TypeDisputeResolved  = "dispute.resolved.v1"
)

type BookingConfirmedV1 struct {
	AppointmentID  string    `json:"appointment_id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	ClientEmail    string    `json:"client_email,omitempty"`
	TechnicianID   string    `json:"technician_id"`
	TechnicianName string    `json:"technician_name"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	DeviceModel    string    `json:"device_model"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type BookingCancelledV1 struct {
	AppointmentID string    `json:"appointment_id"`
	ClientID      string    `json:"client_id"`
	ClientEmail   string    `json:"client_email,omitempty"`
	TechnicianID  string    `json:"technician_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	CancelledBy   string    `json:"cancelled_by"` // client | technician | moderator
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type DisputeResolvedV1 struct {
	AppointmentID string    `json:"appointment_id"`
	Resolution    string    `json:"resolution"` // COMPLETED | CANCELLED
	ModeratorID   string    `json:"moderator_id"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

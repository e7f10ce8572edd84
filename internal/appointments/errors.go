package appointments

import "errors"

var (
	// ErrSlotUnavailable is returned when the requested slot is booked,
	// blocked, or does not exist. Expected condition, surfaced to the user.
	ErrSlotUnavailable = errors.New("that time slot is no longer available")

	// ErrCancelWindowClosed is returned when a client tries to cancel inside
	// the cancellation window.
	ErrCancelWindowClosed = errors.New("appointments can only be cancelled at least 24 hours in advance")

	// ErrNotFound is returned when no appointment matches the id.
	ErrNotFound = errors.New("appointment not found")

	// ErrForbidden is returned when the actor does not own the appointment
	// and is not a moderator.
	ErrForbidden = errors.New("not allowed to act on this appointment")

	// ErrUnknownStatus is returned for a status value outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown appointment status")
)

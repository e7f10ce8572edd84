package appointments

import (
	"fmt"
	"time"
)

// DefaultCancelWindow is how far ahead of the scheduled time a client may
// still cancel.
const DefaultCancelWindow = 24 * time.Hour

const scheduleLayout = "2006-01-02 15:04"

// ScheduledAt combines a date and an HH:MM time into a wall-clock instant in
// the process's local timezone. Dates and times are stored as the client
// entered them, so no timezone conversion happens here.
func ScheduledAt(date, hhmm string) (time.Time, error) {
	at, err := time.ParseInLocation(scheduleLayout, date+" "+hhmm, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: invalid date/time %q %q: %w", date, hhmm, err)
	}
	return at, nil
}

// CanClientCancel reports whether a client may still cancel an appointment
// scheduled at date/hhmm, as of now. The boundary is inclusive: exactly
// window ahead is still cancellable. Only client-initiated cancellation is
// subject to this rule; technicians and moderators cancel unconditionally.
func CanClientCancel(date, hhmm string, now time.Time, window time.Duration) (bool, error) {
	at, err := ScheduledAt(date, hhmm)
	if err != nil {
		return false, err
	}
	return at.Sub(now) >= window, nil
}

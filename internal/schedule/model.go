// Package schedule holds the slot-level availability logic for technician
// day schedules. All transition functions are pure: they take a snapshot of
// a technician's days and return a new snapshot, leaving untouched days and
// slots shared by identity so callers can detect what changed.
package schedule

// TimeSlot is a single bookable block within a technician's day.
type TimeSlot struct {
	ID      string `json:"id"`
	Time    string `json:"time"` // HH:MM, unique within a day
	Blocked bool   `json:"is_blocked"`
	Booked  bool   `json:"is_booked"`
}

// Available reports whether the slot can be offered to clients.
func (s TimeSlot) Available() bool {
	return !s.Blocked && !s.Booked
}

// DaySchedule is one calendar day of a technician's schedule. Slot order is
// stable for display but carries no meaning.
type DaySchedule struct {
	Date  string     `json:"date"` // YYYY-MM-DD
	Slots []TimeSlot `json:"slots"`
}

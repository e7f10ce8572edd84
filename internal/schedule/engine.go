package schedule

// IsSlotAvailable reports whether the slot at date/hhmm can be booked. A
// missing day or missing slot is treated as unavailable, never as an error.
func IsSlotAvailable(days []DaySchedule, date, hhmm string) bool {
	for _, day := range days {
		if day.Date != date {
			continue
		}
		for _, slot := range day.Slots {
			if slot.Time == hhmm {
				return slot.Available()
			}
		}
		return false
	}
	return false
}

// SetSlotBooked returns a copy of days where the slot at date/hhmm has its
// Booked flag set to booked. Only the target day and target slot are
// replaced; every other day and slot is the same value as in the input. The
// second result is the rewritten day, or nil when no day matches date, in
// which case the input snapshot is returned unchanged and there is nothing
// to persist.
//
// No legality check happens here: booking an already-booked slot simply
// rewrites the flag. Callers gate on IsSlotAvailable first.
func SetSlotBooked(days []DaySchedule, date, hhmm string, booked bool) ([]DaySchedule, *DaySchedule) {
	return rewriteSlot(days, date, func(slot TimeSlot) TimeSlot {
		if slot.Time == hhmm {
			slot.Booked = booked
		}
		return slot
	})
}

// ToggleSlotBlock returns a copy of days where the slot at date/hhmm has its
// Blocked flag flipped. Same contract and sharing behavior as SetSlotBooked;
// the Booked flag is never touched.
func ToggleSlotBlock(days []DaySchedule, date, hhmm string) ([]DaySchedule, *DaySchedule) {
	return rewriteSlot(days, date, func(slot TimeSlot) TimeSlot {
		if slot.Time == hhmm {
			slot.Blocked = !slot.Blocked
		}
		return slot
	})
}

func rewriteSlot(days []DaySchedule, date string, fn func(TimeSlot) TimeSlot) ([]DaySchedule, *DaySchedule) {
	dayIdx := -1
	for i, day := range days {
		if day.Date == date {
			dayIdx = i
			break
		}
	}
	if dayIdx == -1 {
		return days, nil
	}

	target := days[dayIdx]
	slots := make([]TimeSlot, len(target.Slots))
	for i, slot := range target.Slots {
		slots[i] = fn(slot)
	}
	updated := DaySchedule{Date: target.Date, Slots: slots}

	next := make([]DaySchedule, len(days))
	copy(next, days)
	next[dayIdx] = updated

	return next, &updated
}

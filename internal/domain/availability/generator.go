package availability

import (
	"fmt"
	"strings"
	"time"
)

// GenerateSlotsForDay expands one day of a window into bookable slots.
// Starting at the window start, each slot spans SlotDuration minutes and
// consecutive slots are separated by BreakDuration minutes. A trailing span
// that would overrun the window end is dropped, not truncated. The window
// must have passed ValidateWindow; loc is its resolved timezone.
func GenerateSlotsForDay(date time.Time, w Window, loc *time.Location) []GeneratedSlot {
	start, err := ParseCivilTime(w.StartTime)
	if err != nil {
		return nil
	}
	end, err := ParseCivilTime(w.EndTime)
	if err != nil {
		return nil
	}

	var slots []GeneratedSlot
	current := start
	for {
		slotEnd := current.Add(w.SlotDuration)
		if slotEnd.Minutes() > end.Minutes() {
			break
		}
		slots = append(slots, GeneratedSlot{
			StartTime:    current.String(),
			EndTime:      slotEnd.String(),
			StartInstant: ToUTCInstant(date, current, loc),
			EndInstant:   ToUTCInstant(date, slotEnd, loc),
		})
		current = slotEnd.Add(w.BreakDuration)
	}
	return slots
}

// GenerateRecurringSlots expands a recurring window into slots for every
// occurrence date from startDate through endDate inclusive. Daily advances
// one day and weekly seven; monthly advances one calendar month keeping the
// anchor day of month, clamped to the last day of shorter months, so a
// window anchored on Jan 31 recurs on Feb 29 and Mar 31. Per-day sequences
// are concatenated in date order.
func GenerateRecurringSlots(w Window, pattern string, startDate, endDate time.Time, loc *time.Location) []GeneratedSlot {
	var slots []GeneratedSlot
	for k := 0; ; k++ {
		date := occurrenceDate(startDate, pattern, k)
		if date.After(endDate) {
			break
		}
		slots = append(slots, GenerateSlotsForDay(date, w, loc)...)
	}
	return slots
}

// occurrenceDate returns occurrence k (zero-based) of the pattern anchored
// at start. Indexing from the anchor rather than stepping the previous
// occurrence keeps monthly recurrences on the anchor day after a clamped
// short month.
func occurrenceDate(start time.Time, pattern string, k int) time.Time {
	switch pattern {
	case PatternWeekly:
		return start.AddDate(0, 0, 7*k)
	case PatternMonthly:
		y, m, d := start.Date()
		last := time.Date(y, m+time.Month(k)+1, 0, 0, 0, 0, 0, start.Location()).Day()
		if d > last {
			d = last
		}
		return time.Date(y, m+time.Month(k), d, 0, 0, 0, 0, start.Location())
	default:
		return start.AddDate(0, 0, k)
	}
}

// ValidateWindow checks a window configuration and returns every failure it
// finds, not just the first, so a client can fix the whole request in one
// round trip. An empty result means the window can generate. The check has
// no side effects and the same window always yields the same list.
func ValidateWindow(w Window) []string {
	var errs []string

	start, startErr := ParseCivilTime(w.StartTime)
	if startErr != nil {
		errs = append(errs, startErr.Error())
	}
	end, endErr := ParseCivilTime(w.EndTime)
	if endErr != nil {
		errs = append(errs, endErr.Error())
	}
	if startErr == nil && endErr == nil && end.Compare(start) <= 0 {
		errs = append(errs, "end time must be after start time")
	}
	if w.SlotDuration <= 0 {
		errs = append(errs, "slot duration must be positive")
	}
	if w.BreakDuration < 0 {
		errs = append(errs, "break duration cannot be negative")
	}
	if !IsValidTimezone(w.Timezone) {
		errs = append(errs, fmt.Sprintf("invalid timezone %q", w.Timezone))
	}
	if startErr == nil && endErr == nil && w.SlotDuration > 0 &&
		w.SlotDuration > end.Minutes()-start.Minutes() {
		errs = append(errs, "slot duration cannot exceed the window duration")
	}

	windowDate, dateErr := ParseDate(w.Date)
	if dateErr != nil {
		errs = append(errs, dateErr.Error())
	}
	if strings.TrimSpace(w.AppointmentType) == "" {
		errs = append(errs, "appointment type is required")
	}
	if w.Location.Type == "" {
		errs = append(errs, "location type is required")
	}
	if w.MaxAppointments < 1 {
		errs = append(errs, "max appointments per slot must be at least 1")
	}

	if w.IsRecurring {
		switch w.RecurrencePattern {
		case PatternDaily, PatternWeekly, PatternMonthly:
		default:
			errs = append(errs, fmt.Sprintf("invalid recurrence pattern %q: want daily, weekly, or monthly", w.RecurrencePattern))
		}
		if w.RecurrenceEndDate != "" {
			endDate, err := ParseDate(w.RecurrenceEndDate)
			if err != nil {
				errs = append(errs, err.Error())
			} else if dateErr == nil && endDate.Before(windowDate) {
				errs = append(errs, "recurrence end date cannot be before the window date")
			}
		}
	}
	return errs
}

// CalculateTotalSlots computes how many slots GenerateSlotsForDay emits for
// one day of the window without generating them: the first slot consumes
// SlotDuration minutes and each further slot needs BreakDuration plus
// SlotDuration more. The count is exact for any window that passes
// validation. Windows shorter than one slot yield 0.
func CalculateTotalSlots(w Window) int {
	start, startErr := ParseCivilTime(w.StartTime)
	end, endErr := ParseCivilTime(w.EndTime)
	if startErr != nil || endErr != nil || w.SlotDuration <= 0 || w.BreakDuration < 0 {
		return 0
	}
	window := end.Minutes() - start.Minutes()
	if window < w.SlotDuration {
		return 0
	}
	return (window-w.SlotDuration)/(w.SlotDuration+w.BreakDuration) + 1
}

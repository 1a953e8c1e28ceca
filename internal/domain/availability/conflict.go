package availability

import "time"

// Overlaps reports whether two half-open UTC intervals intersect. Touching
// boundaries, one interval ending exactly when the other begins, do not
// count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// CheckOverlap returns the subset of candidate slots whose UTC interval
// intersects at least one existing slot. Callers pre-filter existing to the
// same provider and non-cancelled statuses. The pairwise scan is O(n*m),
// which is fine for the tens of slots a provider carries per day.
func CheckOverlap(candidates []GeneratedSlot, existing []*Slot) []GeneratedSlot {
	var conflicts []GeneratedSlot
	for _, c := range candidates {
		for _, e := range existing {
			if Overlaps(c.StartInstant, c.EndInstant, e.StartTime, e.EndTime) {
				conflicts = append(conflicts, c)
				break
			}
		}
	}
	return conflicts
}

package scheduler

import "sort"

// Booking is an accepted reservation as seen by the detector: an identifier
// and the window it occupies.
type Booking struct {
	ID     string
	Window TimeWindow
}

// Conflict names an existing booking that overlaps the candidate.
type Conflict struct {
	WithReservationID string
	Window            TimeWindow
}

// HasConflict reports whether any of the existing windows overlaps candidate.
// The order of existing does not matter and an empty slice never conflicts.
func HasConflict(candidate TimeWindow, existing []TimeWindow) bool {
	for _, w := range existing {
		if candidate.Overlaps(w) {
			return true
		}
	}
	return false
}

// DetectConflicts returns every booking overlapping candidate, ignoring the
// booking whose ID equals excludeID. Results are ordered by start then ID.
//
// Bookings are usually the output of a coarse storage query, so each one is
// re-checked here with the exact interval rule.
func DetectConflicts(existing []Booking, candidate TimeWindow, excludeID string) []Conflict {
	var conflicts []Conflict
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !HasConflict(candidate, []TimeWindow{b.Window}) {
			continue
		}
		conflicts = append(conflicts, Conflict{WithReservationID: b.ID, Window: b.Window})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		si, sj := conflicts[i].Window.Start(), conflicts[j].Window.Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return conflicts[i].WithReservationID < conflicts[j].WithReservationID
	})
	return conflicts
}

package domain

import (
	"cmp"
	"slices"
)

// RankBySeverity returns a copy of events ordered by descending magnitude.
// Events of equal magnitude keep their input order.
func RankBySeverity(events []EventRecord) []EventRecord {
	ranked := slices.Clone(events)
	slices.SortStableFunc(ranked, compareSeverity)
	return ranked
}

// TopK returns the k most severe events. k larger than the input returns all
// of them; k <= 0 returns none.
func TopK(events []EventRecord, k int) []EventRecord {
	if k <= 0 {
		return nil
	}
	ranked := RankBySeverity(events)
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// compareSeverity orders larger magnitudes first and reports equal
// magnitudes as equal so a stable sort preserves input order.
func compareSeverity(a, b EventRecord) int {
	return cmp.Compare(b.Magnitude, a.Magnitude)
}

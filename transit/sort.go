package transit

import (
	"sort"
	"time"
)

// SortTrips orders trips newest first by Timestamp. Trips with no time sort
// last. Ties keep their input order.
func SortTrips(trips []Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return newerFirst(trips[i].Timestamp(), trips[j].Timestamp())
	})
}

// SortRefills orders refills newest first.
func SortRefills(refills []Refill) {
	sort.SliceStable(refills, func(i, j int) bool {
		return newerFirst(refills[i].Time, refills[j].Time)
	})
}

func newerFirst(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.After(b)
}

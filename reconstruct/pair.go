package reconstruct

import (
	"sort"
	"time"
)

// State is the role a record plays after pairing.
type State int

const (
	Unpaired State = iota
	PairedAsStart
	PairedAsEnd
)

func (s State) String() string {
	switch s {
	case PairedAsStart:
		return "PAIRED_AS_START"
	case PairedAsEnd:
		return "PAIRED_AS_END"
	default:
		return "UNPAIRED"
	}
}

// Segment is either a single record or a start/end pair.
type Segment[T any] struct {
	Start  T
	End    T
	Paired bool
}

// Only returns the record of an unpaired segment, or the start of a pair.
func (s Segment[T]) Only() T { return s.Start }

// SortNewestFirst returns a copy of items stably sorted by at, newest first.
func SortNewestFirst[T any](items []T, at func(T) time.Time) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return at(out[i]).After(at(out[j]))
	})
	return out
}

// States walks ordered (newest first) and returns the pairing state of each
// record.
func States[T any](ordered []T, sameTrip func(start, end T) bool) []State {
	states := make([]State, len(ordered))
	for i := 0; i < len(ordered); i++ {
		if i+1 < len(ordered) && sameTrip(ordered[i+1], ordered[i]) {
			states[i] = PairedAsEnd
			states[i+1] = PairedAsStart
			i++
		}
	}
	return states
}

// PairOrdered pairs records already ordered newest first.
func PairOrdered[T any](ordered []T, sameTrip func(start, end T) bool) []Segment[T] {
	states := States(ordered, sameTrip)
	segments := make([]Segment[T], 0, len(ordered))
	for i := 0; i < len(ordered); i++ {
		if states[i] == PairedAsEnd {
			segments = append(segments, Segment[T]{Start: ordered[i+1], End: ordered[i], Paired: true})
			i++
			continue
		}
		segments = append(segments, Segment[T]{Start: ordered[i]})
	}
	return segments
}

// Pair sorts items newest first by at and pairs them. Segments are returned
// newest first.
func Pair[T any](items []T, at func(T) time.Time, sameTrip func(start, end T) bool) []Segment[T] {
	return PairOrdered(SortNewestFirst(items, at), sameTrip)
}

// SameServiceDay decides whether a check-out on dayOut at minuteOut can
// close a check-in made on dayIn. Days are day counters, minutes are
// minutes after midnight. A check-out on the same day always matches. A
// check-out on the next day matches when minuteOut is before cutoff, or
// unconditionally when strict is false.
func SameServiceDay(dayIn, dayOut, minuteOut, cutoff int, strict bool) bool {
	switch dayOut - dayIn {
	case 0:
		return true
	case 1:
		if strict {
			return minuteOut < cutoff
		}
		return true
	}
	return false
}

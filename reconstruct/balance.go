package reconstruct

import (
	"sort"
	"time"
)

// ThreadBalances computes the balance after each trip for cards that only
// store the current balance. Starting from final, trips are walked newest to
// oldest: every refill newer than the trip is subtracted, the running value
// becomes the trip's balance, then the trip's fare is added back to reach the
// balance before it.
//
// The result is aligned with trips. Neither input needs to be sorted.
func ThreadBalances[T, R any](
	final int64,
	trips []T, tripAt func(T) time.Time, fare func(T) int64,
	refills []R, refillAt func(R) time.Time, amount func(R) int64,
) []int64 {
	tripOrder := newestFirstIndex(len(trips), func(i int) time.Time { return tripAt(trips[i]) })
	refillOrder := newestFirstIndex(len(refills), func(i int) time.Time { return refillAt(refills[i]) })

	balances := make([]int64, len(trips))
	current := final
	next := 0
	for _, ti := range tripOrder {
		t := tripAt(trips[ti])
		for next < len(refillOrder) && refillAt(refills[refillOrder[next]]).After(t) {
			current -= amount(refills[refillOrder[next]])
			next++
		}
		balances[ti] = current
		current += fare(trips[ti])
	}
	return balances
}

func newestFirstIndex(n int, at func(int) time.Time) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return at(idx[a]).After(at(idx[b]))
	})
	return idx
}

package reconstruct

// DedupBy removes records that share a key with an earlier record. items are
// processed in order; when a duplicate arrives the earlier record is kept if
// keepExisting reports true for it, otherwise the new record replaces it at
// the end of the result.
func DedupBy[T any, K comparable](items []T, key func(T) K, keepExisting func(existing T) bool) []T {
	out := make([]T, 0, len(items))
	index := make(map[K]int, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			if keepExisting(out[i]) {
				continue
			}
			out = append(out[:i], out[i+1:]...)
			for kk, idx := range index {
				if idx > i {
					index[kk] = idx - 1
				}
			}
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// Package feed keeps an in-memory snapshot of the published-lead list and
// patches it in place as domain events arrive, instead of refetching the
// whole list on every change.
package feed

// MergeByID returns a copy of items where the element whose key matches id
// has been replaced by patch(element). The second return value reports
// whether a match was found; when it is false the input is returned as-is.
func MergeByID[T any, K comparable](items []T, id K, keyOf func(T) K, patch func(T) T) ([]T, bool) {
	for i, item := range items {
		if keyOf(item) != id {
			continue
		}
		merged := make([]T, len(items))
		copy(merged, items)
		merged[i] = patch(item)
		return merged, true
	}
	return items, false
}

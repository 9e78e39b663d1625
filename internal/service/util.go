package service

// Filter returns the items for which fn is true.
func Filter[T any](items []T, fn func(T) bool) []T {
	var result []T
	for _, v := range items {
		if fn(v) {
			result = append(result, v)
		}
	}
	return result
}

// GroupBy buckets items by the key fn derives, preserving input order within
// each bucket.
func GroupBy[K comparable, T any](items []T, fn func(T) K) map[K][]T {
	result := make(map[K][]T)
	for _, v := range items {
		k := fn(v)
		result[k] = append(result[k], v)
	}
	return result
}

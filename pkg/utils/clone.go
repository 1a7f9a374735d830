package utils

// Clone returns a shallow copy of s, safe to mutate (e.g. reverse) without
// affecting the original slice or racing with concurrent readers of it.
func Clone[T any](s []T) []T {
	cloned := make([]T, len(s))
	copy(cloned, s)

	return cloned
}

package common

import "cmp"

// Coalesce returns the first value that is not the zero value of T, or the zero value when every value is.
// Descriptor defaults are filled with it: Coalesce(override, fallback, builtin).
//
// Parameters:
//   - values: candidate values in priority order
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

package gpu

import (
	"fmt"
	"sync/atomic"
)

// Handle gives a native GPU object a single owner and release-exactly-once semantics.
// Components that merely reference the object call Get, which fails with ErrReleased once the owner
// has released it, turning a dangling reference into an error at the call site.
type Handle[T Releasable] struct {
	res      T
	label    string
	released atomic.Bool
}

// NewHandle wraps res under the given debug label.
//
// Parameters:
//   - res: the native object to own
//   - label: a debug label used in error messages
//
// Returns:
//   - *Handle[T]: the owning handle
func NewHandle[T Releasable](res T, label string) *Handle[T] {
	return &Handle[T]{res: res, label: label}
}

// Get returns the wrapped object, or ErrReleased if the owner already released it.
func (h *Handle[T]) Get() (T, error) {
	if h == nil {
		var zero T
		return zero, fmt.Errorf("nil handle: %w", ErrReleased)
	}
	if h.released.Load() {
		var zero T
		return zero, fmt.Errorf("%s: %w", h.label, ErrReleased)
	}
	return h.res, nil
}

// Label returns the debug label given at creation.
func (h *Handle[T]) Label() string {
	return h.label
}

// Released reports whether Release has been called.
func (h *Handle[T]) Released() bool {
	return h.released.Load()
}

// Release releases the wrapped object the first time it is called.
//
// Returns:
//   - bool: true if this call released the object, false if it was already released
func (h *Handle[T]) Release() bool {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return false
	}
	h.res.Release()
	return true
}

package bind_group_builder

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
)

// Slot owns the single live bind group of one layout and rebuilds it when the bound resources change.
// Rebuild creates the replacement first and only then releases the previous group, so a failed rebuild leaves
// the old group bound.
type Slot struct {
	mu       *sync.Mutex
	builder  BindGroupBuilder
	label    string
	layout   gpu.BindGroupLayout
	group    gpu.BindGroup
	releases int
	released bool
}

// NewSlot creates an empty Slot for layout. The layout stays owned by the caller.
//
// Parameters:
//   - builder: the builder used to create groups
//   - label: a debug label for every group of this slot
//   - layout: the layout groups conform to
//
// Returns:
//   - *Slot: the slot, with no group until the first Rebuild
func NewSlot(builder BindGroupBuilder, label string, layout gpu.BindGroupLayout) *Slot {
	return &Slot{
		mu:      &sync.Mutex{},
		builder: builder,
		label:   label,
		layout:  layout,
	}
}

// Rebuild creates a group for resources and makes it the live group, releasing the previous one.
//
// Parameters:
//   - resources: one entry per slot of the layout
//
// Returns:
//   - error: gpu.ErrReleased if the slot or a source was released, or the creation error
func (s *Slot) Rebuild(resources []Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("bind group slot %q: %w", s.label, gpu.ErrReleased)
	}
	group, err := s.builder.GroupFor(s.label, s.layout, resources)
	if err != nil {
		return err
	}
	if s.group != nil {
		s.group.Release()
		s.releases++
	}
	s.group = group
	return nil
}

// Group returns the live group.
//
// Returns:
//   - gpu.BindGroup: the group
//   - error: gpu.ErrNotReady before the first Rebuild, gpu.ErrReleased after Release
func (s *Slot) Group() (gpu.BindGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, fmt.Errorf("bind group slot %q: %w", s.label, gpu.ErrReleased)
	}
	if s.group == nil {
		return nil, fmt.Errorf("bind group slot %q not built: %w", s.label, gpu.ErrNotReady)
	}
	return s.group, nil
}

// Layout returns the layout the slot builds against.
func (s *Slot) Layout() gpu.BindGroupLayout { return s.layout }

// Releases returns how many replaced groups Rebuild has released.
func (s *Slot) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// Release frees the live group. Calls after the first are no-ops.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	if s.group != nil {
		s.group.Release()
		s.group = nil
	}
}

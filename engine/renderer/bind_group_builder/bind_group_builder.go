package bind_group_builder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindingKind is the type of resource a layout slot accepts.
type BindingKind int

const (
	// KindUniformBuffer accepts a uniform buffer.
	KindUniformBuffer BindingKind = iota

	// KindTexture accepts a filterable float 2D texture view.
	KindTexture

	// KindCubeTexture accepts a filterable float cube texture view.
	KindCubeTexture

	// KindSampler accepts a filtering sampler.
	KindSampler
)

// LayoutBinding describes one slot of a bind group layout. Slots must be unique within a layout and must match
// the binding numbers the shader declares. Nothing cross-checks them against the shader source.
type LayoutBinding struct {
	Slot       uint32
	Visibility wgpu.ShaderStage
	Kind       BindingKind
}

// BufferSource is anything owning a native buffer, such as resource.UniformBuffer.
type BufferSource interface {
	Buffer() (gpu.Buffer, error)
	Size() uint64
}

// TextureSource is anything owning a texture view and sampler, such as resource.Texture.
type TextureSource interface {
	View() (gpu.TextureView, error)
	Sampler() (gpu.Sampler, error)
}

// Resource binds one source to a slot. Use UniformEntry, TextureEntry and SamplerEntry to build it.
type Resource struct {
	Slot    uint32
	Kind    BindingKind
	Buffer  BufferSource
	Texture TextureSource
	// Size limits a buffer binding; zero binds the whole buffer.
	Size uint64
}

// UniformEntry binds the whole of buf to slot.
func UniformEntry(slot uint32, buf BufferSource) Resource {
	return Resource{Slot: slot, Kind: KindUniformBuffer, Buffer: buf}
}

// TextureEntry binds the view of tex to slot.
func TextureEntry(slot uint32, tex TextureSource) Resource {
	return Resource{Slot: slot, Kind: KindTexture, Texture: tex}
}

// CubeTextureEntry binds the cube view of tex to slot.
func CubeTextureEntry(slot uint32, tex TextureSource) Resource {
	return Resource{Slot: slot, Kind: KindCubeTexture, Texture: tex}
}

// SamplerEntry binds the sampler of tex to slot.
func SamplerEntry(slot uint32, tex TextureSource) Resource {
	return Resource{Slot: slot, Kind: KindSampler, Texture: tex}
}

// ErrDuplicateSlot is returned when a layout declares the same slot twice.
var ErrDuplicateSlot = errors.New("duplicate binding slot")

// BindGroupBuilder derives bind group layouts and bind groups from a declarative resource set.
// The caller owns everything it returns and must release it.
type BindGroupBuilder interface {
	// LayoutFor creates a bind group layout with one entry per binding.
	//
	// Parameters:
	//   - label: a debug label
	//   - bindings: the slots of the layout
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout
	//   - error: ErrDuplicateSlot, or the backend error
	LayoutFor(label string, bindings []LayoutBinding) (gpu.BindGroupLayout, error)

	// GroupFor creates a bind group binding the current handles of resources to layout.
	// A group only stays valid while every source it references is alive; replacing a source requires a new group.
	//
	// Parameters:
	//   - label: a debug label
	//   - layout: the layout the group conforms to
	//   - resources: one entry per slot
	//
	// Returns:
	//   - gpu.BindGroup: the bind group
	//   - error: gpu.ErrReleased if a source was already released, or the backend error
	GroupFor(label string, layout gpu.BindGroupLayout, resources []Resource) (gpu.BindGroup, error)
}

type bindGroupBuilder struct {
	mu     *sync.Mutex
	device gpu.Device
	prefix string
}

var _ BindGroupBuilder = &bindGroupBuilder{}

// NewBindGroupBuilder creates a BindGroupBuilder on device.
//
// Parameters:
//   - device: the device layouts and groups are created on
//   - options: optional BindGroupBuilderOption functions
//
// Returns:
//   - BindGroupBuilder: the builder
func NewBindGroupBuilder(device gpu.Device, options ...BindGroupBuilderOption) BindGroupBuilder {
	b := &bindGroupBuilder{
		mu:     &sync.Mutex{},
		device: device,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *bindGroupBuilder) label(label string) string {
	if b.prefix == "" {
		return label
	}
	return b.prefix + " " + label
}

func (b *bindGroupBuilder) LayoutFor(label string, bindings []LayoutBinding) (gpu.BindGroupLayout, error) {
	seen := make(map[uint32]bool, len(bindings))
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(bindings))
	for _, binding := range bindings {
		if seen[binding.Slot] {
			return nil, fmt.Errorf("layout %q slot %d: %w", label, binding.Slot, ErrDuplicateSlot)
		}
		seen[binding.Slot] = true

		entry := wgpu.BindGroupLayoutEntry{
			Binding:    binding.Slot,
			Visibility: binding.Visibility,
		}
		switch binding.Kind {
		case KindUniformBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case KindTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case KindCubeTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimensionCube,
			}
		case KindSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		default:
			return nil, fmt.Errorf("layout %q slot %d: unknown binding kind %d", label, binding.Slot, binding.Kind)
		}
		entries = append(entries, entry)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   b.label(label),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", label, err)
	}
	return layout, nil
}

func (b *bindGroupBuilder) GroupFor(label string, layout gpu.BindGroupLayout, resources []Resource) (gpu.BindGroup, error) {
	if layout == nil {
		return nil, fmt.Errorf("bind group %q has no layout", label)
	}
	entries := make([]gpu.BindGroupEntry, 0, len(resources))
	for _, r := range resources {
		entry, err := resolve(r)
		if err != nil {
			return nil, fmt.Errorf("bind group %q slot %d: %w", label, r.Slot, err)
		}
		entries = append(entries, entry)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	group, err := b.device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   b.label(label),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", label, err)
	}
	common.Logger().Debug("bind group created", "label", b.label(label), "entries", len(entries))
	return group, nil
}

// resolve reads the live native handle out of a resource source.
func resolve(r Resource) (gpu.BindGroupEntry, error) {
	entry := gpu.BindGroupEntry{Binding: r.Slot}
	switch r.Kind {
	case KindUniformBuffer:
		if r.Buffer == nil {
			return entry, errors.New("uniform binding without a buffer")
		}
		buf, err := r.Buffer.Buffer()
		if err != nil {
			return entry, err
		}
		entry.Buffer = buf
		entry.Size = common.Coalesce(r.Size, r.Buffer.Size())
	case KindTexture, KindCubeTexture:
		if r.Texture == nil {
			return entry, errors.New("texture binding without a texture")
		}
		view, err := r.Texture.View()
		if err != nil {
			return entry, err
		}
		entry.TextureView = view
	case KindSampler:
		if r.Texture == nil {
			return entry, errors.New("sampler binding without a texture")
		}
		sampler, err := r.Texture.Sampler()
		if err != nil {
			return entry, err
		}
		entry.Sampler = sampler
	default:
		return entry, fmt.Errorf("unknown binding kind %d", r.Kind)
	}
	return entry, nil
}

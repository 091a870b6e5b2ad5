// Package variant holds the reusable draw contracts of the renderer. Each variant composes a bind group layout,
// a shader module, a render pipeline and one rebuildable bind group, and records its draw into the frame's pass.
//
// A variant owns only what it creates: its layout, module, pipeline, bind group and private uniforms or
// geometry. Cameras, textures and shared vertex buffers it is given stay owned by the caller and must outlive it.
package variant

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
)

// ErrNotInitialized is returned when a variant is used before Initialize or after Dispose.
var ErrNotInitialized = errors.New("render variant not initialized")

// Builders bundles the factories every variant builds from.
type Builders struct {
	Factory   resource.Factory
	Bindings  bgb.BindGroupBuilder
	Pipelines pipeline.PipelineBuilder
}

// NewBuilders creates the resource factory, bind group builder and pipeline builder for an initialized context.
//
// Parameters:
//   - ctx: the initialized GpuContext
//
// Returns:
//   - Builders: the builders, targeting the context's surface and depth formats
//   - error: gpu.ErrNotReady before the context is initialized
func NewBuilders(ctx gpu.GpuContext) (Builders, error) {
	device, err := ctx.Device()
	if err != nil {
		return Builders{}, err
	}
	return Builders{
		Factory:   resource.NewFactory(device),
		Bindings:  bgb.NewBindGroupBuilder(device),
		Pipelines: pipeline.NewPipelineBuilder(device, ctx.SurfaceFormat(), ctx.DepthFormat()),
	}, nil
}

// Variant is the lifecycle shared by every render variant.
type Variant interface {
	// Label returns the debug label of the variant.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Initialize builds, in dependency order, the bind group layout, the shader module, the pipeline, the
	// variant's private resources and its bind group. On failure everything built so far is released.
	//
	// Returns:
	//   - error: the first construction failure
	Initialize() error

	// Reload rebuilds the shader module and pipeline from sh, keeping layout, resources and bind group.
	// On failure the previous pipeline stays in use.
	//
	// Parameters:
	//   - sh: the new shader
	//
	// Returns:
	//   - error: ErrNotInitialized, or the shader or pipeline failure
	Reload(sh shader.Shader) error

	// Dispose releases the bind group, pipeline, module, layout and private resources. Calls after the first
	// are no-ops.
	Dispose()
}

// ownedResources is implemented by each variant for the resources it creates and binds.
type ownedResources interface {
	create(factory resource.Factory) error
	entries() []bgb.Resource
	release()
}

// base carries the construction and lifetime logic the variants share.
type base struct {
	mu              *sync.Mutex
	label           string
	builders        Builders
	shader          shader.Shader
	vertexLayout    pipeline.VertexLayout
	layoutBindings  []bgb.LayoutBinding
	pipelineOptions []pipeline.PipelineBuilderOption
	owned           ownedResources

	layout      gpu.BindGroupLayout
	module      gpu.ShaderModule
	pipeline    pipeline.RenderPipeline
	slot        *bgb.Slot
	initialized bool
	disposed    bool
}

func newBase(label string, builders Builders, sh shader.Shader, vertexLayout pipeline.VertexLayout, bindings []bgb.LayoutBinding, defaults []pipeline.PipelineBuilderOption, options []VariantBuilderOption) *base {
	b := &base{
		mu:              &sync.Mutex{},
		label:           label,
		builders:        builders,
		shader:          sh,
		vertexLayout:    vertexLayout,
		layoutBindings:  bindings,
		pipelineOptions: append([]pipeline.PipelineBuilderOption(nil), defaults...),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *base) Label() string {
	return b.label
}

func (b *base) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return fmt.Errorf("%s: %w", b.label, gpu.ErrReleased)
	}
	if b.initialized {
		return fmt.Errorf("%s: %w", b.label, gpu.ErrAlreadyInitialized)
	}
	if b.shader == nil {
		return fmt.Errorf("%s has no shader", b.label)
	}

	layout, err := b.builders.Bindings.LayoutFor(b.label+" layout", b.layoutBindings)
	if err != nil {
		return fmt.Errorf("failed to create %s bind group layout: %w", b.label, err)
	}
	b.layout = layout

	module, rp, err := b.buildPipeline(b.shader)
	if err != nil {
		b.releaseLocked()
		return err
	}
	b.module, b.pipeline = module, rp

	if err := b.owned.create(b.builders.Factory); err != nil {
		b.releaseLocked()
		return fmt.Errorf("failed to create %s resources: %w", b.label, err)
	}

	b.slot = bgb.NewSlot(b.builders.Bindings, b.label+" bind group", b.layout)
	if err := b.slot.Rebuild(b.owned.entries()); err != nil {
		b.releaseLocked()
		return fmt.Errorf("failed to create %s bind group: %w", b.label, err)
	}

	b.initialized = true
	common.Logger().Info("render variant initialized", "label", b.label, "shader", b.shader.Path())
	return nil
}

// buildPipeline creates a module from sh and a pipeline over the variant's layout. It owns nothing on failure.
func (b *base) buildPipeline(sh shader.Shader) (gpu.ShaderModule, pipeline.RenderPipeline, error) {
	module, err := sh.CreateModule(b.builders.Factory.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build %s: %w", b.label, err)
	}
	if missing := undeclaredSlots(sh, b.layoutBindings); len(missing) > 0 {
		common.Logger().Warn("shader declares bindings the variant layout lacks",
			"label", b.label, "shader", sh.Path(), "slots", missing)
	}
	options := append([]pipeline.PipelineBuilderOption{
		pipeline.WithEntryPoints(sh.VertexEntryPoint(), sh.FragmentEntryPoint()),
	}, b.pipelineOptions...)
	rp, err := b.builders.Pipelines.Build(b.label, module, b.vertexLayout, []gpu.BindGroupLayout{b.layout}, options...)
	if err != nil {
		module.Release()
		return nil, nil, fmt.Errorf("failed to build %s from %s: %w", b.label, sh.Path(), err)
	}
	return module, rp, nil
}

// undeclaredSlots lists the group 0 bindings sh declares that layout has no slot for.
func undeclaredSlots(sh shader.Shader, layout []bgb.LayoutBinding) []uint32 {
	var missing []uint32
	for _, declared := range sh.Bindings() {
		if declared.Group != 0 {
			continue
		}
		if !slices.ContainsFunc(layout, func(lb bgb.LayoutBinding) bool { return lb.Slot == declared.Binding }) {
			missing = append(missing, declared.Binding)
		}
	}
	return missing
}

func (b *base) Reload(sh shader.Shader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return fmt.Errorf("%s: %w", b.label, ErrNotInitialized)
	}
	module, rp, err := b.buildPipeline(sh)
	if err != nil {
		return err
	}
	b.pipeline.Release()
	b.module.Release()
	b.shader, b.module, b.pipeline = sh, module, rp
	common.Logger().Info("render variant reloaded", "label", b.label, "shader", sh.Path())
	return nil
}

// rebindLocked rebuilds the bind group from the current entries. The caller holds mu.
func (b *base) rebindLocked() error {
	if !b.initialized {
		return fmt.Errorf("%s: %w", b.label, ErrNotInitialized)
	}
	return b.slot.Rebuild(b.owned.entries())
}

// bindLocked sets the pipeline and bind group 0 on pass. The caller holds mu.
func (b *base) bindLocked(pass gpu.RenderPass) error {
	if !b.initialized {
		return fmt.Errorf("%s: %w", b.label, ErrNotInitialized)
	}
	if pass == nil {
		return fmt.Errorf("%s: render without a pass", b.label)
	}
	rp, err := b.pipeline.Pipeline()
	if err != nil {
		return err
	}
	group, err := b.slot.Group()
	if err != nil {
		return err
	}
	pass.SetPipeline(rp)
	pass.SetBindGroup(0, group)
	return nil
}

// Rebinds returns how many replaced bind groups have been released.
func (b *base) Rebinds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.slot == nil {
		return 0
	}
	return b.slot.Releases()
}

func (b *base) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.releaseLocked()
	b.disposed = true
}

// releaseLocked releases everything the variant owns, in reverse construction order.
func (b *base) releaseLocked() {
	if b.slot != nil {
		b.slot.Release()
		b.slot = nil
	}
	b.owned.release()
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.module != nil {
		b.module.Release()
		b.module = nil
	}
	if b.layout != nil {
		b.layout.Release()
		b.layout = nil
	}
	b.initialized = false
}

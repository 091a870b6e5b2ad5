package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineConfig holds the fixed-function state of a render pipeline. It is filled with defaults and then
// adjusted by PipelineBuilderOption functions.
type pipelineConfig struct {
	vertexEntryPoint   string
	fragmentEntryPoint string

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

func defaultConfig() pipelineConfig {
	return pipelineConfig{
		vertexEntryPoint:   "main_vs",
		fragmentEntryPoint: "main_fs",
		depthTestEnabled:   true,
		depthWriteEnabled:  true,
		depthCompare:       wgpu.CompareFunctionLessEqual,
		blendEnabled:       false,
		cullMode:           wgpu.CullModeBack,
		topology:           wgpu.PrimitiveTopologyTriangleList,
		frontFace:          wgpu.FrontFaceCCW,
		writeMask:          wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
}

// renderPipeline is the implementation of the RenderPipeline interface.
type renderPipeline struct {
	label        string
	handle       *gpu.Handle[gpu.RenderPipeline]
	layout       *gpu.Handle[gpu.PipelineLayout]
	vertexLayout VertexLayout
	config       pipelineConfig
}

// RenderPipeline is an immutable render pipeline together with the pipeline layout it owns.
// Changing the shader, vertex layout or any fixed-function state requires building a new one.
type RenderPipeline interface {
	// Label returns the debug label of the pipeline.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Pipeline returns the native pipeline to set on a render pass.
	//
	// Returns:
	//   - gpu.RenderPipeline: the pipeline
	//   - error: gpu.ErrReleased after Release
	Pipeline() (gpu.RenderPipeline, error)

	// VertexLayout returns the vertex layout the pipeline was built for.
	//
	// Returns:
	//   - VertexLayout: the layout
	VertexLayout() VertexLayout

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// Release frees the pipeline and then its pipeline layout. Calls after the first are no-ops.
	Release()
}

var _ RenderPipeline = &renderPipeline{}

func (p *renderPipeline) Label() string {
	return p.label
}

func (p *renderPipeline) Pipeline() (gpu.RenderPipeline, error) {
	return p.handle.Get()
}

func (p *renderPipeline) VertexLayout() VertexLayout {
	return p.vertexLayout
}

func (p *renderPipeline) DepthTestEnabled() bool {
	return p.config.depthTestEnabled
}

func (p *renderPipeline) DepthWriteEnabled() bool {
	return p.config.depthWriteEnabled
}

func (p *renderPipeline) BlendEnabled() bool {
	return p.config.blendEnabled
}

func (p *renderPipeline) CullMode() wgpu.CullMode {
	return p.config.cullMode
}

func (p *renderPipeline) Topology() wgpu.PrimitiveTopology {
	return p.config.topology
}

func (p *renderPipeline) Release() {
	p.handle.Release()
	p.layout.Release()
}

// PipelineBuilder assembles render pipelines targeting the surface color format and the shared depth format.
type PipelineBuilder interface {
	// Build creates a pipeline layout from bindGroupLayouts and a render pipeline drawing module with the given
	// vertex layout. Construction is all or nothing: on failure nothing is left allocated.
	//
	// Parameters:
	//   - label: a debug label
	//   - module: the compiled shader module holding both entry points
	//   - vertexLayout: the vertex buffer layout
	//   - bindGroupLayouts: the bind group layouts, index i is group i
	//   - options: optional PipelineBuilderOption functions for the fixed-function state
	//
	// Returns:
	//   - RenderPipeline: the pipeline, owning its layout
	//   - error: the backend validation message
	Build(label string, module gpu.ShaderModule, vertexLayout VertexLayout, bindGroupLayouts []gpu.BindGroupLayout, options ...PipelineBuilderOption) (RenderPipeline, error)
}

type pipelineBuilder struct {
	mu          *sync.Mutex
	device      gpu.Device
	colorFormat wgpu.TextureFormat
	depthFormat wgpu.TextureFormat
}

var _ PipelineBuilder = &pipelineBuilder{}

// NewPipelineBuilder creates a PipelineBuilder.
//
// Parameters:
//   - device: the device pipelines are created on
//   - colorFormat: the format of the single color target, usually the surface format
//   - depthFormat: the depth-stencil attachment format
//
// Returns:
//   - PipelineBuilder: the builder
func NewPipelineBuilder(device gpu.Device, colorFormat, depthFormat wgpu.TextureFormat) PipelineBuilder {
	return &pipelineBuilder{
		mu:          &sync.Mutex{},
		device:      device,
		colorFormat: colorFormat,
		depthFormat: depthFormat,
	}
}

func (b *pipelineBuilder) Build(label string, module gpu.ShaderModule, vertexLayout VertexLayout, bindGroupLayouts []gpu.BindGroupLayout, options ...PipelineBuilderOption) (RenderPipeline, error) {
	if module == nil {
		return nil, fmt.Errorf("pipeline %q has no shader module", label)
	}
	cfg := defaultConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	layout, err := b.device.CreatePipelineLayout(label+" layout", bindGroupLayouts)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", label, err)
	}

	target := wgpu.ColorTargetState{
		Format:    b.colorFormat,
		WriteMask: cfg.writeMask,
	}
	if cfg.blendEnabled {
		target.Blend = cfg.blendState
	}

	native, err := b.device.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:              label,
		Layout:             layout,
		Module:             module,
		VertexEntryPoint:   cfg.vertexEntryPoint,
		FragmentEntryPoint: cfg.fragmentEntryPoint,
		Buffers:            []wgpu.VertexBufferLayout{vertexLayout.BufferLayout()},
		Targets:            []wgpu.ColorTargetState{target},
		Primitive: wgpu.PrimitiveState{
			Topology:  cfg.topology,
			FrontFace: cfg.frontFace,
			CullMode:  cfg.cullMode,
		},
		DepthStencil: b.depthStencilState(cfg),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", label, err)
	}

	common.Logger().Info("pipeline built",
		"label", label,
		"stride", vertexLayout.Stride,
		"topology", cfg.topology,
		"cull", cfg.cullMode,
		"depthTest", cfg.depthTestEnabled,
		"blend", cfg.blendEnabled,
	)
	return &renderPipeline{
		label:        label,
		handle:       gpu.NewHandle(native, label),
		layout:       gpu.NewHandle(layout, label+" layout"),
		vertexLayout: vertexLayout,
		config:       cfg,
	}, nil
}

// depthStencilState always declares the attachment format because every frame binds a depth attachment.
// With depth testing disabled the comparison always passes and nothing is written.
// Stencil is present only to match the combined format: always pass, keep.
func (b *pipelineBuilder) depthStencilState(cfg pipelineConfig) *wgpu.DepthStencilState {
	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	state := &wgpu.DepthStencilState{
		Format:            b.depthFormat,
		DepthWriteEnabled: cfg.depthTestEnabled && cfg.depthWriteEnabled,
		DepthCompare:      wgpu.CompareFunctionAlways,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0xFFFFFFFF,
		StencilWriteMask:  0xFFFFFFFF,
	}
	if cfg.depthTestEnabled {
		state.DepthCompare = cfg.depthCompare
	}
	return state
}

// Package gpu is the native handle layer of the engine. It declares the small set of GPU objects the
// renderer needs as interfaces, implements them over cogentcore/webgpu, and owns the device context
// (instance, surface, adapter, device, queue) through GpuContext.
//
// Descriptors reuse the plain wgpu value types (usages, formats, layouts, states). Descriptors that
// reference other GPU objects are redeclared here so they can carry the handle interfaces instead of
// concrete wgpu pointers.
package gpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNotReady is returned when a device-dependent call is made before GpuContext.Initialize completed.
	ErrNotReady = errors.New("gpu context is not ready")

	// ErrAlreadyInitialized is returned when Initialize is called a second time.
	ErrAlreadyInitialized = errors.New("gpu context already initialized")

	// ErrReleased is returned when a released handle is used.
	ErrReleased = errors.New("gpu handle already released")

	// ErrDeviceLost wraps the backend message of a device that was lost while in use.
	ErrDeviceLost = errors.New("gpu device lost")
)

// Releasable is any native GPU object that must be released exactly once by its owner.
type Releasable interface {
	Release()
}

type Buffer interface {
	Releasable
	// Size returns the buffer size in bytes.
	Size() uint64
}

type Texture interface {
	Releasable
	// CreateView creates a view of the texture. A nil descriptor views the whole texture with its own dimension.
	CreateView(desc *wgpu.TextureViewDescriptor) (TextureView, error)
}

type TextureView interface{ Releasable }

type Sampler interface{ Releasable }

type BindGroupLayout interface{ Releasable }

type BindGroup interface{ Releasable }

type ShaderModule interface{ Releasable }

type PipelineLayout interface{ Releasable }

type RenderPipeline interface{ Releasable }

type CommandBuffer interface{ Releasable }

// CommandEncoder records GPU commands for one submission.
type CommandEncoder interface {
	Releasable
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
	Finish() (CommandBuffer, error)
}

// RenderPass is the per-frame recording context renderers issue draw calls into.
type RenderPass interface {
	Releasable
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64)
	SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat, offset, size uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

// Queue serializes uploads and submissions in issue order.
type Queue interface {
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
	WriteTexture(dst *ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error
	Submit(buffers ...CommandBuffer)
}

// Device creates every GPU object. All creation errors carry the backend validation message.
type Device interface {
	Releasable
	Queue() Queue
	CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error)
	CreateTexture(desc *wgpu.TextureDescriptor) (Texture, error)
	CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error)
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreatePipelineLayout(label string, layouts []BindGroupLayout) (PipelineLayout, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
}

// Adapter is the physical device chosen for rendering.
type Adapter interface {
	Releasable
	// Name returns a human readable adapter description for logging.
	Name() string
	// RequestDevice blocks until the logical device is available. onLost is called with an error wrapping
	// ErrDeviceLost if the device is lost afterwards, but not when it is released.
	RequestDevice(label string, onLost func(err error)) (Device, error)
}

// Surface is the presentable image sequence bound to the application window.
type Surface interface {
	Releasable
	// PreferredFormat returns the first color format the surface supports with the adapter.
	PreferredFormat(adapter Adapter) wgpu.TextureFormat
	Configure(adapter Adapter, device Device, cfg *SurfaceConfiguration) error
	// AcquireTexture returns the next swapchain texture, blocking as the present mode dictates.
	AcquireTexture() (Texture, error)
	Present() error
}

// Instance is the API entry point. It creates surfaces and negotiates adapters.
type Instance interface {
	Releasable
	CreateSurface() (Surface, error)
	RequestAdapter(opts *AdapterOptions, compatible Surface) (Adapter, error)
}

// AdapterOptions constrain adapter selection.
type AdapterOptions struct {
	PowerPreference      wgpu.PowerPreference
	BackendType          wgpu.BackendType
	ForceFallbackAdapter bool
}

// SurfaceConfiguration describes the swapchain.
type SurfaceConfiguration struct {
	Usage       wgpu.TextureUsage
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	PresentMode wgpu.PresentMode
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler to a slot.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	TextureView TextureView
	Sampler     Sampler
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// RenderPipelineDescriptor describes a vertex + fragment pipeline drawn from a single shader module.
type RenderPipelineDescriptor struct {
	Label              string
	Layout             PipelineLayout
	Module             ShaderModule
	VertexEntryPoint   string
	FragmentEntryPoint string
	Buffers            []wgpu.VertexBufferLayout
	Targets            []wgpu.ColorTargetState
	Primitive          wgpu.PrimitiveState
	DepthStencil       *wgpu.DepthStencilState
	Multisample        wgpu.MultisampleState
}

type ColorAttachment struct {
	View       TextureView
	LoadOp     wgpu.LoadOp
	StoreOp    wgpu.StoreOp
	ClearValue wgpu.Color
}

type DepthStencilAttachment struct {
	View              TextureView
	DepthLoadOp       wgpu.LoadOp
	DepthStoreOp      wgpu.StoreOp
	DepthClearValue   float32
	StencilLoadOp     wgpu.LoadOp
	StencilStoreOp    wgpu.StoreOp
	StencilClearValue uint32
}

type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}

// ImageCopyTexture addresses one mip level and origin of a texture. Origin.Z selects the array layer.
type ImageCopyTexture struct {
	Texture  Texture
	MipLevel uint32
	Origin   wgpu.Origin3D
	Aspect   wgpu.TextureAspect
}

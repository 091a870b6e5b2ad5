package gpu

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// The wgpu* types below adapt cogentcore/webgpu objects to the handle interfaces.
// Handles crossing back into wgpu are unwrapped by type assertion; handles created by another
// implementation are rejected with an error.

type wgpuInstance struct {
	instance          *wgpu.Instance
	surfaceDescriptor *wgpu.SurfaceDescriptor
}

type wgpuAdapter struct {
	adapter *wgpu.Adapter
	name    string
}

type wgpuSurface struct {
	surface *wgpu.Surface
}

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpuQueue
}

type wgpuQueue struct {
	queue *wgpu.Queue
}

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

type wgpuTexture struct {
	texture *wgpu.Texture
}

type wgpuTextureView struct{ view *wgpu.TextureView }
type wgpuSampler struct{ sampler *wgpu.Sampler }
type wgpuBindGroupLayout struct{ layout *wgpu.BindGroupLayout }
type wgpuBindGroup struct{ group *wgpu.BindGroup }
type wgpuShaderModule struct{ module *wgpu.ShaderModule }
type wgpuPipelineLayout struct{ layout *wgpu.PipelineLayout }
type wgpuRenderPipeline struct{ pipeline *wgpu.RenderPipeline }
type wgpuCommandEncoder struct{ encoder *wgpu.CommandEncoder }
type wgpuCommandBuffer struct{ buffer *wgpu.CommandBuffer }
type wgpuRenderPass struct{ pass *wgpu.RenderPassEncoder }

var (
	_ Instance       = &wgpuInstance{}
	_ Adapter        = &wgpuAdapter{}
	_ Surface        = &wgpuSurface{}
	_ Device         = &wgpuDevice{}
	_ Queue          = &wgpuQueue{}
	_ Texture        = &wgpuTexture{}
	_ CommandEncoder = &wgpuCommandEncoder{}
	_ RenderPass     = &wgpuRenderPass{}
)

// NewWGPUInstance creates a cogentcore/webgpu instance that renders into the surface described by
// surfaceDescriptor (see window.Window.SurfaceDescriptor). The calling goroutine is locked to its OS
// thread because the native surface must be driven from the thread that created it.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the target window
//
// Returns:
//   - Instance: the API instance
func NewWGPUInstance(surfaceDescriptor *wgpu.SurfaceDescriptor) Instance {
	runtime.LockOSThread()
	return &wgpuInstance{
		instance:          wgpu.CreateInstance(nil),
		surfaceDescriptor: surfaceDescriptor,
	}
}

func (i *wgpuInstance) CreateSurface() (Surface, error) {
	if i.surfaceDescriptor == nil {
		return nil, fmt.Errorf("no surface descriptor: window not created")
	}
	s := i.instance.CreateSurface(i.surfaceDescriptor)
	if s == nil {
		return nil, fmt.Errorf("surface creation failed")
	}
	return &wgpuSurface{surface: s}, nil
}

func (i *wgpuInstance) RequestAdapter(opts *AdapterOptions, compatible Surface) (Adapter, error) {
	wopts := &wgpu.RequestAdapterOptions{}
	if opts != nil {
		wopts.PowerPreference = opts.PowerPreference
		wopts.BackendType = opts.BackendType
		wopts.ForceFallbackAdapter = opts.ForceFallbackAdapter
	}
	if compatible != nil {
		s, ok := compatible.(*wgpuSurface)
		if !ok {
			return nil, fmt.Errorf("surface %T was not created by the wgpu backend", compatible)
		}
		wopts.CompatibleSurface = s.surface
	}
	a, err := i.instance.RequestAdapter(wopts)
	if err != nil {
		return nil, err
	}
	return &wgpuAdapter{
		adapter: a,
		name:    fmt.Sprintf("power=%v backend=%v fallback=%t", wopts.PowerPreference, wopts.BackendType, wopts.ForceFallbackAdapter),
	}, nil
}

func (i *wgpuInstance) Release() {
	i.instance.Release()
}

func (a *wgpuAdapter) Name() string {
	return a.name
}

func (a *wgpuAdapter) RequestDevice(label string, onLost func(err error)) (Device, error) {
	desc := &wgpu.DeviceDescriptor{
		Label: label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	}
	if onLost != nil {
		desc.DeviceLostCallback = func(reason wgpu.DeviceLostReason, message string) {
			if reason == wgpu.DeviceLostReasonDestroyed {
				return
			}
			onLost(fmt.Errorf("%s (%s): %w: %s", label, reason, ErrDeviceLost, message))
		}
	}
	d, err := a.adapter.RequestDevice(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuDevice{device: d, queue: &wgpuQueue{queue: d.GetQueue()}}, nil
}

func (a *wgpuAdapter) Release() {
	a.adapter.Release()
}

func (s *wgpuSurface) PreferredFormat(adapter Adapter) wgpu.TextureFormat {
	wa, ok := adapter.(*wgpuAdapter)
	if !ok {
		return wgpu.TextureFormatBGRA8Unorm
	}
	capabilities := s.surface.GetCapabilities(wa.adapter)
	if len(capabilities.Formats) == 0 {
		return wgpu.TextureFormatBGRA8Unorm
	}
	return capabilities.Formats[0]
}

func (s *wgpuSurface) Configure(adapter Adapter, device Device, cfg *SurfaceConfiguration) error {
	wa, ok := adapter.(*wgpuAdapter)
	if !ok {
		return fmt.Errorf("adapter %T was not created by the wgpu backend", adapter)
	}
	wd, ok := device.(*wgpuDevice)
	if !ok {
		return fmt.Errorf("device %T was not created by the wgpu backend", device)
	}
	capabilities := s.surface.GetCapabilities(wa.adapter)
	var alphaMode wgpu.CompositeAlphaMode
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}
	s.surface.Configure(wa.adapter, wd.device, &wgpu.SurfaceConfiguration{
		Usage:       cfg.Usage,
		Format:      cfg.Format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: cfg.PresentMode,
		AlphaMode:   alphaMode,
	})
	return nil
}

func (s *wgpuSurface) AcquireTexture() (Texture, error) {
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	return &wgpuTexture{texture: tex}, nil
}

func (s *wgpuSurface) Present() error {
	s.surface.Present()
	return nil
}

func (s *wgpuSurface) Release() {
	s.surface.Release()
}

func (d *wgpuDevice) Queue() Queue {
	return d.queue
}

func (d *wgpuDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error) {
	b, err := d.device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buffer: b, size: desc.Size}, nil
}

func (d *wgpuDevice) CreateTexture(desc *wgpu.TextureDescriptor) (Texture, error) {
	t, err := d.device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuTexture{texture: t}, nil
}

func (d *wgpuDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error) {
	s, err := d.device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuSampler{sampler: s}, nil
}

func (d *wgpuDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuShaderModule{module: m}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	l, err := d.device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroupLayout{layout: l}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	layout, ok := desc.Layout.(*wgpuBindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group layout %T was not created by the wgpu backend", desc.Layout)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding, Offset: e.Offset, Size: e.Size}
		switch {
		case e.Buffer != nil:
			b, ok := e.Buffer.(*wgpuBuffer)
			if !ok {
				return nil, fmt.Errorf("binding %d: buffer %T was not created by the wgpu backend", e.Binding, e.Buffer)
			}
			entry.Buffer = b.buffer
		case e.TextureView != nil:
			v, ok := e.TextureView.(*wgpuTextureView)
			if !ok {
				return nil, fmt.Errorf("binding %d: texture view %T was not created by the wgpu backend", e.Binding, e.TextureView)
			}
			entry.TextureView = v.view
		case e.Sampler != nil:
			s, ok := e.Sampler.(*wgpuSampler)
			if !ok {
				return nil, fmt.Errorf("binding %d: sampler %T was not created by the wgpu backend", e.Binding, e.Sampler)
			}
			entry.Sampler = s.sampler
		default:
			return nil, fmt.Errorf("binding %d has no resource", e.Binding)
		}
		entries[i] = entry
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{group: g}, nil
}

func (d *wgpuDevice) CreatePipelineLayout(label string, layouts []BindGroupLayout) (PipelineLayout, error) {
	raw := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		wl, ok := l.(*wgpuBindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("group %d: bind group layout %T was not created by the wgpu backend", i, l)
		}
		raw[i] = wl.layout
	}
	pl, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: raw,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuPipelineLayout{layout: pl}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	layout, ok := desc.Layout.(*wgpuPipelineLayout)
	if !ok {
		return nil, fmt.Errorf("pipeline layout %T was not created by the wgpu backend", desc.Layout)
	}
	module, ok := desc.Module.(*wgpuShaderModule)
	if !ok {
		return nil, fmt.Errorf("shader module %T was not created by the wgpu backend", desc.Module)
	}
	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.layout,
		Vertex: wgpu.VertexState{
			Module:     module.module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.Buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module.module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    desc.Targets,
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  desc.Multisample,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuRenderPipeline{pipeline: p}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	e, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandEncoder{encoder: e}, nil
}

func (d *wgpuDevice) Release() {
	d.device.Release()
}

func (q *wgpuQueue) WriteBuffer(buffer Buffer, offset uint64, data []byte) error {
	b, ok := buffer.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("buffer %T was not created by the wgpu backend", buffer)
	}
	return q.queue.WriteBuffer(b.buffer, offset, data)
}

func (q *wgpuQueue) WriteTexture(dst *ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	t, ok := dst.Texture.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("texture %T was not created by the wgpu backend", dst.Texture)
	}
	return q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: dst.MipLevel,
			Origin:   dst.Origin,
			Aspect:   dst.Aspect,
		},
		data,
		layout,
		size,
	)
}

func (q *wgpuQueue) Submit(buffers ...CommandBuffer) {
	raw := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		if wcb, ok := cb.(*wgpuCommandBuffer); ok {
			raw = append(raw, wcb.buffer)
		}
	}
	q.queue.Submit(raw...)
}

func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Release()     { b.buffer.Release() }

func (t *wgpuTexture) CreateView(desc *wgpu.TextureViewDescriptor) (TextureView, error) {
	v, err := t.texture.CreateView(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: v}, nil
}

func (t *wgpuTexture) Release() {
	t.texture.Release()
}

func (v *wgpuTextureView) Release()     { v.view.Release() }
func (s *wgpuSampler) Release()         { s.sampler.Release() }
func (l *wgpuBindGroupLayout) Release() { l.layout.Release() }
func (g *wgpuBindGroup) Release()       { g.group.Release() }
func (m *wgpuShaderModule) Release()    { m.module.Release() }
func (l *wgpuPipelineLayout) Release()  { l.layout.Release() }
func (p *wgpuRenderPipeline) Release()  { p.pipeline.Release() }
func (c *wgpuCommandBuffer) Release()   { c.buffer.Release() }

func (e *wgpuCommandEncoder) BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error) {
	wdesc := &wgpu.RenderPassDescriptor{Label: desc.Label}
	for i, ca := range desc.ColorAttachments {
		v, ok := ca.View.(*wgpuTextureView)
		if !ok {
			return nil, fmt.Errorf("color attachment %d: view %T was not created by the wgpu backend", i, ca.View)
		}
		wdesc.ColorAttachments = append(wdesc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       v.view,
			LoadOp:     ca.LoadOp,
			StoreOp:    ca.StoreOp,
			ClearValue: ca.ClearValue,
		})
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		v, ok := ds.View.(*wgpuTextureView)
		if !ok {
			return nil, fmt.Errorf("depth attachment: view %T was not created by the wgpu backend", ds.View)
		}
		wdesc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              v.view,
			DepthLoadOp:       ds.DepthLoadOp,
			DepthStoreOp:      ds.DepthStoreOp,
			DepthClearValue:   ds.DepthClearValue,
			StencilLoadOp:     ds.StencilLoadOp,
			StencilStoreOp:    ds.StencilStoreOp,
			StencilClearValue: ds.StencilClearValue,
		}
	}
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(wdesc)}, nil
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{buffer: cb}, nil
}

func (e *wgpuCommandEncoder) Release() {
	e.encoder.Release()
}

func (p *wgpuRenderPass) SetPipeline(pipeline RenderPipeline) {
	if rp, ok := pipeline.(*wgpuRenderPipeline); ok {
		p.pass.SetPipeline(rp.pipeline)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group BindGroup) {
	if g, ok := group.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(index, g.group, nil)
	}
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64) {
	if b, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetVertexBuffer(slot, b.buffer, offset, size)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat, offset, size uint64) {
	if b, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetIndexBuffer(b.buffer, format, offset, size)
	}
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) End() error {
	return p.pass.End()
}

func (p *wgpuRenderPass) Release() {
	p.pass.Release()
}

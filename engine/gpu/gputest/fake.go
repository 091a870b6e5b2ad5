// Package gputest provides an in-memory implementation of the gpu handle interfaces. Every creation, upload,
// pass command, submission and release is recorded so lifetime and ordering rules can be asserted without a GPU.
package gputest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Recorder is the shared event log of one fake device stack.
type Recorder struct {
	mu       sync.Mutex
	events   []string
	releases map[string]int
}

func newRecorder() *Recorder {
	return &Recorder{releases: make(map[string]int)}
}

func (r *Recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *Recorder) release(kind, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases[kind]++
	r.events = append(r.events, "release:"+kind+":"+label)
}

// Events returns a copy of every recorded event in issue order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// EventsWithPrefix returns the recorded events starting with prefix, in issue order.
func (r *Recorder) EventsWithPrefix(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Index returns the position of the first event equal to event, or -1.
func (r *Recorder) Index(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Index(r.events, event)
}

// Releases returns how many objects of the given kind were released.
func (r *Recorder) Releases(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases[kind]
}

// Reset clears the event log and release counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.releases = make(map[string]int)
}

// Object kinds used in release events.
const (
	KindInstance        = "instance"
	KindSurface         = "surface"
	KindAdapter         = "adapter"
	KindDevice          = "device"
	KindBuffer          = "buffer"
	KindTexture         = "texture"
	KindSurfaceTexture  = "surface-texture"
	KindTextureView     = "texture-view"
	KindSampler         = "sampler"
	KindBindGroupLayout = "bind-group-layout"
	KindBindGroup       = "bind-group"
	KindShaderModule    = "shader-module"
	KindPipelineLayout  = "pipeline-layout"
	KindRenderPipeline  = "render-pipeline"
	KindCommandEncoder  = "command-encoder"
	KindCommandBuffer   = "command-buffer"
	KindRenderPass      = "render-pass"
)

// object carries the release bookkeeping shared by every fake.
type object struct {
	rec      *Recorder
	kind     string
	label    string
	released int
}

func (o *object) Release() {
	o.released++
	o.rec.release(o.kind, o.label)
}

// ReleaseCount returns how many times Release was called on the object.
func (o *object) ReleaseCount() int { return o.released }

// Label returns the debug label the object was created with.
func (o *object) Label() string { return o.label }

// Instance is the fake API entry point. Set the *Err fields before Initialize to simulate bootstrap failures.
type Instance struct {
	object

	SurfaceErr error
	AdapterErr error
	DeviceErr  error

	// SurfaceFormat is what the created surface reports as preferred.
	SurfaceFormat wgpu.TextureFormat

	AdapterOptions *gpu.AdapterOptions
	Surface        *Surface
	Adapter        *Adapter
}

var (
	_ gpu.Instance       = &Instance{}
	_ gpu.Adapter        = &Adapter{}
	_ gpu.Surface        = &Surface{}
	_ gpu.Device         = &Device{}
	_ gpu.Queue          = &Queue{}
	_ gpu.Buffer         = &Buffer{}
	_ gpu.Texture        = &Texture{}
	_ gpu.TextureView    = &TextureView{}
	_ gpu.Sampler        = &Sampler{}
	_ gpu.CommandEncoder = &CommandEncoder{}
	_ gpu.RenderPass     = &RenderPass{}
)

// NewInstance creates a fake instance with its own Recorder.
func NewInstance() *Instance {
	return &Instance{
		object:        object{rec: newRecorder(), kind: KindInstance, label: "instance"},
		SurfaceFormat: wgpu.TextureFormatBGRA8Unorm,
	}
}

// Factory returns an instance constructor suitable for gpu.NewGpuContext.
func (i *Instance) Factory() func() (gpu.Instance, error) {
	return func() (gpu.Instance, error) {
		i.rec.record("instance:create")
		return i, nil
	}
}

// Recorder returns the event log shared by every object of this stack.
func (i *Instance) Recorder() *Recorder { return i.rec }

// Device returns the fake device granted by the adapter, or nil before Initialize.
func (i *Instance) Device() *Device {
	if i.Adapter == nil {
		return nil
	}
	return i.Adapter.Device
}

func (i *Instance) CreateSurface() (gpu.Surface, error) {
	if i.SurfaceErr != nil {
		return nil, i.SurfaceErr
	}
	i.rec.record("surface:create")
	i.Surface = &Surface{object: object{rec: i.rec, kind: KindSurface, label: "surface"}, format: i.SurfaceFormat}
	return i.Surface, nil
}

func (i *Instance) RequestAdapter(opts *gpu.AdapterOptions, compatible gpu.Surface) (gpu.Adapter, error) {
	if i.AdapterErr != nil {
		return nil, i.AdapterErr
	}
	if compatible == nil {
		return nil, errors.New("no compatible surface")
	}
	i.rec.record("adapter:request")
	i.AdapterOptions = opts
	i.Adapter = &Adapter{object: object{rec: i.rec, kind: KindAdapter, label: "adapter"}, instance: i}
	return i.Adapter, nil
}

type Adapter struct {
	object
	instance *Instance
	Device   *Device

	onLost func(err error)
}

func (a *Adapter) Name() string { return "fake adapter" }

func (a *Adapter) RequestDevice(label string, onLost func(err error)) (gpu.Device, error) {
	if a.instance.DeviceErr != nil {
		return nil, a.instance.DeviceErr
	}
	a.rec.record("device:request")
	a.Device = newDevice(a.rec, label)
	a.onLost = onLost
	return a.Device, nil
}

// LoseDevice simulates the backend losing the requested device with message.
func (a *Adapter) LoseDevice(message string) {
	a.rec.record("device:lost")
	if a.onLost != nil {
		a.onLost(fmt.Errorf("%s: %w: %s", a.Device.label, gpu.ErrDeviceLost, message))
	}
}

type Surface struct {
	object
	format wgpu.TextureFormat

	// AcquireErr makes the next AcquireTexture calls fail.
	AcquireErr error

	Configs  []gpu.SurfaceConfiguration
	Acquired []*Texture
	Presents int
}

func (s *Surface) PreferredFormat(gpu.Adapter) wgpu.TextureFormat { return s.format }

func (s *Surface) Configure(_ gpu.Adapter, _ gpu.Device, cfg *gpu.SurfaceConfiguration) error {
	s.rec.record("surface:configure %dx%d", cfg.Width, cfg.Height)
	s.Configs = append(s.Configs, *cfg)
	return nil
}

func (s *Surface) AcquireTexture() (gpu.Texture, error) {
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	s.rec.record("surface:acquire")
	var width, height uint32
	if n := len(s.Configs); n > 0 {
		width, height = s.Configs[n-1].Width, s.Configs[n-1].Height
	}
	t := &Texture{
		object: object{rec: s.rec, kind: KindSurfaceTexture, label: "swapchain"},
		Desc: wgpu.TextureDescriptor{
			Usage:     wgpu.TextureUsageRenderAttachment,
			Dimension: wgpu.TextureDimension2D,
			Size:      wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
			Format:    s.format,
		},
		Layers: make(map[uint32][]byte),
	}
	s.Acquired = append(s.Acquired, t)
	return t, nil
}

func (s *Surface) Present() error {
	s.rec.record("surface:present")
	s.Presents++
	return nil
}

// Device is the fake logical device. Every created object is appended to the matching slice.
type Device struct {
	object
	mu    sync.Mutex
	queue *Queue

	// ShaderErr and PipelineErr make the next module or pipeline creations fail.
	ShaderErr   error
	PipelineErr error
	// PassEndErr is returned by End on render passes of encoders created after it was set, the way the
	// backend reports draw-time validation failures.
	PassEndErr error

	Buffers          []*Buffer
	Textures         []*Texture
	Samplers         []*Sampler
	ShaderModules    []*ShaderModule
	BindGroupLayouts []*BindGroupLayout
	BindGroups       []*BindGroup
	PipelineLayouts  []*PipelineLayout
	RenderPipelines  []*RenderPipeline
	Encoders         []*CommandEncoder
}

// NewDevice creates a standalone fake device with its own Recorder, for code that only needs a device.
func NewDevice() *Device {
	return newDevice(newRecorder(), "device")
}

func newDevice(rec *Recorder, label string) *Device {
	return &Device{
		object: object{rec: rec, kind: KindDevice, label: label},
		queue:  &Queue{rec: rec},
	}
}

// Recorder returns the device's event log.
func (d *Device) Recorder() *Recorder { return d.rec }

// FakeQueue returns the concrete queue for inspection.
func (d *Device) FakeQueue() *Queue { return d.queue }

func (d *Device) Queue() gpu.Queue { return d.queue }

func (d *Device) CreateBuffer(desc *wgpu.BufferDescriptor) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("buffer:create %s %d", desc.Label, desc.Size)
	b := &Buffer{object: object{rec: d.rec, kind: KindBuffer, label: desc.Label}, Desc: *desc, Contents: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateTexture(desc *wgpu.TextureDescriptor) (gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("texture:create %s", desc.Label)
	t := &Texture{object: object{rec: d.rec, kind: KindTexture, label: desc.Label}, Desc: *desc, Layers: make(map[uint32][]byte)}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) CreateSampler(desc *wgpu.SamplerDescriptor) (gpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("sampler:create %s", desc.Label)
	s := &Sampler{object: object{rec: d.rec, kind: KindSampler, label: desc.Label}, Desc: *desc}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

func (d *Device) CreateShaderModule(label, wgsl string) (gpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ShaderErr != nil {
		return nil, d.ShaderErr
	}
	d.rec.record("shader:create %s", label)
	m := &ShaderModule{object: object{rec: d.rec, kind: KindShaderModule, label: label}, Source: wgsl}
	d.ShaderModules = append(d.ShaderModules, m)
	return m, nil
}

func (d *Device) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("bind-group-layout:create %s", desc.Label)
	l := &BindGroupLayout{object: object{rec: d.rec, kind: KindBindGroupLayout, label: desc.Label}, Desc: *desc}
	d.BindGroupLayouts = append(d.BindGroupLayouts, l)
	return l, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Layout == nil {
		return nil, errors.New("bind group has no layout")
	}
	d.rec.record("bind-group:create %s", desc.Label)
	g := &BindGroup{object: object{rec: d.rec, kind: KindBindGroup, label: desc.Label}, Desc: *desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

func (d *Device) CreatePipelineLayout(label string, layouts []gpu.BindGroupLayout) (gpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("pipeline-layout:create %s", label)
	l := &PipelineLayout{object: object{rec: d.rec, kind: KindPipelineLayout, label: label}, Layouts: slices.Clone(layouts)}
	d.PipelineLayouts = append(d.PipelineLayouts, l)
	return l, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.PipelineErr != nil {
		return nil, d.PipelineErr
	}
	d.rec.record("render-pipeline:create %s", desc.Label)
	p := &RenderPipeline{object: object{rec: d.rec, kind: KindRenderPipeline, label: desc.Label}, Desc: *desc}
	d.RenderPipelines = append(d.RenderPipelines, p)
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.record("encoder:create")
	e := &CommandEncoder{object: object{rec: d.rec, kind: KindCommandEncoder, label: label}, passEndErr: d.PassEndErr}
	d.Encoders = append(d.Encoders, e)
	return e, nil
}

// LastBindGroup returns the most recently created bind group, or nil.
func (d *Device) LastBindGroup() *BindGroup {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.BindGroups) == 0 {
		return nil
	}
	return d.BindGroups[len(d.BindGroups)-1]
}

// LiveBindGroups returns how many created bind groups have not been released.
func (d *Device) LiveBindGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, g := range d.BindGroups {
		if g.released == 0 {
			n++
		}
	}
	return n
}

// BufferWrite is one recorded WriteBuffer call.
type BufferWrite struct {
	Buffer *Buffer
	Offset uint64
	Data   []byte
}

// TextureWrite is one recorded WriteTexture call.
type TextureWrite struct {
	Texture *Texture
	Origin  wgpu.Origin3D
	Layout  wgpu.TextureDataLayout
	Size    wgpu.Extent3D
	Data    []byte
}

type Queue struct {
	rec *Recorder
	mu  sync.Mutex

	// WriteErr makes the next WriteBuffer calls fail.
	WriteErr error
	// TextureWriteErr makes the next WriteTexture calls fail.
	TextureWriteErr error

	BufferWrites  []BufferWrite
	TextureWrites []TextureWrite
	Submitted     []gpu.CommandBuffer
}

func (q *Queue) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.WriteErr != nil {
		return q.WriteErr
	}
	b, ok := buffer.(*Buffer)
	if !ok {
		return fmt.Errorf("buffer %T is not a fake buffer", buffer)
	}
	if offset+uint64(len(data)) > b.Desc.Size {
		return fmt.Errorf("write of %d bytes at %d overruns buffer %q of %d bytes", len(data), offset, b.label, b.Desc.Size)
	}
	copy(b.Contents[offset:], data)
	q.rec.record("queue:write-buffer %s %d", b.label, len(data))
	q.BufferWrites = append(q.BufferWrites, BufferWrite{Buffer: b, Offset: offset, Data: slices.Clone(data)})
	return nil
}

func (q *Queue) WriteTexture(dst *gpu.ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.TextureWriteErr != nil {
		return q.TextureWriteErr
	}
	t, ok := dst.Texture.(*Texture)
	if !ok {
		return fmt.Errorf("texture %T is not a fake texture", dst.Texture)
	}
	t.Layers[dst.Origin.Z] = slices.Clone(data)
	q.rec.record("queue:write-texture %s layer=%d", t.label, dst.Origin.Z)
	q.TextureWrites = append(q.TextureWrites, TextureWrite{
		Texture: t,
		Origin:  dst.Origin,
		Layout:  *layout,
		Size:    *size,
		Data:    slices.Clone(data),
	})
	return nil
}

func (q *Queue) Submit(buffers ...gpu.CommandBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rec.record("queue:submit %d", len(buffers))
	q.Submitted = append(q.Submitted, buffers...)
}

type Buffer struct {
	object
	Desc wgpu.BufferDescriptor
	// Contents mirrors every byte written through the queue.
	Contents []byte
}

func (b *Buffer) Size() uint64 { return b.Desc.Size }

type Texture struct {
	object
	Desc  wgpu.TextureDescriptor
	Views []*TextureView
	// Layers holds the last upload per array layer, keyed by destination origin Z.
	Layers map[uint32][]byte
}

func (t *Texture) CreateView(desc *wgpu.TextureViewDescriptor) (gpu.TextureView, error) {
	v := &TextureView{object: object{rec: t.rec, kind: KindTextureView, label: t.label}, Texture: t}
	if desc != nil {
		d := *desc
		v.Desc = &d
	}
	t.rec.record("texture-view:create %s", t.label)
	t.Views = append(t.Views, v)
	return v, nil
}

type TextureView struct {
	object
	Texture *Texture
	Desc    *wgpu.TextureViewDescriptor
}

type Sampler struct {
	object
	Desc wgpu.SamplerDescriptor
}

type BindGroupLayout struct {
	object
	Desc wgpu.BindGroupLayoutDescriptor
}

type BindGroup struct {
	object
	Desc gpu.BindGroupDescriptor
}

type ShaderModule struct {
	object
	Source string
}

type PipelineLayout struct {
	object
	Layouts []gpu.BindGroupLayout
}

type RenderPipeline struct {
	object
	Desc gpu.RenderPipelineDescriptor
}

type CommandBuffer struct {
	object
}

type CommandEncoder struct {
	object
	Passes   []*RenderPass
	Finished bool

	passEndErr error
}

func (e *CommandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	if n := len(e.Passes); n > 0 && !e.Passes[n-1].Ended {
		return nil, errors.New("render pass already open on encoder")
	}
	if e.Finished {
		return nil, errors.New("encoder already finished")
	}
	e.rec.record("pass:begin")
	p := &RenderPass{object: object{rec: e.rec, kind: KindRenderPass, label: desc.Label}, Desc: *desc, endErr: e.passEndErr}
	e.Passes = append(e.Passes, p)
	return p, nil
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	if n := len(e.Passes); n > 0 && !e.Passes[n-1].Ended {
		return nil, errors.New("finish with an open render pass")
	}
	if e.Finished {
		return nil, errors.New("encoder already finished")
	}
	e.Finished = true
	e.rec.record("encoder:finish")
	return &CommandBuffer{object: object{rec: e.rec, kind: KindCommandBuffer, label: e.label}}, nil
}

// RenderPass records its commands as readable strings, e.g. "draw 36 1 0 0".
type RenderPass struct {
	object
	Desc     gpu.RenderPassDescriptor
	Commands []string
	Ended    bool

	endErr error
}

func (p *RenderPass) SetPipeline(pipeline gpu.RenderPipeline) {
	label := ""
	if fp, ok := pipeline.(*RenderPipeline); ok {
		label = fp.label
	}
	p.Commands = append(p.Commands, "set-pipeline "+label)
}

func (p *RenderPass) SetBindGroup(index uint32, group gpu.BindGroup) {
	label := ""
	if fg, ok := group.(*BindGroup); ok {
		label = fg.label
	}
	p.Commands = append(p.Commands, fmt.Sprintf("set-bind-group %d %s", index, label))
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset, size uint64) {
	label := ""
	if fb, ok := buffer.(*Buffer); ok {
		label = fb.label
	}
	p.Commands = append(p.Commands, fmt.Sprintf("set-vertex-buffer %d %s %d %d", slot, label, offset, size))
}

func (p *RenderPass) SetIndexBuffer(buffer gpu.Buffer, format wgpu.IndexFormat, offset, size uint64) {
	label := ""
	if fb, ok := buffer.(*Buffer); ok {
		label = fb.label
	}
	width := 16
	if format == wgpu.IndexFormatUint32 {
		width = 32
	}
	p.Commands = append(p.Commands, fmt.Sprintf("set-index-buffer %s uint%d %d %d", label, width, offset, size))
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance))
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("draw-indexed %d %d %d %d %d", indexCount, instanceCount, firstIndex, baseVertex, firstInstance))
}

func (p *RenderPass) End() error {
	if p.Ended {
		return errors.New("render pass already ended")
	}
	p.Ended = true
	p.rec.record("pass:end")
	return p.endErr
}

// NewContext returns a GpuContext initialized against a fresh fake instance at 800x600.
func NewContext(options ...gpu.GpuContextBuilderOption) (gpu.GpuContext, *Instance, error) {
	inst := NewInstance()
	ctx := gpu.NewGpuContext(inst.Factory(), options...)
	if err := ctx.Initialize(800, 600, "test"); err != nil {
		return nil, nil, err
	}
	return ctx, inst, nil
}

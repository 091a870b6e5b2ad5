package gpu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DepthFormat is the combined depth and stencil format used by every depth attachment.
// The stencil aspect is unused but keeps the attachment compatible with the pipelines' depth state.
const DepthFormat = wgpu.TextureFormatDepth24PlusStencil8

// ErrorHandler receives device errors that surface outside a construction call (uploads, submissions, presents).
type ErrorHandler func(err error)

// GpuContext owns the instance, surface, adapter, device and queue of the application and keeps the surface
// configured to the current window size. It is created once at startup and disposed once at shutdown.
//
// Every accessor returns ErrNotReady until Initialize has completed, so no dependent object can be created
// against a half-negotiated device.
type GpuContext interface {
	// Initialize brings up the device stack: instance, surface, adapter, device, then the surface configuration
	// and the depth attachment. It blocks until the adapter and device have been granted.
	// On failure everything acquired so far is released and the backend message is returned.
	//
	// Parameters:
	//   - width: the initial surface width in pixels
	//   - height: the initial surface height in pixels
	//   - title: the application title, used for labels and logging
	//
	// Returns:
	//   - error: ErrAlreadyInitialized on a second call, or the bootstrap failure
	Initialize(width, height int, title string) error

	// Wait blocks until Initialize has completed successfully or ctx is done.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() if the context finished first
	Wait(ctx context.Context) error

	// Ready reports whether Initialize has completed and Dispose has not been called.
	Ready() bool

	// Device returns the logical device.
	//
	// Returns:
	//   - Device: the device
	//   - error: ErrNotReady before Initialize completes, ErrReleased after Dispose
	Device() (Device, error)

	// Queue returns the device queue.
	//
	// Returns:
	//   - Queue: the queue
	//   - error: ErrNotReady before Initialize completes, ErrReleased after Dispose
	Queue() (Queue, error)

	// Surface returns the window surface.
	//
	// Returns:
	//   - Surface: the surface
	//   - error: ErrNotReady before Initialize completes, ErrReleased after Dispose
	Surface() (Surface, error)

	// Adapter returns the adapter the device was requested from.
	//
	// Returns:
	//   - Adapter: the adapter
	//   - error: ErrNotReady before Initialize completes, ErrReleased after Dispose
	Adapter() (Adapter, error)

	// SurfaceFormat returns the color format the surface was configured with.
	// The value is undefined until Initialize completes.
	SurfaceFormat() wgpu.TextureFormat

	// DepthFormat returns the format of the depth attachment.
	DepthFormat() wgpu.TextureFormat

	// DepthView returns the view of the current depth attachment. It changes on every ReconfigureSurface.
	//
	// Returns:
	//   - TextureView: the depth-stencil view
	//   - error: ErrNotReady before Initialize completes, ErrReleased after Dispose
	DepthView() (TextureView, error)

	// Size returns the current surface size in pixels.
	Size() (width, height uint32)

	// ClearColor returns the color attachments are cleared to at the start of a frame.
	ClearColor() wgpu.Color

	// ReconfigureSurface re-issues the surface configuration for a new window size and recreates the depth
	// attachment, releasing the previous depth texture and view first if there are any.
	// A zero width or height (minimized window) leaves the current configuration in place.
	// Must only be called between frames.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: ErrNotReady before Initialize completes, or the configuration failure
	ReconfigureSurface(width, height int) error

	// Dispose releases the depth attachment, then device, surface, adapter and instance in that order.
	// Calls after the first are no-ops.
	Dispose()

	// ReportError routes a device error raised outside a construction call to the installed ErrorHandler.
	//
	// Parameters:
	//   - err: the error to report, nil is ignored
	ReportError(err error)
}

type gpuContext struct {
	mu *sync.Mutex

	newInstance func() (Instance, error)

	instance Instance
	surface  Surface
	adapter  Adapter
	device   Device
	queue    Queue

	surfaceFormat wgpu.TextureFormat
	depthTexture  Texture
	depthView     TextureView
	width         uint32
	height        uint32
	title         string

	presentMode          PresentMode
	powerPreference      wgpu.PowerPreference
	backend              wgpu.BackendType
	forceFallbackAdapter bool
	clearColor           wgpu.Color
	errorHandler         ErrorHandler

	ready       chan struct{}
	initialized bool
	disposed    bool
}

var _ GpuContext = &gpuContext{}

// NewGpuContext creates an uninitialized GpuContext. No GPU object is created until Initialize.
//
// Parameters:
//   - newInstance: creates the API instance, typically a closure over NewWGPUInstance and the window's surface descriptor
//   - options: optional GpuContextBuilderOption functions
//
// Returns:
//   - GpuContext: the context
func NewGpuContext(newInstance func() (Instance, error), options ...GpuContextBuilderOption) GpuContext {
	c := &gpuContext{
		mu:              &sync.Mutex{},
		newInstance:     newInstance,
		presentMode:     PresentModeVSync,
		powerPreference: wgpu.PowerPreferenceHighPerformance,
		clearColor:      wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1},
		ready:           make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.errorHandler == nil {
		c.errorHandler = func(err error) {
			common.Logger().Error("uncaptured device error", "error", err)
		}
	}
	return c
}

func (c *gpuContext) Initialize(width, height int, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return ErrAlreadyInitialized
	}
	if c.disposed {
		return ErrReleased
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid initial surface size %dx%d", width, height)
	}
	if c.newInstance == nil {
		return errors.New("no instance constructor configured")
	}

	c.title = title
	if err := c.bootstrap(); err != nil {
		c.releaseAll()
		return err
	}

	c.surfaceFormat = c.surface.PreferredFormat(c.adapter)
	if err := c.configure(uint32(width), uint32(height)); err != nil {
		c.releaseAll()
		return err
	}

	c.initialized = true
	close(c.ready)
	common.Logger().Info("gpu context ready",
		"title", title,
		"adapter", c.adapter.Name(),
		"format", c.surfaceFormat,
		"width", width,
		"height", height,
	)
	return nil
}

// bootstrap acquires instance, surface, adapter and device in dependency order.
// Each acquired object is stored immediately so a later failure can release it.
func (c *gpuContext) bootstrap() error {
	instance, err := c.newInstance()
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	c.instance = instance

	surface, err := instance.CreateSurface()
	if err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	c.surface = surface

	adapter, err := instance.RequestAdapter(&AdapterOptions{
		PowerPreference:      c.powerPreference,
		BackendType:          c.backend,
		ForceFallbackAdapter: c.forceFallbackAdapter,
	}, surface)
	if err != nil {
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(c.title+" device", c.ReportError)
	if err != nil {
		return fmt.Errorf("failed to request device: %w", err)
	}
	c.device = device
	c.queue = device.Queue()
	return nil
}

// configure applies the surface configuration and swaps the depth attachment. Caller holds c.mu.
func (c *gpuContext) configure(width, height uint32) error {
	err := c.surface.Configure(c.adapter, c.device, &SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: c.wgpuPresentMode(),
	})
	if err != nil {
		return fmt.Errorf("failed to configure surface %dx%d: %w", width, height, err)
	}

	c.releaseDepth()
	texture, err := c.device.CreateTexture(DepthTextureDescriptor("depth texture", width, height))
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return fmt.Errorf("failed to create depth view: %w", err)
	}
	c.depthTexture = texture
	c.depthView = view
	c.width = width
	c.height = height
	return nil
}

func (c *gpuContext) wgpuPresentMode() wgpu.PresentMode {
	if c.presentMode == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// releaseDepth releases the depth view and texture if present.
func (c *gpuContext) releaseDepth() {
	if c.depthView != nil {
		c.depthView.Release()
		c.depthView = nil
	}
	if c.depthTexture != nil {
		c.depthTexture.Release()
		c.depthTexture = nil
	}
}

// releaseAll tears down in reverse acquisition order. Caller holds c.mu.
func (c *gpuContext) releaseAll() {
	c.releaseDepth()
	c.queue = nil
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

func (c *gpuContext) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *gpuContext) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized && !c.disposed
}

// checkReady reports the lifecycle error for accessors. Caller holds c.mu.
func (c *gpuContext) checkReady() error {
	if c.disposed {
		return ErrReleased
	}
	if !c.initialized {
		return ErrNotReady
	}
	return nil
}

func (c *gpuContext) Device() (Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.device, nil
}

func (c *gpuContext) Queue() (Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.queue, nil
}

func (c *gpuContext) Surface() (Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.surface, nil
}

func (c *gpuContext) Adapter() (Adapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.adapter, nil
}

func (c *gpuContext) SurfaceFormat() wgpu.TextureFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaceFormat
}

func (c *gpuContext) DepthFormat() wgpu.TextureFormat {
	return DepthFormat
}

func (c *gpuContext) DepthView() (TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.depthView, nil
}

func (c *gpuContext) Size() (uint32, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *gpuContext) ClearColor() wgpu.Color {
	return c.clearColor
}

func (c *gpuContext) ReconfigureSurface(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		common.Logger().Debug("surface reconfigure skipped", "width", width, "height", height)
		return nil
	}
	if err := c.configure(uint32(width), uint32(height)); err != nil {
		return err
	}
	common.Logger().Info("surface reconfigured", "width", width, "height", height)
	return nil
}

func (c *gpuContext) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.releaseAll()
	common.Logger().Info("gpu context disposed", "title", c.title)
}

func (c *gpuContext) ReportError(err error) {
	if err == nil {
		return
	}
	c.errorHandler(err)
}

// DepthTextureDescriptor describes a single-sample depth-stencil render attachment.
//
// Parameters:
//   - label: the debug label
//   - width, height: the attachment extent in pixels
//
// Returns:
//   - *wgpu.TextureDescriptor: the descriptor
func DepthTextureDescriptor(label string, width, height uint32) *wgpu.TextureDescriptor {
	return &wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageRenderAttachment,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		Format:        DepthFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	}
}

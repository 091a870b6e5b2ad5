// Package frame brackets every rendered frame: it acquires the swapchain image, opens the single render pass
// renderers record into, and submits and presents the result.
package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the position of the orchestrator in the per-frame state machine.
type State int

const (
	StateIdle State = iota
	StateEncoding
	StateInPass
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEncoding:
		return "encoding"
	case StateInPass:
		return "in-pass"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrFrameInProgress is returned by BeginFrame while a previous frame has not been ended.
	ErrFrameInProgress = errors.New("frame already in progress")

	// ErrNoFrame is returned by EndFrame and Pass when no frame has been begun.
	ErrNoFrame = errors.New("no frame in progress")
)

// FrameOrchestrator owns the transient objects of exactly one frame at a time: surface texture, its view, the
// command encoder and the render pass. Nothing it creates survives EndFrame.
//
// It is not re-entrant. BeginFrame and EndFrame must strictly alternate on the render thread, and surface
// reconfiguration happens only between EndFrame and the next BeginFrame.
type FrameOrchestrator interface {
	// BeginFrame acquires the next swapchain image and opens a render pass with a cleared color attachment and a
	// cleared depth-stencil attachment (depth 1.0, stencil 0), both stored.
	//
	// Returns:
	//   - error: ErrFrameInProgress if the previous frame was not ended, or the acquisition failure; in both cases
	//     nothing is left acquired and the state is unchanged
	BeginFrame() error

	// Pass returns the active render pass. It is the only place draw calls may be recorded.
	//
	// Returns:
	//   - gpu.RenderPass: the open pass
	//   - error: ErrNoFrame outside BeginFrame/EndFrame
	Pass() (gpu.RenderPass, error)

	// EndFrame ends the pass, finishes the encoder, submits, presents and then releases every transient object.
	//
	// Returns:
	//   - error: ErrNoFrame without a prior BeginFrame, or the first failure while finishing the frame
	EndFrame() error

	// State returns the current state.
	//
	// Returns:
	//   - State: the state
	State() State

	// Frames returns how many frames were submitted.
	//
	// Returns:
	//   - uint64: the submitted frame count
	Frames() uint64
}

type frameOrchestrator struct {
	mu    *sync.Mutex
	ctx   gpu.GpuContext
	label string

	state  State
	frames uint64

	surfaceTexture gpu.Texture
	view           gpu.TextureView
	encoder        gpu.CommandEncoder
	pass           gpu.RenderPass
	commandBuffer  gpu.CommandBuffer
}

var _ FrameOrchestrator = &frameOrchestrator{}

// NewFrameOrchestrator creates a FrameOrchestrator drawing into the surface of ctx.
//
// Parameters:
//   - ctx: an initialized GpuContext
//   - options: optional FrameOrchestratorBuilderOption functions
//
// Returns:
//   - FrameOrchestrator: the orchestrator, in StateIdle
func NewFrameOrchestrator(ctx gpu.GpuContext, options ...FrameOrchestratorBuilderOption) FrameOrchestrator {
	f := &frameOrchestrator{
		mu:    &sync.Mutex{},
		ctx:   ctx,
		label: "frame",
		state: StateIdle,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *frameOrchestrator) BeginFrame() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		return fmt.Errorf("begin frame in state %s: %w", f.state, ErrFrameInProgress)
	}

	device, err := f.ctx.Device()
	if err != nil {
		return err
	}
	surface, err := f.ctx.Surface()
	if err != nil {
		return err
	}
	depthView, err := f.ctx.DepthView()
	if err != nil {
		return err
	}

	surfaceTexture, err := surface.AcquireTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create surface texture view: %w", err)
	}

	encoder, err := device.CreateCommandEncoder(f.label + " encoder")
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	f.state = StateEncoding

	pass, err := encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: f.label + " pass",
		ColorAttachments: []gpu.ColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: f.ctx.ClearColor(),
		}},
		DepthStencilAttachment: &gpu.DepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	})
	if err != nil {
		encoder.Release()
		view.Release()
		surfaceTexture.Release()
		f.state = StateIdle
		return fmt.Errorf("failed to begin render pass: %w", err)
	}

	f.surfaceTexture = surfaceTexture
	f.view = view
	f.encoder = encoder
	f.pass = pass
	f.state = StateInPass
	return nil
}

func (f *frameOrchestrator) Pass() (gpu.RenderPass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateInPass {
		return nil, ErrNoFrame
	}
	return f.pass, nil
}

func (f *frameOrchestrator) EndFrame() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateInPass {
		return fmt.Errorf("end frame in state %s: %w", f.state, ErrNoFrame)
	}
	defer f.releaseFrame()

	if err := f.pass.End(); err != nil {
		return fmt.Errorf("failed to end render pass: %w", err)
	}
	f.state = StateEncoding

	commandBuffer, err := f.encoder.Finish()
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	f.commandBuffer = commandBuffer

	queue, err := f.ctx.Queue()
	if err != nil {
		return err
	}
	queue.Submit(commandBuffer)
	f.state = StateSubmitted
	f.frames++

	surface, err := f.ctx.Surface()
	if err != nil {
		return err
	}
	if err := surface.Present(); err != nil {
		// The frame was submitted; a failed present only loses this image.
		f.ctx.ReportError(fmt.Errorf("failed to present frame %d: %w", f.frames, err))
	}
	return nil
}

// releaseFrame releases the pass, command buffer, encoder, view and surface texture, in that order, and
// returns to StateIdle.
func (f *frameOrchestrator) releaseFrame() {
	if f.pass != nil {
		f.pass.Release()
	}
	if f.commandBuffer != nil {
		f.commandBuffer.Release()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.surfaceTexture != nil {
		f.surfaceTexture.Release()
	}
	f.pass = nil
	f.commandBuffer = nil
	f.encoder = nil
	f.view = nil
	f.surfaceTexture = nil
	f.state = StateIdle
}

func (f *frameOrchestrator) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *frameOrchestrator) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

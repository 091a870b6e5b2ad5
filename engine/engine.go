// Package engine drives the frame loop: window events, input, fixed-rate ticks, shader reloads, scene update
// and one render pass per frame.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
	"github.com/Carmen-Shannon/oxy-fps/engine/scene"
	"github.com/Carmen-Shannon/oxy-fps/engine/window"
)

// ErrNoWindow is returned by Initialize and Run when the engine has no window.
var ErrNoWindow = errors.New("engine has no window")

// ErrNoScene is returned by Initialize when the engine was built without a scene.
var ErrNoScene = errors.New("engine has no scene")

// maxTicksPerFrame bounds the fixed-rate catch-up after a long frame.
const maxTicksPerFrame = 5

// ShaderChanges reports shader files changed since the previous Drain, as paths inside the shader file system.
// *shader.Watcher satisfies it when the watched directory maps onto the file system root.
type ShaderChanges interface {
	Drain() []string
	Close() error
}

type engine struct {
	mu *sync.Mutex

	window window.Window
	ctx    gpu.GpuContext
	frames frame.FrameOrchestrator
	scene  scene.Scene
	input  *inputState

	shaderChanges ShaderChanges
	shaderFS      fs.FS
	shaderOptions []shader.ShaderBuilderOption

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRate       time.Duration
	tickAccum      time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	pendingResize *[2]int

	initialized bool
	disposed    bool
	quitOnce    sync.Once
}

// Engine owns the frame loop of one scene rendered into one window.
// Everything runs on the thread that calls Run; resizes and shader changes are queued by their callbacks and
// applied between frames.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil when none was configured
	Window() window.Window

	// Context returns the GPU context the engine renders with.
	//
	// Returns:
	//   - gpu.GpuContext: the context
	Context() gpu.GpuContext

	// Scene returns the rendered scene.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the fixed tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each fixed tick, before the scene update of the frame.
	// Use this for game logic and physics.
	//
	// Parameters:
	//   - callback: function receiving the fixed tick duration in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each frame after the scene was recorded and before the
	// frame is submitted.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Initialize brings up the GPU context at the window's framebuffer size, initializes the scene and hooks
	// the window's resize and input callbacks.
	//
	// Returns:
	//   - error: ErrNoWindow, ErrNoScene, gpu.ErrAlreadyInitialized on a second call, or the context or scene failure
	Initialize() error

	// Step runs one frame: queued resize, queued shader reloads, input, fixed ticks, scene update, then
	// BeginFrame, scene render and EndFrame.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: the frame or render failure; the frame is always ended when it was begun. Scene update
	//     failures go to GpuContext.ReportError instead
	Step(dt float32) error

	// Run initializes the engine if needed, then steps once per window message loop iteration until the window
	// closes or Quit is called. The engine is disposed and the window closed before Run returns.
	//
	// Returns:
	//   - error: the initialization failure
	Run() error

	// Quit makes Run return after the current frame. Safe to call multiple times.
	Quit()

	// Dispose releases the scene, the shader change source and the GPU context. Calls after the first are
	// no-ops.
	Dispose()
}

var _ Engine = &engine{}

// NewEngine creates an Engine rendering s through ctx.
//
// Parameters:
//   - ctx: the GPU context, not yet initialized
//   - s: the scene to render
//   - options: functional options for engine configuration (window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(ctx gpu.GpuContext, s scene.Scene, options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:       &sync.Mutex{},
		ctx:      ctx,
		scene:    s,
		input:    newInputState(),
		profiler: profiler.NewProfiler(time.Second),
		tickRate: time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Context() gpu.GpuContext {
	return e.ctx
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickRate = tickDuration(fps)
	e.tickAccum = 0
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimitDuration(fps)
}

func (e *engine) Initialize() error {
	if e.window == nil {
		return ErrNoWindow
	}
	if e.scene == nil {
		return ErrNoScene
	}
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return gpu.ErrAlreadyInitialized
	}
	e.mu.Unlock()

	width, height := e.window.Width(), e.window.Height()
	if err := e.ctx.Initialize(width, height, e.window.Title()); err != nil {
		return fmt.Errorf("failed to initialize gpu context: %w", err)
	}
	builders, err := variant.NewBuilders(e.ctx)
	if err != nil {
		e.ctx.Dispose()
		return err
	}
	e.scene.Resize(width, height)
	if err := e.scene.Initialize(builders); err != nil {
		e.ctx.Dispose()
		return fmt.Errorf("failed to initialize scene %s: %w", e.scene.Name(), err)
	}

	e.mu.Lock()
	e.frames = frame.NewFrameOrchestrator(e.ctx, frame.WithLabel(e.scene.Name()))
	e.initialized = true
	e.mu.Unlock()

	e.window.SetResizeCallback(e.queueResize)
	e.window.SetKeyDownCallback(e.input.keyDown)
	e.window.SetKeyUpCallback(e.input.keyUp)
	e.window.SetMouseMoveCallback(func(x, y float64) {
		e.input.mouseMove(x, y, e.window.CursorCaptured())
	})

	common.Logger().Info("engine initialized", "scene", e.scene.Name(), "width", width, "height", height)
	return nil
}

// queueResize records the latest size; Step applies it before the next BeginFrame.
func (e *engine) queueResize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingResize = &[2]int{width, height}
}

func (e *engine) Step(dt float32) error {
	e.mu.Lock()
	if !e.initialized || e.disposed {
		e.mu.Unlock()
		return variant.ErrNotInitialized
	}
	resize := e.pendingResize
	e.pendingResize = nil
	ticks, tickDt := e.advanceTicks(dt)
	tickCallback, renderCallback := e.tickCallback, e.renderCallback
	profiling := e.profilingEnabled
	e.mu.Unlock()

	if resize != nil {
		e.applyResize(resize[0], resize[1])
	}
	e.reloadShaders()
	e.input.apply(e.scene.Camera().Controller(), dt)

	if tickCallback != nil {
		for range ticks {
			tickCallback(tickDt)
		}
	}

	// Upload failures leave last frame's uniforms in place; the frame still renders.
	if err := e.scene.Update(dt); err != nil {
		e.ctx.ReportError(fmt.Errorf("failed to update scene %s: %w", e.scene.Name(), err))
	}

	if err := e.render(dt, renderCallback); err != nil {
		return err
	}

	if profiling {
		e.profiler.Tick()
	}
	return nil
}

// advanceTicks must be called with the lock held.
func (e *engine) advanceTicks(dt float32) (int, float32) {
	e.tickAccum += time.Duration(float64(dt) * float64(time.Second))
	ticks := 0
	for e.tickAccum >= e.tickRate && ticks < maxTicksPerFrame {
		e.tickAccum -= e.tickRate
		ticks++
	}
	if ticks == maxTicksPerFrame {
		e.tickAccum = 0
	}
	return ticks, float32(e.tickRate.Seconds())
}

func (e *engine) applyResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := e.ctx.ReconfigureSurface(width, height); err != nil {
		e.ctx.ReportError(fmt.Errorf("failed to reconfigure surface: %w", err))
		return
	}
	e.scene.Resize(width, height)
}

// reloadShaders rebuilds the pipelines of every changed shader. A shader that fails to load or build keeps
// the previous pipeline and is only logged, so a typo while editing never stops the loop.
func (e *engine) reloadShaders() {
	if e.shaderChanges == nil || e.shaderFS == nil {
		return
	}
	for _, path := range e.shaderChanges.Drain() {
		sh, err := shader.Load(e.shaderFS, path, e.shaderOptions...)
		if err != nil {
			common.Logger().Warn("shader reload failed", "path", path, "error", err)
			continue
		}
		if err := e.scene.ReloadShader(sh); err != nil {
			common.Logger().Warn("shader reload failed", "path", path, "error", err)
			continue
		}
		common.Logger().Info("shader reloaded", "path", path)
	}
}

func (e *engine) render(dt float32, renderCallback func(float32)) error {
	if err := e.frames.BeginFrame(); err != nil {
		e.scene.DiscardFrame()
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	pass, err := e.frames.Pass()
	if err == nil {
		err = e.scene.Render(pass)
	}
	if err == nil && renderCallback != nil {
		renderCallback(dt)
	}
	if endErr := e.frames.EndFrame(); endErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to end frame: %w", endErr))
	}
	return err
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		if err := e.Initialize(); err != nil {
			return err
		}
	}
	defer func() {
		e.Dispose()
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("failed to close window", "error", err)
		}
	}()

	last := time.Now()
	e.window.SetUpdateCallback(func() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if err := e.Step(dt); err != nil {
			common.Logger().Warn("frame failed", "error", err)
		}

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.mu.Unlock()

	if e.shaderChanges != nil {
		if err := e.shaderChanges.Close(); err != nil {
			common.Logger().Warn("failed to close shader watcher", "error", err)
		}
	}
	if e.scene != nil {
		e.scene.Dispose()
	}
	e.ctx.Dispose()
}

func tickDuration(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameLimitDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

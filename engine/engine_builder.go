package engine

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the fixed tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate = tickDuration(fps)
	}
}

// WithWindow sets the window the engine renders into and reads input from.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimitDuration(fps)
	}
}

// WithShaderChanges reloads changed shaders between frames. Paths drained from changes are loaded from
// fsys. The engine closes changes on Dispose.
//
// Parameters:
//   - changes: the change source
//   - fsys: the file system the changed paths are read from
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderChanges(changes ShaderChanges, fsys fs.FS) EngineBuilderOption {
	return func(e *engine) {
		e.shaderChanges = changes
		e.shaderFS = fsys
	}
}

// WithShaderWatcher watches dir/shaders for .wgsl changes and reloads them from dir, the layout the embedded
// assets use.
//
// Parameters:
//   - dir: the asset directory containing shaders/
//
// Returns:
//   - EngineBuilderOption: option function to apply
//   - error: the watcher creation failure
func WithShaderWatcher(dir string) (EngineBuilderOption, error) {
	w, err := shader.NewWatcher(filepath.Join(dir, "shaders"))
	if err != nil {
		return nil, err
	}
	return WithShaderChanges(prefixedChanges{changes: w, prefix: "shaders"}, os.DirFS(dir)), nil
}

// WithShaderOptions passes options to every shader the engine reloads.
//
// Parameters:
//   - options: the shader options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderOptions(options ...shader.ShaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.shaderOptions = append(e.shaderOptions, options...)
	}
}

// WithTickCallback registers the fixed tick callback during construction.
//
// Parameters:
//   - callback: function receiving the fixed tick duration in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// prefixedChanges maps watcher paths, relative to a subdirectory, into the parent file system.
type prefixedChanges struct {
	changes ShaderChanges
	prefix  string
}

func (p prefixedChanges) Drain() []string {
	paths := p.changes.Drain()
	for i, rel := range paths {
		paths[i] = path.Join(p.prefix, rel)
	}
	return paths
}

func (p prefixedChanges) Close() error {
	return p.changes.Close()
}

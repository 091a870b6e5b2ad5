package gpu

import "github.com/cogentcore/webgpu/wgpu"

// GpuContextBuilderOption is a functional option applied to a GpuContext during construction via NewGpuContext.
type GpuContextBuilderOption func(*gpuContext)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the present mode option to a context
func WithPresentMode(mode PresentMode) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.presentMode = mode
	}
}

// WithPowerPreference sets the adapter power preference. Defaults to high performance.
//
// Parameters:
//   - pref: the wgpu power preference
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the power preference option to a context
func WithPowerPreference(pref wgpu.PowerPreference) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.powerPreference = pref
	}
}

// WithBackend pins the adapter request to an explicit backend (Vulkan, Metal, D3D12...).
// The zero value lets wgpu choose.
//
// Parameters:
//   - backend: the wgpu backend type
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the backend option to a context
func WithBackend(backend wgpu.BackendType) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.backend = backend
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the fallback adapter option to a context
func WithForceFallbackAdapter(force bool) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.forceFallbackAdapter = force
	}
}

// WithErrorHandler installs the receiver of device errors reported through ReportError.
// The default handler logs them at error level.
//
// Parameters:
//   - handler: the error handler, nil keeps the default
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the error handler option to a context
func WithErrorHandler(handler ErrorHandler) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.errorHandler = handler
	}
}

// WithClearColor sets the color the frame's color attachment is cleared to.
//
// Parameters:
//   - rgba: red, green, blue and alpha in [0, 1]
//
// Returns:
//   - GpuContextBuilderOption: a function that applies the clear color option to a context
func WithClearColor(rgba [4]float64) GpuContextBuilderOption {
	return func(c *gpuContext) {
		c.clearColor = wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	}
}

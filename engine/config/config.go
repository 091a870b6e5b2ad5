// Package config loads engine settings from TOML or YAML files and maps them onto the builder options of
// the gpu, window and engine packages.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFormat is returned by Load for extensions other than .toml, .yaml and .yml.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrInvalid wraps every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Config is the file-backed engine configuration.
type Config struct {
	Window   Window   `toml:"window" yaml:"window"`
	Graphics Graphics `toml:"graphics" yaml:"graphics"`
	Engine   Engine   `toml:"engine" yaml:"engine"`
	Assets   Assets   `toml:"assets" yaml:"assets"`
}

// Window holds the initial window settings.
type Window struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// Graphics holds device and surface settings.
type Graphics struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode" yaml:"present_mode"`
	// PowerPreference is "high-performance" or "low-power".
	PowerPreference string `toml:"power_preference" yaml:"power_preference"`
	// Backend pins the adapter backend: "", "vulkan", "metal", "d3d12", "d3d11", "opengl" or "opengles".
	Backend              string     `toml:"backend" yaml:"backend"`
	ForceFallbackAdapter bool       `toml:"force_fallback_adapter" yaml:"force_fallback_adapter"`
	ClearColor           [4]float64 `toml:"clear_color" yaml:"clear_color"`
}

// Engine holds loop timing settings.
type Engine struct {
	TickRate   float64 `toml:"tick_rate" yaml:"tick_rate"`
	FrameLimit float64 `toml:"frame_limit" yaml:"frame_limit"`
	Profiling  bool    `toml:"profiling" yaml:"profiling"`
}

// Assets holds asset locations.
type Assets struct {
	// ShaderDir is the directory containing shaders/*.wgsl. Empty uses the embedded shaders.
	ShaderDir    string `toml:"shader_dir" yaml:"shader_dir"`
	WatchShaders bool   `toml:"watch_shaders" yaml:"watch_shaders"`
	// Skybox lists six face images in +X, -X, +Y, -Y, +Z, -Z order. Empty disables the skybox.
	Skybox []string `toml:"skybox" yaml:"skybox"`
}

var presentModes = map[string]gpu.PresentMode{
	"vsync":    gpu.PresentModeVSync,
	"uncapped": gpu.PresentModeUncapped,
}

var powerPreferences = map[string]wgpu.PowerPreference{
	"high-performance": wgpu.PowerPreferenceHighPerformance,
	"low-power":        wgpu.PowerPreferenceLowPower,
}

var backends = map[string]wgpu.BackendType{
	"":         wgpu.BackendTypeUndefined,
	"vulkan":   wgpu.BackendTypeVulkan,
	"metal":    wgpu.BackendTypeMetal,
	"d3d12":    wgpu.BackendTypeD3D12,
	"d3d11":    wgpu.BackendTypeD3D11,
	"opengl":   wgpu.BackendTypeOpenGL,
	"opengles": wgpu.BackendTypeOpenGLES,
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: a valid configuration
func Default() Config {
	return Config{
		Window: Window{
			Title:  "oxy-fps",
			Width:  1280,
			Height: 720,
		},
		Graphics: Graphics{
			PresentMode:     "vsync",
			PowerPreference: "high-performance",
			ClearColor:      [4]float64{0.1, 0.1, 0.12, 1},
		},
		Engine: Engine{
			TickRate:   60,
			FrameLimit: 0,
		},
	}
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file over Default and validates the result.
// Keys missing from the file keep their default values.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: ErrUnknownFormat, the read or parse failure, or a Validate failure
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext over Default and validates the result.
//
// Parameters:
//   - data: the encoded configuration
//   - ext: the file extension selecting the format, with or without the leading dot
//
// Returns:
//   - Config: the decoded configuration
//   - error: ErrUnknownFormat, the parse failure, or a Validate failure
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse toml config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range or unknown setting joined into one error.
//
// Returns:
//   - error: nil when the configuration is usable
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height))
	}
	if _, ok := presentModes[strings.ToLower(c.Graphics.PresentMode)]; !ok {
		errs = append(errs, fmt.Errorf("%w: present mode %q", ErrInvalid, c.Graphics.PresentMode))
	}
	if _, ok := powerPreferences[strings.ToLower(c.Graphics.PowerPreference)]; !ok {
		errs = append(errs, fmt.Errorf("%w: power preference %q", ErrInvalid, c.Graphics.PowerPreference))
	}
	if _, ok := backends[strings.ToLower(c.Graphics.Backend)]; !ok {
		errs = append(errs, fmt.Errorf("%w: backend %q", ErrInvalid, c.Graphics.Backend))
	}
	for i, v := range c.Graphics.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%w: clear color component %d = %g", ErrInvalid, i, v))
		}
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick rate %g", ErrInvalid, c.Engine.TickRate))
	}
	if c.Engine.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: frame limit %g", ErrInvalid, c.Engine.FrameLimit))
	}
	if n := len(c.Assets.Skybox); n != 0 && n != 6 {
		errs = append(errs, fmt.Errorf("%w: skybox needs 6 faces, got %d", ErrInvalid, n))
	}
	if c.Assets.WatchShaders && c.Assets.ShaderDir == "" {
		errs = append(errs, fmt.Errorf("%w: watch_shaders requires shader_dir", ErrInvalid))
	}
	return errors.Join(errs...)
}

// GpuOptions maps the graphics section onto GpuContext builder options. Call on a validated Config.
//
// Returns:
//   - []gpu.GpuContextBuilderOption: the options for gpu.NewGpuContext
func (c Config) GpuOptions() []gpu.GpuContextBuilderOption {
	return []gpu.GpuContextBuilderOption{
		gpu.WithPresentMode(presentModes[strings.ToLower(c.Graphics.PresentMode)]),
		gpu.WithPowerPreference(powerPreferences[strings.ToLower(c.Graphics.PowerPreference)]),
		gpu.WithBackend(backends[strings.ToLower(c.Graphics.Backend)]),
		gpu.WithForceFallbackAdapter(c.Graphics.ForceFallbackAdapter),
		gpu.WithClearColor(c.Graphics.ClearColor),
	}
}

// SkyboxFaces returns the six skybox face paths and whether a skybox is configured.
//
// Returns:
//   - [6]string: the face paths in layer order
//   - bool: false when no skybox is configured
func (c Config) SkyboxFaces() ([6]string, bool) {
	var faces [6]string
	if len(c.Assets.Skybox) != 6 {
		return faces, false
	}
	copy(faces[:], c.Assets.Skybox)
	return faces, true
}

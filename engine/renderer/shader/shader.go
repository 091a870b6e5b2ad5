// Package shader loads WGSL sources, validates them with naga before they reach the device, and turns them
// into device shader modules. Validation failures are fatal to the pipeline being built and always name the
// shader's path.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/gogpu/naga"
)

const (
	// DefaultVertexEntryPoint is the vertex entry point pipelines use unless overridden.
	DefaultVertexEntryPoint = "main_vs"

	// DefaultFragmentEntryPoint is the fragment entry point pipelines use unless overridden.
	DefaultFragmentEntryPoint = "main_fs"
)

var (
	// ErrShaderNotFound is returned when the shader path does not exist.
	ErrShaderNotFound = errors.New("shader not found")

	// ErrInvalidShader is returned when WGSL validation fails.
	ErrInvalidShader = errors.New("invalid shader")

	// ErrMissingEntryPoint is returned when a configured entry point is not declared by the source.
	ErrMissingEntryPoint = errors.New("missing shader entry point")
)

// shader is the implementation of the Shader interface.
type shader struct {
	path               string
	source             string
	vertexEntryPoint   string
	fragmentEntryPoint string
	bindings           []Binding
	validate           bool
}

// Shader is a validated WGSL source with a vertex and a fragment entry point.
type Shader interface {
	// Path returns the path the source was loaded from. It labels the module and every error.
	//
	// Returns:
	//   - string: the shader path
	Path() string

	// Source returns the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// VertexEntryPoint returns the vertex stage entry point name.
	//
	// Returns:
	//   - string: the entry point, "main_vs" unless overridden
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment stage entry point name.
	//
	// Returns:
	//   - string: the entry point, "main_fs" unless overridden
	FragmentEntryPoint() string

	// Bindings returns the @group/@binding declarations of the source, for diagnostics only.
	// Render variants log a warning for group 0 bindings their layout lacks; draws are never refused over it.
	//
	// Returns:
	//   - []Binding: the declared bindings in source order
	Bindings() []Binding

	// CreateModule compiles the source into a device shader module. The caller owns the module.
	//
	// Parameters:
	//   - device: the device to create the module on
	//
	// Returns:
	//   - gpu.ShaderModule: the module
	//   - error: ErrInvalidShader wrapping the backend message
	CreateModule(device gpu.Device) (gpu.ShaderModule, error)
}

var _ Shader = &shader{}

// Load reads path from fsys and builds a Shader from it.
//
// Parameters:
//   - fsys: the file system holding the shaders, usually the embedded assets or os.DirFS
//   - path: the slash-separated path of the WGSL file inside fsys
//   - options: optional ShaderBuilderOption functions
//
// Returns:
//   - Shader: the validated shader
//   - error: ErrShaderNotFound, ErrInvalidShader or ErrMissingEntryPoint, naming path
func Load(fsys fs.FS, path string, options ...ShaderBuilderOption) (Shader, error) {
	if path == "" {
		return nil, fmt.Errorf("empty shader path: %w", ErrShaderNotFound)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrShaderNotFound)
		}
		return nil, fmt.Errorf("failed to read shader %s: %w", path, err)
	}
	return NewShader(path, string(data), options...)
}

// NewShader validates source and builds a Shader from it.
//
// Parameters:
//   - path: the path or name of the source, used as label and in errors
//   - source: the WGSL source
//   - options: optional ShaderBuilderOption functions
//
// Returns:
//   - Shader: the validated shader
//   - error: ErrInvalidShader or ErrMissingEntryPoint, naming path
func NewShader(path, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		path:               path,
		source:             source,
		vertexEntryPoint:   DefaultVertexEntryPoint,
		fragmentEntryPoint: DefaultFragmentEntryPoint,
		validate:           true,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.validate {
		if _, err := naga.Compile(source); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrInvalidShader, err)
		}
	}

	cleaned := stripComments(source)
	if !slices.Contains(parseEntryPoints(cleaned, vertexEntryRegex), s.vertexEntryPoint) {
		return nil, fmt.Errorf("%s: vertex entry point %q: %w", path, s.vertexEntryPoint, ErrMissingEntryPoint)
	}
	if !slices.Contains(parseEntryPoints(cleaned, fragmentEntryRegex), s.fragmentEntryPoint) {
		return nil, fmt.Errorf("%s: fragment entry point %q: %w", path, s.fragmentEntryPoint, ErrMissingEntryPoint)
	}
	s.bindings = parseBindings(cleaned)

	common.Logger().Debug("shader loaded", "path", path, "bindings", len(s.bindings))
	return s, nil
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) Bindings() []Binding {
	return slices.Clone(s.bindings)
}

func (s *shader) CreateModule(device gpu.Device) (gpu.ShaderModule, error) {
	module, err := device.CreateShaderModule(s.path, s.source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", s.path, ErrInvalidShader, err)
	}
	return module, nil
}

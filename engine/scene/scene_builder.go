package scene

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-fps/engine/game_object"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *basicScene)

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *basicScene) {
		for _, obj := range objects {
			s.register(obj)
		}
	}
}

// WithSkybox draws a cube texture built from faces behind the scene.
//
// Parameters:
//   - faces: the six decoded faces in layer order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSkybox(faces resource.CubeFaces) SceneBuilderOption {
	return func(s *basicScene) {
		s.skyboxFaces = &faces
	}
}

// WithDebugLines enables or disables the debug line collector (enabled by default).
//
// Parameters:
//   - enabled: whether the scene collects and draws debug lines
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDebugLines(enabled bool) SceneBuilderOption {
	return func(s *basicScene) {
		s.debugLines = enabled
	}
}

// WithLineSources registers sources asked for debug lines on every Update.
//
// Parameters:
//   - sources: the line sources
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLineSources(sources ...LineSource) SceneBuilderOption {
	return func(s *basicScene) {
		s.lineSources = append(s.lineSources, sources...)
	}
}

// WithShaderFS loads the scene's shaders from fsys instead of the embedded assets, for example os.DirFS of
// the watched shader directory.
//
// Parameters:
//   - fsys: the file system holding shaders/unlit.wgsl, shaders/skybox.wgsl and shaders/wireframe.wgsl
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShaderFS(fsys fs.FS) SceneBuilderOption {
	return func(s *basicScene) {
		s.shaderFS = fsys
	}
}

// WithShaderOptions passes options to every shader the scene loads.
//
// Parameters:
//   - options: the shader options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShaderOptions(options ...shader.ShaderBuilderOption) SceneBuilderOption {
	return func(s *basicScene) {
		s.shaderOptions = append(s.shaderOptions, options...)
	}
}

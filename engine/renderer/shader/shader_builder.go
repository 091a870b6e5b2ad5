package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithVertexEntryPoint overrides the vertex entry point name.
//
// Parameters:
//   - name: the WGSL function name of the vertex stage
//
// Returns:
//   - ShaderBuilderOption: a function that sets the vertex entry point for this shader
func WithVertexEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexEntryPoint = name
	}
}

// WithFragmentEntryPoint overrides the fragment entry point name.
//
// Parameters:
//   - name: the WGSL function name of the fragment stage
//
// Returns:
//   - ShaderBuilderOption: a function that sets the fragment entry point for this shader
func WithFragmentEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.fragmentEntryPoint = name
	}
}

// WithValidation toggles naga validation of the source. Disabling it defers every error to device module
// creation, for sources using features naga does not support yet.
//
// Parameters:
//   - enabled: true to validate (default)
//
// Returns:
//   - ShaderBuilderOption: a function that sets the validation flag for this shader
func WithValidation(enabled bool) ShaderBuilderOption {
	return func(s *shader) {
		s.validate = enabled
	}
}

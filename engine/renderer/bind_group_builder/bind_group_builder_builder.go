package bind_group_builder

// BindGroupBuilderOption is a functional option used to configure a BindGroupBuilder during construction.
type BindGroupBuilderOption func(*bindGroupBuilder)

// WithLabelPrefix prefixes the debug label of every layout and group the builder creates,
// so validation messages name the pipeline they belong to.
//
// Parameters:
//   - prefix: the label prefix, usually the owning pipeline's name
//
// Returns:
//   - BindGroupBuilderOption: a function that sets the label prefix for this builder
func WithLabelPrefix(prefix string) BindGroupBuilderOption {
	return func(b *bindGroupBuilder) {
		b.prefix = prefix
	}
}

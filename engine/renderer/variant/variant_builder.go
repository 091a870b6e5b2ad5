package variant

import "github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"

// VariantBuilderOption is a functional option used to configure a render variant.
type VariantBuilderOption func(*base)

// WithLabel sets the debug label of the variant and of everything it creates.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - VariantBuilderOption: a function that sets the label of the variant
func WithLabel(label string) VariantBuilderOption {
	return func(b *base) {
		if label != "" {
			b.label = label
		}
	}
}

// WithPipelineOptions appends fixed-function overrides applied after the variant's own defaults.
//
// Parameters:
//   - options: the pipeline options
//
// Returns:
//   - VariantBuilderOption: a function that adds the pipeline options of the variant
func WithPipelineOptions(options ...pipeline.PipelineBuilderOption) VariantBuilderOption {
	return func(b *base) {
		b.pipelineOptions = append(b.pipelineOptions, options...)
	}
}

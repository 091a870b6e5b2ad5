package resource

import "github.com/Carmen-Shannon/oxy-fps/common"

// FactoryBuilderOption is a functional option applied to a Factory during construction via NewFactory.
type FactoryBuilderOption func(*factory)

// WithDefaultSampler sets the sampler configuration used for every zero field of a per-texture sampler.
// Without it textures sample with linear filtering, repeat addressing and no anisotropy.
//
// Parameters:
//   - s: the fallback sampler configuration
//
// Returns:
//   - FactoryBuilderOption: a function that applies the default sampler option to a factory
func WithDefaultSampler(s common.SamplerStagingData) FactoryBuilderOption {
	return func(f *factory) {
		f.defaultSampler = s
	}
}

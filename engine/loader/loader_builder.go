package loader

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"golang.org/x/image/draw"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS resolves every path against fsys instead of the OS file system, for example an embed.FS.
//
// Parameters:
//   - fsys: the file system to read images from
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		l.fsys = fsys
	}
}

// WithWorkers sets the maximum number of concurrent decodes. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithScaler sets the interpolator used to resample mismatched cube faces (draw.CatmullRom by default).
//
// Parameters:
//   - s: the scaler, e.g. draw.ApproxBiLinear or draw.NearestNeighbor
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scaler option to a loader
func WithScaler(s draw.Scaler) LoaderBuilderOption {
	return func(l *loader) {
		if s != nil {
			l.scaler = s
		}
	}
}

// WithTexture pre-populates the texture cache.
//
// Parameters:
//   - key: the cache key
//   - data: the staging data to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture option to a loader
func WithTexture(key string, data common.TextureStagingData) LoaderBuilderOption {
	return func(l *loader) {
		l.textureCache[key] = data
	}
}

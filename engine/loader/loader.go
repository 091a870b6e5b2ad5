// Package loader decodes image files into RGBA8 staging data for the resource factory.
package loader

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"golang.org/x/image/draw"
)

var (
	// ErrUnsupportedFormat is returned for paths whose extension no backend decodes.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// DefaultWorkers bounds the number of images decoded at once by LoadTextures and LoadCube.
const DefaultWorkers = 6

type loader struct {
	mu sync.RWMutex

	fsys    fs.FS
	workers int
	scaler  draw.Scaler

	textureCache map[string]common.TextureStagingData

	backend loaderBackend
}

// Loader decodes PNG, JPEG, BMP, TIFF and WebP images into RGBA8 common.TextureStagingData and caches the
// result by path. It never touches the GPU; the resource factory uploads what it returns.
type Loader interface {
	// LoadTexture decodes an image file and caches the result.
	// If the path is already cached the cached data is returned.
	//
	// Parameters:
	//   - path: the file path, resolved against the loader's file system when one was set
	//
	// Returns:
	//   - common.TextureStagingData: the decoded RGBA8 pixels
	//   - error: ErrUnsupportedFormat for unknown extensions, or the open/decode failure
	LoadTexture(path string) (common.TextureStagingData, error)

	// LoadTextureReader decodes an image stream and caches it under name.
	// The format is sniffed from the stream, so name needs no extension.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the reader providing the encoded image
	//
	// Returns:
	//   - common.TextureStagingData: the decoded RGBA8 pixels
	//   - error: the decode failure
	LoadTextureReader(name string, r io.Reader) (common.TextureStagingData, error)

	// LoadTextures decodes several files concurrently on a worker pool.
	// Results keep the order of paths. The first failure in path order is returned.
	//
	// Parameters:
	//   - paths: the file paths
	//
	// Returns:
	//   - []common.TextureStagingData: the decoded images in path order
	//   - error: the first failure
	LoadTextures(paths []string) ([]common.TextureStagingData, error)

	// LoadCube decodes six cube faces concurrently in +X, -X, +Y, -Y, +Z, -Z order.
	// Faces that differ in size from the largest face are resampled to it.
	//
	// Parameters:
	//   - paths: the six face paths in layer order
	//
	// Returns:
	//   - resource.CubeFaces: the faces, all the same size
	//   - error: the first decode failure
	LoadCube(paths [6]string) (resource.CubeFaces, error)

	// Get retrieves cached staging data by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - common.TextureStagingData: the cached data
	//   - bool: whether the key was cached
	Get(name string) (common.TextureStagingData, bool)

	// Textures returns a copy of the texture cache.
	//
	// Returns:
	//   - map[string]common.TextureStagingData: all cached textures keyed by name
	Textures() map[string]common.TextureStagingData

	// Evict drops a cached entry so the next load decodes the file again.
	//
	// Parameters:
	//   - name: the cache key
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from the OS file system unless WithFS is given.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers:      DefaultWorkers,
		scaler:       draw.CatmullRom,
		textureCache: make(map[string]common.TextureStagingData),
		backend:      imageLoaderBackend{},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) LoadTexture(path string) (common.TextureStagingData, error) {
	if cached, ok := l.Get(path); ok {
		return cached, nil
	}

	data, err := l.decodeFile(path)
	if err != nil {
		return common.TextureStagingData{}, err
	}

	l.store(path, data)
	return data, nil
}

func (l *loader) LoadTextureReader(name string, r io.Reader) (common.TextureStagingData, error) {
	img, format, err := l.backend.Decode(r)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	data := toStagingData(img)
	common.Logger().Debug("texture decoded", "name", name, "format", format, "width", data.Width, "height", data.Height)

	l.store(name, data)
	return data, nil
}

func (l *loader) LoadTextures(paths []string) ([]common.TextureStagingData, error) {
	results := make([]common.TextureStagingData, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	errs := make([]error, len(paths))

	workers := min(l.workers, len(paths))
	pool := worker.NewDynamicWorkerPool(workers, len(paths), time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(len(paths))
	for i, path := range paths {
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				results[i], errs[i] = l.LoadTexture(path)
				return nil, errs[i]
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (l *loader) LoadCube(paths [6]string) (resource.CubeFaces, error) {
	var faces resource.CubeFaces
	decoded, err := l.LoadTextures(paths[:])
	if err != nil {
		return faces, fmt.Errorf("failed to load cube: %w", err)
	}

	// Cube views need square faces of one size: resample everything to the largest edge seen.
	var edge uint32
	for _, face := range decoded {
		edge = max(edge, face.Width, face.Height)
	}
	for i, face := range decoded {
		if face.Width != edge || face.Height != edge {
			common.Logger().Warn("resampling cube face", "path", paths[i],
				"from", fmt.Sprintf("%dx%d", face.Width, face.Height), "to", fmt.Sprintf("%dx%d", edge, edge))
			face = l.resample(face, edge, edge)
		}
		faces[i] = face
	}
	return faces, faces.Validate()
}

func (l *loader) Get(name string) (common.TextureStagingData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.textureCache[name]
	return data, ok
}

func (l *loader) Textures() map[string]common.TextureStagingData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]common.TextureStagingData, len(l.textureCache))
	for k, v := range l.textureCache {
		out[k] = v
	}
	return out
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.textureCache, name)
}

func (l *loader) store(name string, data common.TextureStagingData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.textureCache[name] = data
}

func (l *loader) open(path string) (io.ReadCloser, error) {
	if l.fsys != nil {
		return l.fsys.Open(path)
	}
	return os.Open(path)
}

func (l *loader) decodeFile(path string) (common.TextureStagingData, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return common.TextureStagingData{}, err
	}

	f, err := l.open(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := backend.Decode(f)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	data := toStagingData(img)
	common.Logger().Debug("texture decoded", "path", path, "format", format, "width", data.Width, "height", data.Height)
	return data, nil
}

func (l *loader) resample(src common.TextureStagingData, width, height uint32) common.TextureStagingData {
	in := &image.RGBA{
		Pix:    src.Pixels,
		Stride: int(src.Width) * 4,
		Rect:   image.Rect(0, 0, int(src.Width), int(src.Height)),
	}
	out := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	l.scaler.Scale(out, out.Bounds(), in, in.Bounds(), draw.Src, nil)
	return common.TextureStagingData{Pixels: out.Pix, Width: width, Height: height}
}

// toStagingData converts any decoded image to tightly packed RGBA8 rows starting at the origin.
func toStagingData(img image.Image) common.TextureStagingData {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}

package resource

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Factory creates typed GPU buffers and textures from CPU-side data and uploads their initial contents
// through immediate queue writes.
//
// Preconditions (checked, returning ErrInvalidPayload): vertex data is not empty, texture payloads are
// width*height*4 bytes, and cube faces share one extent.
type Factory interface {
	// Device returns the device resources are created on.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// CreateVertexBuffer creates a vertex buffer of len(data)*4 bytes with usage CopyDst|Vertex and uploads data.
	//
	// Parameters:
	//   - data: the interleaved vertex floats
	//   - vertexCount: the number of vertices data describes
	//   - label: a debug label
	//
	// Returns:
	//   - *VertexBuffer: the buffer
	//   - error: ErrInvalidPayload for empty data, or the backend error
	CreateVertexBuffer(data []float32, vertexCount uint32, label string) (*VertexBuffer, error)

	// CreateEmptyVertexBuffer creates a zero-filled vertex buffer of size bytes for data streamed in later.
	//
	// Parameters:
	//   - size: the buffer size in bytes, a multiple of 4
	//   - label: a debug label
	//
	// Returns:
	//   - *VertexBuffer: the buffer, with a vertex count of zero
	//   - error: ErrInvalidPayload for a bad size, or the backend error
	CreateEmptyVertexBuffer(size uint64, label string) (*VertexBuffer, error)

	// CreateIndexBuffer creates a uint16 index buffer of len(data)*2 bytes with usage CopyDst|Index and uploads data.
	//
	// Parameters:
	//   - data: the indices
	//   - label: a debug label
	//
	// Returns:
	//   - *IndexBuffer: the buffer
	//   - error: ErrInvalidPayload for empty data, or the backend error
	CreateIndexBuffer(data []uint16, label string) (*IndexBuffer, error)

	// CreateIndexBuffer32 creates a uint32 index buffer of len(data)*4 bytes, for meshes beyond 65535 vertices.
	//
	// Parameters:
	//   - data: the indices
	//   - label: a debug label
	//
	// Returns:
	//   - *IndexBuffer: the buffer
	//   - error: ErrInvalidPayload for empty data, or the backend error
	CreateIndexBuffer32(data []uint32, label string) (*IndexBuffer, error)

	// CreateTexture2D creates a single mip, single sample RGBA8 texture with usage TextureBinding|CopyDst,
	// uploads the full extent in one write with bytesPerRow = 4*width, and creates its view and sampler.
	//
	// Parameters:
	//   - data: the decoded pixels
	//   - sampler: the sampler configuration, zero fields take the defaults
	//   - label: a debug label
	//
	// Returns:
	//   - *Texture: the texture
	//   - error: ErrInvalidPayload for a mismatched payload, or the backend error
	CreateTexture2D(data common.TextureStagingData, sampler common.SamplerStagingData, label string) (*Texture, error)

	// CreateCubeTexture creates one texture with six array layers, uploads face i to layer i, and creates a
	// cube view over all six layers plus a sampler.
	//
	// Parameters:
	//   - faces: the six faces in layer order
	//   - sampler: the sampler configuration, zero fields take the defaults
	//   - label: a debug label
	//
	// Returns:
	//   - *Texture: the cube texture
	//   - error: ErrInvalidPayload for mismatched faces, or the backend error
	CreateCubeTexture(faces CubeFaces, sampler common.SamplerStagingData, label string) (*Texture, error)

	// CreateDepthTexture creates a depth-stencil render attachment and its view. It has no sampler.
	//
	// Parameters:
	//   - width, height: the attachment extent in pixels
	//   - label: a debug label
	//
	// Returns:
	//   - *Texture: the depth texture
	//   - error: the backend error
	CreateDepthTexture(width, height uint32, label string) (*Texture, error)

	// CreateDefaultTexture creates a 1x1 opaque white texture for objects without their own texture.
	//
	// Returns:
	//   - *Texture: the texture
	//   - error: the backend error
	CreateDefaultTexture() (*Texture, error)
}

type factory struct {
	mu     *sync.Mutex
	device gpu.Device
	queue  gpu.Queue

	defaultSampler common.SamplerStagingData
}

var _ Factory = &factory{}

// NewFactory creates a Factory bound to device.
//
// Parameters:
//   - device: the device resources are created on
//   - options: optional FactoryBuilderOption functions
//
// Returns:
//   - Factory: the factory
func NewFactory(device gpu.Device, options ...FactoryBuilderOption) Factory {
	f := &factory{
		mu:     &sync.Mutex{},
		device: device,
		queue:  device.Queue(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *factory) Device() gpu.Device {
	return f.device
}

// createBuffer allocates and optionally fills a buffer. The allocation is rounded up to the 4 byte copy alignment.
func (f *factory) createBuffer(label string, usage wgpu.BufferUsage, size uint64, contents []byte) (*gpu.Handle[gpu.Buffer], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	aligned := (size + 3) &^ 3
	buf, err := f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Usage: usage | wgpu.BufferUsageCopyDst,
		Size:  aligned,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	if len(contents) > 0 {
		if pad := aligned - uint64(len(contents)); pad > 0 {
			contents = append(contents[:len(contents):len(contents)], make([]byte, pad)...)
		}
		if err := f.queue.WriteBuffer(buf, 0, contents); err != nil {
			buf.Release()
			return nil, fmt.Errorf("failed to upload buffer %q: %w", label, err)
		}
	}
	common.Logger().Debug("buffer created", "label", label, "size", size)
	return gpu.NewHandle(buf, label), nil
}

func (f *factory) CreateVertexBuffer(data []float32, vertexCount uint32, label string) (*VertexBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("vertex buffer %q has no data: %w", label, ErrInvalidPayload)
	}
	size := uint64(len(data)) * 4
	h, err := f.createBuffer(label, wgpu.BufferUsageVertex, size, common.SliceToBytes(data))
	if err != nil {
		return nil, err
	}
	return &VertexBuffer{handle: h, queue: f.queue, vertexCount: vertexCount, size: size}, nil
}

func (f *factory) CreateEmptyVertexBuffer(size uint64, label string) (*VertexBuffer, error) {
	if size == 0 || size%4 != 0 {
		return nil, fmt.Errorf("vertex buffer %q size %d is not a positive multiple of 4: %w", label, size, ErrInvalidPayload)
	}
	h, err := f.createBuffer(label, wgpu.BufferUsageVertex, size, nil)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer{handle: h, queue: f.queue, size: size}, nil
}

func (f *factory) CreateIndexBuffer(data []uint16, label string) (*IndexBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("index buffer %q has no data: %w", label, ErrInvalidPayload)
	}
	size := uint64(len(data)) * 2
	h, err := f.createBuffer(label, wgpu.BufferUsageIndex, size, common.SliceToBytes(data))
	if err != nil {
		return nil, err
	}
	return &IndexBuffer{handle: h, indexCount: uint32(len(data)), format: wgpu.IndexFormatUint16, size: size}, nil
}

func (f *factory) CreateIndexBuffer32(data []uint32, label string) (*IndexBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("index buffer %q has no data: %w", label, ErrInvalidPayload)
	}
	size := uint64(len(data)) * 4
	h, err := f.createBuffer(label, wgpu.BufferUsageIndex, size, common.SliceToBytes(data))
	if err != nil {
		return nil, err
	}
	return &IndexBuffer{handle: h, indexCount: uint32(len(data)), format: wgpu.IndexFormatUint32, size: size}, nil
}

// CreateUniformBuffer creates a uniform buffer of sizeof(T) bytes with usage CopyDst|Uniform holding initial.
// It is a function rather than a Factory method because methods cannot take type parameters.
//
// Parameters:
//   - f: the factory to allocate through
//   - initial: the initial value
//   - label: a debug label
//
// Returns:
//   - *UniformBuffer[T]: the buffer
//   - error: the backend error
func CreateUniformBuffer[T any](f Factory, initial T, label string) (*UniformBuffer[T], error) {
	impl, ok := f.(*factory)
	if !ok {
		return nil, fmt.Errorf("factory %T does not support uniform buffers", f)
	}
	size := uint64(unsafe.Sizeof(initial))
	h, err := impl.createBuffer(label, wgpu.BufferUsageUniform, size, common.StructToBytes(&initial))
	if err != nil {
		return nil, err
	}
	return &UniformBuffer[T]{handle: h, queue: impl.queue, size: size}, nil
}

func (f *factory) samplerDescriptor(label string, s common.SamplerStagingData) *wgpu.SamplerDescriptor {
	d := f.defaultSampler
	desc := &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, d.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, d.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, d.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, d.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, d.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, d.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, d.LodMinClamp),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, d.LodMaxClamp, 32),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, d.MaxAnisotropy, 1),
	}
	if s.Nearest || d.Nearest {
		desc.MagFilter = wgpu.FilterModeNearest
		desc.MinFilter = wgpu.FilterModeNearest
		desc.MipmapFilter = wgpu.MipmapFilterModeNearest
	}
	return desc
}

// finishTexture creates the view and sampler of tex and wraps all three. tex is released on failure.
func (f *factory) finishTexture(tex gpu.Texture, label string, viewDesc *wgpu.TextureViewDescriptor, sampler *common.SamplerStagingData) (*Texture, error) {
	view, err := tex.CreateView(viewDesc)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", label, err)
	}
	t := &Texture{
		texture: gpu.NewHandle(tex, label),
		view:    gpu.NewHandle(view, label+" view"),
	}
	if sampler != nil {
		s, err := f.device.CreateSampler(f.samplerDescriptor(label+" sampler", *sampler))
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("failed to create sampler for texture %q: %w", label, err)
		}
		t.sampler = gpu.NewHandle(s, label+" sampler")
	}
	return t, nil
}

func (f *factory) CreateTexture2D(data common.TextureStagingData, sampler common.SamplerStagingData, label string) (*Texture, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("texture %q: %w: %w", label, ErrInvalidPayload, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	size := wgpu.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1}
	tex, err := f.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}
	err = f.queue.WriteTexture(
		&gpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		data.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: 4 * data.Width, RowsPerImage: data.Height},
		&size,
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to upload texture %q: %w", label, err)
	}

	t, err := f.finishTexture(tex, label, &wgpu.TextureViewDescriptor{
		Label:           label + " view",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimension2D,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	}, &sampler)
	if err != nil {
		return nil, err
	}
	t.dimension = wgpu.TextureViewDimension2D
	t.format = wgpu.TextureFormatRGBA8Unorm
	t.width, t.height = data.Width, data.Height
	common.Logger().Debug("texture created", "label", label, "width", data.Width, "height", data.Height)
	return t, nil
}

func (f *factory) CreateCubeTexture(faces CubeFaces, sampler common.SamplerStagingData, label string) (*Texture, error) {
	if err := faces.Validate(); err != nil {
		return nil, fmt.Errorf("cube texture %q: %w", label, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	width, height := faces[0].Width, faces[0].Height
	tex, err := f.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 6},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cube texture %q: %w", label, err)
	}

	faceSize := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	for i, face := range faces {
		err := f.queue.WriteTexture(
			&gpu.ImageCopyTexture{Texture: tex, Origin: wgpu.Origin3D{Z: uint32(i)}, Aspect: wgpu.TextureAspectAll},
			face.Pixels,
			&wgpu.TextureDataLayout{BytesPerRow: 4 * width, RowsPerImage: height},
			&faceSize,
		)
		if err != nil {
			tex.Release()
			return nil, fmt.Errorf("failed to upload face %d of cube texture %q: %w", i, label, err)
		}
	}

	t, err := f.finishTexture(tex, label, &wgpu.TextureViewDescriptor{
		Label:           label + " view",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimensionCube,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	}, &sampler)
	if err != nil {
		return nil, err
	}
	t.dimension = wgpu.TextureViewDimensionCube
	t.format = wgpu.TextureFormatRGBA8Unorm
	t.width, t.height = width, height
	common.Logger().Debug("cube texture created", "label", label, "width", width, "height", height)
	return t, nil
}

func (f *factory) CreateDepthTexture(width, height uint32, label string) (*Texture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tex, err := f.device.CreateTexture(gpu.DepthTextureDescriptor(label, width, height))
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture %q: %w", label, err)
	}
	t, err := f.finishTexture(tex, label, nil, nil)
	if err != nil {
		return nil, err
	}
	t.dimension = wgpu.TextureViewDimension2D
	t.format = gpu.DepthFormat
	t.width, t.height = width, height
	return t, nil
}

func (f *factory) CreateDefaultTexture() (*Texture, error) {
	return f.CreateTexture2D(common.SolidColor(1, 1, [4]byte{255, 255, 255, 255}), common.SamplerStagingData{}, "default texture")
}

// Package resource creates and owns the typed GPU buffers and textures the renderer draws from.
// Every object returned here is the single owner of its native handles; Release frees them exactly once.
package resource

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidPayload is returned when pixel or vertex data does not match its declared shape.
var ErrInvalidPayload = errors.New("invalid resource payload")

// VertexBuffer is a float32 vertex payload with the number of vertices it describes.
type VertexBuffer struct {
	handle      *gpu.Handle[gpu.Buffer]
	queue       gpu.Queue
	vertexCount uint32
	size        uint64
}

// Buffer returns the native buffer, or gpu.ErrReleased after Release.
func (b *VertexBuffer) Buffer() (gpu.Buffer, error) { return b.handle.Get() }

// Size returns the buffer size in bytes.
func (b *VertexBuffer) Size() uint64 { return b.size }

// VertexCount returns the number of vertices drawn by a non-indexed draw of the whole buffer.
func (b *VertexBuffer) VertexCount() uint32 { return b.vertexCount }

func (b *VertexBuffer) Label() string { return b.handle.Label() }

// Update writes the first byteLen bytes of data to the start of the buffer.
//
// Parameters:
//   - data: the source vertices
//   - byteLen: how many bytes of data to upload, a multiple of 4 not larger than the buffer or data
//
// Returns:
//   - error: ErrInvalidPayload on a bad length, gpu.ErrReleased after Release, or the queue error
func (b *VertexBuffer) Update(data []float32, byteLen uint64) error {
	if byteLen%4 != 0 || byteLen > b.size || byteLen > uint64(len(data))*4 {
		return fmt.Errorf("%s: update of %d bytes from %d floats into %d byte buffer: %w", b.Label(), byteLen, len(data), b.size, ErrInvalidPayload)
	}
	buf, err := b.handle.Get()
	if err != nil {
		return err
	}
	if byteLen == 0 {
		return nil
	}
	return b.queue.WriteBuffer(buf, 0, common.SliceToBytes(data[:byteLen/4]))
}

// Release frees the native buffer. Calls after the first are no-ops.
func (b *VertexBuffer) Release() { b.handle.Release() }

// IndexBuffer is a 16 or 32 bit index payload.
type IndexBuffer struct {
	handle     *gpu.Handle[gpu.Buffer]
	indexCount uint32
	format     wgpu.IndexFormat
	size       uint64
}

// Buffer returns the native buffer, or gpu.ErrReleased after Release.
func (b *IndexBuffer) Buffer() (gpu.Buffer, error) { return b.handle.Get() }

// Size returns the index payload size in bytes. The native allocation is padded to a multiple of 4.
func (b *IndexBuffer) Size() uint64 { return b.size }

func (b *IndexBuffer) IndexCount() uint32 { return b.indexCount }

func (b *IndexBuffer) Format() wgpu.IndexFormat { return b.format }

func (b *IndexBuffer) Label() string { return b.handle.Label() }

// Release frees the native buffer. Calls after the first are no-ops.
func (b *IndexBuffer) Release() { b.handle.Release() }

// UniformBuffer holds exactly one fixed-layout value of T. T must be a plain value type whose memory
// layout matches the shader's uniform struct (no pointers, slices or implicit padding).
type UniformBuffer[T any] struct {
	handle *gpu.Handle[gpu.Buffer]
	queue  gpu.Queue
	size   uint64
}

// Buffer returns the native buffer, or gpu.ErrReleased after Release.
func (u *UniformBuffer[T]) Buffer() (gpu.Buffer, error) { return u.handle.Get() }

// Size returns sizeof(T) in bytes.
func (u *UniformBuffer[T]) Size() uint64 { return u.size }

func (u *UniformBuffer[T]) Label() string { return u.handle.Label() }

// Update overwrites the whole buffer with v through an immediate queue write. The write is ordered before any
// draw submitted afterwards on the same queue.
//
// Parameters:
//   - v: the new value
//
// Returns:
//   - error: gpu.ErrReleased after Release, or the queue error
func (u *UniformBuffer[T]) Update(v T) error {
	buf, err := u.handle.Get()
	if err != nil {
		return err
	}
	return u.queue.WriteBuffer(buf, 0, common.StructToBytes(&v))
}

// Release frees the native buffer. Calls after the first are no-ops.
func (u *UniformBuffer[T]) Release() { u.handle.Release() }

// Texture owns a native texture together with its single view and, for sampled textures, its sampler.
// The view and sampler live exactly as long as the texture.
type Texture struct {
	texture   *gpu.Handle[gpu.Texture]
	view      *gpu.Handle[gpu.TextureView]
	sampler   *gpu.Handle[gpu.Sampler]
	dimension wgpu.TextureViewDimension
	format    wgpu.TextureFormat
	width     uint32
	height    uint32
}

// View returns the texture view, or gpu.ErrReleased after Release.
func (t *Texture) View() (gpu.TextureView, error) { return t.view.Get() }

// Sampler returns the sampler. Depth textures have none and return gpu.ErrReleased.
func (t *Texture) Sampler() (gpu.Sampler, error) { return t.sampler.Get() }

// Dimension returns the view dimension, 2D or Cube.
func (t *Texture) Dimension() wgpu.TextureViewDimension { return t.dimension }

func (t *Texture) Format() wgpu.TextureFormat { return t.format }

// Size returns the extent of one layer in pixels.
func (t *Texture) Size() (width, height uint32) { return t.width, t.height }

func (t *Texture) Label() string { return t.texture.Label() }

// Released reports whether Release has been called.
func (t *Texture) Released() bool { return t.texture.Released() }

// Release frees the view, the sampler and then the texture. Calls after the first are no-ops.
func (t *Texture) Release() {
	t.view.Release()
	t.sampler.Release()
	t.texture.Release()
}

// CubeFaces holds the six faces of a cube texture in layer order: +X (right), -X (left), +Y (top),
// -Y (bottom), +Z (front), -Z (back).
type CubeFaces [6]common.TextureStagingData

// Validate reports whether every face is a valid RGBA8 payload and all faces share one square extent.
func (f CubeFaces) Validate() error {
	for i, face := range f {
		if err := face.Validate(); err != nil {
			return fmt.Errorf("cube face %d: %w: %w", i, ErrInvalidPayload, err)
		}
		if face.Width != face.Height {
			return fmt.Errorf("cube face %d is %dx%d, cube faces must be square: %w", i, face.Width, face.Height, ErrInvalidPayload)
		}
		if face.Width != f[0].Width {
			return fmt.Errorf("cube face %d is %dx%d, face 0 is %dx%d: %w", i, face.Width, face.Height, f[0].Width, f[0].Height, ErrInvalidPayload)
		}
	}
	return nil
}

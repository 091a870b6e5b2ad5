package resource

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cameraUniform struct {
	ViewProjection common.Mat4
}

type transformAndTint struct {
	Model common.Mat4
	Tint  [4]float32
}

func TestVertexBufferSize(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	for _, n := range []int{3, 9, 36, 4 * 9} {
		data := make([]float32, n)
		vb, err := f.CreateVertexBuffer(data, uint32(n/3), "vb")
		require.NoError(t, err)
		assert.Equal(t, uint64(n*4), vb.Size())
		assert.Equal(t, uint32(n/3), vb.VertexCount())
	}

	buf := device.Buffers[0]
	assert.Equal(t, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, buf.Desc.Usage)
}

func TestVertexBufferUploadsContents(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	data := []float32{1, 2, 3, 4, 5, 6}
	_, err := f.CreateVertexBuffer(data, 2, "vb")
	require.NoError(t, err)

	writes := device.FakeQueue().BufferWrites
	require.Len(t, writes, 1)
	assert.Equal(t, common.SliceToBytes(data), writes[0].Data)
}

func TestVertexBufferUpdateInBytes(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	vb, err := f.CreateEmptyVertexBuffer(24*4, "scratch")
	require.NoError(t, err)
	assert.Zero(t, vb.VertexCount())

	data := make([]float32, 24)
	for i := range data {
		data[i] = float32(i)
	}
	require.NoError(t, vb.Update(data, 12*4))

	writes := device.FakeQueue().BufferWrites
	require.Len(t, writes, 1)
	assert.Len(t, writes[0].Data, 48)

	assert.ErrorIs(t, vb.Update(data, 3), ErrInvalidPayload)
	assert.ErrorIs(t, vb.Update(data, 25*4), ErrInvalidPayload)
	assert.ErrorIs(t, vb.Update(data[:2], 12), ErrInvalidPayload)
}

func TestIndexBufferSize(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	ib, err := f.CreateIndexBuffer([]uint16{0, 1, 2, 1, 3, 2}, "quad indices")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), ib.Size())
	assert.Equal(t, uint32(6), ib.IndexCount())
	assert.Equal(t, wgpu.IndexFormatUint16, ib.Format())
	assert.Equal(t, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, device.Buffers[0].Desc.Usage)

	odd, err := f.CreateIndexBuffer([]uint16{0, 1, 2}, "triangle")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), odd.Size())
	assert.Equal(t, uint64(8), device.Buffers[1].Desc.Size)

	wide, err := f.CreateIndexBuffer32([]uint32{0, 1, 2}, "wide")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), wide.Size())
	assert.Equal(t, wgpu.IndexFormatUint32, wide.Format())
}

func TestEmptyPayloadsRejected(t *testing.T) {
	f := NewFactory(gputest.NewDevice())

	_, err := f.CreateVertexBuffer(nil, 0, "empty")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = f.CreateIndexBuffer(nil, "empty")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = f.CreateEmptyVertexBuffer(6, "unaligned")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestUniformBufferSizeAndRoundTrip(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	cam, err := CreateUniformBuffer(f, cameraUniform{ViewProjection: common.Identity()}, "camera")
	require.NoError(t, err)
	assert.Equal(t, uint64(64), cam.Size())

	tint, err := CreateUniformBuffer(f, transformAndTint{}, "transform")
	require.NoError(t, err)
	assert.Equal(t, uint64(80), tint.Size())
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, device.Buffers[0].Desc.Usage)

	v := cameraUniform{ViewProjection: common.Translation(1, 2, 3)}
	require.NoError(t, cam.Update(v))
	assert.Equal(t, common.StructToBytes(&v), device.Buffers[0].Contents)
}

func TestReleasedBufferRejectsUpdate(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	cam, err := CreateUniformBuffer(f, cameraUniform{}, "camera")
	require.NoError(t, err)
	cam.Release()
	cam.Release()

	assert.Equal(t, 1, device.Buffers[0].ReleaseCount())
	assert.ErrorIs(t, cam.Update(cameraUniform{}), gpu.ErrReleased)
	_, err = cam.Buffer()
	assert.ErrorIs(t, err, gpu.ErrReleased)
}

func TestTexture2D(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	tex, err := f.CreateTexture2D(common.SolidColor(4, 2, [4]byte{1, 2, 3, 4}), common.SamplerStagingData{}, "crate")
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.Dimension())

	require.Len(t, device.Textures, 1)
	desc := device.Textures[0].Desc
	assert.Equal(t, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, desc.Usage)
	assert.Equal(t, uint32(1), desc.MipLevelCount)
	assert.Equal(t, uint32(1), desc.SampleCount)

	writes := device.FakeQueue().TextureWrites
	require.Len(t, writes, 1)
	assert.Equal(t, uint32(16), writes[0].Layout.BytesPerRow)
	assert.Equal(t, uint32(4), writes[0].Size.Width)

	require.Len(t, device.Samplers, 1)
	s := device.Samplers[0].Desc
	assert.Equal(t, wgpu.FilterModeLinear, s.MagFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, s.AddressModeU)
	assert.Equal(t, uint16(1), s.MaxAnisotropy)

	tex.Release()
	tex.Release()
	rec := device.Recorder()
	assert.Equal(t, 1, rec.Releases(gputest.KindTexture))
	assert.Equal(t, 1, rec.Releases(gputest.KindTextureView))
	assert.Equal(t, 1, rec.Releases(gputest.KindSampler))
	assert.True(t, tex.Released())
}

func TestTexture2DUploadFailure(t *testing.T) {
	device := gputest.NewDevice()
	uploadErr := errors.New("copy exceeds texture extent")
	device.FakeQueue().TextureWriteErr = uploadErr
	f := NewFactory(device)

	_, err := f.CreateTexture2D(common.SolidColor(2, 2, [4]byte{255, 255, 255, 255}), common.SamplerStagingData{}, "sign")
	assert.ErrorIs(t, err, uploadErr)
	assert.Equal(t, 1, device.Recorder().Releases(gputest.KindTexture))
}

func TestTexture2DRejectsMismatchedPayload(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	_, err := f.CreateTexture2D(common.TextureStagingData{Pixels: make([]byte, 3), Width: 1, Height: 1}, common.SamplerStagingData{}, "bad")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, device.Textures)
}

func TestCubeTextureFaceOrder(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	colors := [6][4]byte{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{255, 255, 0, 255},
		{0, 255, 255, 255},
		{255, 0, 255, 255},
	}
	var faces CubeFaces
	for i, c := range colors {
		faces[i] = common.SolidColor(1, 1, c)
	}

	tex, err := f.CreateCubeTexture(faces, common.SamplerStagingData{}, "skybox")
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureViewDimensionCube, tex.Dimension())

	native := device.Textures[0]
	assert.Equal(t, uint32(6), native.Desc.Size.DepthOrArrayLayers)

	writes := device.FakeQueue().TextureWrites
	require.Len(t, writes, 6)
	for i, w := range writes {
		assert.Equal(t, uint32(i), w.Origin.Z)
		assert.Equal(t, uint32(1), w.Size.DepthOrArrayLayers)
		assert.Equal(t, colors[i][:], native.Layers[uint32(i)])
	}

	require.Len(t, native.Views, 1)
	view := native.Views[0].Desc
	require.NotNil(t, view)
	assert.Equal(t, wgpu.TextureViewDimensionCube, view.Dimension)
	assert.Equal(t, uint32(6), view.ArrayLayerCount)
}

func TestCubeTextureRejectsMixedSizes(t *testing.T) {
	f := NewFactory(gputest.NewDevice())

	var faces CubeFaces
	for i := range faces {
		faces[i] = common.SolidColor(2, 2, [4]byte{})
	}
	faces[4] = common.SolidColor(1, 1, [4]byte{})

	_, err := f.CreateCubeTexture(faces, common.SamplerStagingData{}, "skybox")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCubeTextureRejectsNonSquareFaces(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	var faces CubeFaces
	for i := range faces {
		faces[i] = common.SolidColor(4, 2, [4]byte{})
	}
	_, err := f.CreateCubeTexture(faces, common.SamplerStagingData{}, "skybox")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, device.Textures)
}

func TestDepthTexture(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	depth, err := f.CreateDepthTexture(640, 480, "depth")
	require.NoError(t, err)
	assert.Equal(t, gpu.DepthFormat, depth.Format())
	assert.Equal(t, wgpu.TextureUsageRenderAttachment, device.Textures[0].Desc.Usage)
	assert.Empty(t, device.Samplers)

	_, err = depth.Sampler()
	assert.Error(t, err)
	depth.Release()
	assert.Equal(t, 1, device.Textures[0].ReleaseCount())
}

func TestDefaultTexture(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device)

	_, err := f.CreateDefaultTexture()
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 255, 255}, device.Textures[0].Layers[0])
}

func TestDefaultSamplerOption(t *testing.T) {
	device := gputest.NewDevice()
	f := NewFactory(device, WithDefaultSampler(common.SamplerStagingData{Nearest: true, MaxAnisotropy: 8}))

	_, err := f.CreateTexture2D(common.SolidColor(1, 1, [4]byte{}), common.SamplerStagingData{MaxAnisotropy: 4}, "pixel")
	require.NoError(t, err)
	s := device.Samplers[0].Desc
	assert.Equal(t, wgpu.FilterModeNearest, s.MagFilter)
	assert.Equal(t, wgpu.FilterModeNearest, s.MinFilter)
	assert.Equal(t, uint16(4), s.MaxAnisotropy)
}

package bind_group_builder_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texturedLayout() []bgb.LayoutBinding {
	return []bgb.LayoutBinding{
		{Slot: 0, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindTexture},
		{Slot: 1, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindSampler},
	}
}

func TestLayoutFor(t *testing.T) {
	device := gputest.NewDevice()
	b := bgb.NewBindGroupBuilder(device, bgb.WithLabelPrefix("unlit"))

	_, err := b.LayoutFor("camera", []bgb.LayoutBinding{
		{Slot: 0, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer},
	})
	require.NoError(t, err)
	_, err = b.LayoutFor("sky", []bgb.LayoutBinding{
		{Slot: 0, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindCubeTexture},
		{Slot: 1, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindSampler},
	})
	require.NoError(t, err)

	require.Len(t, device.BindGroupLayouts, 2)
	cam := device.BindGroupLayouts[0].Desc
	assert.Equal(t, "unlit camera", cam.Label)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, cam.Entries[0].Buffer.Type)

	sky := device.BindGroupLayouts[1].Desc
	assert.Equal(t, wgpu.TextureViewDimensionCube, sky.Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, sky.Entries[1].Sampler.Type)
}

func TestLayoutForDuplicateSlot(t *testing.T) {
	device := gputest.NewDevice()
	b := bgb.NewBindGroupBuilder(device)

	_, err := b.LayoutFor("bad", []bgb.LayoutBinding{
		{Slot: 0, Kind: bgb.KindTexture},
		{Slot: 0, Kind: bgb.KindSampler},
	})
	assert.ErrorIs(t, err, bgb.ErrDuplicateSlot)
	assert.Empty(t, device.BindGroupLayouts)
}

func TestGroupForResolvesHandles(t *testing.T) {
	device := gputest.NewDevice()
	f := resource.NewFactory(device)
	b := bgb.NewBindGroupBuilder(device)

	cam, err := resource.CreateUniformBuffer(f, common.Identity(), "camera")
	require.NoError(t, err)
	layout, err := b.LayoutFor("camera", []bgb.LayoutBinding{{Slot: 0, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer}})
	require.NoError(t, err)

	_, err = b.GroupFor("camera", layout, []bgb.Resource{bgb.UniformEntry(0, cam)})
	require.NoError(t, err)

	group := device.LastBindGroup()
	require.NotNil(t, group)
	require.Len(t, group.Desc.Entries, 1)
	assert.Equal(t, uint64(64), group.Desc.Entries[0].Size)
	assert.Same(t, device.Buffers[0], group.Desc.Entries[0].Buffer)
}

func TestGroupForRejectsReleasedSource(t *testing.T) {
	device := gputest.NewDevice()
	f := resource.NewFactory(device)
	b := bgb.NewBindGroupBuilder(device)

	tex, err := f.CreateDefaultTexture()
	require.NoError(t, err)
	layout, err := b.LayoutFor("texture", texturedLayout())
	require.NoError(t, err)

	tex.Release()
	_, err = b.GroupFor("texture", layout, []bgb.Resource{bgb.TextureEntry(0, tex), bgb.SamplerEntry(1, tex)})
	assert.ErrorIs(t, err, gpu.ErrReleased)
	assert.Empty(t, device.BindGroups)
}

func TestSlotRebindReleasesPrevious(t *testing.T) {
	device := gputest.NewDevice()
	f := resource.NewFactory(device)
	b := bgb.NewBindGroupBuilder(device)

	tex, err := f.CreateDefaultTexture()
	require.NoError(t, err)
	layout, err := b.LayoutFor("texture", texturedLayout())
	require.NoError(t, err)

	slot := bgb.NewSlot(b, "texture", layout)
	_, err = slot.Group()
	assert.ErrorIs(t, err, gpu.ErrNotReady)

	require.NoError(t, slot.Rebuild([]bgb.Resource{bgb.TextureEntry(0, tex), bgb.SamplerEntry(1, tex)}))

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, slot.Rebuild([]bgb.Resource{bgb.TextureEntry(0, tex), bgb.SamplerEntry(1, tex)}))
	}
	assert.Equal(t, n, slot.Releases())
	assert.Equal(t, 1, device.LiveBindGroups())

	group, err := slot.Group()
	require.NoError(t, err)
	assert.Same(t, device.LastBindGroup(), group)

	slot.Release()
	slot.Release()
	assert.Zero(t, device.LiveBindGroups())
	assert.Equal(t, n+1, device.Recorder().Releases(gputest.KindBindGroup))
	assert.Zero(t, device.Recorder().Releases(gputest.KindBindGroupLayout))
}

func TestSlotFailedRebuildKeepsGroup(t *testing.T) {
	device := gputest.NewDevice()
	f := resource.NewFactory(device)
	b := bgb.NewBindGroupBuilder(device)

	first, err := f.CreateDefaultTexture()
	require.NoError(t, err)
	second, err := f.CreateDefaultTexture()
	require.NoError(t, err)
	layout, err := b.LayoutFor("texture", texturedLayout())
	require.NoError(t, err)

	slot := bgb.NewSlot(b, "texture", layout)
	require.NoError(t, slot.Rebuild([]bgb.Resource{bgb.TextureEntry(0, first), bgb.SamplerEntry(1, first)}))
	live, err := slot.Group()
	require.NoError(t, err)

	second.Release()
	assert.ErrorIs(t, slot.Rebuild([]bgb.Resource{bgb.TextureEntry(0, second), bgb.SamplerEntry(1, second)}), gpu.ErrReleased)

	still, err := slot.Group()
	require.NoError(t, err)
	assert.Same(t, live, still)
	assert.Zero(t, slot.Releases())
}

package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) (*gputest.Device, PipelineBuilder, gpu.ShaderModule, gpu.BindGroupLayout) {
	t.Helper()
	device := gputest.NewDevice()
	module, err := device.CreateShaderModule("test.wgsl", "")
	require.NoError(t, err)
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: "camera"})
	require.NoError(t, err)
	return device, NewPipelineBuilder(device, wgpu.TextureFormatBGRA8Unorm, gpu.DepthFormat), module, layout
}

func TestVertexLayoutStrides(t *testing.T) {
	cases := []struct {
		layout VertexLayout
		stride uint64
	}{
		{LayoutPosition, 12},
		{LayoutPositionColor, 28},
		{LayoutPositionColorUV, 36},
	}
	for _, c := range cases {
		assert.Equal(t, c.stride, c.layout.Stride)
		assert.Equal(t, c.stride, c.layout.BufferLayout().ArrayStride)
		assert.Equal(t, wgpu.VertexStepModeVertex, c.layout.BufferLayout().StepMode)

		last := c.layout.Attributes[len(c.layout.Attributes)-1]
		for i, a := range c.layout.Attributes {
			assert.Equal(t, uint32(i), a.ShaderLocation)
		}
		assert.Less(t, last.Offset, c.stride)
	}
	assert.Equal(t, 9, LayoutPositionColorUV.FloatsPerVertex())
}

func TestBuildDefaults(t *testing.T) {
	device, builder, module, layout := newTestBuilder(t)

	p, err := builder.Build("unlit", module, LayoutPositionColorUV, []gpu.BindGroupLayout{layout})
	require.NoError(t, err)
	assert.Equal(t, "unlit", p.Label())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())

	require.Len(t, device.PipelineLayouts, 1)
	assert.Equal(t, []gpu.BindGroupLayout{layout}, device.PipelineLayouts[0].Layouts)

	require.Len(t, device.RenderPipelines, 1)
	desc := device.RenderPipelines[0].Desc
	assert.Equal(t, "main_vs", desc.VertexEntryPoint)
	assert.Equal(t, "main_fs", desc.FragmentEntryPoint)
	assert.Equal(t, uint32(1), desc.Multisample.Count)
	require.Len(t, desc.Buffers, 1)
	assert.Equal(t, uint64(36), desc.Buffers[0].ArrayStride)
	require.Len(t, desc.Targets, 1)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, desc.Targets[0].Format)
	assert.Nil(t, desc.Targets[0].Blend)

	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, gpu.DepthFormat, desc.DepthStencil.Format)
	assert.True(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, desc.DepthStencil.DepthCompare)
	assert.Equal(t, wgpu.CompareFunctionAlways, desc.DepthStencil.StencilFront.Compare)
	assert.Equal(t, wgpu.StencilOperationKeep, desc.DepthStencil.StencilBack.PassOp)

	native, err := p.Pipeline()
	require.NoError(t, err)
	assert.Same(t, device.RenderPipelines[0], native)
}

func TestBuildOptions(t *testing.T) {
	device, builder, module, layout := newTestBuilder(t)

	p, err := builder.Build("skybox", module, LayoutPosition, []gpu.BindGroupLayout{layout},
		WithCullMode(wgpu.CullModeNone),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
		WithEntryPoints("vs_sky", "fs_sky"),
	)
	require.NoError(t, err)
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())

	desc := device.RenderPipelines[0].Desc
	assert.Equal(t, "vs_sky", desc.VertexEntryPoint)
	assert.Equal(t, "fs_sky", desc.FragmentEntryPoint)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, desc.DepthStencil.DepthCompare)
	require.NotNil(t, desc.Targets[0].Blend)
	assert.Equal(t, wgpu.BlendFactorOne, desc.Targets[0].Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, desc.Targets[0].Blend.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, desc.Targets[0].Blend.Alpha.DstFactor)
}

func TestBuildDepthTestDisabledStillCarriesFormat(t *testing.T) {
	device, builder, module, layout := newTestBuilder(t)

	_, err := builder.Build("overlay", module, LayoutPositionColor, []gpu.BindGroupLayout{layout},
		WithDepthTestEnabled(false),
		WithTopology(wgpu.PrimitiveTopologyLineList),
	)
	require.NoError(t, err)

	desc := device.RenderPipelines[0].Desc
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, gpu.DepthFormat, desc.DepthStencil.Format)
	assert.Equal(t, wgpu.CompareFunctionAlways, desc.DepthStencil.DepthCompare)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, desc.Primitive.Topology)
}

func TestBuildFailureReleasesLayout(t *testing.T) {
	device, builder, module, layout := newTestBuilder(t)
	device.PipelineErr = errors.New("entry point main_vs not found")

	_, err := builder.Build("broken", module, LayoutPosition, []gpu.BindGroupLayout{layout})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main_vs")
	require.Len(t, device.PipelineLayouts, 1)
	assert.Equal(t, 1, device.PipelineLayouts[0].ReleaseCount())
}

func TestBuildWithoutModule(t *testing.T) {
	device, builder, _, layout := newTestBuilder(t)

	_, err := builder.Build("empty", nil, LayoutPosition, []gpu.BindGroupLayout{layout})
	require.Error(t, err)
	assert.Empty(t, device.PipelineLayouts)
}

func TestReleaseOrder(t *testing.T) {
	device, builder, module, layout := newTestBuilder(t)
	p, err := builder.Build("wireframe", module, LayoutPositionColor, []gpu.BindGroupLayout{layout})
	require.NoError(t, err)

	rec := device.Recorder()
	p.Release()
	p.Release()

	pipelineAt := rec.Index("release:" + gputest.KindRenderPipeline + ":wireframe")
	layoutAt := rec.Index("release:" + gputest.KindPipelineLayout + ":wireframe layout")
	require.NotEqual(t, -1, pipelineAt)
	assert.Less(t, pipelineAt, layoutAt)
	assert.Equal(t, 1, device.RenderPipelines[0].ReleaseCount())
	assert.Equal(t, 1, device.PipelineLayouts[0].ReleaseCount())

	_, err = p.Pipeline()
	assert.ErrorIs(t, err, gpu.ErrReleased)
}

package variant

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/assets"
	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/geometry"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilders(t *testing.T) (Builders, *gputest.Device) {
	t.Helper()
	device := gputest.NewDevice()
	return Builders{
		Factory:   resource.NewFactory(device),
		Bindings:  bgb.NewBindGroupBuilder(device),
		Pipelines: pipeline.NewPipelineBuilder(device, wgpu.TextureFormatBGRA8Unorm, gpu.DepthFormat),
	}, device
}

func loadShader(t *testing.T, path string) shader.Shader {
	t.Helper()
	sh, err := shader.Load(assets.Shaders, path, shader.WithValidation(false))
	require.NoError(t, err)
	return sh
}

func newTestPass(t *testing.T, device *gputest.Device) *gputest.RenderPass {
	t.Helper()
	encoder, err := device.CreateCommandEncoder("test")
	require.NoError(t, err)
	pass, err := encoder.BeginRenderPass(&gpu.RenderPassDescriptor{Label: "test pass"})
	require.NoError(t, err)
	return pass.(*gputest.RenderPass)
}

func findBuffer(device *gputest.Device, label string) *gputest.Buffer {
	for _, b := range device.Buffers {
		if b.Label() == label {
			return b
		}
	}
	return nil
}

type unlitFixture struct {
	builders Builders
	device   *gputest.Device
	camera   *resource.UniformBuffer[common.Mat4]
	texture  *resource.Texture
	vertices *resource.VertexBuffer
	indices  *resource.IndexBuffer
	unlit    Unlit
}

func newUnlitFixture(t *testing.T) *unlitFixture {
	t.Helper()
	builders, device := newTestBuilders(t)
	camera, err := resource.CreateUniformBuffer(builders.Factory, common.Identity(), "camera")
	require.NoError(t, err)
	texture, err := builders.Factory.CreateDefaultTexture()
	require.NoError(t, err)
	quad := geometry.Quad(1, [4]float32{1, 1, 1, 1})
	vertices, err := builders.Factory.CreateVertexBuffer(quad.Vertices, quad.VertexCount(), "quad vertices")
	require.NoError(t, err)
	indices, err := builders.Factory.CreateIndexBuffer(quad.Indices, "quad indices")
	require.NoError(t, err)

	return &unlitFixture{
		builders: builders,
		device:   device,
		camera:   camera,
		texture:  texture,
		vertices: vertices,
		indices:  indices,
		unlit:    NewUnlit(builders, loadShader(t, assets.UnlitShader), camera, texture),
	}
}

func TestUnlitQuadScenario(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())
	require.NoError(t, f.unlit.SetTransform(common.Identity()))

	pass := newTestPass(t, f.device)
	require.NoError(t, f.unlit.Render(pass, f.vertices, f.indices))
	assert.Equal(t, []string{
		"set-pipeline unlit",
		"set-bind-group 0 unlit bind group",
		"set-vertex-buffer 0 quad vertices 0 144",
		"set-index-buffer quad indices uint16 0 12",
		"draw-indexed 6 1 0 0 0",
	}, pass.Commands)

	identity := common.Identity()
	transform := findBuffer(f.device, "unlit transform")
	require.NotNil(t, transform)
	assert.Equal(t, common.StructToBytes(&identity), transform.Contents)

	desc := f.device.RenderPipelines[0].Desc
	require.NotNil(t, desc.Targets[0].Blend)
	assert.Equal(t, uint64(36), desc.Buffers[0].ArrayStride)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, desc.DepthStencil.DepthCompare)
}

func TestUnlitInitializeOrder(t *testing.T) {
	f := newUnlitFixture(t)
	rec := f.device.Recorder()
	rec.Reset()
	require.NoError(t, f.unlit.Initialize())

	order := []string{
		"bind-group-layout:create unlit layout",
		"shader:create " + assets.UnlitShader,
		"render-pipeline:create unlit",
		"buffer:create unlit transform 64",
		"bind-group:create unlit bind group",
	}
	last := -1
	for _, event := range order {
		at := rec.Index(event)
		require.NotEqual(t, -1, at, event)
		assert.Greater(t, at, last, event)
		last = at
	}

	assert.ErrorIs(t, f.unlit.Initialize(), gpu.ErrAlreadyInitialized)
}

func TestUnlitNonIndexedDraw(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())

	pass := newTestPass(t, f.device)
	require.NoError(t, f.unlit.Render(pass, f.vertices, nil))
	assert.Equal(t, "draw 4 1 0 0", pass.Commands[len(pass.Commands)-1])
}

func TestUnlitRebindReleasesPreviousGroups(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())

	const n = 5
	for range n {
		require.NoError(t, f.unlit.Rebind(f.texture))
	}
	assert.Equal(t, n, f.unlit.Rebinds())
	assert.Equal(t, 1, f.device.LiveBindGroups())
	assert.Len(t, f.device.BindGroups, n+1)
}

func TestUnlitRebindReleasedTexture(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())

	stale, err := f.builders.Factory.CreateDefaultTexture()
	require.NoError(t, err)
	stale.Release()

	err = f.unlit.Rebind(stale)
	require.ErrorIs(t, err, gpu.ErrReleased)
	assert.Equal(t, 0, f.unlit.Rebinds())
	assert.Equal(t, 1, f.device.LiveBindGroups())

	pass := newTestPass(t, f.device)
	require.NoError(t, f.unlit.Render(pass, f.vertices, f.indices))
}

func TestUnlitDisposeReleasesOnlyOwned(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())
	rec := f.device.Recorder()

	f.unlit.Dispose()
	f.unlit.Dispose()

	assert.Equal(t, 1, rec.Releases(gputest.KindRenderPipeline))
	assert.Equal(t, 1, rec.Releases(gputest.KindPipelineLayout))
	assert.Equal(t, 1, rec.Releases(gputest.KindShaderModule))
	assert.Equal(t, 1, rec.Releases(gputest.KindBindGroupLayout))
	assert.Equal(t, 1, rec.Releases(gputest.KindBindGroup))
	assert.Equal(t, 1, rec.Releases(gputest.KindBuffer))
	assert.Equal(t, 1, findBuffer(f.device, "unlit transform").ReleaseCount())

	assert.False(t, f.texture.Released())
	_, err := f.camera.Buffer()
	assert.NoError(t, err)
	_, err = f.vertices.Buffer()
	assert.NoError(t, err)

	pass := newTestPass(t, f.device)
	assert.ErrorIs(t, f.unlit.Render(pass, f.vertices, f.indices), ErrNotInitialized)
	assert.ErrorIs(t, f.unlit.Initialize(), gpu.ErrReleased)
}

func TestUnlitRenderBeforeInitialize(t *testing.T) {
	f := newUnlitFixture(t)
	pass := newTestPass(t, f.device)

	assert.ErrorIs(t, f.unlit.Render(pass, f.vertices, nil), ErrNotInitialized)
	assert.ErrorIs(t, f.unlit.SetTransform(common.Identity()), ErrNotInitialized)
	assert.ErrorIs(t, f.unlit.Rebind(f.texture), ErrNotInitialized)
	assert.Empty(t, pass.Commands)
}

func TestUnlitInitializeFailureReleasesEverything(t *testing.T) {
	f := newUnlitFixture(t)
	f.device.PipelineErr = errors.New("vertex attribute 2 not consumed")
	rec := f.device.Recorder()

	err := f.unlit.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex attribute 2 not consumed")
	assert.Contains(t, err.Error(), assets.UnlitShader)

	assert.Equal(t, 1, rec.Releases(gputest.KindBindGroupLayout))
	assert.Equal(t, 1, rec.Releases(gputest.KindShaderModule))
	assert.Equal(t, 1, rec.Releases(gputest.KindPipelineLayout))
	assert.Nil(t, findBuffer(f.device, "unlit transform"))
	assert.Empty(t, f.device.BindGroups)
}

func TestUnlitReload(t *testing.T) {
	f := newUnlitFixture(t)
	require.NoError(t, f.unlit.Initialize())
	rec := f.device.Recorder()

	require.NoError(t, f.unlit.Reload(loadShader(t, assets.UnlitShader)))
	require.Len(t, f.device.RenderPipelines, 2)
	assert.Equal(t, 1, f.device.RenderPipelines[0].ReleaseCount())
	assert.Equal(t, 0, f.device.RenderPipelines[1].ReleaseCount())
	assert.Equal(t, 1, rec.Releases(gputest.KindShaderModule))

	f.device.PipelineErr = errors.New("bad entry point")
	require.Error(t, f.unlit.Reload(loadShader(t, assets.UnlitShader)))
	assert.Equal(t, 0, f.device.RenderPipelines[1].ReleaseCount())

	f.device.PipelineErr = nil
	pass := newTestPass(t, f.device)
	require.NoError(t, f.unlit.Render(pass, f.vertices, f.indices))
}

func newSkyboxFaces() resource.CubeFaces {
	colors := [6][4]byte{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255},
		{255, 255, 0, 255}, {0, 255, 255, 255}, {255, 0, 255, 255},
	}
	var faces resource.CubeFaces
	for i, c := range colors {
		faces[i] = common.SolidColor(1, 1, c)
	}
	return faces
}

func TestSkybox(t *testing.T) {
	builders, device := newTestBuilders(t)
	camera, err := resource.CreateUniformBuffer(builders.Factory, common.Identity(), "skybox camera")
	require.NoError(t, err)
	cube, err := builders.Factory.CreateCubeTexture(newSkyboxFaces(), common.SamplerStagingData{}, "sky")
	require.NoError(t, err)

	sky := NewSkybox(builders, loadShader(t, assets.SkyboxShader), camera, cube)
	require.NoError(t, sky.Initialize())

	desc := device.RenderPipelines[0].Desc
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, desc.DepthStencil.DepthCompare)
	assert.Equal(t, uint64(12), desc.Buffers[0].ArrayStride)
	layout := device.BindGroupLayouts[0].Desc
	assert.Equal(t, wgpu.TextureViewDimensionCube, layout.Entries[SkyboxTextureSlot].Texture.ViewDimension)

	pass := newTestPass(t, device)
	require.NoError(t, sky.Render(pass))
	assert.Equal(t, []string{
		"set-pipeline skybox",
		"set-bind-group 0 skybox bind group",
		"set-vertex-buffer 0 skybox cube 0 432",
		"draw 36 1 0 0",
	}, pass.Commands)

	sky.Dispose()
	assert.Equal(t, 1, findBuffer(device, "skybox cube").ReleaseCount())
	assert.False(t, cube.Released())
	_, err = camera.Buffer()
	assert.NoError(t, err)
}

func TestWireframe(t *testing.T) {
	builders, device := newTestBuilders(t)
	camera, err := resource.CreateUniformBuffer(builders.Factory, common.Identity(), "camera")
	require.NoError(t, err)
	scratch, err := builders.Factory.CreateEmptyVertexBuffer(10*28, "debug lines")
	require.NoError(t, err)

	wire := NewWireframe(builders, loadShader(t, assets.WireframeShader), camera, WithLabel("debug"))
	require.NoError(t, wire.Initialize())
	assert.Equal(t, "debug", wire.Label())

	desc := device.RenderPipelines[0].Desc
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, desc.Primitive.Topology)
	assert.Equal(t, uint64(28), desc.Buffers[0].ArrayStride)
	require.Len(t, device.BindGroupLayouts[0].Desc.Entries, 1)

	pass := newTestPass(t, device)
	require.NoError(t, wire.Render(pass, scratch, 0))
	assert.Empty(t, pass.Commands)

	require.NoError(t, wire.Render(pass, scratch, 4))
	assert.Equal(t, []string{
		"set-pipeline debug",
		"set-bind-group 0 debug bind group",
		"set-vertex-buffer 0 debug lines 0 112",
		"draw 4 1 0 0",
	}, pass.Commands)

	assert.Error(t, wire.Render(pass, scratch, 11))

	wire.Dispose()
	_, err = scratch.Buffer()
	assert.NoError(t, err)
	assert.Equal(t, 0, device.Recorder().Releases(gputest.KindBuffer))
}

func TestShippedShadersMatchVariantLayouts(t *testing.T) {
	f := newUnlitFixture(t)
	builders := f.builders
	cubeTexture, err := builders.Factory.CreateCubeTexture(newSkyboxFaces(), common.SamplerStagingData{}, "sky")
	require.NoError(t, err)

	u := f.unlit.(*unlit)
	sky := NewSkybox(builders, loadShader(t, assets.SkyboxShader), f.camera, cubeTexture).(*skybox)
	wire := NewWireframe(builders, loadShader(t, assets.WireframeShader), f.camera).(*wireframe)

	assert.Empty(t, undeclaredSlots(u.shader, u.layoutBindings))
	assert.Empty(t, undeclaredSlots(sky.shader, sky.layoutBindings))
	assert.Empty(t, undeclaredSlots(wire.shader, wire.layoutBindings))
}

func TestUndeclaredSlotsStillBuilds(t *testing.T) {
	source := `
struct Camera { view_proj: mat4x4<f32> };
@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(5) var<uniform> tint: vec4<f32>;
@group(1) @binding(0) var<uniform> other: vec4<f32>;

@vertex
fn main_vs(@location(0) position: vec3<f32>, @location(1) color: vec4<f32>) -> @builtin(position) vec4<f32> {
	return camera.view_proj * vec4<f32>(position, 1.0);
}

@fragment
fn main_fs() -> @location(0) vec4<f32> {
	return tint;
}
`
	sh, err := shader.NewShader("tinted.wgsl", source, shader.WithValidation(false))
	require.NoError(t, err)

	builders, _ := newTestBuilders(t)
	camera, err := resource.CreateUniformBuffer(builders.Factory, common.Identity(), "camera")
	require.NoError(t, err)
	wire := NewWireframe(builders, sh, camera).(*wireframe)

	assert.Equal(t, []uint32{5}, undeclaredSlots(sh, wire.layoutBindings))
	require.NoError(t, wire.Initialize())
}

package scene

import (
	"io/fs"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/assets"
	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/camera"
	"github.com/Carmen-Shannon/oxy-fps/engine/debug_draw"
	"github.com/Carmen-Shannon/oxy-fps/engine/game_object"
	"github.com/Carmen-Shannon/oxy-fps/engine/geometry"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type axisLines struct{}

func (axisLines) DrawDebugLines(d debug_draw.DebugDraw) {
	d.DrawLine(common.Vec3{}, common.Vec3{1, 0, 0}, [3]float32{1, 0, 0})
}

func newTestBuilders() (variant.Builders, *gputest.Device) {
	device := gputest.NewDevice()
	return variant.Builders{
		Factory:   resource.NewFactory(device),
		Bindings:  bgb.NewBindGroupBuilder(device),
		Pipelines: pipeline.NewPipelineBuilder(device, wgpu.TextureFormatBGRA8Unorm, gpu.DepthFormat),
	}, device
}

func newTestPass(t *testing.T, device *gputest.Device) *gputest.RenderPass {
	t.Helper()
	encoder, err := device.CreateCommandEncoder("test")
	require.NoError(t, err)
	pass, err := encoder.BeginRenderPass(&gpu.RenderPassDescriptor{Label: "test pass"})
	require.NoError(t, err)
	return pass.(*gputest.RenderPass)
}

func testFaces() resource.CubeFaces {
	var faces resource.CubeFaces
	for i := range faces {
		faces[i] = common.SolidColor(1, 1, [4]byte{byte(i * 40), 0, 0, 255})
	}
	return faces
}

func newTestScene(options ...SceneBuilderOption) Scene {
	quad := game_object.NewGameObject(game_object.WithLabel("quad"), game_object.WithMesh(geometry.Quad(1, [4]float32{1, 1, 1, 1})))
	options = append([]SceneBuilderOption{
		WithObjects(quad),
		WithShaderOptions(shader.WithValidation(false)),
	}, options...)
	return NewBasicScene("test", camera.NewCamera(), options...)
}

func TestRenderOrder(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithSkybox(testFaces()), WithLineSources(axisLines{}))
	require.NoError(t, s.Initialize(builders))
	require.NoError(t, s.Update(1.0/60))

	pass := newTestPass(t, device)
	require.NoError(t, s.Render(pass))

	sky := slices.Index(pass.Commands, "draw 36 1 0 0")
	quad := slices.Index(pass.Commands, "draw-indexed 6 1 0 0 0")
	lines := slices.Index(pass.Commands, "draw 2 1 0 0")
	require.NotEqual(t, -1, sky)
	require.NotEqual(t, -1, quad)
	require.NotEqual(t, -1, lines)
	assert.Less(t, sky, quad)
	assert.Less(t, quad, lines)
}

func TestDiscardFrameDropsCollectedLines(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithLineSources(axisLines{}))
	require.NoError(t, s.Initialize(builders))

	require.NoError(t, s.Update(0.016))
	assert.Equal(t, uint32(2), s.DebugDraw().VertexCount())
	s.DiscardFrame()
	assert.Zero(t, s.DebugDraw().VertexCount())

	// The next frame draws only its own lines.
	require.NoError(t, s.Update(0.016))
	pass := newTestPass(t, device)
	require.NoError(t, s.Render(pass))
	assert.Contains(t, pass.Commands, "draw 2 1 0 0")
}

func TestDisabledObjectsAreSkipped(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithDebugLines(false))
	require.NoError(t, s.Initialize(builders))
	assert.Nil(t, s.DebugDraw())

	s.Get(1).SetEnabled(false)
	require.NoError(t, s.Update(0.016))
	pass := newTestPass(t, device)
	require.NoError(t, s.Render(pass))
	assert.Empty(t, pass.Commands)
}

func TestAddAfterInitialize(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene()
	require.NoError(t, s.Initialize(builders))

	cube := game_object.NewGameObject(game_object.WithLabel("crate"), game_object.WithMesh(geometry.Cube(1, [4]float32{1, 1, 1, 1})))
	id, err := s.Add(cube)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, 2, s.Count())

	pass := newTestPass(t, device)
	require.NoError(t, s.Render(pass))
	assert.Contains(t, pass.Commands, "draw-indexed 36 1 0 0 0")

	s.Remove(id)
	assert.Equal(t, 1, s.Count())
	assert.Nil(t, s.Get(id))
}

func TestResizeUpdatesAspect(t *testing.T) {
	s := newTestScene()
	s.Resize(1600, 900)
	assert.InDelta(t, 16.0/9.0, s.Camera().Aspect(), 1e-5)

	s.Resize(800, 0)
	assert.InDelta(t, 16.0/9.0, s.Camera().Aspect(), 1e-5)
}

func TestReloadShader(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithSkybox(testFaces()))
	require.NoError(t, s.Initialize(builders))
	before := len(device.RenderPipelines)

	unlit, err := shader.Load(assets.Shaders, assets.UnlitShader, shader.WithValidation(false))
	require.NoError(t, err)
	require.NoError(t, s.ReloadShader(unlit))
	assert.Len(t, device.RenderPipelines, before+1)

	source, err := fs.ReadFile(assets.Shaders, assets.WireframeShader)
	require.NoError(t, err)
	other, err := shader.NewShader("shaders/unused.wgsl", string(source), shader.WithValidation(false))
	require.NoError(t, err)
	require.NoError(t, s.ReloadShader(other))
	assert.Len(t, device.RenderPipelines, before+1)
}

func TestUpdateBeforeInitialize(t *testing.T) {
	s := newTestScene()
	assert.ErrorIs(t, s.Update(0.016), variant.ErrNotInitialized)
	assert.ErrorIs(t, s.Render(nil), variant.ErrNotInitialized)
}

func TestDisposeReleasesEverything(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithSkybox(testFaces()))
	require.NoError(t, s.Initialize(builders))
	assert.ErrorIs(t, s.Initialize(builders), gpu.ErrAlreadyInitialized)

	s.Dispose()
	for _, b := range device.Buffers {
		assert.Equal(t, 1, b.ReleaseCount(), b.Label())
	}
	for _, p := range device.RenderPipelines {
		assert.Equal(t, 1, p.ReleaseCount(), p.Label())
	}
	assert.Empty(t, device.LiveBindGroups())
}

func TestInitializeFailureReleasesEverything(t *testing.T) {
	builders, device := newTestBuilders()
	s := newTestScene(WithShaderFS(assets.Shaders), WithSkybox(resource.CubeFaces{}))
	require.Error(t, s.Initialize(builders))

	for _, b := range device.Buffers {
		assert.Equal(t, 1, b.ReleaseCount(), b.Label())
	}
}

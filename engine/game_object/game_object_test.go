package game_object

import (
	"errors"
	"fmt"
	"math/rand/v2"
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
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTransform common.Mat4

func (f fixedTransform) WorldTransform() [16]float32 { return [16]float32(f) }

func newTestResources(t *testing.T) (Resources, *gputest.Device) {
	t.Helper()
	device := gputest.NewDevice()
	builders := variant.Builders{
		Factory:   resource.NewFactory(device),
		Bindings:  bgb.NewBindGroupBuilder(device),
		Pipelines: pipeline.NewPipelineBuilder(device, wgpu.TextureFormatBGRA8Unorm, gpu.DepthFormat),
	}
	camera, err := resource.CreateUniformBuffer(builders.Factory, common.Identity(), "camera")
	require.NoError(t, err)
	texture, err := builders.Factory.CreateDefaultTexture()
	require.NoError(t, err)
	sh, err := shader.Load(assets.Shaders, assets.UnlitShader, shader.WithValidation(false))
	require.NoError(t, err)
	return Resources{Builders: builders, Shader: sh, Camera: camera, Texture: texture}, device
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

func TestObjectsOwnTheirBuffers(t *testing.T) {
	res, device := newTestResources(t)
	cube := geometry.Cube(1, [4]float32{1, 1, 1, 1})

	a := NewGameObject(WithLabel("crate a"), WithMesh(cube))
	b := NewGameObject(WithLabel("crate b"), WithMesh(cube))
	require.NoError(t, a.Initialize(res))
	require.NoError(t, b.Initialize(res))

	for _, label := range []string{"crate a vertices", "crate a indices", "crate b vertices", "crate b indices"} {
		assert.NotNil(t, findBuffer(device, label), label)
	}

	a.Dispose()
	assert.Equal(t, 1, findBuffer(device, "crate a vertices").ReleaseCount())
	assert.Zero(t, findBuffer(device, "crate b vertices").ReleaseCount())

	pass := newTestPass(t, device)
	require.NoError(t, b.Render(pass))
	assert.Contains(t, pass.Commands, "draw-indexed 36 1 0 0 0")
	assert.ErrorIs(t, a.Render(pass), variant.ErrNotInitialized)
}

func TestUpdateWritesTransform(t *testing.T) {
	res, device := newTestResources(t)
	obj := NewGameObject(WithLabel("quad"), WithMesh(geometry.Quad(1, [4]float32{1, 1, 1, 1})), WithPosition(1, 2, 3))
	require.NoError(t, obj.Initialize(res))

	want := common.Translation(1, 2, 3)
	got := obj.Transform()
	assert.InDeltaSlice(t, want[:], got[:], 1e-6)

	source := fixedTransform(common.Translation(-4, 0, 9))
	obj.SetTransformSource(source)
	require.NoError(t, obj.Update())

	m := common.Mat4(source)
	transform := findBuffer(device, "quad transform")
	require.NotNil(t, transform)
	assert.Equal(t, common.StructToBytes(&m), transform.Contents)
}

func TestLargeTerrainUses32BitIndices(t *testing.T) {
	res, device := newTestResources(t)
	terrain, err := geometry.Terrain(256, 256, 1, 1, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	obj := NewGameObject(WithLabel("terrain"), WithMesh(terrain))
	require.NoError(t, obj.Initialize(res))
	require.NoError(t, obj.Update())

	pass := newTestPass(t, device)
	require.NoError(t, obj.Render(pass))
	count := 256 * 256 * 6
	assert.Contains(t, pass.Commands, fmt.Sprintf("set-index-buffer terrain indices uint32 0 %d", count*4))
	assert.Contains(t, pass.Commands, fmt.Sprintf("draw-indexed %d 1 0 0 0", count))
}

func TestInitializeWithoutMesh(t *testing.T) {
	res, device := newTestResources(t)
	obj := NewGameObject()
	assert.ErrorIs(t, obj.Initialize(res), ErrNoMesh)
	assert.Empty(t, device.RenderPipelines)
}

func TestInitializeFailureReleasesBuffers(t *testing.T) {
	res, device := newTestResources(t)
	device.PipelineErr = errors.New("bad pipeline")

	obj := NewGameObject(WithLabel("broken"), WithMesh(geometry.Quad(1, [4]float32{1, 1, 1, 1})))
	require.Error(t, obj.Initialize(res))
	assert.Equal(t, 1, findBuffer(device, "broken vertices").ReleaseCount())
	assert.Equal(t, 1, findBuffer(device, "broken indices").ReleaseCount())
}

func TestSetTexture(t *testing.T) {
	res, device := newTestResources(t)
	obj := NewGameObject(WithLabel("quad"), WithMesh(geometry.Quad(1, [4]float32{1, 1, 1, 1})))
	require.NoError(t, obj.Initialize(res))

	groups := len(device.BindGroups)
	old := device.LastBindGroup()
	require.NotNil(t, old)

	other, err := res.Builders.Factory.CreateDefaultTexture()
	require.NoError(t, err)
	require.NoError(t, obj.SetTexture(other))

	// Exactly one replacement group, and the group it replaced is released once.
	assert.Len(t, device.BindGroups, groups+1)
	assert.Equal(t, 1, old.ReleaseCount())
	assert.Zero(t, device.LastBindGroup().ReleaseCount())
	assert.Equal(t, 1, device.LiveBindGroups())
}

func TestDefaults(t *testing.T) {
	obj := NewGameObject()
	assert.True(t, obj.Enabled())
	assert.Zero(t, obj.ID())
	assert.NotEmpty(t, obj.Label())

	m := obj.Transform()
	identity := common.Identity()
	assert.InDeltaSlice(t, identity[:], m[:], 1e-6)
}

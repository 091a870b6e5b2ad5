package variant

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fps/engine/geometry"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group 0 slots of the skybox shader.
const (
	SkyboxCameraSlot uint32 = iota
	SkyboxTextureSlot
	SkyboxSamplerSlot
)

// Skybox draws a cube texture behind the scene. The camera sits inside the cube, so culling is disabled, and
// the cube writes no depth so everything else draws over it.
type Skybox interface {
	Variant

	// Rebind replaces the bound cube texture and rebuilds the bind group, releasing the previous group.
	//
	// Parameters:
	//   - cube: the new cube texture, still owned by the caller
	//
	// Returns:
	//   - error: ErrNotInitialized, gpu.ErrReleased for a released texture, or the backend error
	Rebind(cube bgb.TextureSource) error

	// Render records the 36 vertex cube draw into pass.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//
	// Returns:
	//   - error: ErrNotInitialized
	Render(pass gpu.RenderPass) error
}

type skybox struct {
	*base
	camera   bgb.BufferSource
	cube     bgb.TextureSource
	vertices *resource.VertexBuffer
}

var _ Skybox = &skybox{}

// NewSkybox creates a Skybox variant. Call Initialize before use.
//
// Parameters:
//   - builders: the factories to build from
//   - sh: the skybox shader
//   - camera: the translation-free view-projection uniform, owned by the caller
//   - cube: the cube texture, owned by the caller
//   - options: optional VariantBuilderOption functions
//
// Returns:
//   - Skybox: the uninitialized variant
func NewSkybox(builders Builders, sh shader.Shader, camera bgb.BufferSource, cube bgb.TextureSource, options ...VariantBuilderOption) Skybox {
	s := &skybox{camera: camera, cube: cube}
	s.base = newBase("skybox", builders, sh, pipeline.LayoutPosition,
		[]bgb.LayoutBinding{
			{Slot: SkyboxCameraSlot, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer},
			{Slot: SkyboxTextureSlot, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindCubeTexture},
			{Slot: SkyboxSamplerSlot, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindSampler},
		},
		[]pipeline.PipelineBuilderOption{
			pipeline.WithCullMode(wgpu.CullModeNone),
			// The sky is drawn at depth 1.0 and has to pass against the cleared depth.
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithDepthWriteEnabled(false),
		},
		options,
	)
	s.base.owned = s
	return s
}

func (s *skybox) create(factory resource.Factory) error {
	vertices, err := factory.CreateVertexBuffer(geometry.SkyboxCube(), geometry.SkyboxVertexCount, s.label+" cube")
	if err != nil {
		return err
	}
	s.vertices = vertices
	return nil
}

func (s *skybox) entries() []bgb.Resource {
	return []bgb.Resource{
		bgb.UniformEntry(SkyboxCameraSlot, s.camera),
		bgb.CubeTextureEntry(SkyboxTextureSlot, s.cube),
		bgb.SamplerEntry(SkyboxSamplerSlot, s.cube),
	}
}

func (s *skybox) release() {
	if s.vertices != nil {
		s.vertices.Release()
		s.vertices = nil
	}
}

func (s *skybox) Rebind(cube bgb.TextureSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.cube
	s.cube = cube
	if err := s.rebindLocked(); err != nil {
		s.cube = previous
		return err
	}
	return nil
}

func (s *skybox) Render(pass gpu.RenderPass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bindLocked(pass); err != nil {
		return err
	}
	vb, err := s.vertices.Buffer()
	if err != nil {
		return fmt.Errorf("%s: %w", s.label, err)
	}
	pass.SetVertexBuffer(0, vb, 0, s.vertices.Size())
	pass.Draw(geometry.SkyboxVertexCount, 1, 0, 0)
	return nil
}

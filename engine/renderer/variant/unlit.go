package variant

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group 0 slots of the unlit shader.
const (
	UnlitTransformSlot uint32 = iota
	UnlitCameraSlot
	UnlitTextureSlot
	UnlitSamplerSlot
)

// Unlit draws textured, vertex-colored meshes with a per-object model transform and no lighting.
type Unlit interface {
	Variant

	// SetTransform writes the model matrix to the variant's private transform uniform.
	//
	// Parameters:
	//   - m: the model matrix
	//
	// Returns:
	//   - error: ErrNotInitialized, or the queue error
	SetTransform(m common.Mat4) error

	// Rebind replaces the bound texture and rebuilds the bind group, releasing the previous group.
	// This is the only way to change the texture; the cost of the rebuild is paid here, not at draw time.
	//
	// Parameters:
	//   - texture: the new texture, still owned by the caller
	//
	// Returns:
	//   - error: ErrNotInitialized, gpu.ErrReleased for a released texture, or the backend error; the previous
	//     texture stays bound on failure
	Rebind(texture bgb.TextureSource) error

	// Rebinds returns how many replaced bind groups have been released.
	//
	// Returns:
	//   - int: the count
	Rebinds() int

	// Render records the draw of vertices into pass. With a non-nil indices it draws indexed, otherwise it
	// draws the vertex buffer's stored vertex count.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//   - vertices: the mesh vertices in pipeline.LayoutPositionColorUV
	//   - indices: the mesh indices, or nil
	//
	// Returns:
	//   - error: ErrNotInitialized, or gpu.ErrReleased for a released buffer
	Render(pass gpu.RenderPass, vertices *resource.VertexBuffer, indices *resource.IndexBuffer) error
}

type unlit struct {
	*base
	camera    bgb.BufferSource
	texture   bgb.TextureSource
	transform *resource.UniformBuffer[common.Mat4]
}

var _ Unlit = &unlit{}

// NewUnlit creates an Unlit variant. Call Initialize before use.
//
// Parameters:
//   - builders: the factories to build from
//   - sh: the unlit shader
//   - camera: the view-projection uniform, owned by the caller
//   - texture: the initial texture, owned by the caller
//   - options: optional VariantBuilderOption functions
//
// Returns:
//   - Unlit: the uninitialized variant
func NewUnlit(builders Builders, sh shader.Shader, camera bgb.BufferSource, texture bgb.TextureSource, options ...VariantBuilderOption) Unlit {
	u := &unlit{camera: camera, texture: texture}
	u.base = newBase("unlit", builders, sh, pipeline.LayoutPositionColorUV,
		[]bgb.LayoutBinding{
			{Slot: UnlitTransformSlot, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer},
			{Slot: UnlitCameraSlot, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer},
			{Slot: UnlitTextureSlot, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindTexture},
			{Slot: UnlitSamplerSlot, Visibility: wgpu.ShaderStageFragment, Kind: bgb.KindSampler},
		},
		[]pipeline.PipelineBuilderOption{pipeline.WithBlendEnabled(true)},
		options,
	)
	u.base.owned = u
	return u
}

func (u *unlit) create(factory resource.Factory) error {
	transform, err := resource.CreateUniformBuffer(factory, common.Identity(), u.label+" transform")
	if err != nil {
		return err
	}
	u.transform = transform
	return nil
}

func (u *unlit) entries() []bgb.Resource {
	return []bgb.Resource{
		bgb.UniformEntry(UnlitTransformSlot, u.transform),
		bgb.UniformEntry(UnlitCameraSlot, u.camera),
		bgb.TextureEntry(UnlitTextureSlot, u.texture),
		bgb.SamplerEntry(UnlitSamplerSlot, u.texture),
	}
}

func (u *unlit) release() {
	if u.transform != nil {
		u.transform.Release()
		u.transform = nil
	}
}

func (u *unlit) SetTransform(m common.Mat4) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.initialized {
		return fmt.Errorf("%s: %w", u.label, ErrNotInitialized)
	}
	return u.transform.Update(m)
}

func (u *unlit) Rebind(texture bgb.TextureSource) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	previous := u.texture
	u.texture = texture
	if err := u.rebindLocked(); err != nil {
		u.texture = previous
		return err
	}
	return nil
}

func (u *unlit) Render(pass gpu.RenderPass, vertices *resource.VertexBuffer, indices *resource.IndexBuffer) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if vertices == nil {
		return fmt.Errorf("%s: render without vertices", u.label)
	}
	vb, err := vertices.Buffer()
	if err != nil {
		return err
	}
	var ib gpu.Buffer
	if indices != nil {
		if ib, err = indices.Buffer(); err != nil {
			return err
		}
	}
	if err := u.bindLocked(pass); err != nil {
		return err
	}
	pass.SetVertexBuffer(0, vb, 0, vertices.Size())
	if indices != nil {
		pass.SetIndexBuffer(ib, indices.Format(), 0, indices.Size())
		pass.DrawIndexed(indices.IndexCount(), 1, 0, 0, 0)
		return nil
	}
	pass.Draw(vertices.VertexCount(), 1, 0, 0)
	return nil
}

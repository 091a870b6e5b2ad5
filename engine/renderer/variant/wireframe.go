package variant

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// WireframeCameraSlot is the only binding of the wireframe shader.
const WireframeCameraSlot uint32 = 0

// Wireframe draws colored line segments, such as physics debug geometry, from a caller-owned scratch buffer.
type Wireframe interface {
	Variant

	// Render records a line-list draw of the first vertexCount vertices of vertices. A zero count records
	// nothing.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//   - vertices: the scratch buffer in pipeline.LayoutPositionColor
	//   - vertexCount: the number of vertices written this frame, even
	//
	// Returns:
	//   - error: ErrNotInitialized, or an error if vertexCount exceeds the buffer
	Render(pass gpu.RenderPass, vertices *resource.VertexBuffer, vertexCount uint32) error
}

type wireframe struct {
	*base
	camera bgb.BufferSource
}

var _ Wireframe = &wireframe{}

// NewWireframe creates a Wireframe variant. Call Initialize before use.
//
// Parameters:
//   - builders: the factories to build from
//   - sh: the wireframe shader
//   - camera: the view-projection uniform, owned by the caller
//   - options: optional VariantBuilderOption functions
//
// Returns:
//   - Wireframe: the uninitialized variant
func NewWireframe(builders Builders, sh shader.Shader, camera bgb.BufferSource, options ...VariantBuilderOption) Wireframe {
	w := &wireframe{camera: camera}
	w.base = newBase("wireframe", builders, sh, pipeline.LayoutPositionColor,
		[]bgb.LayoutBinding{
			{Slot: WireframeCameraSlot, Visibility: wgpu.ShaderStageVertex, Kind: bgb.KindUniformBuffer},
		},
		[]pipeline.PipelineBuilderOption{
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
			pipeline.WithCullMode(wgpu.CullModeNone),
		},
		options,
	)
	w.base.owned = w
	return w
}

func (w *wireframe) create(resource.Factory) error { return nil }

func (w *wireframe) entries() []bgb.Resource {
	return []bgb.Resource{bgb.UniformEntry(WireframeCameraSlot, w.camera)}
}

func (w *wireframe) release() {}

func (w *wireframe) Render(pass gpu.RenderPass, vertices *resource.VertexBuffer, vertexCount uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized {
		return fmt.Errorf("%s: %w", w.label, ErrNotInitialized)
	}
	if vertexCount == 0 {
		return nil
	}
	if vertices == nil {
		return fmt.Errorf("%s: render without vertices", w.label)
	}
	stride := pipeline.LayoutPositionColor.Stride
	if uint64(vertexCount)*stride > vertices.Size() {
		return fmt.Errorf("%s: %d vertices exceed the %d byte scratch buffer", w.label, vertexCount, vertices.Size())
	}
	vb, err := vertices.Buffer()
	if err != nil {
		return err
	}
	if err := w.bindLocked(pass); err != nil {
		return err
	}
	pass.SetVertexBuffer(0, vb, 0, uint64(vertexCount)*stride)
	pass.Draw(vertexCount, 1, 0, 0)
	return nil
}

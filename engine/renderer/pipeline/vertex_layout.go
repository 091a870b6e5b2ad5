package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// VertexLayout describes one interleaved vertex buffer: its stride and its attributes in shader location order.
type VertexLayout struct {
	Stride     uint64
	Attributes []wgpu.VertexAttribute
}

// BufferLayout converts the layout into the per-vertex wgpu buffer layout.
func (l VertexLayout) BufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  l.Attributes,
	}
}

// FloatsPerVertex returns the stride in float32 elements.
func (l VertexLayout) FloatsPerVertex() int {
	return int(l.Stride / 4)
}

var (
	// LayoutPosition is position only (12 bytes), used by the skybox cube.
	LayoutPosition = VertexLayout{
		Stride: 12,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}

	// LayoutPositionColor is position + rgba color (28 bytes), used by wireframe debug lines.
	LayoutPositionColor = VertexLayout{
		Stride: 28,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
		},
	}

	// LayoutPositionColorUV is position + rgba color + uv (36 bytes), used by unlit textured meshes.
	LayoutPositionColorUV = VertexLayout{
		Stride: 36,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 28, ShaderLocation: 2},
		},
	}
)

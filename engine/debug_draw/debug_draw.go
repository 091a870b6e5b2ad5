// Package debug_draw collects colored line segments during a frame, typically from a physics debug drawer, and
// draws them in one line-list call through the wireframe variant.
package debug_draw

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
)

const (
	// MaxVertices is how many line vertices one frame accepts. Lines past it are dropped until the next Flush.
	MaxVertices = 100_000

	floatsPerVertex = 7
)

// DebugDraw is a per-frame line sink. DrawLine only touches CPU memory; Flush uploads the collected vertices
// and records the draw.
type DebugDraw interface {
	// Initialize builds the wireframe variant and allocates the scratch vertex buffer.
	//
	// Returns:
	//   - error: the construction failure
	Initialize() error

	// DrawLine appends one segment. Once the frame holds the maximum number of vertices the line is dropped
	// and counted.
	//
	// Parameters:
	//   - from: the start point in world space
	//   - to: the end point in world space
	//   - color: the RGB line color, stored opaque
	DrawLine(from, to common.Vec3, color [3]float32)

	// VertexCount returns the number of vertices collected since the last Flush.
	//
	// Returns:
	//   - uint32: the vertex count, always even
	VertexCount() uint32

	// Dropped returns the total number of lines dropped because a frame was full.
	//
	// Returns:
	//   - uint64: the dropped line count
	Dropped() uint64

	// Flush uploads exactly the collected vertices, draws them into pass and resets the collector. With no
	// lines collected nothing is uploaded or recorded.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//
	// Returns:
	//   - error: variant.ErrNotInitialized, or the upload or draw failure
	Flush(pass gpu.RenderPass) error

	// Discard drops the collected lines without drawing them, for frames that never reach a render pass.
	Discard()

	// Reload rebuilds the wireframe pipeline from sh.
	//
	// Parameters:
	//   - sh: the new wireframe shader
	//
	// Returns:
	//   - error: the rebuild failure; the old pipeline stays in use
	Reload(sh shader.Shader) error

	// Dispose releases the scratch buffer and the wireframe variant. Calls after the first are no-ops.
	Dispose()
}

type debugDraw struct {
	mu       *sync.Mutex
	label    string
	factory  resource.Factory
	capacity int

	wireframe variant.Wireframe
	scratch   *resource.VertexBuffer

	data         []float32
	vertexCount  uint32
	frameDropped uint64
	dropped      uint64
}

var _ DebugDraw = &debugDraw{}

// NewDebugDraw creates a DebugDraw. Call Initialize before use.
//
// Parameters:
//   - builders: the factories to build from
//   - sh: the wireframe shader
//   - camera: the view-projection uniform, owned by the caller
//   - options: optional DebugDrawBuilderOption functions
//
// Returns:
//   - DebugDraw: the uninitialized collector
func NewDebugDraw(builders variant.Builders, sh shader.Shader, camera bgb.BufferSource, options ...DebugDrawBuilderOption) DebugDraw {
	d := &debugDraw{
		mu:       &sync.Mutex{},
		label:    "debug lines",
		factory:  builders.Factory,
		capacity: MaxVertices,
	}
	for _, opt := range options {
		opt(d)
	}
	d.capacity -= d.capacity % 2
	d.data = make([]float32, 0, d.capacity*floatsPerVertex)
	d.wireframe = variant.NewWireframe(builders, sh, camera, variant.WithLabel(d.label))
	return d
}

func (d *debugDraw) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.wireframe.Initialize(); err != nil {
		return err
	}
	size := uint64(d.capacity) * pipeline.LayoutPositionColor.Stride
	scratch, err := d.factory.CreateEmptyVertexBuffer(size, d.label+" scratch")
	if err != nil {
		d.wireframe.Dispose()
		return fmt.Errorf("failed to allocate %s scratch buffer: %w", d.label, err)
	}
	d.scratch = scratch
	return nil
}

func (d *debugDraw) DrawLine(from, to common.Vec3, color [3]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int(d.vertexCount) >= d.capacity {
		d.frameDropped++
		d.dropped++
		return
	}
	d.data = append(d.data,
		from[0], from[1], from[2], color[0], color[1], color[2], 1,
		to[0], to[1], to[2], color[0], color[1], color[2], 1,
	)
	d.vertexCount += 2
}

func (d *debugDraw) VertexCount() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vertexCount
}

func (d *debugDraw) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *debugDraw) Flush(pass gpu.RenderPass) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.reset()

	if d.scratch == nil {
		return fmt.Errorf("%s: %w", d.label, variant.ErrNotInitialized)
	}
	if d.frameDropped > 0 {
		common.Logger().Warn("debug lines dropped", "label", d.label, "dropped", d.frameDropped, "capacity", d.capacity)
	}
	if d.vertexCount == 0 {
		return nil
	}
	if err := d.scratch.Update(d.data, uint64(len(d.data))*4); err != nil {
		return fmt.Errorf("failed to upload %s: %w", d.label, err)
	}
	return d.wireframe.Render(pass, d.scratch, d.vertexCount)
}

func (d *debugDraw) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *debugDraw) reset() {
	d.data = d.data[:0]
	d.vertexCount = 0
	d.frameDropped = 0
}

func (d *debugDraw) Reload(sh shader.Shader) error {
	return d.wireframe.Reload(sh)
}

func (d *debugDraw) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scratch != nil {
		d.scratch.Release()
		d.scratch = nil
	}
	d.wireframe.Dispose()
}

// Package game_object holds renderable scene entities. Each object owns its own vertex and index buffers and
// its own unlit variant; nothing is shared between instances.
package game_object

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/geometry"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/variant"
)

// objectCount generates default labels for objects created without WithLabel.
var objectCount atomic.Uint64

// ErrNoMesh is returned by Initialize for an object without vertices.
var ErrNoMesh = errors.New("game object has no mesh")

// TransformSource supplies an object's world transform, typically a physics rigid body.
type TransformSource interface {
	// WorldTransform returns the column-major model matrix.
	WorldTransform() [16]float32
}

// Resources are the shared inputs an object needs to initialize. The object never releases them.
type Resources struct {
	Builders variant.Builders
	Shader   shader.Shader
	Camera   bgb.BufferSource
	// Texture is used when the object was created without one.
	Texture bgb.TextureSource
}

type gameObject struct {
	mu      *sync.Mutex
	id      uint64
	label   string
	enabled atomic.Bool

	mesh    geometry.Mesh
	texture bgb.TextureSource

	position [3]float32
	rotation [3]float32
	scale    [3]float32
	source   TransformSource

	unlit    variant.Unlit
	vertices *resource.VertexBuffer
	indices  *resource.IndexBuffer
}

// GameObject is a mesh drawn with the unlit variant. Its transform comes from an attached TransformSource
// or, without one, from its own position, rotation and scale.
type GameObject interface {
	// ID returns the object's identifier, zero until a scene assigns one.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Label returns the debug label used for the object's GPU resources.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Enabled returns whether the object is updated and drawn.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object is updated and drawn.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Mesh returns the CPU-side geometry.
	//
	// Returns:
	//   - geometry.Mesh: the mesh
	Mesh() geometry.Mesh

	// Position returns the object's own position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// SetPosition sets the object's own position.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetRotation sets the object's own Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: rotation angles
	SetRotation(rx, ry, rz float32)

	// SetScale sets the object's own scale.
	//
	// Parameters:
	//   - sx, sy, sz: scale components
	SetScale(sx, sy, sz float32)

	// SetTransformSource attaches a world transform provider that overrides position, rotation and scale.
	// Passing nil detaches it.
	//
	// Parameters:
	//   - src: the transform source
	SetTransformSource(src TransformSource)

	// Transform returns the current model matrix.
	//
	// Returns:
	//   - common.Mat4: the model matrix
	Transform() common.Mat4

	// Initialize uploads the mesh into per-object buffers and builds the object's unlit variant.
	//
	// Parameters:
	//   - res: the shared builders, shader, camera uniform and fallback texture
	//
	// Returns:
	//   - error: ErrNoMesh or the first construction failure; nothing stays allocated on failure
	Initialize(res Resources) error

	// SetTexture rebinds the object's texture.
	//
	// Parameters:
	//   - tex: the texture, still owned by the caller
	//
	// Returns:
	//   - error: the rebind failure; the old texture stays bound
	SetTexture(tex bgb.TextureSource) error

	// Update writes the current transform into the variant's transform uniform.
	//
	// Returns:
	//   - error: variant.ErrNotInitialized or the upload failure
	Update() error

	// Render records the object's draw into pass.
	//
	// Parameters:
	//   - pass: the frame's active render pass
	//
	// Returns:
	//   - error: variant.ErrNotInitialized or a released buffer
	Render(pass gpu.RenderPass) error

	// Reload rebuilds the object's pipeline from sh.
	//
	// Parameters:
	//   - sh: the new unlit shader
	//
	// Returns:
	//   - error: the rebuild failure
	Reload(sh shader.Shader) error

	// Dispose releases the variant and the object's buffers. Calls after the first are no-ops.
	Dispose()
}

var _ GameObject = &gameObject{}

// NewGameObject creates a GameObject. Call Initialize before rendering.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the object, enabled, with unit scale
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	o := &gameObject{
		mu:    &sync.Mutex{},
		label: fmt.Sprintf("object %d", objectCount.Add(1)),
		scale: [3]float32{1, 1, 1},
	}
	o.enabled.Store(true)
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *gameObject) ID() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

func (o *gameObject) SetID(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.id = id
}

func (o *gameObject) Label() string {
	return o.label
}

func (o *gameObject) Enabled() bool {
	return o.enabled.Load()
}

func (o *gameObject) SetEnabled(enabled bool) {
	o.enabled.Store(enabled)
}

func (o *gameObject) Mesh() geometry.Mesh {
	return o.mesh
}

func (o *gameObject) Position() (x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position[0], o.position[1], o.position[2]
}

func (o *gameObject) SetPosition(x, y, z float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = [3]float32{x, y, z}
}

func (o *gameObject) SetRotation(rx, ry, rz float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rotation = [3]float32{rx, ry, rz}
}

func (o *gameObject) SetScale(sx, sy, sz float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scale = [3]float32{sx, sy, sz}
}

func (o *gameObject) SetTransformSource(src TransformSource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.source = src
}

func (o *gameObject) Transform() common.Mat4 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transformLocked()
}

func (o *gameObject) transformLocked() common.Mat4 {
	if o.source != nil {
		return common.Mat4(o.source.WorldTransform())
	}
	return common.ModelMatrix(common.Vec3(o.position), common.Vec3(o.rotation), common.Vec3(o.scale))
}

func (o *gameObject) Initialize(res Resources) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.unlit != nil {
		return gpu.ErrAlreadyInitialized
	}
	if len(o.mesh.Vertices) == 0 {
		return fmt.Errorf("%s: %w", o.label, ErrNoMesh)
	}
	texture := o.texture
	if texture == nil {
		texture = res.Texture
	}

	vertices, err := res.Builders.Factory.CreateVertexBuffer(o.mesh.Vertices, o.mesh.VertexCount(), o.label+" vertices")
	if err != nil {
		return err
	}
	var indices *resource.IndexBuffer
	if o.mesh.Indexed() {
		if len(o.mesh.Indices32) > 0 {
			indices, err = res.Builders.Factory.CreateIndexBuffer32(o.mesh.Indices32, o.label+" indices")
		} else {
			indices, err = res.Builders.Factory.CreateIndexBuffer(o.mesh.Indices, o.label+" indices")
		}
		if err != nil {
			vertices.Release()
			return err
		}
	}

	unlit := variant.NewUnlit(res.Builders, res.Shader, res.Camera, texture, variant.WithLabel(o.label))
	if err := unlit.Initialize(); err != nil {
		vertices.Release()
		if indices != nil {
			indices.Release()
		}
		return fmt.Errorf("failed to initialize %s: %w", o.label, err)
	}

	o.vertices = vertices
	o.indices = indices
	o.unlit = unlit
	o.texture = texture
	return unlit.SetTransform(o.transformLocked())
}

func (o *gameObject) SetTexture(tex bgb.TextureSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unlit == nil {
		o.texture = tex
		return nil
	}
	if err := o.unlit.Rebind(tex); err != nil {
		return err
	}
	o.texture = tex
	return nil
}

func (o *gameObject) Update() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unlit == nil {
		return fmt.Errorf("%s: %w", o.label, variant.ErrNotInitialized)
	}
	return o.unlit.SetTransform(o.transformLocked())
}

func (o *gameObject) Render(pass gpu.RenderPass) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unlit == nil {
		return fmt.Errorf("%s: %w", o.label, variant.ErrNotInitialized)
	}
	return o.unlit.Render(pass, o.vertices, o.indices)
}

func (o *gameObject) Reload(sh shader.Shader) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unlit == nil {
		return fmt.Errorf("%s: %w", o.label, variant.ErrNotInitialized)
	}
	return o.unlit.Reload(sh)
}

func (o *gameObject) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unlit == nil {
		return
	}
	o.unlit.Dispose()
	o.vertices.Release()
	if o.indices != nil {
		o.indices.Release()
	}
	o.unlit = nil
	o.vertices = nil
	o.indices = nil
}

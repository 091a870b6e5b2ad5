package game_object

import (
	"github.com/Carmen-Shannon/oxy-fps/engine/geometry"
	bgb "github.com/Carmen-Shannon/oxy-fps/engine/renderer/bind_group_builder"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithLabel sets the debug label of the GameObject and its GPU resources.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the label
func WithLabel(label string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.label = label
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithMesh sets the geometry the object uploads on Initialize.
//
// Parameters:
//   - mesh: interleaved position, color and UV vertices with optional indices
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the mesh
func WithMesh(mesh geometry.Mesh) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mesh = mesh
	}
}

// WithTexture sets the texture bound on Initialize instead of the shared fallback texture.
//
// Parameters:
//   - tex: the texture, owned by the caller
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the texture
func WithTexture(tex bgb.TextureSource) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.texture = tex
	}
}

// WithPosition sets the initial position of the GameObject.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = [3]float32{x, y, z}
	}
}

// WithRotation sets the initial Euler rotation in radians.
//
// Parameters:
//   - rx, ry, rz: rotation angles
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = [3]float32{rx, ry, rz}
	}
}

// WithScale sets the initial scale.
//
// Parameters:
//   - sx, sy, sz: scale components
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = [3]float32{sx, sy, sz}
	}
}

// WithTransformSource attaches a world transform provider such as a physics body.
//
// Parameters:
//   - src: the transform source
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the transform source
func WithTransformSource(src TransformSource) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.source = src
	}
}

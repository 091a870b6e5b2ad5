package camera

// CameraController owns the positional state of a first-person camera: a world-space position and a
// yaw/pitch orientation in degrees. The Camera reads from it once per Update.
//
// Yaw 0 looks down -Z; positive yaw turns right. Pitch is clamped to [-MaxPitch, MaxPitch] so the view
// never flips over the up axis.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the point one unit ahead of the camera along its view direction.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Yaw returns the rotation around the up axis in degrees.
	//
	// Returns:
	//   - float32: yaw in degrees
	Yaw() float32

	// Pitch returns the rotation above the horizon in degrees.
	//
	// Returns:
	//   - float32: pitch in degrees, within [-MaxPitch, MaxPitch]
	Pitch() float32

	// SetOrientation sets yaw and pitch directly. Pitch is clamped.
	//
	// Parameters:
	//   - yaw: rotation around the up axis in degrees
	//   - pitch: rotation above the horizon in degrees
	SetOrientation(yaw, pitch float32)

	// Forward returns the unit view direction.
	//
	// Returns:
	//   - x, y, z: the view direction
	Forward() (x, y, z float32)

	// Right returns the unit direction to the camera's right, always parallel to the ground plane.
	//
	// Returns:
	//   - x, y, z: the right direction
	Right() (x, y, z float32)

	// Look turns the camera by a mouse delta in pixels scaled by the mouse sensitivity.
	// Moving the mouse right turns right and moving it down looks down.
	//
	// Parameters:
	//   - dx: horizontal mouse delta
	//   - dy: vertical mouse delta, positive downwards
	Look(dx, dy float32)

	// Move translates the camera. forward and right follow the view direction, up follows the world up axis.
	// Each axis is expected in [-1, 1] and is scaled by the move speed and dt.
	//
	// Parameters:
	//   - forward: movement along the view direction
	//   - right: strafe movement
	//   - up: vertical movement
	//   - dt: elapsed time in seconds
	Move(forward, right, up, dt float32)

	// MoveSpeed returns the movement speed in world units per second.
	//
	// Returns:
	//   - float32: the move speed
	MoveSpeed() float32

	// MouseSensitivity returns the degrees turned per pixel of mouse movement.
	//
	// Returns:
	//   - float32: the sensitivity
	MouseSensitivity() float32
}

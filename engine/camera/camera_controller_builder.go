package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position[0] = x
		cc.position[1] = y
		cc.position[2] = z
	}
}

// WithOrientation sets the initial yaw and pitch in degrees. Pitch is clamped to MaxPitch.
//
// Parameters:
//   - yaw: rotation around the up axis in degrees
//   - pitch: rotation above the horizon in degrees
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithOrientation(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithMoveSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithMouseSensitivity sets how many degrees one pixel of mouse movement turns the camera.
//
// Parameters:
//   - sensitivity: degrees per pixel
//
// Returns:
//   - CameraControllerOption: functional option to set the mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

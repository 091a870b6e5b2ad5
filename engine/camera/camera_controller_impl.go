package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/chewxy/math32"
)

// MaxPitch is the largest pitch magnitude in degrees.
const MaxPitch float32 = 89

type cameraControllerImpl struct {
	mu *sync.Mutex

	position common.Vec3
	yaw      float32
	pitch    float32

	moveSpeed        float32
	mouseSensitivity float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a first-person controller at (0, 2, 5) looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		position:         common.Vec3{0, 2, 5},
		moveSpeed:        5,
		mouseSensitivity: 0.1,
	}
	for _, opt := range options {
		opt(cc)
	}
	cc.pitch = clampPitch(cc.pitch)
	return cc
}

func clampPitch(pitch float32) float32 {
	return common.Clamp(pitch, -MaxPitch, MaxPitch)
}

// forwardLocked derives the view direction from yaw and pitch.
func (cc *cameraControllerImpl) forwardLocked() common.Vec3 {
	sy, cy := math32.Sincos(common.DegToRad(cc.yaw))
	sp, cp := math32.Sincos(common.DegToRad(cc.pitch))
	return common.Vec3{cp * sy, sp, -cp * cy}
}

func (cc *cameraControllerImpl) rightLocked() common.Vec3 {
	sy, cy := math32.Sincos(common.DegToRad(cc.yaw))
	return common.Vec3{cy, 0, sy}
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	t := cc.position.Add(cc.forwardLocked())
	return t[0], t[1], t[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = common.Vec3{x, y, z}
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetOrientation(yaw, pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = math32.Mod(yaw, 360)
	cc.pitch = clampPitch(pitch)
}

func (cc *cameraControllerImpl) Forward() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	f := cc.forwardLocked()
	return f[0], f[1], f[2]
}

func (cc *cameraControllerImpl) Right() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	r := cc.rightLocked()
	return r[0], r[1], r[2]
}

func (cc *cameraControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = math32.Mod(cc.yaw+dx*cc.mouseSensitivity, 360)
	cc.pitch = clampPitch(cc.pitch - dy*cc.mouseSensitivity)
}

func (cc *cameraControllerImpl) Move(forward, right, up, dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	step := cc.moveSpeed * dt
	delta := cc.forwardLocked().Scale(forward).
		Add(cc.rightLocked().Scale(right)).
		Add(common.Vec3{0, up, 0})
	cc.position = cc.position.Add(delta.Scale(step))
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

// Package camera implements the perspective first-person camera and the uniforms it uploads every frame.
package camera

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
)

// ErrNoGPU is returned by the buffer accessors before InitializeGPU.
var ErrNoGPU = errors.New("camera has no GPU uniforms")

type cameraImpl struct {
	mu    *sync.Mutex
	label string

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix                 common.Mat4
	projectionMatrix           common.Mat4
	viewProjectionMatrix       common.Mat4
	skyboxViewProjectionMatrix common.Mat4

	controller CameraController
	uniforms   *gpuUniforms
}

// Camera holds perspective settings and computes the view and projection matrices from its
// CameraController each frame via Update. Once InitializeGPU ran, Update also uploads the view-projection
// and the skybox view-projection uniforms.
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - common.Mat4: the view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the current projection matrix, mapping depth into [0, 1].
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	ProjectionMatrix() common.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - common.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() common.Mat4

	// SkyboxViewProjectionMatrix returns projection * view with the view translation removed.
	//
	// Returns:
	//   - common.Mat4: the skybox view-projection matrix
	SkyboxViewProjectionMatrix() common.Mat4

	// Controller returns the attached CameraController.
	//
	// Returns:
	//   - CameraController: the controller
	Controller() CameraController

	// InitializeGPU creates the two uniform buffers. Calling it again is a no-op.
	//
	// Parameters:
	//   - factory: the resource factory the buffers are created with
	//
	// Returns:
	//   - error: the buffer creation failure
	InitializeGPU(factory resource.Factory) error

	// ViewProjectionBuffer returns the uniform holding ViewProjectionMatrix.
	//
	// Returns:
	//   - *resource.UniformBuffer[common.Mat4]: the uniform
	//   - error: ErrNoGPU before InitializeGPU
	ViewProjectionBuffer() (*resource.UniformBuffer[common.Mat4], error)

	// SkyboxViewProjectionBuffer returns the uniform holding SkyboxViewProjectionMatrix.
	//
	// Returns:
	//   - *resource.UniformBuffer[common.Mat4]: the uniform
	//   - error: ErrNoGPU before InitializeGPU
	SkyboxViewProjectionBuffer() (*resource.UniformBuffer[common.Mat4], error)

	// Update reads position and target from the controller, recomputes the matrices and uploads them when
	// the GPU uniforms exist. Call once per frame before recording draws.
	//
	// Returns:
	//   - error: the upload failure
	Update() error

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height). Called on every surface resize.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Release frees the uniform buffers. The camera keeps computing matrices afterwards and InitializeGPU
	// may create new uniforms.
	Release()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 60 degree field of view, near 0.1 and far 100. Without WithController
// it drives a default first-person controller.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		label:  "camera",
		up:     [3]float32{0, 1, 0},
		fov:    common.DegToRad(60),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

// updateMatrices must be called with the lock held or before the camera is shared.
func (c *cameraImpl) updateMatrices() {
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	if c.controller == nil {
		c.viewMatrix = common.Identity()
	} else {
		px, py, pz := c.controller.Position()
		tx, ty, tz := c.controller.Target()
		c.viewMatrix = common.LookAt(common.Vec3{px, py, pz}, common.Vec3{tx, ty, tz}, common.Vec3(c.up))
	}
	c.viewProjectionMatrix = common.Mul(c.projectionMatrix, c.viewMatrix)
	c.skyboxViewProjectionMatrix = common.Mul(c.projectionMatrix, common.WithoutTranslation(c.viewMatrix))
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SkyboxViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skyboxViewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) InitializeGPU(factory resource.Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uniforms != nil {
		return nil
	}
	uniforms, err := newGPUUniforms(factory, c.label, c.viewProjectionMatrix, c.skyboxViewProjectionMatrix)
	if err != nil {
		return err
	}
	c.uniforms = uniforms
	return nil
}

func (c *cameraImpl) ViewProjectionBuffer() (*resource.UniformBuffer[common.Mat4], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uniforms == nil {
		return nil, ErrNoGPU
	}
	return c.uniforms.viewProjection, nil
}

func (c *cameraImpl) SkyboxViewProjectionBuffer() (*resource.UniformBuffer[common.Mat4], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uniforms == nil {
		return nil, ErrNoGPU
	}
	return c.uniforms.skyboxViewProjection, nil
}

func (c *cameraImpl) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
	if c.uniforms == nil {
		return nil
	}
	return c.uniforms.write(c.viewProjectionMatrix, c.skyboxViewProjectionMatrix)
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uniforms != nil {
		c.uniforms.release()
		c.uniforms = nil
	}
}

package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func findBuffer(device *gputest.Device, label string) *gputest.Buffer {
	for _, b := range device.Buffers {
		if b.Label() == label {
			return b
		}
	}
	return nil
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, common.DegToRad(60), c.Fov(), eps)
	assert.InDelta(t, 0.1, c.Near(), eps)
	assert.InDelta(t, 100.0, c.Far(), eps)
	assert.Equal(t, float32(1), c.Aspect())
	require.NotNil(t, c.Controller())

	x, y, z := c.Up()
	assert.Equal(t, [3]float32{0, 1, 0}, [3]float32{x, y, z})
}

func TestControllerPitchClamp(t *testing.T) {
	cc := NewCameraController(WithMouseSensitivity(1))

	cc.Look(0, -1000)
	assert.Equal(t, MaxPitch, cc.Pitch())
	cc.Look(0, 5000)
	assert.Equal(t, -MaxPitch, cc.Pitch())

	cc.SetOrientation(10, 120)
	assert.Equal(t, MaxPitch, cc.Pitch())
	assert.Equal(t, -MaxPitch, NewCameraController(WithOrientation(0, -95)).Pitch())
}

func TestControllerDirections(t *testing.T) {
	cc := NewCameraController()

	x, y, z := cc.Forward()
	assert.InDelta(t, 0, x, eps)
	assert.InDelta(t, 0, y, eps)
	assert.InDelta(t, -1, z, eps)

	x, y, z = cc.Right()
	assert.InDelta(t, 1, x, eps)
	assert.InDelta(t, 0, z, eps)

	// Turning right by a quarter looks down +X.
	cc.SetOrientation(90, 0)
	x, _, z = cc.Forward()
	assert.InDelta(t, 1, x, eps)
	assert.InDelta(t, 0, z, eps)

	// Mouse right turns right, mouse down looks down.
	cc = NewCameraController(WithMouseSensitivity(0.5))
	cc.Look(20, 10)
	assert.InDelta(t, 10, cc.Yaw(), eps)
	assert.InDelta(t, -5, cc.Pitch(), eps)
}

func TestControllerMoveScalesWithTime(t *testing.T) {
	cc := NewCameraController(WithPosition(0, 2, 5), WithMoveSpeed(4))

	cc.Move(1, 0, 0, 0.5)
	x, y, z := cc.Position()
	assert.InDelta(t, 0, x, eps)
	assert.InDelta(t, 2, y, eps)
	assert.InDelta(t, 3, z, eps)

	cc.Move(0, -1, 1, 0.25)
	x, y, z = cc.Position()
	assert.InDelta(t, -1, x, eps)
	assert.InDelta(t, 3, y, eps)
	assert.InDelta(t, 3, z, eps)

	cc.Move(1, 1, 1, 0)
	x2, y2, z2 := cc.Position()
	assert.Equal(t, [3]float32{x, y, z}, [3]float32{x2, y2, z2})
}

func TestViewProjectionCentersTarget(t *testing.T) {
	cc := NewCameraController(WithPosition(3, 3, -3), WithOrientation(45, -20))
	c := NewCamera(WithController(cc), WithAspect(16.0/9.0))

	tx, ty, tz := cc.Target()
	p := c.ViewProjectionMatrix().Transform(common.Vec3{tx, ty, tz})
	assert.InDelta(t, 0, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.Greater(t, p[2], float32(0))
	assert.Less(t, p[2], float32(1))
}

func TestSkyboxIgnoresPosition(t *testing.T) {
	a := NewCamera(WithController(NewCameraController(WithPosition(0, 0, 0), WithOrientation(30, 10))))
	b := NewCamera(WithController(NewCameraController(WithPosition(50, -7, 12), WithOrientation(30, 10))))

	skyA := a.SkyboxViewProjectionMatrix()
	skyB := b.SkyboxViewProjectionMatrix()
	assert.InDeltaSlice(t, skyA[:], skyB[:], eps)

	vpA := a.ViewProjectionMatrix()
	vpB := b.ViewProjectionMatrix()
	assert.NotEqual(t, vpA, vpB)
}

func TestSetAspect(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetAspect(2)
	after := c.ProjectionMatrix()
	assert.InDelta(t, before[0]/2, after[0], eps)
	assert.Equal(t, before[5], after[5])

	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
}

func TestUniformsUploadOnUpdate(t *testing.T) {
	device := gputest.NewDevice()
	c := NewCamera(WithLabel("player"))

	_, err := c.ViewProjectionBuffer()
	assert.ErrorIs(t, err, ErrNoGPU)
	require.NoError(t, c.Update())

	require.NoError(t, c.InitializeGPU(resource.NewFactory(device)))
	require.NoError(t, c.InitializeGPU(resource.NewFactory(device)))
	require.Len(t, device.Buffers, 2)

	vpBuf, err := c.ViewProjectionBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint64(64), vpBuf.Size())
	skyBuf, err := c.SkyboxViewProjectionBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint64(64), skyBuf.Size())

	c.Controller().Move(1, 0, 0, 1)
	require.NoError(t, c.Update())

	vp := c.ViewProjectionMatrix()
	sky := c.SkyboxViewProjectionMatrix()
	native := findBuffer(device, "player view projection")
	require.NotNil(t, native)
	assert.Equal(t, common.StructToBytes(&vp), native.Contents)
	native = findBuffer(device, "player skybox view projection")
	require.NotNil(t, native)
	assert.Equal(t, common.StructToBytes(&sky), native.Contents)
}

func TestReleaseFreesUniforms(t *testing.T) {
	device := gputest.NewDevice()
	c := NewCamera()
	require.NoError(t, c.InitializeGPU(resource.NewFactory(device)))

	c.Release()
	c.Release()
	for _, b := range device.Buffers {
		assert.Equal(t, 1, b.ReleaseCount(), b.Label())
	}
	_, err := c.ViewProjectionBuffer()
	assert.ErrorIs(t, err, ErrNoGPU)
	assert.NoError(t, c.Update())
}

package camera

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/Carmen-Shannon/oxy-fps/engine/renderer/resource"
)

// gpuUniforms are the two mat4x4<f32> uniforms a camera feeds to shaders: the full view-projection for world
// geometry and a translation-free one for the skybox.
type gpuUniforms struct {
	viewProjection       *resource.UniformBuffer[common.Mat4]
	skyboxViewProjection *resource.UniformBuffer[common.Mat4]
}

func newGPUUniforms(factory resource.Factory, label string, vp, skyVP common.Mat4) (*gpuUniforms, error) {
	viewProjection, err := resource.CreateUniformBuffer(factory, vp, label+" view projection")
	if err != nil {
		return nil, fmt.Errorf("failed to create %s view projection uniform: %w", label, err)
	}
	skyboxViewProjection, err := resource.CreateUniformBuffer(factory, skyVP, label+" skybox view projection")
	if err != nil {
		viewProjection.Release()
		return nil, fmt.Errorf("failed to create %s skybox view projection uniform: %w", label, err)
	}
	return &gpuUniforms{viewProjection: viewProjection, skyboxViewProjection: skyboxViewProjection}, nil
}

func (u *gpuUniforms) write(vp, skyVP common.Mat4) error {
	if err := u.viewProjection.Update(vp); err != nil {
		return err
	}
	return u.skyboxViewProjection.Update(skyVP)
}

func (u *gpuUniforms) release() {
	u.viewProjection.Release()
	u.skyboxViewProjection.Release()
}

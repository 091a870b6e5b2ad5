// Package assets embeds the engine's WGSL shaders so the binary runs without a shader directory on disk.
package assets

import "embed"

// Shader paths inside Shaders.
const (
	UnlitShader     = "shaders/unlit.wgsl"
	SkyboxShader    = "shaders/skybox.wgsl"
	WireframeShader = "shaders/wireframe.wgsl"
)

// Shaders holds every file under shaders/.
//
//go:embed shaders/*.wgsl
var Shaders embed.FS

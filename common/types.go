// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds decoded RGBA8 pixel data pending GPU upload.
// The image loader produces it, the resource factory consumes it.
type TextureStagingData struct {
	// Pixels is the raw pixel data in RGBA format, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Validate reports whether the pixel payload matches the declared dimensions.
//
// Returns:
//   - error: an error describing the mismatch, or nil if the payload is consistent
func (t TextureStagingData) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture has zero extent %dx%d", t.Width, t.Height)
	}
	if want := int(t.Width) * int(t.Height) * 4; len(t.Pixels) != want {
		return fmt.Errorf("texture payload is %d bytes, want %d for %dx%d RGBA8", len(t.Pixels), want, t.Width, t.Height)
	}
	return nil
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero values fall back to linear filtering with repeat addressing. The nearest filter mode is the zero
// value of wgpu.FilterMode, so nearest sampling is requested with Nearest instead.
type SamplerStagingData struct {
	// Nearest selects nearest filtering for magnification, minification and mipmaps, overriding the filter fields.
	Nearest bool
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// SolidColor returns a width x height staging texture filled with a single RGBA color.
//
// Parameters:
//   - width, height: the texture extent in pixels
//   - rgba: the fill color
//
// Returns:
//   - TextureStagingData: the filled staging data
func SolidColor(width, height uint32, rgba [4]byte) TextureStagingData {
	pixels := make([]byte, int(width)*int(height)*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:i+4], rgba[:])
	}
	return TextureStagingData{Pixels: pixels, Width: width, Height: height}
}

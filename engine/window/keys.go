package window

import "github.com/go-gl/glfw/v3.3/glfw"

// Key identifies a keyboard key. Values match GLFW key codes.
type Key uint32

// Keys used by the first-person controls.
const (
	KeyW         = Key(glfw.KeyW)
	KeyA         = Key(glfw.KeyA)
	KeyS         = Key(glfw.KeyS)
	KeyD         = Key(glfw.KeyD)
	KeySpace     = Key(glfw.KeySpace)
	KeyLeftShift = Key(glfw.KeyLeftShift)
	KeyEscape    = Key(glfw.KeyEscape)
	KeyF1        = Key(glfw.KeyF1)
)

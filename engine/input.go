package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/engine/camera"
	"github.com/Carmen-Shannon/oxy-fps/engine/window"
)

// inputState accumulates keyboard and mouse events between frames and turns them into first-person movement.
type inputState struct {
	mu   *sync.Mutex
	down map[window.Key]bool

	lastX, lastY float64
	hasLast      bool
	dx, dy       float64
}

func newInputState() *inputState {
	return &inputState{
		mu:   &sync.Mutex{},
		down: make(map[window.Key]bool),
	}
}

func (in *inputState) keyDown(key window.Key) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.down[key] = true
}

func (in *inputState) keyUp(key window.Key) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.down, key)
}

// mouseMove accumulates cursor deltas while the cursor is captured. The first event after a capture only
// records the position so the view does not jump.
func (in *inputState) mouseMove(x, y float64, captured bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !captured {
		in.hasLast = false
		return
	}
	if in.hasLast {
		in.dx += x - in.lastX
		in.dy += y - in.lastY
	}
	in.lastX, in.lastY = x, y
	in.hasLast = true
}

func (in *inputState) axis(positive, negative window.Key) float32 {
	var v float32
	if in.down[positive] {
		v++
	}
	if in.down[negative] {
		v--
	}
	return v
}

// apply feeds the accumulated look delta and the held movement keys to ctrl and clears the delta.
func (in *inputState) apply(ctrl camera.CameraController, dt float32) {
	if ctrl == nil {
		return
	}
	in.mu.Lock()
	dx, dy := in.dx, in.dy
	in.dx, in.dy = 0, 0
	forward := in.axis(window.KeyW, window.KeyS)
	right := in.axis(window.KeyD, window.KeyA)
	up := in.axis(window.KeySpace, window.KeyLeftShift)
	in.mu.Unlock()

	if dx != 0 || dy != 0 {
		ctrl.Look(float32(dx), float32(dy))
	}
	if forward != 0 || right != 0 || up != 0 {
		ctrl.Move(forward, right, up, dt)
	}
}

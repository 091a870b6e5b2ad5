package debug_draw

// DebugDrawBuilderOption is a functional option used to configure a DebugDraw.
type DebugDrawBuilderOption func(*debugDraw)

// WithLabel sets the label of the wireframe variant and the scratch buffer (default "debug lines").
//
// Parameters:
//   - label: the label
//
// Returns:
//   - DebugDrawBuilderOption: a function that sets the label
func WithLabel(label string) DebugDrawBuilderOption {
	return func(d *debugDraw) {
		d.label = label
	}
}

// WithMaxVertices lowers or raises the per-frame vertex limit (default MaxVertices). Odd values are rounded
// down so only whole lines fit.
//
// Parameters:
//   - n: the vertex limit
//
// Returns:
//   - DebugDrawBuilderOption: a function that sets the vertex limit
func WithMaxVertices(n int) DebugDrawBuilderOption {
	return func(d *debugDraw) {
		if n > 1 {
			d.capacity = n
		}
	}
}

package frame

// FrameOrchestratorBuilderOption is a functional option used to configure a FrameOrchestrator.
type FrameOrchestratorBuilderOption func(*frameOrchestrator)

// WithLabel sets the debug label prefix of the per-frame encoder and pass (default "frame").
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - FrameOrchestratorBuilderOption: a function that sets the label of the orchestrator
func WithLabel(label string) FrameOrchestratorBuilderOption {
	return func(f *frameOrchestrator) {
		if label != "" {
			f.label = label
		}
	}
}

package recorder

// State is the session lifecycle state. Transitions only move forward:
// Idle → Recording → Stopping → Closed, with Failed reachable from any
// non-terminal state when the encode pipeline reports a fatal error.
type State int32

const (
	// StateIdle is the constructed state: buffers seeded, encoder
	// goroutine started but not yet consuming.
	StateIdle State = iota
	// StateRecording means the producer supplies frames and the encoder
	// consumes them.
	StateRecording
	// StateStopping means the shutdown signal was sent; the encoder is
	// draining in-flight frames before finalizing the container.
	StateStopping
	// StateClosed is terminal; the encoder goroutine has joined.
	StateClosed
	// StateFailed is terminal; the pipeline reported a mid-stream error.
	// The output file may be invalid.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

package fae

// StreamState is the FAE's own small state machine, distinct from (and
// nested inside) the Run Engine's Idle/Running/Paused/Aborting states: a
// single frame-producing device can be Streaming while the run that
// reads from it is itself Paused.
type StreamState uint8

const (
	StateIdle StreamState = iota
	StateStreaming
	StateStopping
	StateFaulted
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Package runengine is the Run Engine (component H): it executes one
// Plan at a time, emits the document stream, and enforces the
// Idle/Running/Paused/Aborting state machine, grounded on go-ublk's
// Runner.ioLoop (internal/queue/runner.go) for the shape of a
// dedicated command-processing loop driven by a small explicit state
// machine rather than a generic FSM library.
package runengine

// State is the Run Engine's state machine (§4.2): Idle -> Running ->
// Paused -> Running -> ...; Running|Paused -> Aborting -> Idle; and a run
// that ends without an abort (success or command failure) goes from
// Running back to Idle. No other transition is legal.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateAborting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateAborting:
		return "aborting"
	default:
		return "unknown"
	}
}

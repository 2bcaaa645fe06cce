package runengine

import (
	"sync"
	"time"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/frame"
)

// runContext is the per-run state the engine owns exclusively from Start
// to Stop (§3 "Run context"): no external code mutates it. It is
// guarded by its own mutex, separate from Engine.mu, since the observer
// callbacks that feed frameChannels can fire from the FAE's retrieval
// worker goroutine concurrently with the command loop draining it.
type runContext struct {
	runUID   string
	plan     document.Plan
	metadata map[string]any

	mu               sync.Mutex
	seqNum           uint64
	pendingScalars   map[string]float64
	pendingFrames    map[string][]byte
	currentPositions map[string]float64

	observerHandles map[string]capability.ObserverHandle
	frameChannels   map[string]<-chan frame.Frame

	startTime time.Time
}

func newRunContext(runUID string, plan document.Plan, metadata map[string]any) *runContext {
	return &runContext{
		runUID:           runUID,
		plan:             plan,
		metadata:         metadata,
		pendingScalars:   make(map[string]float64),
		pendingFrames:    make(map[string][]byte),
		currentPositions: make(map[string]float64),
		observerHandles:  make(map[string]capability.ObserverHandle),
		frameChannels:    make(map[string]<-chan frame.Frame),
		startTime:        time.Now(),
	}
}

// drainPending atomically takes ownership of the pending scalar/frame
// maps and resets them, matching §4.2's "both pending maps are drained
// atomically" requirement for EmitEvent.
func (rc *runContext) drainPending() (map[string]float64, map[string][]byte) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	scalars := rc.pendingScalars
	frames := rc.pendingFrames
	rc.pendingScalars = make(map[string]float64)
	rc.pendingFrames = make(map[string][]byte)
	return scalars, frames
}

func (rc *runContext) setPosition(device string, pos float64) {
	rc.mu.Lock()
	rc.currentPositions[device] = pos
	rc.mu.Unlock()
}

func (rc *runContext) positionsSnapshot(devices []string) map[string]float64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make(map[string]float64, len(devices))
	for _, d := range devices {
		if v, ok := rc.currentPositions[d]; ok {
			out[d] = v
		}
	}
	return out
}

func (rc *runContext) stashScalar(device string, v float64) {
	rc.mu.Lock()
	rc.pendingScalars[device] = v
	rc.mu.Unlock()
}

func (rc *runContext) stashFrame(device string, pixels []byte) {
	rc.mu.Lock()
	rc.pendingFrames[device] = pixels
	rc.mu.Unlock()
}

func (rc *runContext) nextSeqNum() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	n := rc.seqNum
	rc.seqNum++
	return n
}

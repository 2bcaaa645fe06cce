package runengine

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/errs"
	"github.com/easternanemone/daqcore/internal/frame"
	"github.com/easternanemone/daqcore/internal/logging"
	"github.com/easternanemone/daqcore/internal/registry"
)

const (
	waitChunk         = 100 * time.Millisecond
	readFrameTimeout  = 5 * time.Second
	observerChanDepth = 16
)

// QueuedRun is a plan waiting its turn, and what Engine.QueuedRuns
// reports for introspection.
type QueuedRun struct {
	RunUID   string
	Plan     document.Plan
	Metadata map[string]any
}

// Engine is the Run Engine. One Engine processes at most one run at a
// time from a FIFO queue.
type Engine struct {
	registry *registry.Registry
	docs     *document.Stream
	logger   *logging.Logger

	mu             sync.Mutex
	cond           *sync.Cond
	state          State
	queue          []QueuedRun
	current        *runContext
	pausePending   bool
	abortRequested bool
	abortReason    string

	runDone chan struct{} // closed when the in-flight runPlan goroutine returns
}

// New wires a Run Engine to a Device Registry. The engine publishes to
// its own document.Stream, returned by Documents().
func New(reg *registry.Registry) *Engine {
	e := &Engine{
		registry: reg,
		docs:     document.NewStream(),
		logger:   logging.Default(),
		state:    StateIdle,
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Documents returns the run document stream subscribers join.
func (e *Engine) Documents() *document.Stream { return e.docs }

// State reports the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// QueuedRuns reports every plan still waiting to start, in FIFO order.
func (e *Engine) QueuedRuns() []QueuedRun {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]QueuedRun, len(e.queue))
	copy(out, e.queue)
	return out
}

// Queue appends plan to the FIFO queue and returns its run_uid. Always
// allowed, regardless of current state.
func (e *Engine) Queue(plan document.Plan, metadata map[string]any) string {
	runUID := newRunUID()
	e.mu.Lock()
	e.queue = append(e.queue, QueuedRun{RunUID: runUID, Plan: plan, Metadata: metadata})
	e.mu.Unlock()
	return runUID
}

// Start pops the first queued plan and begins executing it. Fails if
// the engine is not Idle or the queue is empty.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != StateIdle {
		cur := e.state
		e.mu.Unlock()
		return errs.New("start", errs.CodeWrongEngineState, fmt.Sprintf("cannot start from state %s", cur))
	}
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return errs.ErrQueueEmpty
	}
	qr := e.queue[0]
	e.queue = e.queue[1:]
	e.state = StateRunning
	e.abortRequested = false
	e.abortReason = ""
	e.pausePending = false
	done := make(chan struct{})
	e.runDone = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		e.runPlan(qr)
	}()
	return nil
}

// Pause defers a pause to the next Checkpoint command; it does not
// interrupt a command already in flight.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return errs.New("pause", errs.CodeWrongEngineState, fmt.Sprintf("cannot pause from state %s", e.state))
	}
	e.pausePending = true
	return nil
}

// Resume transitions Paused -> Running and wakes the command loop.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return errs.New("resume", errs.CodeWrongEngineState, fmt.Sprintf("cannot resume from state %s", e.state))
	}
	e.state = StateRunning
	e.cond.Broadcast()
	return nil
}

// Abort removes runUID from the queue if it names a queued plan;
// otherwise (runUID matches the current run, or is empty) it sets an
// abort flag honored at the top of the next command-loop iteration and
// inside any in-progress Wait chunk. While a run is in flight this also
// moves the engine to StateAborting until that run's Stop is emitted.
func (e *Engine) Abort(runUID string, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if runUID != "" {
		for i, qr := range e.queue {
			if qr.RunUID == runUID {
				e.queue = append(e.queue[:i], e.queue[i+1:]...)
				return nil
			}
		}
	}

	if runUID == "" || (e.current != nil && e.current.runUID == runUID) {
		e.abortRequested = true
		e.abortReason = reason
		if e.current != nil {
			e.state = StateAborting
		}
		e.cond.Broadcast()
		return nil
	}

	return errs.New("abort", errs.CodeNotFound, fmt.Sprintf("run %q not found", runUID))
}

// Halt is the emergency variant of Abort for the current run: it uses
// the same cooperative abort flag, since Wait chunks and Checkpoint
// already bound how long any in-flight command can delay it.
func (e *Engine) Halt(reason string) error {
	return e.Abort("", reason)
}

func (e *Engine) systemInfo() map[string]string {
	return map[string]string{
		"go_version": runtime.Version(),
		"os_arch":    runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (e *Engine) registerDetectorObservers(rc *runContext) {
	for _, det := range rc.plan.Detectors {
		fp, ok := e.registry.FrameProducer(det)
		if !ok {
			e.logger.Warn("runengine: detector not a FrameProducer", "device", det)
			continue
		}
		ch := make(chan frame.Frame, observerChanDepth)
		handle := fp.RegisterObserver(capability.FrameObserverFunc(func(f frame.Frame) {
			select {
			case ch <- f:
			default:
			}
		}))
		rc.observerHandles[det] = handle
		rc.frameChannels[det] = ch
	}
}

func (e *Engine) unregisterDetectorObservers(rc *runContext) {
	for det, handle := range rc.observerHandles {
		if fp, ok := e.registry.FrameProducer(det); ok {
			fp.UnregisterObserver(handle)
		}
	}
}

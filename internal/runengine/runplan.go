package runengine

import (
	"time"

	"github.com/easternanemone/daqcore/internal/document"
)

// runPlan executes one queued plan start to finish, emitting the
// document stream in order: Start, Manifest, one Descriptor per stream
// the plan writes to, an Event per EmitEvent command, and exactly one
// terminal Stop (§4.2, §8 scenario 4 — Stop is always emitted, even on
// abort or command failure).
func (e *Engine) runPlan(qr QueuedRun) {
	rc := newRunContext(qr.RunUID, qr.Plan, qr.Metadata)

	e.mu.Lock()
	e.current = rc
	e.mu.Unlock()

	e.registerDetectorObservers(rc)
	defer e.unregisterDetectorObservers(rc)

	e.docs.Publish(document.NewStart(rc.runUID, qr.Plan.Type, qr.Plan.Name, qr.Plan.Args, qr.Metadata, qr.Plan.Movers))
	e.docs.Publish(document.NewManifest(rc.runUID, e.registry.ParameterSnapshot(), e.systemInfo()))
	for _, name := range streamNames(qr.Plan) {
		e.docs.Publish(document.NewDescriptor(rc.runUID, name, e.descriptorKeys(name, qr.Plan)))
	}

	status := document.ExitSuccess
	reason := ""

	it := document.NewIterator(qr.Plan)
	for {
		if e.checkAbort() {
			status = document.ExitAbort
			reason = e.takeAbortReason()
			break
		}
		cmd, ok := it.Next()
		if !ok {
			break
		}
		if err := e.execCommand(rc, cmd); err != nil {
			status = document.ExitFail
			reason = err.Error()
			break
		}
	}

	numEvents := rc.seqNum
	durationNs := time.Since(rc.startTime).Nanoseconds()
	e.docs.Publish(document.NewStop(rc.runUID, status, reason, numEvents, durationNs))

	e.mu.Lock()
	e.current = nil
	e.state = StateIdle
	e.abortRequested = false
	e.abortReason = ""
	e.pausePending = false
	e.mu.Unlock()
}

func (e *Engine) takeAbortReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abortReason
}

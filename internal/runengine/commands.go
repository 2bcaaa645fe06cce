package runengine

import (
	"time"

	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/errs"
)

// execCommand runs one Plan command to completion against rc. It
// returns an error only for a genuine command failure — an abort
// request is reported separately via checkAbort, not as a command
// error, so the Stop document's reason can distinguish "user aborted"
// from "device X errored".
func (e *Engine) execCommand(rc *runContext, cmd document.Command) error {
	switch cmd.Kind {
	case document.CmdMoveTo:
		return e.execMoveTo(rc, cmd)
	case document.CmdRead:
		return e.execRead(rc, cmd)
	case document.CmdTrigger:
		return e.execTrigger(rc, cmd)
	case document.CmdWait:
		return e.execWait(rc, cmd)
	case document.CmdCheckpoint:
		return e.execCheckpoint(rc, cmd)
	case document.CmdEmitEvent:
		return e.execEmitEvent(rc, cmd)
	case document.CmdSet:
		return e.execSet(rc, cmd)
	default:
		return errs.NewDevice("exec_command", cmd.Device, errs.CodePlanExecution, "unknown command kind")
	}
}

func (e *Engine) execMoveTo(rc *runContext, cmd document.Command) error {
	mv, ok := e.registry.Movable(cmd.Device)
	if !ok {
		return errs.NewDevice("move_to", cmd.Device, errs.CodeNotFound, "device is not Movable")
	}
	if err := mv.MoveAbs(cmd.Position); err != nil {
		return errs.Wrap("move_to", errs.CodeHardwareCommunication, err)
	}
	if err := mv.WaitSettled(0); err != nil {
		return errs.Wrap("move_to", errs.CodeHardwareCommunication, err)
	}
	pos, err := mv.Position()
	if err != nil {
		return errs.Wrap("move_to", errs.CodeHardwareCommunication, err)
	}
	rc.setPosition(cmd.Device, pos)
	return nil
}

// execRead awaits a frame off the device's registered frame channel when
// one exists, since a detector's "reading" is the next frame it
// produces; only a device with no frame channel falls back to the
// Readable capability for a scalar value (§4.2).
func (e *Engine) execRead(rc *runContext, cmd document.Command) error {
	if ch, ok := rc.frameChannels[cmd.Device]; ok {
		select {
		case f := <-ch:
			rc.stashFrame(cmd.Device, f.Pixels())
			return nil
		case <-time.After(readFrameTimeout):
			return errs.NewDevice("read", cmd.Device, errs.CodeTimeout, "no frame arrived after read")
		}
	}

	rd, ok := e.registry.Readable(cmd.Device)
	if !ok {
		return errs.NewDevice("read", cmd.Device, errs.CodeNotFound, "device is not Readable")
	}
	v, err := rd.Read()
	if err != nil {
		return errs.Wrap("read", errs.CodeHardwareCommunication, err)
	}
	rc.stashScalar(cmd.Device, v)
	return nil
}

// execTrigger invokes the Triggerable capability if the device has one,
// ignoring its absence rather than failing the plan — not every device a
// plan triggers needs to be armable (§4.2). Any frame the trigger
// produces is retrieved by a later Read against the same device, not
// here.
func (e *Engine) execTrigger(rc *runContext, cmd document.Command) error {
	tr, ok := e.registry.Triggerable(cmd.Device)
	if !ok {
		return nil
	}
	if err := tr.Arm(); err != nil {
		return errs.Wrap("trigger", errs.CodeHardwareCommunication, err)
	}
	if err := tr.Trigger(); err != nil {
		return errs.Wrap("trigger", errs.CodeHardwareCommunication, err)
	}
	return nil
}

// execWait sleeps in waitChunk increments so an abort request lands
// within waitChunk of being raised, rather than blocking for the whole
// requested duration (§4.2, §8 scenario 5).
func (e *Engine) execWait(rc *runContext, cmd document.Command) error {
	remaining := time.Duration(cmd.Seconds * float64(time.Second))
	for remaining > 0 {
		chunk := waitChunk
		if remaining < chunk {
			chunk = remaining
		}
		if e.checkAbort() {
			return nil
		}
		time.Sleep(chunk)
		remaining -= chunk
	}
	return nil
}

// execCheckpoint is the only place a deferred Pause actually commits to
// StatePaused, so a pause request never interrupts a command mid-flight
// (§4.2).
func (e *Engine) execCheckpoint(rc *runContext, cmd document.Command) error {
	e.mu.Lock()
	if e.pausePending {
		e.pausePending = false
		e.state = StatePaused
	}
	for e.state == StatePaused && !e.abortRequested {
		e.cond.Wait()
	}
	e.mu.Unlock()
	return nil
}

func (e *Engine) execEmitEvent(rc *runContext, cmd document.Command) error {
	scalars, frames := rc.drainPending()
	for k, v := range cmd.ScalarData {
		scalars[k] = v
	}
	positions := rc.positionsSnapshot(cmd.Positions)

	doc := document.NewEvent(
		rc.runUID,
		cmd.Stream,
		rc.nextSeqNum(),
		scalars,
		frames,
		positions,
		time.Now().UnixNano(),
	)
	e.docs.Publish(doc)
	return nil
}

func (e *Engine) execSet(rc *runContext, cmd document.Command) error {
	p, ok := e.registry.Parameterized(cmd.Device)
	if !ok {
		return errs.NewDevice("set", cmd.Device, errs.CodeNotFound, "device is not Parameterized")
	}
	pv, err := toParamValue(cmd.Value)
	if err != nil {
		return errs.Wrap("set", errs.CodeConfigInvalid, err)
	}
	if err := p.SetParameter(cmd.Parameter, pv); err != nil {
		return errs.Wrap("set", errs.CodeHardwareCommunication, err)
	}
	return nil
}

// checkAbort reports whether an abort has been requested for the
// current run, without clearing it — clearing happens once, in runPlan,
// when the Stop document's reason is finalized.
func (e *Engine) checkAbort() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abortRequested
}

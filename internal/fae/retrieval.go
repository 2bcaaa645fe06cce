package fae

import (
	"time"

	"github.com/easternanemone/daqcore/internal/frame"
)

// maxConsecutiveTimeoutBound computes the wait-time budget §9 calls
// "max_consecutive_timeouts", expressed as a duration rather than an
// iteration count since the retrieval loop's wait timeout is fixed: at
// least 10 expected frame periods plus a 5s floor, capped at 24h so a
// truly wedged stream is eventually declared fatal even at very long
// exposures.
func maxConsecutiveTimeoutBound(exposure time.Duration) time.Duration {
	bound := 10*exposure + minTimeoutBound
	if bound > maxTimeoutBound {
		bound = maxTimeoutBound
	}
	if bound < minTimeoutBound {
		bound = minTimeoutBound
	}
	return bound
}

// retrievalLoop is the dedicated worker §4.1 requires: one per active
// stream, blocking (not an async task), woken by the callback context,
// draining every available frame per wake, detecting loss via hardware
// frame numbers, and copying each frame exactly once into an owned
// allocation before fanning it out.
func (e *Engine) retrievalLoop(handle Handle, cbCtx *callbackContext, exposure time.Duration) {
	defer e.workerWG.Done()

	timeoutBound := maxConsecutiveTimeoutBound(exposure)
	var timeoutAccum time.Duration

	var expected int32
	first := true

	for {
		woke := cbCtx.waitNotified(retrievalWaitTimeout)
		if cbCtx.shutdown.Load() {
			return
		}
		if !woke {
			timeoutAccum += retrievalWaitTimeout
			e.metrics.recordTimeout()
			if timeoutAccum >= timeoutBound {
				e.signalFatal("exceeded max consecutive timeouts")
				return
			}
			continue
		}
		timeoutAccum = 0

		drained := 0
		for {
			hasFrame, fatal, err := e.vendor.Status(handle)
			if err != nil {
				e.signalFatal("vendor status error: " + err.Error())
				return
			}
			if fatal {
				e.signalFatal("vendor reported fatal status")
				return
			}
			if !hasFrame {
				break
			}

			frameNr, raw, err := e.vendor.FetchFrame(handle)
			if err != nil {
				e.signalFatal("fetch_frame error: " + err.Error())
				return
			}

			e.processFrame(frameNr, raw, &expected, &first)
			cbCtx.pendingCount.Add(^uint32(0)) // decrement
			drained++
		}

		if drained == 0 {
			hasFrame, _, err := e.vendor.Status(handle)
			if err == nil && !hasFrame {
				cbCtx.pendingCount.Store(0)
				time.Sleep(desyncSleep)
			}
		}
	}
}

// processFrame applies the loss/discontinuity rules of §4.1 item 3, then
// copies, fans out, and releases the vendor slot.
func (e *Engine) processFrame(frameNr int32, raw []byte, expected *int32, first *bool) {
	if !*first {
		switch {
		case frameNr == 1 && *expected != 1:
			e.metrics.recordDiscontinuity(*expected, frameNr, 0)
		case int64(frameNr) > int64(*expected)+1:
			lost := uint64(int64(frameNr) - int64(*expected) - 1)
			e.metrics.recordDiscontinuity(*expected, frameNr, lost)
		case frameNr <= *expected:
			e.metrics.recordDiscontinuity(*expected, frameNr, 0)
		}
	}
	*first = false
	*expected = frameNr

	n := len(raw)
	if n > int(e.expectedFrameBytes) {
		n = int(e.expectedFrameBytes)
	}
	owned := make([]byte, n)
	copy(owned, raw[:n])

	f, err := frame.New(e.width, e.height, e.bitDepth, owned, uint64(frameNr), nowFunc())
	if err != nil {
		// A vendor reporting an inconsistent frame size is itself a
		// discontinuity worth counting, not a panic.
		e.metrics.recordDiscontinuity(*expected, frameNr, 0)
		return
	}

	e.metrics.recordDelivered()
	e.dispatch(f)
}

var nowFunc = time.Now

func (e *Engine) dispatch(f frame.Frame) {
	e.broadcast.publish(f)
	if e.reliable != nil {
		e.reliable <- f
	}
	e.observers.notify(f)
}

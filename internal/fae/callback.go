package fae

import (
	"sync/atomic"
	"time"
)

// callbackContext is the stably-addressed object the vendor SDK's EOF
// callback writes into. Real vendor bindings hold a raw pointer to this
// struct across the cgo boundary, so once a stream starts its address
// must never move — callers always hold it behind a pointer, never a
// value copy.
//
// The spec's mutex+condvar wakeup is expressed here as a single-slot
// notification channel: idiomatic Go, and unlike sync.Cond it composes
// with time.After for the worker's bounded wait without a helper
// goroutine.
type callbackContext struct {
	pendingCount  atomic.Uint32
	latestFrameNr atomic.Int32
	shutdown      atomic.Bool

	wake chan struct{}
}

func newCallbackContext() *callbackContext {
	return &callbackContext{wake: make(chan struct{}, 1)}
}

// onEOF is the callback body proper. It must be short: it must not
// allocate, log, or block, matching the real vendor callback's
// constraints — it only updates atomics and performs a non-blocking
// notify.
func (c *callbackContext) onEOF(frameNr int32) {
	c.latestFrameNr.Store(frameNr)
	c.pendingCount.Add(1)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *callbackContext) signalShutdown() {
	c.shutdown.Store(true)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// waitNotified blocks up to timeout for a callback notification or a
// shutdown signal. It returns true if woken by either; false on a bare
// timeout.
func (c *callbackContext) waitNotified(timeout time.Duration) bool {
	select {
	case <-c.wake:
		return true
	case <-time.After(timeout):
		return false
	}
}

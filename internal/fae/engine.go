package fae

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/frame"
	"github.com/easternanemone/daqcore/internal/logging"
)

const (
	retrievalWaitTimeout = 100 * time.Millisecond
	desyncSleep          = 1 * time.Millisecond
	minTimeoutBound      = 5 * time.Second
	maxTimeoutBound      = 24 * time.Hour
)

// Engine is the Frame Acquisition Engine: one instance runs per
// frame-producing device and owns that device's vendor stream session,
// DMA buffer, callback context, and retrieval worker for the lifetime of
// a stream. A camera driver embeds an *Engine and exposes
// capability.FrameProducer by delegating to it.
type Engine struct {
	vendor   VendorSDK
	logger   *logging.Logger
	deviceID string

	stateMu  sync.Mutex
	state    StreamState
	handle   Handle
	buf      *dmaBuffer
	cbCtx    *callbackContext
	workerWG sync.WaitGroup

	expectedFrameBytes uint32
	width, height      uint32
	bitDepth           frame.BitDepth

	broadcast *broadcastHub
	observers *observerRegistry
	reliable  chan frame.Frame

	metrics *Metrics

	handleCounter atomic.Uint64
}

// NewEngine wires an Engine to a vendor SDK session. deviceID is used
// only for log/error context.
func NewEngine(deviceID string, vendor VendorSDK) *Engine {
	return &Engine{
		vendor:    vendor,
		logger:    logging.Default(),
		deviceID:  deviceID,
		state:     StateIdle,
		broadcast: newBroadcastHub(),
		observers: newObserverRegistry(),
		metrics:   newMetrics(),
		bitDepth:  frame.BitDepth8,
	}
}

// SetBitDepth configures the bit depth used to construct Frame values.
// Must be called before StartStream; defaults to 8-bit.
func (e *Engine) SetBitDepth(b frame.BitDepth) {
	e.stateMu.Lock()
	e.bitDepth = b
	e.stateMu.Unlock()
}

// State reports the engine's current StreamState.
func (e *Engine) State() StreamState {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Metrics returns a snapshot of the loss/discontinuity counters.
func (e *Engine) Metrics() Snapshot {
	return e.metrics.Snapshot()
}

// EnableReliableChannel installs a bounded single-consumer channel that
// receives every frame with a blocking send, for durable capture paths
// that must never silently drop a frame the way the broadcast channel
// may. Must be called before StartStream.
func (e *Engine) EnableReliableChannel(capacity int) <-chan frame.Frame {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan frame.Frame, capacity)
	e.reliable = ch
	return ch
}

// SubscribeFrames registers a new best-effort broadcast subscriber.
func (e *Engine) SubscribeFrames() (<-chan frame.Frame, func()) {
	return e.broadcast.subscribe(16)
}

// Resolution returns the frame geometry configured by the most recent
// StartStream call.
func (e *Engine) Resolution() (uint32, uint32) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.width, e.height
}

// SupportsObservers always reports true: every Engine-backed device
// supports synchronous observers, unlike capability-optional traits such
// as ExposureControl.
func (e *Engine) SupportsObservers() bool { return true }

func (e *Engine) RegisterObserver(obs capability.FrameObserver) capability.ObserverHandle {
	return e.observers.register(obs)
}

func (e *Engine) UnregisterObserver(h capability.ObserverHandle) {
	e.observers.unregister(h)
}

// StartStream transitions Idle -> Streaming, allocates the DMA buffer,
// arms the vendor, and launches the retrieval worker. Any failure along
// the way rolls back everything already set up and leaves the engine
// Idle.
func (e *Engine) StartStream(roi capability.ROI, binning uint32, exposure time.Duration) error {
	e.stateMu.Lock()
	if e.state == StateStreaming {
		e.stateMu.Unlock()
		return fmt.Errorf("fae[%s]: %w", e.deviceID, errAlreadyStreaming)
	}
	e.state = StateStreaming
	e.stateMu.Unlock()

	rollback := func(cause error) error {
		e.teardown()
		e.stateMu.Lock()
		e.state = StateIdle
		e.stateMu.Unlock()
		return cause
	}

	handle := Handle(e.handleCounter.Add(1)) // a fresh per-stream handle; the vendor SDK scopes state by it
	exposureMs := uint32(exposure / time.Millisecond)
	if exposureMs == 0 {
		exposureMs = 1
	}

	frameBytes, recommended, err := e.vendor.SetupContinuous(handle, SetupConfig{ROI: roi, Binning: binning, ExposureMs: exposureMs})
	if err != nil {
		return rollback(fmt.Errorf("fae[%s]: setup_continuous: %w", e.deviceID, err))
	}
	if frameBytes == 0 {
		return rollback(fmt.Errorf("fae[%s]: vendor reported zero frame_bytes", e.deviceID))
	}

	sizing := chooseBufferFrames(recommended, exposureMs)
	e.logger.Debug("fae buffer sizing", "device", e.deviceID, "vendor_frames", sizing.VendorFrames,
		"heuristic_frames", sizing.HeuristicFrames, "chosen", sizing.Chosen)

	buf, err := newDMABuffer(uint64(sizing.Chosen) * uint64(frameBytes))
	if err != nil {
		return rollback(fmt.Errorf("fae[%s]: allocate dma buffer: %w", e.deviceID, err))
	}

	cbCtx := newCallbackContext()
	if err := e.vendor.RegisterEOFCallback(handle, cbCtx.onEOF); err != nil {
		buf.release()
		return rollback(fmt.Errorf("fae[%s]: register_eof_callback: %w", e.deviceID, err))
	}

	if err := e.vendor.StartContinuous(handle, uint32(len(buf.bytes()))); err != nil {
		e.vendor.DeregisterEOFCallback(handle)
		buf.release()
		return rollback(fmt.Errorf("fae[%s]: start_continuous: %w", e.deviceID, err))
	}

	e.stateMu.Lock()
	e.handle = handle
	e.buf = buf
	e.cbCtx = cbCtx
	e.expectedFrameBytes = frameBytes
	e.width, e.height = roi.Width, roi.Height
	e.stateMu.Unlock()

	e.workerWG.Add(1)
	go e.retrievalLoop(handle, cbCtx, exposure)

	return nil
}

// StopStream signals shutdown, joins the worker, halts hardware,
// deregisters the callback and releases the DMA buffer, in that order —
// reversing the last two is a use-after-free since the vendor may still
// hold a pointer into the buffer until halted.
func (e *Engine) StopStream() error {
	e.stateMu.Lock()
	if e.state != StateStreaming && e.state != StateFaulted {
		e.stateMu.Unlock()
		return nil
	}
	e.state = StateStopping
	e.stateMu.Unlock()

	e.teardown()

	e.stateMu.Lock()
	e.state = StateIdle
	e.stateMu.Unlock()
	return nil
}

// teardown performs the exact stop sequence from §4.1/§9: signal
// shutdown, join the worker, halt hardware, deregister callback, release
// the DMA buffer. Safe to call multiple times.
func (e *Engine) teardown() {
	e.stateMu.Lock()
	cbCtx := e.cbCtx
	handle := e.handle
	buf := e.buf
	e.stateMu.Unlock()

	if cbCtx != nil {
		cbCtx.signalShutdown()
	}
	e.workerWG.Wait()

	if e.vendor != nil {
		e.vendor.HaltContinuous(handle)
		e.vendor.DeregisterEOFCallback(handle)
	}
	if buf != nil {
		if err := buf.release(); err != nil {
			e.logger.Warn("fae dma buffer release failed", "device", e.deviceID, "error", err.Error())
		}
	}

	e.stateMu.Lock()
	e.cbCtx = nil
	e.buf = nil
	e.handle = 0
	e.stateMu.Unlock()
}

// Close is the Go-idiomatic stand-in for the spec's Drop contract: a
// driver that forgets to call StopStream leaks hardware state rather
// than memory, since Go has no deterministic destructors. Wiring code
// should defer Close() (or StopStream()) explicitly; as a last-resort
// backstop against a forgotten Close, devices that embed Engine may
// register a runtime.SetFinalizer(dev, (*T).Close) — this module does
// not do so itself, since a finalizer firing during a live stream would
// itself be a bug worth surfacing rather than papering over.
func (e *Engine) Close() error {
	return e.StopStream()
}

func (e *Engine) signalFatal(reason string) {
	e.stateMu.Lock()
	e.state = StateFaulted
	e.stateMu.Unlock()
	e.logger.Error("fae stream faulted", "device", e.deviceID, "reason", reason)
	go e.teardown()
}

var errAlreadyStreaming = fmt.Errorf("already streaming")

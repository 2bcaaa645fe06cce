package runengine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/frame"
	"github.com/easternanemone/daqcore/internal/registry"
)

type fakeMover struct {
	id  string
	pos float64
}

func (f *fakeMover) ID() string                       { return f.id }
func (f *fakeMover) MoveAbs(pos float64) error        { f.pos = pos; return nil }
func (f *fakeMover) MoveRel(delta float64) error       { f.pos += delta; return nil }
func (f *fakeMover) Position() (float64, error)        { return f.pos, nil }
func (f *fakeMover) WaitSettled(_ time.Duration) error { return nil }
func (f *fakeMover) Stop() error                       { return nil }

type fakeSensor struct {
	id  string
	val float64
}

func (f *fakeSensor) ID() string             { return f.id }
func (f *fakeSensor) Read() (float64, error) { return f.val, nil }

// fakeCamera is a FrameProducer + Triggerable detector: triggering it
// synchronously delivers one frame to every registered observer, the way
// a real camera's hardware callback fires after an exposure.
type fakeCamera struct {
	id        string
	armed     bool
	pixels    []byte
	nextFrame uint64

	mu        sync.Mutex
	observers map[capability.ObserverHandle]capability.FrameObserver
	nextID    capability.ObserverHandle
}

func newFakeCamera(id string, pixels []byte) *fakeCamera {
	return &fakeCamera{id: id, pixels: pixels, observers: make(map[capability.ObserverHandle]capability.FrameObserver)}
}

func (f *fakeCamera) ID() string { return f.id }

func (f *fakeCamera) Arm() error { f.armed = true; return nil }

func (f *fakeCamera) Trigger() error {
	if !f.armed {
		return nil
	}
	f.armed = false
	fr, err := frame.New(1, uint32(len(f.pixels)), frame.BitDepth8, f.pixels, f.nextFrame, time.Now())
	if err != nil {
		return err
	}
	f.nextFrame++

	f.mu.Lock()
	obs := make([]capability.FrameObserver, 0, len(f.observers))
	for _, o := range f.observers {
		obs = append(obs, o)
	}
	f.mu.Unlock()
	for _, o := range obs {
		o.OnFrame(fr)
	}
	return nil
}

func (f *fakeCamera) StartStream(capability.ROI, uint32, time.Duration) error { return nil }
func (f *fakeCamera) StopStream() error                                      { return nil }
func (f *fakeCamera) Resolution() (uint32, uint32)                           { return 1, uint32(len(f.pixels)) }
func (f *fakeCamera) SubscribeFrames() (<-chan frame.Frame, func())          { return nil, func() {} }
func (f *fakeCamera) SupportsObservers() bool                                { return true }

func (f *fakeCamera) RegisterObserver(obs capability.FrameObserver) capability.ObserverHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.observers[f.nextID] = obs
	return f.nextID
}

func (f *fakeCamera) UnregisterObserver(h capability.ObserverHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.observers, h)
}

func waitUntilState(t *testing.T, e *Engine, want State, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.Equal(t, want, e.State())
}

func TestEngine_SimplePlanEmitsStartManifestAndStop(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Add(&fakeMover{id: "stage1"}))
	require.NoError(t, reg.Add(&fakeSensor{id: "diode1", val: 3.5}))

	e := New(reg)
	sub, _, unsub := e.Documents().Subscribe()
	defer unsub()

	plan := document.NewPlan("scan", "count", []string{"stage1"}, nil, []document.Command{
		document.MoveTo("stage1", 10),
		document.Read("diode1"),
		document.EmitEvent("primary", nil, []string{"stage1"}),
	})

	runUID := e.Queue(plan, nil)
	require.NoError(t, e.Start())

	var kinds []document.Kind
	deadline := time.After(2 * time.Second)
	for len(kinds) == 0 || kinds[len(kinds)-1] != document.Stop {
		select {
		case doc := <-sub:
			require.Equal(t, runUID, doc.RunID)
			kinds = append(kinds, doc.Kind)
		case <-deadline:
			t.Fatal("timed out waiting for Stop document")
		}
	}

	require.Equal(t, document.Start, kinds[0])
	require.Equal(t, document.Manifest, kinds[1])
	last := kinds[len(kinds)-1]
	assert.Equal(t, document.Stop, last)
	waitUntilState(t, e, StateIdle, time.Second)
}

func TestEngine_FailingCommandEmitsFailStop(t *testing.T) {
	reg := registry.New()
	e := New(reg)
	sub, _, unsub := e.Documents().Subscribe()
	defer unsub()

	plan := document.NewPlan("broken", "count", nil, nil, []document.Command{
		document.MoveTo("nonexistent", 1),
	})
	e.Queue(plan, nil)
	require.NoError(t, e.Start())

	var stop document.Document
	deadline := time.After(2 * time.Second)
loop:
	for {
		select {
		case doc := <-sub:
			if doc.Kind == document.Stop {
				stop = doc
				break loop
			}
		case <-deadline:
			t.Fatal("timed out waiting for Stop document")
		}
	}

	assert.Equal(t, document.ExitFail, stop.ExitStatus)
	assert.NotEmpty(t, stop.Reason)
}

// TestEngine_WaitIsAbortInterruptible is scenario 5: a long Wait command
// must not block Abort from taking effect for more than one wait chunk.
func TestEngine_WaitIsAbortInterruptible(t *testing.T) {
	reg := registry.New()
	e := New(reg)
	sub, _, unsub := e.Documents().Subscribe()
	defer unsub()

	plan := document.NewPlan("long_wait", "count", nil, nil, []document.Command{
		document.Wait(30),
	})
	e.Queue(plan, nil)
	require.NoError(t, e.Start())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, e.Halt("operator stop"))

	start := time.Now()
	var stop document.Document
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case doc := <-sub:
			if doc.Kind == document.Stop {
				stop = doc
				break loop
			}
		case <-deadline:
			t.Fatal("timed out waiting for Stop document after Halt")
		}
	}
	elapsed := time.Since(start)

	assert.Equal(t, document.ExitAbort, stop.ExitStatus)
	assert.Equal(t, "operator stop", stop.Reason)
	assert.Less(t, elapsed, 500*time.Millisecond, "abort should land within roughly one wait chunk")
}

// TestEngine_StopEmittedOnceAfterEvents is scenario 4: a plan of three
// EmitEvent commands publishes three Events and exactly one Stop.
func TestEngine_StopEmittedOnceAfterEvents(t *testing.T) {
	reg := registry.New()
	e := New(reg)
	sub, _, unsub := e.Documents().Subscribe()
	defer unsub()

	plan := document.NewPlan("three_events", "count", nil, nil, []document.Command{
		document.EmitEvent("primary", map[string]float64{"x": 1}, nil),
		document.EmitEvent("primary", map[string]float64{"x": 2}, nil),
		document.EmitEvent("primary", map[string]float64{"x": 3}, nil),
	})
	e.Queue(plan, nil)
	require.NoError(t, e.Start())

	stopCount := 0
	eventCount := 0
	deadline := time.After(2 * time.Second)
	for stopCount == 0 {
		select {
		case doc := <-sub:
			switch doc.Kind {
			case document.Stop:
				stopCount++
			case document.Event:
				eventCount++
			}
		case <-deadline:
			t.Fatal("timed out waiting for Stop document")
		}
	}

	assert.Equal(t, 1, stopCount)
	assert.Equal(t, 3, eventCount)
}

func TestEngine_PauseDefersToCheckpoint(t *testing.T) {
	reg := registry.New()
	e := New(reg)

	plan := document.NewPlan("pausable", "count", nil, nil, []document.Command{
		document.Checkpoint("before"),
		document.Wait(0.01),
		document.Checkpoint("after"),
	})
	e.Queue(plan, nil)
	require.NoError(t, e.Start())
	require.NoError(t, e.Pause())

	waitUntilState(t, e, StatePaused, time.Second)
	require.NoError(t, e.Resume())
	waitUntilState(t, e, StateIdle, 2*time.Second)
}

func TestEngine_StartFailsWhenQueueEmpty(t *testing.T) {
	reg := registry.New()
	e := New(reg)
	err := e.Start()
	assert.Error(t, err)
}

func TestEngine_QueueAndExecute(t *testing.T) {
	reg := registry.New()
	e := New(reg)

	plan := document.NewPlan("qae", "count", nil, nil, []document.Command{
		document.EmitEvent("primary", map[string]float64{"x": 1}, nil),
	})

	docs, err := e.QueueAndExecute(plan, nil, 2*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, document.Stop, docs[len(docs)-1].Kind)
}

// TestEngine_TriggerThenReadStashesFrame covers §4.2's Trigger/Read split
// for a FrameProducer detector: Trigger only arms and fires the device,
// Read is what awaits the resulting frame off the registered observer
// channel and stashes it for the next EmitEvent.
func TestEngine_TriggerThenReadStashesFrame(t *testing.T) {
	reg := registry.New()
	pixels := []byte{1, 2, 3, 4}
	cam := newFakeCamera("camera1", pixels)
	require.NoError(t, reg.Add(cam))

	e := New(reg)
	sub, _, unsub := e.Documents().Subscribe()
	defer unsub()

	plan := document.NewPlan("snap", "count", nil, []string{"camera1"}, []document.Command{
		document.Trigger("camera1"),
		document.Read("camera1"),
		document.EmitEvent("primary", nil, nil),
	})
	e.Queue(plan, nil)
	require.NoError(t, e.Start())

	var event document.Document
	deadline := time.After(2 * time.Second)
loop:
	for {
		select {
		case doc := <-sub:
			if doc.Kind == document.Event {
				event = doc
				break loop
			}
		case <-deadline:
			t.Fatal("timed out waiting for Event document")
		}
	}

	require.Contains(t, event.Arrays, "camera1")
	assert.Equal(t, pixels, event.Arrays["camera1"])
}

var _ capability.Movable = (*fakeMover)(nil)
var _ capability.Readable = (*fakeSensor)(nil)
var _ capability.FrameProducer = (*fakeCamera)(nil)
var _ capability.Triggerable = (*fakeCamera)(nil)

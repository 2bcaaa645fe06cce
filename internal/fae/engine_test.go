package fae

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easternanemone/daqcore/internal/capability"
	"github.com/easternanemone/daqcore/internal/frame"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

func TestEngine_StartStopLifecycle(t *testing.T) {
	sdk := NewMockVendorSDK()
	eng := NewEngine("cam0", sdk)

	require.Equal(t, StateIdle, eng.State())

	err := eng.StartStream(capability.ROI{Width: 4, Height: 4}, 1, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StateStreaming, eng.State())

	err = eng.StartStream(capability.ROI{Width: 4, Height: 4}, 1, 5*time.Millisecond)
	assert.Error(t, err, "starting an already-streaming engine must fail")

	require.NoError(t, eng.StopStream())
	assert.Equal(t, StateIdle, eng.State())

	// Idempotent.
	require.NoError(t, eng.StopStream())
}

// Scenario 6 (spec §8): a scripted hardware frame-number sequence of
// [1,2,3,5,6,10,11] must report lost_frames=4 (one gap of 1 between 3 and
// 5, plus a gap of 3 between 6 and 10) and discontinuity_events=2.
func TestEngine_FrameLossDetection(t *testing.T) {
	sdk := NewMockVendorSDK()
	sdk.PrescriptNextStream([]int32{1, 2, 3, 5, 6, 10, 11})

	eng := NewEngine("cam0", sdk)
	sub, unsub := eng.SubscribeFrames()
	defer unsub()

	require.NoError(t, eng.StartStream(capability.ROI{Width: 2, Height: 2}, 1, 2*time.Millisecond))

	received := 0
	deadline := time.After(2 * time.Second)
loop:
	for received < 7 {
		select {
		case <-sub:
			received++
		case <-deadline:
			break loop
		}
	}

	require.NoError(t, eng.StopStream())

	snap := eng.Metrics()
	assert.Equal(t, uint64(4), snap.LostFrames)
	assert.Equal(t, uint64(2), snap.DiscontinuityEvents)
}

func TestEngine_ReliableChannelReceivesEveryFrame(t *testing.T) {
	sdk := NewMockVendorSDK()
	sdk.PrescriptNextStream([]int32{1, 2, 3})

	eng := NewEngine("cam0", sdk)
	reliable := eng.EnableReliableChannel(8)

	require.NoError(t, eng.StartStream(capability.ROI{Width: 2, Height: 2}, 1, 2*time.Millisecond))

	var got []int32
	deadline := time.After(2 * time.Second)
loop:
	for len(got) < 3 {
		select {
		case f := <-reliable:
			got = append(got, int32(f.FrameNumber()))
		case <-deadline:
			break loop
		}
	}

	require.NoError(t, eng.StopStream())
	assert.Equal(t, []int32{1, 2, 3}, got)
}

func TestEngine_ObserverReceivesFrames(t *testing.T) {
	sdk := NewMockVendorSDK()
	sdk.PrescriptNextStream([]int32{1, 2})

	eng := NewEngine("cam0", sdk)

	var mu sync.Mutex
	var got []uint64
	h := eng.RegisterObserver(capability.FrameObserverFunc(func(f frame.Frame) {
		mu.Lock()
		got = append(got, f.FrameNumber())
		mu.Unlock()
	}))

	require.NoError(t, eng.StartStream(capability.ROI{Width: 2, Height: 2}, 1, 2*time.Millisecond))

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	})

	eng.UnregisterObserver(h)
	require.NoError(t, eng.StopStream())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, got)
}

package fae

import (
	"fmt"
	"sync"
	"time"
)

// MockVendorSDK is the "no hardware present" implementation of VendorSDK
// (§4.1's "mock path"): it synthesizes frames on its own ticker goroutine
// at a fixed 2 ms interval, with the same callback/status/fetch shape a
// real vendor binding would present. The configured exposure does not
// change that frame rate. Tests that need a deterministic hardware
// frame-number sequence (e.g. to exercise loss detection) use
// PrescriptNextStream or ScriptFrameNumbers instead of the free-running
// counter.
type MockVendorSDK struct {
	mu            sync.Mutex
	streams       map[Handle]*mockStream
	next          uint64
	pendingScript []int32
}

type mockStream struct {
	frameBytes uint32
	cb         func(frameNr int32)
	stop       chan struct{}
	done       chan struct{}

	mu      sync.Mutex
	ready   []mockFrame
	fatal   bool
	nextNr  int32
	script  []int32
	scriptI int
}

type mockFrame struct {
	nr    int32
	bytes []byte
}

func NewMockVendorSDK() *MockVendorSDK {
	return &MockVendorSDK{streams: make(map[Handle]*mockStream)}
}

// NewHandle allocates a fresh session handle for a caller to pass to
// SetupContinuous. Real vendor SDKs hand these out from their own open()
// call; the mock just counts.
func (m *MockVendorSDK) NewHandle() Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return Handle(m.next)
}

// ScriptFrameNumbers pins the hardware frame-number sequence a stream
// will report, one per StartContinuous-triggered tick, instead of the
// default auto-incrementing counter. Must be called before
// StartContinuous.
func (m *MockVendorSDK) ScriptFrameNumbers(h Handle, frameNrs []int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.streams[h]; ok {
		s.mu.Lock()
		s.script = append([]int32(nil), frameNrs...)
		s.mu.Unlock()
	}
}

// PrescriptNextStream stashes a frame-number sequence to apply to
// whichever stream the next SetupContinuous call creates. Engine callers
// never see the vendor Handle before StartStream returns, so this lets a
// test pin the sequence ahead of the call instead of racing SetupContinuous.
func (m *MockVendorSDK) PrescriptNextStream(frameNrs []int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingScript = append([]int32(nil), frameNrs...)
}

func (m *MockVendorSDK) SetupContinuous(h Handle, cfg SetupConfig) (uint32, uint32, error) {
	frameBytes := cfg.ROI.Width * cfg.ROI.Height
	if frameBytes == 0 {
		frameBytes = 64
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &mockStream{frameBytes: frameBytes, stop: make(chan struct{}), done: make(chan struct{})}
	if len(m.pendingScript) > 0 {
		s.script = m.pendingScript
		m.pendingScript = nil
	}
	m.streams[h] = s
	return frameBytes, 0, nil // recommendedFrames=0: let the 1s heuristic choose
}

func (m *MockVendorSDK) RegisterEOFCallback(h Handle, cb func(frameNr int32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[h]
	if !ok {
		return fmt.Errorf("fae/mock: unknown handle %d", h)
	}
	s.cb = cb
	return nil
}

func (m *MockVendorSDK) DeregisterEOFCallback(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.streams[h]; ok {
		s.cb = nil
	}
	return nil
}

// StartContinuous launches the synthetic frame generator. exposureMs is
// recovered from bufferLen's caller context via SetupConfig in a real
// vendor SDK; the mock instead ticks at a fixed fast interval suitable
// for tests, since exposure timing fidelity isn't what loss-detection
// tests exercise.
func (m *MockVendorSDK) StartContinuous(h Handle, bufferLen uint32) error {
	m.mu.Lock()
	s, ok := m.streams[h]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("fae/mock: unknown handle %d", h)
	}
	go s.run()
	return nil
}

func (s *mockStream) run() {
	defer close(s.done)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			var nr int32
			if len(s.script) > 0 {
				if s.scriptI >= len(s.script) {
					s.mu.Unlock()
					return
				}
				nr = s.script[s.scriptI]
				s.scriptI++
			} else {
				s.nextNr++
				nr = s.nextNr
			}
			buf := make([]byte, s.frameBytes)
			s.ready = append(s.ready, mockFrame{nr: nr, bytes: buf})
			cb := s.cb
			s.mu.Unlock()
			if cb != nil {
				cb(nr)
			}
		}
	}
}

func (m *MockVendorSDK) HaltContinuous(h Handle) error {
	m.mu.Lock()
	s, ok := m.streams[h]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return nil
}

func (m *MockVendorSDK) Status(h Handle) (hasFrame bool, fatal bool, err error) {
	m.mu.Lock()
	s, ok := m.streams[h]
	m.mu.Unlock()
	if !ok {
		return false, false, fmt.Errorf("fae/mock: unknown handle %d", h)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ready) > 0, s.fatal, nil
}

func (m *MockVendorSDK) FetchFrame(h Handle) (int32, []byte, error) {
	m.mu.Lock()
	s, ok := m.streams[h]
	m.mu.Unlock()
	if !ok {
		return 0, nil, fmt.Errorf("fae/mock: unknown handle %d", h)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return 0, nil, fmt.Errorf("fae/mock: no frame ready")
	}
	f := s.ready[0]
	s.ready = s.ready[1:]
	return f.nr, f.bytes, nil
}

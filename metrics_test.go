package daq

import "testing"

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.CommandsExecuted != 0 {
		t.Errorf("expected 0 initial commands, got %d", snap.CommandsExecuted)
	}

	m.RecordCommand(1_000_000, true)  // 1ms, success
	m.RecordCommand(2_000_000, true)  // 2ms, success
	m.RecordCommand(500_000, false)   // 0.5ms, error

	snap = m.Snapshot()
	if snap.CommandsExecuted != 3 {
		t.Errorf("expected 3 commands, got %d", snap.CommandsExecuted)
	}
	if snap.CommandErrors != 1 {
		t.Errorf("expected 1 command error, got %d", snap.CommandErrors)
	}

	expectedErrorRate := float64(1) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsFramesAndEvents(t *testing.T) {
	m := NewMetrics()

	m.RecordFrame(2048)
	m.RecordFrame(2048)
	m.RecordEvent()

	snap := m.Snapshot()
	if snap.FramesAcquired != 2 {
		t.Errorf("expected 2 frames, got %d", snap.FramesAcquired)
	}
	if snap.FrameBytes != 4096 {
		t.Errorf("expected 4096 frame bytes, got %d", snap.FrameBytes)
	}
	if snap.EventsEmitted != 1 {
		t.Errorf("expected 1 event, got %d", snap.EventsEmitted)
	}
}

func TestMetricsRunOutcomes(t *testing.T) {
	m := NewMetrics()

	m.RecordRunStart()
	m.RecordRunOutcome(ExitSuccess)
	m.RecordRunStart()
	m.RecordRunOutcome(ExitAbort)
	m.RecordRunStart()
	m.RecordRunOutcome(ExitFail)

	snap := m.Snapshot()
	if snap.RunsStarted != 3 {
		t.Errorf("expected 3 runs started, got %d", snap.RunsStarted)
	}
	if snap.RunsCompleted != 1 {
		t.Errorf("expected 1 run completed, got %d", snap.RunsCompleted)
	}
	if snap.RunsAborted != 1 {
		t.Errorf("expected 1 run aborted, got %d", snap.RunsAborted)
	}
	if snap.RunsFailed != 1 {
		t.Errorf("expected 1 run failed, got %d", snap.RunsFailed)
	}
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(20)
	m.RecordQueueDepth(15)

	snap := m.Snapshot()
	if snap.MaxQueueDepth != 20 {
		t.Errorf("expected max queue depth 20, got %d", snap.MaxQueueDepth)
	}

	expectedAvg := float64(10+20+15) / 3.0
	if snap.AvgQueueDepth < expectedAvg-0.1 || snap.AvgQueueDepth > expectedAvg+0.1 {
		t.Errorf("expected avg queue depth %.1f, got %.1f", expectedAvg, snap.AvgQueueDepth)
	}
}

func TestMetricsLatencyPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 100; i++ {
		m.RecordCommand(1_000_000, true) // 1ms
	}
	for i := 0; i < 10; i++ {
		m.RecordCommand(1_000_000_000, true) // 1s
	}

	snap := m.Snapshot()
	if snap.LatencyP50Ns == 0 {
		t.Error("expected nonzero p50 latency")
	}
	if snap.LatencyP999Ns < snap.LatencyP50Ns {
		t.Error("expected p99.9 latency >= p50 latency")
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand(1_000_000, true)
	m.RecordFrame(1024)
	m.Reset()

	snap := m.Snapshot()
	if snap.CommandsExecuted != 0 || snap.FramesAcquired != 0 {
		t.Error("expected all counters to be zero after Reset")
	}
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveCommand(1_000_000, true)
	obs.ObserveEvent()
	obs.ObserveFrame(4096)
	obs.ObserveRunOutcome(ExitSuccess)
	obs.ObserveQueueDepth(5)

	snap := m.Snapshot()
	if snap.CommandsExecuted != 1 || snap.EventsEmitted != 1 || snap.FramesAcquired != 1 || snap.RunsCompleted != 1 {
		t.Error("expected observer calls to be recorded in underlying metrics")
	}
}

package daq

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the command-execution latency histogram
// buckets in nanoseconds, covering 1us to 10s with logarithmic spacing
// — the same range the teacher's block-I/O metrics used, since plan
// commands (a MoveTo, a Read, a Trigger) sit in roughly the same
// latency band as a disk operation.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks process-wide operational statistics across the Run
// Engine and the devices it drives: command throughput, frame
// acquisition volume, and run outcomes. Per-stream frame-loss and
// discontinuity counters live closer to their source in
// internal/fae.Metrics; this is the aggregate a monitoring endpoint
// would expose.
type Metrics struct {
	// Command counters
	CommandsExecuted atomic.Uint64
	CommandErrors    atomic.Uint64
	EventsEmitted    atomic.Uint64

	// Frame counters
	FramesAcquired atomic.Uint64
	FrameBytes     atomic.Uint64

	// Run lifecycle counters
	RunsStarted   atomic.Uint64
	RunsCompleted atomic.Uint64
	RunsAborted   atomic.Uint64
	RunsFailed    atomic.Uint64

	// Run queue statistics
	QueueDepthTotal atomic.Uint64 // cumulative queue-depth samples
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	// Command latency
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative): bucket[i] counts commands
	// with latency <= LatencyBuckets[i].
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Process lifecycle
	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCommand records one executed plan command and its latency.
func (m *Metrics) RecordCommand(latencyNs uint64, success bool) {
	m.CommandsExecuted.Add(1)
	if !success {
		m.CommandErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordEvent records one emitted Event document.
func (m *Metrics) RecordEvent() {
	m.EventsEmitted.Add(1)
}

// RecordFrame records one frame delivered to a stream subscriber.
func (m *Metrics) RecordFrame(bytes uint64) {
	m.FramesAcquired.Add(1)
	m.FrameBytes.Add(bytes)
}

// RecordRunStart records a run transitioning Idle -> Running.
func (m *Metrics) RecordRunStart() {
	m.RunsStarted.Add(1)
}

// RecordRunOutcome records a run's terminal Stop status.
func (m *Metrics) RecordRunOutcome(status ExitStatus) {
	switch status {
	case ExitSuccess:
		m.RunsCompleted.Add(1)
	case ExitAbort:
		m.RunsAborted.Add(1)
	case ExitFail:
		m.RunsFailed.Add(1)
	}
}

// RecordQueueDepth records the current run-queue length for averaging
// and peak tracking.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)

	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the process as stopped, freezing uptime calculations in a
// Snapshot taken afterward.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, derived view of Metrics suitable
// for serializing to a monitoring endpoint.
type MetricsSnapshot struct {
	CommandsExecuted uint64
	CommandErrors    uint64
	EventsEmitted    uint64

	FramesAcquired uint64
	FrameBytes     uint64

	RunsStarted   uint64
	RunsCompleted uint64
	RunsAborted   uint64
	RunsFailed    uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	CommandsPerSecond float64
	FramesPerSecond   float64
	ErrorRate         float64 // percentage of commands that errored
}

// Snapshot creates a point-in-time snapshot of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CommandsExecuted: m.CommandsExecuted.Load(),
		CommandErrors:    m.CommandErrors.Load(),
		EventsEmitted:    m.EventsEmitted.Load(),
		FramesAcquired:   m.FramesAcquired.Load(),
		FrameBytes:       m.FrameBytes.Load(),
		RunsStarted:      m.RunsStarted.Load(),
		RunsCompleted:    m.RunsCompleted.Load(),
		RunsAborted:      m.RunsAborted.Load(),
		RunsFailed:       m.RunsFailed.Load(),
		MaxQueueDepth:    m.MaxQueueDepth.Load(),
	}

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.CommandsPerSecond = float64(snap.CommandsExecuted) / uptimeSeconds
		snap.FramesPerSecond = float64(snap.FramesAcquired) / uptimeSeconds
	}

	if snap.CommandsExecuted > 0 {
		snap.ErrorRate = float64(snap.CommandErrors) / float64(snap.CommandsExecuted) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes every counter, useful between tests.
func (m *Metrics) Reset() {
	m.CommandsExecuted.Store(0)
	m.CommandErrors.Store(0)
	m.EventsEmitted.Store(0)
	m.FramesAcquired.Store(0)
	m.FrameBytes.Store(0)
	m.RunsStarted.Store(0)
	m.RunsCompleted.Store(0)
	m.RunsAborted.Store(0)
	m.RunsFailed.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, e.g. to bridge into a
// Prometheus registry without Metrics itself depending on one.
type Observer interface {
	ObserveCommand(latencyNs uint64, success bool)
	ObserveEvent()
	ObserveFrame(bytes uint64)
	ObserveRunOutcome(status ExitStatus)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCommand(uint64, bool)      {}
func (NoOpObserver) ObserveEvent()                    {}
func (NoOpObserver) ObserveFrame(uint64)               {}
func (NoOpObserver) ObserveRunOutcome(ExitStatus)      {}
func (NoOpObserver) ObserveQueueDepth(uint32)          {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommand(latencyNs uint64, success bool) {
	o.metrics.RecordCommand(latencyNs, success)
}

func (o *MetricsObserver) ObserveEvent() {
	o.metrics.RecordEvent()
}

func (o *MetricsObserver) ObserveFrame(bytes uint64) {
	o.metrics.RecordFrame(bytes)
}

func (o *MetricsObserver) ObserveRunOutcome(status ExitStatus) {
	o.metrics.RecordRunOutcome(status)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)

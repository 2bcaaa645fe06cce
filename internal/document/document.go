package document

import "github.com/easternanemone/daqcore/internal/capability"

// ExitStatus is the terminal status of a run, carried by exactly one
// Stop document per run.
type ExitStatus string

const (
	ExitSuccess ExitStatus = "success"
	ExitAbort   ExitStatus = "abort"
	ExitFail    ExitStatus = "fail"
)

// DataKeyKind discriminates a Descriptor field between a scalar and an
// array (frame) reading.
type DataKeyKind uint8

const (
	DataKeyScalar DataKeyKind = iota
	DataKeyArray
)

// DataKey describes one named field a Descriptor declares: a
// (scalar|array[shape], dtype, units) tuple.
type DataKey struct {
	Kind  DataKeyKind
	Shape []int // meaningful only when Kind == DataKeyArray
	Dtype string
	Units string
}

// Kind discriminates the Document sum type.
type Kind uint8

const (
	Start Kind = iota
	Descriptor
	Manifest
	Event
	Stop
)

// Document is one record of the run document stream. As with Command,
// this is a flattened sum type: exactly the fields relevant to Kind are
// populated.
type Document struct {
	Kind  Kind
	RunID string

	// Start
	PlanType     string
	PlanName     string
	PlanArgs     map[string]any
	UserMetadata map[string]any
	Movers       []string

	// Descriptor
	StreamName string
	DataKeys   map[string]DataKey

	// Manifest
	ParameterSnapshot map[string]map[string]capability.ParamValue
	SystemInfo        map[string]string

	// Event
	DescriptorUID string
	SeqNum        uint64
	ScalarData    map[string]float64
	Arrays        map[string][]byte
	Positions     map[string]float64
	TimestampNs   int64

	// Stop
	ExitStatus ExitStatus
	Reason     string
	NumEvents  uint64
	DurationNs int64
}

func NewStart(runID, planType, planName string, args, metadata map[string]any, movers []string) Document {
	return Document{
		Kind:         Start,
		RunID:        runID,
		PlanType:     planType,
		PlanName:     planName,
		PlanArgs:     args,
		UserMetadata: metadata,
		Movers:       movers,
	}
}

func NewManifest(runID string, snapshot map[string]map[string]capability.ParamValue, sysInfo map[string]string) Document {
	return Document{
		Kind:              Manifest,
		RunID:             runID,
		ParameterSnapshot: snapshot,
		SystemInfo:        sysInfo,
	}
}

func NewDescriptor(runID, streamName string, keys map[string]DataKey) Document {
	return Document{
		Kind:       Descriptor,
		RunID:      runID,
		StreamName: streamName,
		DataKeys:   keys,
	}
}

func NewEvent(runID, descriptorUID string, seqNum uint64, scalars map[string]float64, arrays map[string][]byte, positions map[string]float64, tsNs int64) Document {
	return Document{
		Kind:          Event,
		RunID:         runID,
		DescriptorUID: descriptorUID,
		SeqNum:        seqNum,
		ScalarData:    scalars,
		Arrays:        arrays,
		Positions:     positions,
		TimestampNs:   tsNs,
	}
}

func NewStop(runID string, status ExitStatus, reason string, numEvents uint64, durationNs int64) Document {
	return Document{
		Kind:       Stop,
		RunID:      runID,
		ExitStatus: status,
		Reason:     reason,
		NumEvents:  numEvents,
		DurationNs: durationNs,
	}
}

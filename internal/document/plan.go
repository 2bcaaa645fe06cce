// Package document defines the Plan command sum type and the Document
// sum type (§3) as a leaf package that imports only internal/capability,
// mirroring internal/frame: the
// Run Engine needs both, and the root daq package needs to re-export
// both for its public API, so neither type can live only in the root
// package without creating an import cycle.
package document

// CommandKind discriminates the Plan command sum type.
type CommandKind uint8

const (
	CmdMoveTo CommandKind = iota
	CmdRead
	CmdTrigger
	CmdWait
	CmdCheckpoint
	CmdEmitEvent
	CmdSet
)

func (k CommandKind) String() string {
	switch k {
	case CmdMoveTo:
		return "move_to"
	case CmdRead:
		return "read"
	case CmdTrigger:
		return "trigger"
	case CmdWait:
		return "wait"
	case CmdCheckpoint:
		return "checkpoint"
	case CmdEmitEvent:
		return "emit_event"
	case CmdSet:
		return "set"
	default:
		return "unknown"
	}
}

// Command is one step of a Plan. Exactly one of the kind-specific fields
// is meaningful, selected by Kind.
type Command struct {
	Kind CommandKind

	// MoveTo, Read, Trigger
	Device string

	// MoveTo
	Position float64

	// Wait
	Seconds float64

	// Checkpoint
	Label string

	// EmitEvent
	Stream     string
	ScalarData map[string]float64
	Positions  []string // device IDs whose current_positions to include

	// Set
	Parameter string
	Value     any
}

func MoveTo(device string, position float64) Command {
	return Command{Kind: CmdMoveTo, Device: device, Position: position}
}

func Read(device string) Command {
	return Command{Kind: CmdRead, Device: device}
}

func Trigger(device string) Command {
	return Command{Kind: CmdTrigger, Device: device}
}

func Wait(seconds float64) Command {
	return Command{Kind: CmdWait, Seconds: seconds}
}

func Checkpoint(label string) Command {
	return Command{Kind: CmdCheckpoint, Label: label}
}

func EmitEvent(stream string, scalarData map[string]float64, positions []string) Command {
	return Command{Kind: CmdEmitEvent, Stream: stream, ScalarData: scalarData, Positions: positions}
}

func Set(device, parameter string, value any) Command {
	return Command{Kind: CmdSet, Device: device, Parameter: parameter, Value: value}
}

// Plan is a deterministic, iterable description of an experiment: a
// name, the set of devices it moves and reads from (so the Run Engine
// knows which detectors need frame observers before the loop starts),
// and the command sequence itself.
type Plan struct {
	Name      string
	Type      string
	Args      map[string]any
	Movers    []string
	Detectors []string
	Commands  []Command
}

func NewPlan(name, planType string, movers, detectors []string, commands []Command) Plan {
	return Plan{
		Name:      name,
		Type:      planType,
		Movers:    append([]string(nil), movers...),
		Detectors: append([]string(nil), detectors...),
		Commands:  append([]Command(nil), commands...),
	}
}

// Iterator walks a Plan's Commands in order.
type Iterator struct {
	commands []Command
	pos      int
}

func NewIterator(p Plan) *Iterator {
	return &Iterator{commands: p.Commands}
}

// Next returns the next command and true, or a zero Command and false
// once exhausted.
func (it *Iterator) Next() (Command, bool) {
	if it.pos >= len(it.commands) {
		return Command{}, false
	}
	c := it.commands[it.pos]
	it.pos++
	return c, true
}

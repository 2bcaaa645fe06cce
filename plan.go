package daq

import "github.com/easternanemone/daqcore/internal/document"

// Plan, Command and their constructors are re-exported from
// internal/document so the Run Engine can build them without this
// package importing it back.
type CommandKind = document.CommandKind

const (
	CmdMoveTo     = document.CmdMoveTo
	CmdRead       = document.CmdRead
	CmdTrigger    = document.CmdTrigger
	CmdWait       = document.CmdWait
	CmdCheckpoint = document.CmdCheckpoint
	CmdEmitEvent  = document.CmdEmitEvent
	CmdSet        = document.CmdSet
)

type Command = document.Command
type Plan = document.Plan

var (
	MoveTo    = document.MoveTo
	Read      = document.Read
	Trigger   = document.Trigger
	Wait      = document.Wait
	Checkpoint = document.Checkpoint
	EmitEvent = document.EmitEvent
	Set       = document.Set
	NewPlan   = document.NewPlan
)

package daq

import "github.com/easternanemone/daqcore/internal/document"

// Document and its constructors are re-exported from internal/document
// so the Run Engine can build them without this package importing it
// back.
type ExitStatus = document.ExitStatus

const (
	ExitSuccess = document.ExitSuccess
	ExitAbort   = document.ExitAbort
	ExitFail    = document.ExitFail
)

type DataKeyKind = document.DataKeyKind

const (
	DataKeyScalar = document.DataKeyScalar
	DataKeyArray  = document.DataKeyArray
)

type DataKey = document.DataKey
type DocumentKind = document.Kind

const (
	DocStart      = document.Start
	DocDescriptor = document.Descriptor
	DocManifest   = document.Manifest
	DocEvent      = document.Event
	DocStop       = document.Stop
)

type Document = document.Document

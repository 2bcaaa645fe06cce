package daq

import "github.com/easternanemone/daqcore/internal/document"

// DocumentStream and SubscriberID are re-exported from internal/document
// so the Run Engine can publish documents without this package importing
// it back.
type SubscriberID = document.SubscriberID
type DocumentStream = document.Stream

var NewDocumentStream = document.NewStream

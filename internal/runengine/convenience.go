package runengine

import (
	"time"

	"github.com/easternanemone/daqcore/internal/document"
	"github.com/easternanemone/daqcore/internal/errs"
)

// QueueAndExecute queues plan, starts it, and blocks until its Stop
// document is published (or timeout elapses), returning every document
// the run produced. It subscribes before queuing so it cannot miss the
// Start document to a run that happens to complete before the
// subscription would otherwise have been set up.
func (e *Engine) QueueAndExecute(plan document.Plan, metadata map[string]any, timeout time.Duration) ([]document.Document, error) {
	sub, _, unsub := e.docs.Subscribe()
	defer unsub()

	runUID := e.Queue(plan, metadata)
	if err := e.Start(); err != nil {
		return nil, err
	}

	deadline := time.After(timeout)
	var docs []document.Document
	for {
		select {
		case doc := <-sub:
			if doc.RunID != runUID {
				continue
			}
			docs = append(docs, doc)
			if doc.Kind == document.Stop {
				return docs, nil
			}
		case <-deadline:
			return docs, errs.NewDevice("queue_and_execute", runUID, errs.CodeTimeout, "run did not finish before timeout")
		}
	}
}

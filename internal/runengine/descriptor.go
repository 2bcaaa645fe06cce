package runengine

import "github.com/easternanemone/daqcore/internal/document"

// descriptorKeys derives one Descriptor's data keys from the plan: an
// array key per detector (shape taken from its current resolution, dtype
// fixed at the Frame Acquisition Engine's 16-bit path since that's all
// the registry's FrameProducer capability reports), plus a scalar key
// for every distinct ScalarData field name used by the plan's EmitEvent
// commands that write to this stream.
func (e *Engine) descriptorKeys(streamName string, plan document.Plan) map[string]document.DataKey {
	keys := make(map[string]document.DataKey)

	for _, det := range plan.Detectors {
		fp, ok := e.registry.FrameProducer(det)
		if !ok {
			continue
		}
		w, h := fp.Resolution()
		keys[det] = document.DataKey{
			Kind:  document.DataKeyArray,
			Shape: []int{int(h), int(w)},
			Dtype: "uint16",
		}
	}

	for _, cmd := range plan.Commands {
		if cmd.Kind != document.CmdEmitEvent || cmd.Stream != streamName {
			continue
		}
		for name := range cmd.ScalarData {
			if _, exists := keys[name]; !exists {
				keys[name] = document.DataKey{Kind: document.DataKeyScalar, Dtype: "float64"}
			}
		}
		for _, dev := range cmd.Positions {
			posKey := dev + "_position"
			if _, exists := keys[posKey]; !exists {
				keys[posKey] = document.DataKey{Kind: document.DataKeyScalar, Dtype: "float64", Units: "mm"}
			}
		}
	}

	return keys
}

// streamNames returns the distinct EmitEvent stream names a plan writes
// to, in first-use order, so each gets exactly one Descriptor.
func streamNames(plan document.Plan) []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range plan.Commands {
		if cmd.Kind != document.CmdEmitEvent {
			continue
		}
		if !seen[cmd.Stream] {
			seen[cmd.Stream] = true
			names = append(names, cmd.Stream)
		}
	}
	return names
}

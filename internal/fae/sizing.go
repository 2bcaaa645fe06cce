package fae

const (
	minBufferFrames = 16
	maxBufferFrames = 256
)

// BufferSizing is the diagnostic triple §4.1 asks start_stream to report:
// what the vendor recommended, what the 1-second heuristic computed, and
// which one was actually chosen after clamping.
type BufferSizing struct {
	VendorFrames    uint32
	HeuristicFrames uint32
	Chosen          uint32
}

// chooseBufferFrames picks the vendor's recommendation if it offered one
// (recommendedFrames > 0), else falls back to enough frames to cover
// roughly 1 second of acquisition at the configured exposure, then clamps
// to [16, 256].
func chooseBufferFrames(recommendedFrames uint32, exposureMs uint32) BufferSizing {
	heuristic := uint32(minBufferFrames)
	if exposureMs > 0 {
		heuristic = (1000 + exposureMs - 1) / exposureMs // ceil(1000/exposure_ms)
	}

	chosen := recommendedFrames
	if chosen == 0 {
		chosen = heuristic
	}
	if chosen < minBufferFrames {
		chosen = minBufferFrames
	}
	if chosen > maxBufferFrames {
		chosen = maxBufferFrames
	}

	return BufferSizing{
		VendorFrames:    recommendedFrames,
		HeuristicFrames: heuristic,
		Chosen:          chosen,
	}
}

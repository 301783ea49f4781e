package deploy

import "math"

// ResolveEventIndex maps progress onto a milestone index in [0, eventCount-1]
// as floor(p*(eventCount-1)). Progress is clamped; eventCount <= 1 yields 0.
func ResolveEventIndex(progress float64, eventCount int) int {
	if eventCount <= 1 {
		return 0
	}
	last := eventCount - 1
	p := Clamp01(progress)
	idx := max(0, min(int(math.Floor(p*float64(last))), last))
	// The product can round across an integer. Milestone i begins exactly at
	// MilestoneProgress(i, eventCount), so settle the index against those.
	if idx < last && p >= MilestoneProgress(idx+1, eventCount) {
		idx++
	} else if idx > 0 && p < MilestoneProgress(idx, eventCount) {
		idx--
	}
	return idx
}

// MilestoneProgress returns the exact progress at which milestone index
// begins. The index is clamped into range.
func MilestoneProgress(index, eventCount int) float64 {
	if eventCount <= 1 || index <= 0 {
		return 0
	}
	last := eventCount - 1
	if index >= last {
		return 1
	}
	return float64(index) / float64(last)
}

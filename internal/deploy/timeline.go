package deploy

import (
	"errors"
	"fmt"
)

// Event is one discrete milestone of the deployment sequence. Day and Time
// are relative to launch.
type Event struct {
	Index       int    `json:"index"`
	Day         int    `json:"day"`
	Time        string `json:"time"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Stage       Stage  `json:"stage"`
}

// Timeline is the ordered list of milestones.
type Timeline []Event

// Validate requires at least one event and indexes that match position.
func (tl Timeline) Validate() error {
	if len(tl) == 0 {
		return errors.New("timeline: no events")
	}
	prevDay := -1
	for i, ev := range tl {
		if ev.Index != i {
			return fmt.Errorf("timeline: event %d has index %d", i, ev.Index)
		}
		if ev.Label == "" {
			return fmt.Errorf("timeline: event %d has no label", i)
		}
		if ev.Stage == "" {
			return fmt.Errorf("timeline: event %d (%s) has no stage", i, ev.Label)
		}
		if ev.Day < prevDay {
			return fmt.Errorf("timeline: event %d (%s) day %d precedes day %d", i, ev.Label, ev.Day, prevDay)
		}
		prevDay = ev.Day
	}
	return nil
}

// DefaultTimeline returns the canonical 13-milestone deployment timeline.
func DefaultTimeline() Timeline {
	return Timeline{
		{Index: 0, Day: 0, Time: "12:20", Label: "Launch", Stage: StageLaunch,
			Description: "Liftoff aboard the launch vehicle with every appendage stowed."},
		{Index: 1, Day: 0, Time: "12:52", Label: "Solar Array Deployment", Stage: StageSolarArray,
			Description: "The solar array unfolds and begins powering the observatory."},
		{Index: 2, Day: 1, Time: "00:50", Label: "First Course Correction", Stage: StageCruise,
			Description: "First mid-course correction burn toward the second Lagrange point."},
		{Index: 3, Day: 1, Time: "13:50", Label: "Gimbaled Antenna Deployment", Stage: StageCruise,
			Description: "The high-gain antenna assembly swings out for downlink."},
		{Index: 4, Day: 3, Time: "12:20", Label: "Forward/Aft Sunshield Pallets Lowered", Stage: StageSunshieldPallets,
			Description: "Both sunshield pallet structures rotate down from the telescope."},
		{Index: 5, Day: 4, Time: "08:30", Label: "Tower Extension", Stage: StageTowerExtension,
			Description: "The deployable tower lifts the optics away from the spacecraft bus."},
		{Index: 6, Day: 4, Time: "18:40", Label: "Aft Momentum Flap", Stage: StageTowerExtension,
			Description: "The aft momentum flap deploys to balance solar pressure."},
		{Index: 7, Day: 5, Time: "09:30", Label: "Sunshield Covers Released", Stage: StageSunshieldRelease,
			Description: "Protective membrane covers roll back and release the layers."},
		{Index: 8, Day: 6, Time: "15:00", Label: "Sunshield Mid-Booms Extended", Stage: StageSunshieldBooms,
			Description: "Mid-booms extend on both sides, spreading the membranes to full width."},
		{Index: 9, Day: 8, Time: "11:00", Label: "Sunshield Layers Tensioned", Stage: StageSunshieldTensioning,
			Description: "All five layers are pulled taut and separated."},
		{Index: 10, Day: 10, Time: "11:30", Label: "Secondary Mirror Deployed", Stage: StageSecondaryMirror,
			Description: "The secondary mirror support structure swings out and latches."},
		{Index: 11, Day: 13, Time: "14:00", Label: "Primary Mirror Wings Latched", Stage: StagePrimaryMirror,
			Description: "Both primary mirror wings rotate into place and latch."},
		{Index: 12, Day: 29, Time: "19:00", Label: "L2 Orbit Insertion", Stage: StageComplete,
			Description: "Final burn places the observatory in orbit around the second Lagrange point."},
	}
}

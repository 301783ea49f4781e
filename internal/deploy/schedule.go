package deploy

import (
	"errors"
	"fmt"
	"math"
)

// Subsystem names one independently moving mechanism.
type Subsystem string

const (
	SubsystemSolarArray       Subsystem = "solar_array"
	SubsystemSunshieldPallet  Subsystem = "sunshield_pallet"
	SubsystemSunshieldLayers  Subsystem = "sunshield_layers"
	SubsystemSunshieldTension Subsystem = "sunshield_tension"
	SubsystemSecondaryMirror  Subsystem = "secondary_mirror"
	SubsystemPrimaryWings     Subsystem = "primary_wings"
)

// Subsystems lists every subsystem a Schedule must define, in motion order.
var Subsystems = []Subsystem{
	SubsystemSolarArray,
	SubsystemSunshieldPallet,
	SubsystemSunshieldLayers,
	SubsystemSunshieldTension,
	SubsystemSecondaryMirror,
	SubsystemPrimaryWings,
}

var subsystemLabels = map[Subsystem]string{
	SubsystemSolarArray:       "Solar Array",
	SubsystemSunshieldPallet:  "Pallet Drop",
	SubsystemSunshieldLayers:  "Layer Separation",
	SubsystemSunshieldTension: "Tensioning",
	SubsystemSecondaryMirror:  "Secondary Mirror",
	SubsystemPrimaryWings:     "Mirror Wings",
}

// Label returns a human readable name for the subsystem.
func (s Subsystem) Label() string {
	if l, ok := subsystemLabels[s]; ok {
		return l
	}
	return string(s)
}

// Window is the motion profile of one subsystem: it holds Stowed before
// Start, eases to Deployed across [Start, End), and holds Deployed after.
//
// How the scalar maps onto State depends on the subsystem:
//   - solar_array: array angle in degrees
//   - sunshield_pallet: offset applied to every layer
//   - sunshield_layers: extra offset per layer index (layer i gets i times the value)
//   - sunshield_tension, secondary_mirror: the 0..1 scalar itself
//   - primary_wings: left wing angle; the right wing mirrors it
type Window struct {
	Subsystem Subsystem `json:"subsystem"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Stowed    float64   `json:"stowed"`
	Deployed  float64   `json:"deployed"`
}

// Fraction returns the eased local progress of the window at p.
func (w Window) Fraction(p float64, ease EasingFunc) float64 {
	switch {
	case p <= w.Start:
		return 0
	case p >= w.End:
		return 1
	}
	return Clamp01(ease(Clamp01((p - w.Start) / (w.End - w.Start))))
}

// Value returns the interpolated subsystem value at p.
func (w Window) Value(p float64, ease EasingFunc) float64 {
	return lerp(w.Stowed, w.Deployed, w.Fraction(p, ease))
}

// Contains reports whether p is inside [Start, End). The final window also
// contains End when End is 1.
func (w Window) Contains(p float64) bool {
	if p == 1 && w.End == 1 {
		return true
	}
	return p >= w.Start && p < w.End
}

// Schedule is the ordered set of subsystem windows plus the easing curve
// applied to each of them.
type Schedule struct {
	Easing  string   `json:"easing"`
	Windows []Window `json:"windows"`
}

// DefaultSchedule returns the canonical phase schedule. The stowed solar
// array sits at -90 degrees and the primary mirror wings at ±90.
func DefaultSchedule() Schedule {
	return Schedule{
		Easing: EasingSmoothstep,
		Windows: []Window{
			{Subsystem: SubsystemSolarArray, Start: 0.03, End: 0.11, Stowed: -90, Deployed: 0},
			{Subsystem: SubsystemSunshieldPallet, Start: 0.21, End: 0.31, Stowed: 0, Deployed: 0.5},
			{Subsystem: SubsystemSunshieldLayers, Start: 0.36, End: 0.54, Stowed: 0, Deployed: 0.15},
			{Subsystem: SubsystemSunshieldTension, Start: 0.57, End: 0.72, Stowed: 0, Deployed: 1},
			{Subsystem: SubsystemSecondaryMirror, Start: 0.71, End: 0.85, Stowed: 0, Deployed: 1},
			{Subsystem: SubsystemPrimaryWings, Start: 0.86, End: 1.0, Stowed: 90, Deployed: 0},
		},
	}
}

// Validate checks thresholds and completeness. Windows must lie in [0,1],
// be non-empty, start in non-decreasing order, and cover every subsystem
// exactly once.
func (s Schedule) Validate() error {
	if _, err := lookupEasing(s.Easing); err != nil {
		return err
	}
	if len(s.Windows) == 0 {
		return errors.New("schedule: no windows")
	}

	seen := make(map[Subsystem]bool, len(s.Windows))
	prevStart := math.Inf(-1)
	for i, w := range s.Windows {
		if _, known := subsystemLabels[w.Subsystem]; !known {
			return fmt.Errorf("schedule: window %d: unknown subsystem %q", i, w.Subsystem)
		}
		if seen[w.Subsystem] {
			return fmt.Errorf("schedule: duplicate window for %s", w.Subsystem)
		}
		seen[w.Subsystem] = true

		for _, v := range []float64{w.Start, w.End, w.Stowed, w.Deployed} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("schedule: %s: non-finite value", w.Subsystem)
			}
		}
		if w.Start < 0 || w.End > 1 {
			return fmt.Errorf("schedule: %s: window [%g, %g) outside [0, 1]", w.Subsystem, w.Start, w.End)
		}
		if w.Start >= w.End {
			return fmt.Errorf("schedule: %s: start %g must be before end %g", w.Subsystem, w.Start, w.End)
		}
		if w.Start < prevStart {
			return fmt.Errorf("schedule: %s: start %g precedes previous window start %g", w.Subsystem, w.Start, prevStart)
		}
		prevStart = w.Start
	}

	for _, sub := range Subsystems {
		if !seen[sub] {
			return fmt.Errorf("schedule: missing window for %s", sub)
		}
	}
	return nil
}

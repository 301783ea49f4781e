// Package deploy evaluates the mechanical configuration of the observatory
// for a given mission progress value.
//
// Everything in this package is pure: an Engine holds only immutable
// configuration (a phase Schedule and a milestone Timeline) and every method
// returns a fresh value computed from its arguments.
package deploy

// LayerCount is the number of sunshield membranes.
const LayerCount = 5

// Stage identifies the named milestone phase that the timeline is in.
type Stage string

const (
	StageLaunch              Stage = "launch"
	StageSolarArray          Stage = "solar_array"
	StageCruise              Stage = "cruise"
	StageSunshieldPallets    Stage = "sunshield_pallets"
	StageTowerExtension      Stage = "tower_extension"
	StageSunshieldRelease    Stage = "sunshield_release"
	StageSunshieldBooms      Stage = "sunshield_booms"
	StageSunshieldTensioning Stage = "sunshield_tensioning"
	StageSecondaryMirror     Stage = "secondary_mirror"
	StagePrimaryMirror       Stage = "primary_mirror"
	StageComplete            Stage = "complete"
)

// State is one snapshot of the observatory's mechanical configuration.
// It is a plain value: equal progress always yields an equal State.
type State struct {
	Stage           Stage   `json:"stage"`
	OverallProgress float64 `json:"overall_progress"`

	SolarArrayAngle          float64             `json:"solar_array_angle"` // degrees, 0 = deployed
	SunshieldLayerOffsets    [LayerCount]float64 `json:"sunshield_layer_offsets"`
	SunshieldTension         float64             `json:"sunshield_tension"`          // 0..1
	SecondaryMirrorExtension float64             `json:"secondary_mirror_extension"` // 0..1
	MirrorWingRotations      [2]float64          `json:"mirror_wing_rotations"`      // degrees, left/right
}

// SubsystemFraction reports how far one subsystem has travelled through its
// own motion profile (0 = stowed, 1 = deployed), after easing.
type SubsystemFraction struct {
	Subsystem Subsystem `json:"subsystem"`
	Label     string    `json:"label"`
	Fraction  float64   `json:"fraction"`
	Active    bool      `json:"active"` // progress is inside the window
}

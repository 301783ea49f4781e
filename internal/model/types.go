package model

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/unfold/internal/deploy"
)

// RunState is the playback controller's lifecycle state.
type RunState string

const (
	Stopped RunState = "stopped"
	Playing RunState = "playing"
	Paused  RunState = "paused"
)

// Direction selects the neighbouring milestone for a step.
type Direction int

const (
	Back    Direction = -1
	Forward Direction = 1
)

func (d Direction) String() string {
	if d < 0 {
		return "back"
	}
	return "forward"
}

// ParseDirection accepts "forward"/"next"/"+1" and "back"/"prev"/"-1".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "next", "fwd", "1", "+1":
		return Forward, nil
	case "back", "backward", "prev", "previous", "-1":
		return Back, nil
	default:
		return 0, fmt.Errorf("invalid direction %q", s)
	}
}

// PlaybackState is owned by the playback controller.
type PlaybackState struct {
	RunState        RunState `json:"run_state"`
	OverallProgress float64  `json:"overall_progress"`
	IsPlaying       bool     `json:"is_playing"`
	SpeedMultiplier float64  `json:"speed_multiplier"`
}

// Snapshot is everything a consumer needs to render one frame. State is
// always the evaluation of Playback.OverallProgress.
type Snapshot struct {
	Playback   PlaybackState              `json:"playback"`
	State      deploy.State               `json:"state"`
	EventIndex int                        `json:"event_index"`
	EventCount int                        `json:"event_count"`
	Event      deploy.Event               `json:"event"`
	Fractions  []deploy.SubsystemFraction `json:"fractions"`
}

// ProfileSample is one row of the sampled motion profile.
type ProfileSample struct {
	Progress   float64      `json:"progress"`
	EventIndex int          `json:"event_index"`
	State      deploy.State `json:"state"`
}

package deploy

import (
	"fmt"
)

// Engine evaluates deployment states from a validated schedule and timeline.
// It is immutable and safe for concurrent use.
type Engine struct {
	schedule Schedule
	timeline Timeline
	ease     EasingFunc

	windows map[Subsystem]Window
}

// NewEngine validates schedule and timeline and returns an Engine over them.
func NewEngine(schedule Schedule, timeline Timeline) (*Engine, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if err := timeline.Validate(); err != nil {
		return nil, err
	}
	ease, err := lookupEasing(schedule.Easing)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		schedule: Schedule{Easing: schedule.Easing, Windows: append([]Window(nil), schedule.Windows...)},
		timeline: append(Timeline(nil), timeline...),
		ease:     ease,
		windows:  make(map[Subsystem]Window, len(schedule.Windows)),
	}
	if e.schedule.Easing == "" {
		e.schedule.Easing = EasingSmoothstep
	}
	for _, w := range e.schedule.Windows {
		e.windows[w.Subsystem] = w
	}
	return e, nil
}

var defaultEngine = mustEngine(DefaultSchedule(), DefaultTimeline())

func mustEngine(s Schedule, tl Timeline) *Engine {
	e, err := NewEngine(s, tl)
	if err != nil {
		panic(fmt.Sprintf("deploy: invalid built-in configuration: %v", err))
	}
	return e
}

// Default returns the engine over the canonical schedule and timeline.
func Default() *Engine {
	return defaultEngine
}

// Evaluate computes the deployment state for progress using the canonical
// schedule and timeline.
func Evaluate(progress float64) State {
	return defaultEngine.Evaluate(progress)
}

// Schedule returns a copy of the engine's schedule.
func (e *Engine) Schedule() Schedule {
	return Schedule{Easing: e.schedule.Easing, Windows: append([]Window(nil), e.schedule.Windows...)}
}

// Timeline returns a copy of the engine's timeline.
func (e *Engine) Timeline() Timeline {
	return append(Timeline(nil), e.timeline...)
}

// EventCount returns the number of milestones.
func (e *Engine) EventCount() int {
	return len(e.timeline)
}

// EventIndex resolves progress to a milestone index.
func (e *Engine) EventIndex(progress float64) int {
	return ResolveEventIndex(progress, len(e.timeline))
}

// EventAt returns the milestone active at progress.
func (e *Engine) EventAt(progress float64) Event {
	return e.timeline[e.EventIndex(progress)]
}

// StageAt returns the stage of the milestone active at progress.
func (e *Engine) StageAt(progress float64) Stage {
	return e.EventAt(progress).Stage
}

// MilestoneProgress returns the progress value of milestone index.
func (e *Engine) MilestoneProgress(index int) float64 {
	return MilestoneProgress(index, len(e.timeline))
}

func (e *Engine) value(sub Subsystem, p float64) float64 {
	return e.windows[sub].Value(p, e.ease)
}

// Evaluate returns the deployment state at progress. Progress outside [0,1]
// is clamped; the result is a fresh value on every call.
func (e *Engine) Evaluate(progress float64) State {
	p := Clamp01(progress)

	st := State{
		Stage:                    e.StageAt(p),
		OverallProgress:          p,
		SolarArrayAngle:          e.value(SubsystemSolarArray, p),
		SunshieldTension:         e.value(SubsystemSunshieldTension, p),
		SecondaryMirrorExtension: e.value(SubsystemSecondaryMirror, p),
	}

	pallet := e.value(SubsystemSunshieldPallet, p)
	separation := e.value(SubsystemSunshieldLayers, p)
	for i := range st.SunshieldLayerOffsets {
		st.SunshieldLayerOffsets[i] = pallet + separation*float64(i)
	}

	wings := e.windows[SubsystemPrimaryWings]
	f := wings.Fraction(p, e.ease)
	st.MirrorWingRotations[0] = lerp(wings.Stowed, wings.Deployed, f)
	st.MirrorWingRotations[1] = lerp(-wings.Stowed, -wings.Deployed, f)

	return st
}

// Fractions reports the eased local fraction of every subsystem at progress,
// in schedule order.
func (e *Engine) Fractions(progress float64) []SubsystemFraction {
	p := Clamp01(progress)
	out := make([]SubsystemFraction, 0, len(e.schedule.Windows))
	for _, w := range e.schedule.Windows {
		out = append(out, SubsystemFraction{
			Subsystem: w.Subsystem,
			Label:     w.Subsystem.Label(),
			Fraction:  w.Fraction(p, e.ease),
			Active:    w.Contains(p),
		})
	}
	return out
}

// ActiveSubsystems lists the subsystems whose window contains progress.
func (e *Engine) ActiveSubsystems(progress float64) []Subsystem {
	p := Clamp01(progress)
	var out []Subsystem
	for _, w := range e.schedule.Windows {
		if w.Contains(p) {
			out = append(out, w.Subsystem)
		}
	}
	return out
}

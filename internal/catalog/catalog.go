// Package catalog loads timeline and phase schedule overrides from YAML files.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/unfold/internal/deploy"
)

// TimelineFile is the on-disk form of a milestone timeline.
type TimelineFile struct {
	// Version is the file format version (currently "1")
	Version string       `yaml:"version"`
	Events  []EventEntry `yaml:"events"`
}

// EventEntry is one milestone. Index is implied by position.
type EventEntry struct {
	Day         int    `yaml:"day"`
	Time        string `yaml:"time"`
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
	Stage       string `yaml:"stage"`
}

// ScheduleFile is the on-disk form of a phase schedule.
type ScheduleFile struct {
	Version string        `yaml:"version"`
	Easing  string        `yaml:"easing,omitempty"`
	Windows []WindowEntry `yaml:"windows"`
}

// WindowEntry is one subsystem motion window.
type WindowEntry struct {
	Subsystem string  `yaml:"subsystem"`
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	Stowed    float64 `yaml:"stowed"`
	Deployed  float64 `yaml:"deployed"`
}

func checkVersion(v string) error {
	if v != "" && v != "1" {
		return fmt.Errorf("unsupported version: %s (supported: 1)", v)
	}
	return nil
}

// Timeline converts the file into a validated deploy.Timeline.
func (f *TimelineFile) Timeline() (deploy.Timeline, error) {
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	tl := make(deploy.Timeline, 0, len(f.Events))
	for i, ev := range f.Events {
		tl = append(tl, deploy.Event{
			Index:       i,
			Day:         ev.Day,
			Time:        ev.Time,
			Label:       ev.Label,
			Description: ev.Description,
			Stage:       deploy.Stage(ev.Stage),
		})
	}
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

// Schedule converts the file into a validated deploy.Schedule.
func (f *ScheduleFile) Schedule() (deploy.Schedule, error) {
	if err := checkVersion(f.Version); err != nil {
		return deploy.Schedule{}, err
	}
	s := deploy.Schedule{Easing: f.Easing}
	for _, w := range f.Windows {
		s.Windows = append(s.Windows, deploy.Window{
			Subsystem: deploy.Subsystem(w.Subsystem),
			Start:     w.Start,
			End:       w.End,
			Stowed:    w.Stowed,
			Deployed:  w.Deployed,
		})
	}
	if err := s.Validate(); err != nil {
		return deploy.Schedule{}, err
	}
	return s, nil
}

// LoadTimelineFile reads and validates a timeline file.
func LoadTimelineFile(path string) (deploy.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading timeline file: %w", err)
	}
	var f TimelineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing timeline file: %w", err)
	}
	tl, err := f.Timeline()
	if err != nil {
		return nil, fmt.Errorf("invalid timeline: %w", err)
	}
	return tl, nil
}

// LoadScheduleFile reads and validates a schedule file.
func LoadScheduleFile(path string) (deploy.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return deploy.Schedule{}, fmt.Errorf("reading schedule file: %w", err)
	}
	var f ScheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return deploy.Schedule{}, fmt.Errorf("parsing schedule file: %w", err)
	}
	s, err := f.Schedule()
	if err != nil {
		return deploy.Schedule{}, fmt.Errorf("invalid schedule: %w", err)
	}
	return s, nil
}

// Load builds an engine from optional override files. An empty path keeps
// the built-in timeline or schedule.
func Load(timelinePath, schedulePath string) (*deploy.Engine, error) {
	tl := deploy.DefaultTimeline()
	s := deploy.DefaultSchedule()

	var err error
	if timelinePath != "" {
		if tl, err = LoadTimelineFile(timelinePath); err != nil {
			return nil, err
		}
	}
	if schedulePath != "" {
		if s, err = LoadScheduleFile(schedulePath); err != nil {
			return nil, err
		}
	}
	return deploy.NewEngine(s, tl)
}

// EncodeTimeline renders tl in the file format LoadTimelineFile reads.
func EncodeTimeline(tl deploy.Timeline) ([]byte, error) {
	f := TimelineFile{Version: "1"}
	for _, ev := range tl {
		f.Events = append(f.Events, EventEntry{
			Day:         ev.Day,
			Time:        ev.Time,
			Label:       ev.Label,
			Description: ev.Description,
			Stage:       string(ev.Stage),
		})
	}
	return yaml.Marshal(&f)
}

// EncodeSchedule renders s in the file format LoadScheduleFile reads.
func EncodeSchedule(s deploy.Schedule) ([]byte, error) {
	f := ScheduleFile{Version: "1", Easing: s.Easing}
	for _, w := range s.Windows {
		f.Windows = append(f.Windows, WindowEntry{
			Subsystem: string(w.Subsystem),
			Start:     w.Start,
			End:       w.End,
			Stowed:    w.Stowed,
			Deployed:  w.Deployed,
		})
	}
	return yaml.Marshal(&f)
}

package playback

import (
	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// Local adapts an in-process Controller to model.Engine.
type Local struct {
	*Controller
}

var (
	_ model.Engine   = Local{}
	_ model.Notifier = Local{}
)

func (l Local) Snapshot() (model.Snapshot, error) { return l.Controller.Snapshot(), nil }
func (l Local) Timeline() (deploy.Timeline, error) { return l.Controller.Timeline(), nil }
func (l Local) Play() error { l.Controller.Play(); return nil }
func (l Local) Pause() error { l.Controller.Pause(); return nil }
func (l Local) Reset() error { l.Controller.Reset(); return nil }
func (l Local) Seek(p float64) error { l.Controller.Seek(p); return nil }
func (l Local) Step(dir model.Direction) error { l.Controller.Step(dir); return nil }
func (l Local) SetSpeed(m float64) error { l.Controller.SetSpeed(m); return nil }
func (l Local) JumpToEvent(index int) error { l.Controller.JumpToEvent(index); return nil }

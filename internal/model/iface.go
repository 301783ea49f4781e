package model

import "github.com/tinytelemetry/unfold/internal/deploy"

// Engine is the control and read contract of a playback engine. It is
// implemented by the in-process controller and by the socket RPC client.
type Engine interface {
	Snapshot() (Snapshot, error)
	Timeline() (deploy.Timeline, error)

	Play() error
	Pause() error
	Reset() error
	Seek(progress float64) error
	Step(dir Direction) error
	SetSpeed(multiplier float64) error
	JumpToEvent(index int) error
}

// Notifier delivers coalesced change notifications. Receivers pull a fresh
// Snapshot after each signal.
type Notifier interface {
	Subscribe() (<-chan struct{}, func())
}

// SchemaQuerier provides schema introspection and arbitrary read-only queries.
type SchemaQuerier interface {
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	GetSchemaDescription() string
	TableRowCounts() (map[string]int64, error)
}

// ProfileReader reads the sampled motion profile.
type ProfileReader interface {
	SchemaQuerier
	ProfileRange(from, to float64, limit int) ([]ProfileSample, error)
	Milestones() (deploy.Timeline, error)
}

// ProfileWriter replaces the stored motion profile.
type ProfileWriter interface {
	ReplaceProfile(samples []ProfileSample, timeline deploy.Timeline) error
}

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// errorDisplayDuration is how long a failed command stays in the status bar.
const errorDisplayDuration = 30 * time.Second

// DashboardModel holds the state shared by the dashboard and timeline pages.
// It never owns playback: every change goes through model.Engine and the
// next snapshot is read back from it.
type DashboardModel struct {
	engine     model.Engine
	dataSource string // "Local" or "Socket", shown in status bar

	keys     KeyMap
	help     help.Model
	progress progress.Model

	refreshInterval time.Duration
	started         bool

	snap     model.Snapshot
	hasSnap  bool
	timeline deploy.Timeline

	// Milestone selection; follows the current event until moved by hand.
	selected      int
	followCurrent bool

	width  int
	height int

	// Async tick guard to avoid overlapping snapshot fetches.
	tickInFlight bool
	lastTickAt   time.Time

	lastError   string
	lastErrorAt time.Time
}

// TickMsg represents periodic refreshes.
type TickMsg time.Time

type snapshotLoadedMsg struct {
	snap     model.Snapshot
	err      error
	fromTick bool
}

type timelineLoadedMsg struct {
	timeline deploy.Timeline
	err      error
}

type commandFailedMsg struct {
	err error
}

// NewDashboardModel creates a dashboard that reads from and controls engine.
func NewDashboardModel(engine model.Engine, refreshInterval time.Duration, dataSource string) *DashboardModel {
	if refreshInterval <= 0 {
		refreshInterval = model.DefaultRefreshInterval
	}
	return &DashboardModel{
		engine:          engine,
		dataSource:      dataSource,
		keys:            DefaultKeyMap(),
		help:            help.New(),
		progress:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		refreshInterval: refreshInterval,
		followCurrent:   true,
	}
}

// Init starts the refresh loop once; switching pages does not restart it.
func (m *DashboardModel) Init() tea.Cmd {
	if m.started {
		return nil
	}
	m.started = true
	return tea.Batch(m.fetchTimelineCmd(), m.fetchSnapshotCmd(false), m.tickCmd())
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *DashboardModel) fetchSnapshotCmd(fromTick bool) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		snap, err := eng.Snapshot()
		return snapshotLoadedMsg{snap: snap, err: err, fromTick: fromTick}
	}
}

func (m *DashboardModel) fetchTimelineCmd() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		tl, err := eng.Timeline()
		return timelineLoadedMsg{timeline: tl, err: err}
	}
}

// commandCmd runs op against the engine off the UI goroutine and reads the
// resulting snapshot back.
func (m *DashboardModel) commandCmd(op func(model.Engine) error) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		if err := op(eng); err != nil {
			return commandFailedMsg{err: err}
		}
		snap, err := eng.Snapshot()
		return snapshotLoadedMsg{snap: snap, err: err}
	}
}

func (m *DashboardModel) setError(err error) {
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
}

func (m *DashboardModel) currentError() string {
	if m.lastError == "" || time.Since(m.lastErrorAt) > errorDisplayDuration {
		return ""
	}
	return m.lastError
}

func (m *DashboardModel) applySnapshot(snap model.Snapshot) {
	m.snap = snap
	m.hasSnap = true
	m.lastTickAt = time.Now()
	if m.followCurrent {
		m.selected = snap.EventIndex
	}
}

func (m *DashboardModel) eventCount() int {
	if len(m.timeline) > 0 {
		return len(m.timeline)
	}
	return m.snap.EventCount
}

func (m *DashboardModel) moveSelection(delta int) {
	n := m.eventCount()
	if n == 0 {
		return
	}
	m.followCurrent = false
	m.selected = min(max(m.selected+delta, 0), n-1)
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/unfold/internal/model"
)

// Update implements tea.Model so the dashboard can run without an App.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd, _ := m.update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *DashboardModel) View() string {
	return m.renderDashboard(m.width, m.height)
}

func (m *DashboardModel) update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return nil, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case TickMsg:
		if m.tickInFlight {
			return m.tickCmd(), nil
		}
		m.tickInFlight = true
		return tea.Batch(m.fetchSnapshotCmd(true), m.tickCmd()), nil

	case snapshotLoadedMsg:
		if msg.fromTick {
			m.tickInFlight = false
		}
		if msg.err != nil {
			m.setError(msg.err)
			return nil, nil
		}
		m.applySnapshot(msg.snap)
		return nil, nil

	case timelineLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return nil, nil
		}
		m.timeline = msg.timeline
		return nil, nil

	case commandFailedMsg:
		m.setError(msg.err)
		return nil, nil
	}
	return nil, nil
}

func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		return tea.Quit, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil, nil

	case key.Matches(msg, m.keys.NextPage):
		return nil, &PageNav{PageID: NextPage}

	case key.Matches(msg, m.keys.PlayPause):
		if m.snap.Playback.IsPlaying {
			return m.commandCmd(model.Engine.Pause), nil
		}
		return m.commandCmd(model.Engine.Play), nil

	case key.Matches(msg, m.keys.StepBack):
		m.followCurrent = true
		return m.commandCmd(func(e model.Engine) error { return e.Step(model.Back) }), nil

	case key.Matches(msg, m.keys.StepFwd):
		m.followCurrent = true
		return m.commandCmd(func(e model.Engine) error { return e.Step(model.Forward) }), nil

	case key.Matches(msg, m.keys.Reset):
		m.followCurrent = true
		return m.commandCmd(model.Engine.Reset), nil

	case key.Matches(msg, m.keys.Faster):
		return m.setSpeedCmd(2), nil

	case key.Matches(msg, m.keys.Slower):
		return m.setSpeedCmd(0.5), nil

	case key.Matches(msg, m.keys.SeekTenth):
		tenth := float64(msg.String()[0]-'0') / 10
		return m.seekCmd(tenth), nil

	case key.Matches(msg, m.keys.Start):
		return m.seekCmd(0), nil

	case key.Matches(msg, m.keys.End):
		return m.seekCmd(1), nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return nil, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return nil, nil

	case key.Matches(msg, m.keys.Jump):
		idx := m.selected
		m.followCurrent = true
		return m.commandCmd(func(e model.Engine) error { return e.JumpToEvent(idx) }), nil
	}
	return nil, nil
}

func (m *DashboardModel) seekCmd(progress float64) tea.Cmd {
	m.followCurrent = true
	return m.commandCmd(func(e model.Engine) error { return e.Seek(progress) })
}

// setSpeedCmd scales the last known multiplier; the engine clamps the result.
func (m *DashboardModel) setSpeedCmd(factor float64) tea.Cmd {
	current := m.snap.Playback.SpeedMultiplier
	if current <= 0 {
		current = model.DefaultSpeed
	}
	next := current * factor
	return m.commandCmd(func(e model.Engine) error { return e.SetSpeed(next) })
}

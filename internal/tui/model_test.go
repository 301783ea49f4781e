package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
	"github.com/tinytelemetry/unfold/internal/playback"
)

// stillTicks never fires, so playback only moves when a test says so.
func stillTicks(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

func newTestDashboard(t *testing.T) (*DashboardModel, *playback.Controller) {
	t.Helper()
	ctrl := playback.New(nil, playback.Config{}, playback.WithTickSource(stillTicks))
	t.Cleanup(ctrl.Close)

	m := NewDashboardModel(playback.Local{Controller: ctrl}, time.Second, "Local")
	runCmd(t, m, m.fetchTimelineCmd())
	runCmd(t, m, m.fetchSnapshotCmd(false))
	return m, ctrl
}

// runCmd executes a single command synchronously and feeds its message back.
func runCmd(t *testing.T, m *DashboardModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	m.update(cmd())
}

func press(t *testing.T, m *DashboardModel, k tea.KeyMsg) (tea.Cmd, *PageNav) {
	t.Helper()
	return m.update(k)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboardLoadsInitialState(t *testing.T) {
	m, _ := newTestDashboard(t)

	if !m.hasSnap {
		t.Fatal("expected snapshot after initial fetch")
	}
	if len(m.timeline) != 13 {
		t.Fatalf("timeline length = %d, want 13", len(m.timeline))
	}
	if m.snap.Playback.RunState != model.Stopped {
		t.Fatalf("run state = %q, want stopped", m.snap.Playback.RunState)
	}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	m, ctrl := newTestDashboard(t)

	cmd, _ := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.RunState; got != model.Playing {
		t.Fatalf("after first space: run state = %q, want playing", got)
	}
	if !m.snap.Playback.IsPlaying {
		t.Fatal("dashboard snapshot should report playing")
	}

	cmd, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.RunState; got != model.Paused {
		t.Fatalf("after second space: run state = %q, want paused", got)
	}
}

func TestDigitSeeksToTenths(t *testing.T) {
	m, ctrl := newTestDashboard(t)

	cmd, _ := press(t, m, runes("4"))
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.OverallProgress; got != 0.4 {
		t.Fatalf("progress = %v, want 0.4", got)
	}
	if m.snap.Playback.OverallProgress != 0.4 {
		t.Fatalf("dashboard progress = %v, want 0.4", m.snap.Playback.OverallProgress)
	}

	cmd, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.OverallProgress; got != 1 {
		t.Fatalf("progress after end = %v, want 1", got)
	}

	cmd, _ = press(t, m, tea.KeyMsg{Type: tea.KeyHome})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.OverallProgress; got != 0 {
		t.Fatalf("progress after home = %v, want 0", got)
	}
}

func TestArrowsStepMilestones(t *testing.T) {
	m, ctrl := newTestDashboard(t)

	cmd, _ := press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	runCmd(t, m, cmd)
	cmd, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().EventIndex; got != 2 {
		t.Fatalf("event index = %d, want 2", got)
	}

	cmd, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().EventIndex; got != 1 {
		t.Fatalf("event index = %d, want 1", got)
	}
	if m.selected != 1 {
		t.Fatalf("selection = %d, want to follow current event 1", m.selected)
	}
}

func TestSelectAndJump(t *testing.T) {
	m, ctrl := newTestDashboard(t)

	for i := 0; i < 3; i++ {
		press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 2 {
		t.Fatalf("selection = %d, want 2", m.selected)
	}
	// A refresh must not steal a manual selection.
	runCmd(t, m, m.fetchSnapshotCmd(true))
	if m.selected != 2 {
		t.Fatalf("selection after refresh = %d, want 2", m.selected)
	}

	cmd, _ := press(t, m, runes("g"))
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.OverallProgress; got != deploy.MilestoneProgress(2, 13) {
		t.Fatalf("progress = %v, want milestone 2", got)
	}
	if m.snap.EventIndex != 2 {
		t.Fatalf("event index = %d, want 2", m.snap.EventIndex)
	}
}

func TestSelectionClampsToTimeline(t *testing.T) {
	m, _ := newTestDashboard(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Fatalf("selection = %d, want 0", m.selected)
	}
	for i := 0; i < 20; i++ {
		press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.selected != 12 {
		t.Fatalf("selection = %d, want 12", m.selected)
	}
}

func TestSpeedKeys(t *testing.T) {
	m, ctrl := newTestDashboard(t)

	cmd, _ := press(t, m, runes("+"))
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.SpeedMultiplier; got != 2 {
		t.Fatalf("speed = %v, want 2", got)
	}

	cmd, _ = press(t, m, runes("-"))
	runCmd(t, m, cmd)
	cmd, _ = press(t, m, runes("-"))
	runCmd(t, m, cmd)
	if got := ctrl.Snapshot().Playback.SpeedMultiplier; got != 0.5 {
		t.Fatalf("speed = %v, want 0.5", got)
	}
}

func TestStatusBarShowsHalvedSpeed(t *testing.T) {
	m, ctrl := newTestDashboard(t)
	m.update(tea.WindowSizeMsg{Width: 120, Height: 40})

	for range 3 {
		cmd, _ := press(t, m, runes("-"))
		runCmd(t, m, cmd)
	}
	if got := ctrl.Snapshot().Playback.SpeedMultiplier; got != 0.125 {
		t.Fatalf("speed = %v, want 0.125", got)
	}
	runCmd(t, m, m.fetchSnapshotCmd(false))
	if view := m.View(); !strings.Contains(view, "0.13x") {
		t.Fatal("status bar missing rounded speed 0.13x")
	}
}

func TestResetKey(t *testing.T) {
	m, ctrl := newTestDashboard(t)
	ctrl.Seek(0.7)

	cmd, _ := press(t, m, runes("r"))
	runCmd(t, m, cmd)
	pb := ctrl.Snapshot().Playback
	if pb.RunState != model.Stopped || pb.OverallProgress != 0 {
		t.Fatalf("after reset = %+v, want stopped at 0", pb)
	}
}

func TestTickGuardsOverlappingFetches(t *testing.T) {
	m, _ := newTestDashboard(t)

	m.update(TickMsg(time.Now()))
	if !m.tickInFlight {
		t.Fatal("expected tick fetch in flight")
	}
	m.update(TickMsg(time.Now()))
	if !m.tickInFlight {
		t.Fatal("second tick should leave the first fetch in flight")
	}
	m.update(snapshotLoadedMsg{snap: m.snap, fromTick: true})
	if m.tickInFlight {
		t.Fatal("tick fetch should be cleared after snapshot arrives")
	}
}

func TestInitStartsOnce(t *testing.T) {
	m, _ := newTestDashboard(t)

	if m.Init() == nil {
		t.Fatal("first Init should start the refresh loop")
	}
	if m.Init() != nil {
		t.Fatal("second Init should not start another loop")
	}
}

func TestCommandErrorShownInStatusBar(t *testing.T) {
	m, _ := newTestDashboard(t)
	m.width = 120

	m.update(commandFailedMsg{err: errors.New("socketrpc: connection closed")})
	if got := m.currentError(); got != "socketrpc: connection closed" {
		t.Fatalf("currentError = %q", got)
	}
	if !strings.Contains(m.View(), "connection closed") {
		t.Fatal("status bar should show the last error")
	}

	m.lastErrorAt = time.Now().Add(-2 * errorDisplayDuration)
	if got := m.currentError(); got != "" {
		t.Fatalf("stale error still shown: %q", got)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestDashboard(t)

	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		cmd, _ := press(t, m, k)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestDashboardViewShowsEvent(t *testing.T) {
	m, ctrl := newTestDashboard(t)
	m.update(tea.WindowSizeMsg{Width: 120, Height: 40})

	ctrl.JumpToEvent(12)
	runCmd(t, m, m.fetchSnapshotCmd(false))

	view := m.View()
	last := deploy.DefaultTimeline()[12]
	if !strings.Contains(view, last.Label) {
		t.Fatalf("view missing event label %q", last.Label)
	}
	if !strings.Contains(view, "13/13") {
		t.Fatal("view missing event counter")
	}
	if !strings.Contains(view, "Subsystems") {
		t.Fatal("view missing subsystem chart")
	}
}

func TestLoadingPlaceholderBeforeFirstSnapshot(t *testing.T) {
	m := NewDashboardModel(nil, 0, "Local")
	if m.refreshInterval != model.DefaultRefreshInterval {
		t.Fatalf("refresh interval = %v, want default", m.refreshInterval)
	}
	if !strings.Contains(m.renderDashboard(80, 10), "Connecting") {
		t.Fatal("expected loading placeholder")
	}
}

func TestAppCyclesPages(t *testing.T) {
	m, _ := newTestDashboard(t)
	app := NewApp(NewDashboardPage(m), NewTimelinePage(m))

	if app.ActivePage() != PageDashboard {
		t.Fatalf("active page = %q, want dashboard", app.ActivePage())
	}
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if app.ActivePage() != PageTimeline {
		t.Fatalf("active page = %q, want timeline", app.ActivePage())
	}
	view := app.View()
	for _, ev := range deploy.DefaultTimeline()[:3] {
		if !strings.Contains(view, ev.Label) {
			t.Fatalf("timeline page missing %q", ev.Label)
		}
	}
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if app.ActivePage() != PageDashboard {
		t.Fatalf("active page = %q, want dashboard after wrap", app.ActivePage())
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{2.5, "2.5"},
		{0.125, "0.13"},
		{0.0625, "0.06"},
		{0.1, "0.1"},
		{1.005, "1"},
		{1000, "1000"},
	}
	for _, tt := range tests {
		if got := formatSpeed(tt.in); got != tt.want {
			t.Errorf("formatSpeed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

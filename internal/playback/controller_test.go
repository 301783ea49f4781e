package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// manualTicks records every ticker the controller starts so tests can fire
// ticks deterministically.
type manualTicks struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped int
}

func (m *manualTicks) source(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time)
	m.chans = append(m.chans, ch)
	return ch, func() {
		m.mu.Lock()
		m.stopped++
		m.mu.Unlock()
	}
}

func (m *manualTicks) last(t *testing.T) chan time.Time {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chans) == 0 {
		t.Fatal("no ticker started")
	}
	return m.chans[len(m.chans)-1]
}

func (m *manualTicks) started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

func newManual(t *testing.T, cfg Config) (*Controller, *manualTicks) {
	t.Helper()
	mt := &manualTicks{}
	c := New(nil, cfg, WithTickSource(mt.source))
	t.Cleanup(c.Close)
	return c, mt
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	snap := c.Snapshot()
	assert.Equal(t, model.Stopped, snap.Playback.RunState)
	assert.Equal(t, 0.0, snap.Playback.OverallProgress)
	assert.False(t, snap.Playback.IsPlaying)
	assert.Equal(t, model.DefaultSpeed, snap.Playback.SpeedMultiplier)
	assert.Equal(t, deploy.Evaluate(0), snap.State)
	assert.Equal(t, 13, snap.EventCount)
	assert.Equal(t, "Launch", snap.Event.Label)
}

func TestTickAccumulates(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{StepUnit: 1, TotalUnits: 300, Speed: 2})
	c.Play()
	const k = 25
	for i := 0; i < k; i++ {
		require.True(t, c.Tick())
	}
	snap := c.Snapshot()
	assert.InDelta(t, k*2.0*1/300, snap.Playback.OverallProgress, 1e-9)
	assert.Equal(t, deploy.Evaluate(snap.Playback.OverallProgress), snap.State)
	assert.Equal(t, model.Playing, snap.Playback.RunState)
}

func TestTickIgnoredUnlessPlaying(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	assert.False(t, c.Tick())
	c.Seek(0.3)
	assert.False(t, c.Tick())
	assert.Equal(t, 0.3, c.Snapshot().Playback.OverallProgress)
}

func TestReachingEndStops(t *testing.T) {
	t.Parallel()

	c, mt := newManual(t, Config{StepUnit: 1, TotalUnits: 4})
	c.Play()
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	snap := c.Snapshot()
	assert.Equal(t, 1.0, snap.Playback.OverallProgress)
	assert.Equal(t, model.Stopped, snap.Playback.RunState)
	assert.Equal(t, deploy.StageComplete, snap.State.Stage)
	assert.False(t, c.Tick())

	// Play at the end replays from the start.
	c.Play()
	snap = c.Snapshot()
	assert.Equal(t, model.Playing, snap.Playback.RunState)
	assert.Equal(t, 0.0, snap.Playback.OverallProgress)
	assert.Equal(t, 2, mt.started())
}

func TestPlayIsNoOpWhilePlaying(t *testing.T) {
	t.Parallel()

	c, mt := newManual(t, Config{})
	c.Play()
	c.Play()
	assert.Equal(t, 1, mt.started())
}

func TestPauseAndResetIdempotent(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{TotalUnits: 10})
	c.Play()
	c.Tick()
	c.Pause()
	first := c.Snapshot()
	c.Pause()
	assert.Equal(t, first, c.Snapshot())
	assert.Equal(t, model.Paused, first.Playback.RunState)
	assert.InDelta(t, 0.1, first.Playback.OverallProgress, 1e-12)

	c.Reset()
	afterReset := c.Snapshot()
	c.Reset()
	assert.Equal(t, afterReset, c.Snapshot())
	assert.Equal(t, model.Stopped, afterReset.Playback.RunState)
	assert.Equal(t, 0.0, afterReset.Playback.OverallProgress)
}

func TestSeekBeforeTickWins(t *testing.T) {
	t.Parallel()

	c, mt := newManual(t, Config{StepUnit: 1, TotalUnits: 100})
	sub, cancel := c.Subscribe()
	defer cancel()

	c.Seek(0.40)
	c.Play()
	waitSignal(t, sub)

	c.Seek(0.90)
	mt.last(t) <- time.Now()
	waitSignal(t, sub)

	require.Eventually(t, func() bool {
		return c.Snapshot().Playback.OverallProgress > 0.9
	}, 2*time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0.91, c.Snapshot().Playback.OverallProgress, 1e-9)
	assert.Equal(t, model.Playing, c.Snapshot().Playback.RunState)
}

func TestSeekClampsAndPausesWhenIdle(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	c.Seek(1.7)
	snap := c.Snapshot()
	assert.Equal(t, 1.0, snap.Playback.OverallProgress)
	assert.Equal(t, model.Paused, snap.Playback.RunState)

	c.Seek(-2)
	assert.Equal(t, 0.0, c.Snapshot().Playback.OverallProgress)
}

func TestStepBetweenMilestones(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	n := c.Engine().EventCount()
	m := func(i int) float64 { return deploy.MilestoneProgress(i, n) }

	c.Step(model.Forward)
	assert.Equal(t, m(1), c.Snapshot().Playback.OverallProgress)

	// Between milestones 3 and 4.
	c.Seek((m(3) + m(4)) / 2)
	c.Step(model.Forward)
	assert.Equal(t, m(4), c.Snapshot().Playback.OverallProgress)

	c.Seek((m(3) + m(4)) / 2)
	c.Step(model.Back)
	assert.Equal(t, m(3), c.Snapshot().Playback.OverallProgress)

	// Exactly on a milestone, back goes to the previous one.
	c.Step(model.Back)
	assert.Equal(t, m(2), c.Snapshot().Playback.OverallProgress)

	c.Reset()
	c.Step(model.Back)
	assert.Equal(t, 0.0, c.Snapshot().Playback.OverallProgress)

	c.Seek(1)
	c.Step(model.Forward)
	assert.Equal(t, 1.0, c.Snapshot().Playback.OverallProgress)
}

func TestStepPausesPlayback(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	c.Play()
	c.Step(model.Forward)
	snap := c.Snapshot()
	assert.Equal(t, model.Paused, snap.Playback.RunState)
	assert.Equal(t, 1, snap.EventIndex)
	assert.False(t, c.Tick())
}

func TestJumpToEvent(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	c.JumpToEvent(6)
	snap := c.Snapshot()
	assert.Equal(t, 6, snap.EventIndex)
	assert.Equal(t, 6, snap.Event.Index)
	assert.Equal(t, 0.5, snap.Playback.OverallProgress)

	c.JumpToEvent(99)
	assert.Equal(t, 12, c.Snapshot().EventIndex)
	c.JumpToEvent(-1)
	assert.Equal(t, 0, c.Snapshot().EventIndex)
}

func TestSetSpeedClamps(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{TotalUnits: 100})
	tests := []struct {
		in, want float64
	}{
		{4, 4},
		{0, model.MinSpeed},
		{-3, model.MinSpeed},
		{1e9, model.MaxSpeed},
	}
	for _, tc := range tests {
		c.SetSpeed(tc.in)
		if got := c.Snapshot().Playback.SpeedMultiplier; got != tc.want {
			t.Fatalf("SetSpeed(%v) -> %v, want %v", tc.in, got, tc.want)
		}
	}

	c.SetSpeed(0.5)
	c.Play()
	c.Tick()
	assert.InDelta(t, 0.005, c.Snapshot().Playback.OverallProgress, 1e-12)
}

func TestStaleTaskTickIsIgnored(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	c.Play()
	c.mu.Lock()
	stale := c.task
	c.mu.Unlock()

	c.Pause()
	c.tickFrom(stale)
	assert.Equal(t, 0.0, c.Snapshot().Playback.OverallProgress)

	c.Play()
	c.tickFrom(stale)
	assert.Equal(t, 0.0, c.Snapshot().Playback.OverallProgress)
}

func TestSubscribeCoalesces(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	sub, cancel := c.Subscribe()
	c.Seek(0.1)
	c.Seek(0.2)
	c.Seek(0.3)

	waitSignal(t, sub)
	select {
	case <-sub:
		t.Fatal("expected notifications to coalesce")
	default:
	}

	cancel()
	cancel()
	_, ok := <-sub
	assert.False(t, ok, "channel should be closed after cancel")
}

func TestCloseStopsTickerAndSubscriptions(t *testing.T) {
	t.Parallel()

	c := New(nil, Config{TickInterval: time.Millisecond, TotalUnits: 1e6})
	sub, cancel := c.Subscribe()
	defer cancel()

	c.Play()
	require.Eventually(t, func() bool {
		return c.Snapshot().Playback.OverallProgress > 0
	}, 2*time.Second, time.Millisecond)

	c.Close()
	c.Close()
	frozen := c.Snapshot().Playback.OverallProgress
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frozen, c.Snapshot().Playback.OverallProgress)

	for range sub {
	}

	c.Play()
	c.Seek(0.5)
	assert.Equal(t, frozen, c.Snapshot().Playback.OverallProgress)

	late, lateCancel := c.Subscribe()
	defer lateCancel()
	_, ok := <-late
	assert.False(t, ok)
}

func TestPauseStopsTicker(t *testing.T) {
	t.Parallel()

	c, mt := newManual(t, Config{})
	c.Play()
	c.Pause()
	require.Eventually(t, func() bool {
		mt.mu.Lock()
		defer mt.mu.Unlock()
		return mt.stopped == 1
	}, 2*time.Second, time.Millisecond)
}

func TestLocalImplementsEngine(t *testing.T) {
	t.Parallel()

	c, _ := newManual(t, Config{})
	var eng model.Engine = Local{c}

	require.NoError(t, eng.Seek(0.25))
	require.NoError(t, eng.SetSpeed(3))
	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.25, snap.Playback.OverallProgress)
	assert.Equal(t, 3.0, snap.Playback.SpeedMultiplier)

	tl, err := eng.Timeline()
	require.NoError(t, err)
	assert.Len(t, tl, 13)
}

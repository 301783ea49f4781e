// Package playback owns mission progress over time. A Controller advances
// progress on a fixed tick while playing and accepts play, pause, seek,
// reset, step, speed and jump commands from any goroutine.
package playback

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// stepEpsilon decides whether progress is strictly past a milestone.
const stepEpsilon = 1e-9

// Config holds the controller's tick parameters. Zero values take the
// defaults from the model package.
type Config struct {
	TickInterval time.Duration
	StepUnit     float64
	TotalUnits   float64
	Speed        float64
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = model.DefaultTickInterval
	}
	if c.StepUnit <= 0 || math.IsNaN(c.StepUnit) {
		c.StepUnit = model.DefaultStepUnit
	}
	if c.TotalUnits <= 0 || math.IsNaN(c.TotalUnits) {
		c.TotalUnits = model.DefaultTotalUnits
	}
	if c.Speed == 0 {
		c.Speed = model.DefaultSpeed
	}
	c.Speed = clampSpeed(c.Speed)
	return c
}

// TickSource starts a periodic timer and returns its channel and a stop func.
type TickSource func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithTickSource replaces the wall-clock ticker.
func WithTickSource(ts TickSource) Option {
	return func(c *Controller) {
		if ts != nil {
			c.newTicker = ts
		}
	}
}

// tickTask is one scheduled run of the tick loop. It is created on play and
// stopped exactly once on pause, reset, step, finish or close.
type tickTask struct {
	done     chan struct{}
	stopOnce sync.Once
}

func (t *tickTask) stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

// Controller is the playback state machine: stopped, playing or paused.
type Controller struct {
	engine    *deploy.Engine
	cfg       Config
	log       zerolog.Logger
	newTicker TickSource

	mu       sync.Mutex
	state    model.RunState
	progress float64
	speed    float64
	task     *tickTask
	closed   bool
	subs     map[int]chan struct{}
	nextSub  int

	wg sync.WaitGroup
}

// New returns a stopped controller at progress 0. A nil engine uses the
// canonical schedule and timeline.
func New(engine *deploy.Engine, cfg Config, opts ...Option) *Controller {
	if engine == nil {
		engine = deploy.Default()
	}
	cfg = cfg.withDefaults()
	c := &Controller{
		engine:    engine,
		cfg:       cfg,
		log:       zerolog.Nop(),
		newTicker: realTicker,
		state:     model.Stopped,
		speed:     cfg.Speed,
		subs:      make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the evaluator the controller renders snapshots with.
func (c *Controller) Engine() *deploy.Engine {
	return c.engine
}

// Play starts ticking. From progress 1 it replays from 0. No-op if playing.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == model.Playing {
		return
	}
	if c.progress >= 1 {
		c.progress = 0
	}
	c.state = model.Playing
	c.startTaskLocked()
	c.log.Debug().Float64("progress", c.progress).Float64("speed", c.speed).Msg("playback: play")
	c.notifyLocked()
}

// Pause stops ticking and keeps progress. No-op unless playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != model.Playing {
		return
	}
	c.stopTaskLocked()
	c.state = model.Paused
	c.log.Debug().Float64("progress", c.progress).Msg("playback: pause")
	c.notifyLocked()
}

// Reset stops playback and rewinds to 0.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTaskLocked()
	c.state = model.Stopped
	c.progress = 0
	c.log.Debug().Msg("playback: reset")
	c.notifyLocked()
}

// Seek moves progress to p, clamped to [0,1]. Playback keeps ticking from
// the new value; a stopped or paused controller ends up paused.
func (c *Controller) Seek(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seekLocked(p)
}

func (c *Controller) seekLocked(p float64) {
	c.progress = deploy.Clamp01(p)
	if c.state != model.Playing {
		c.state = model.Paused
	}
	c.log.Debug().Float64("progress", c.progress).Str("state", string(c.state)).Msg("playback: seek")
	c.notifyLocked()
}

// JumpToEvent seeks to the exact progress of milestone index (clamped).
func (c *Controller) JumpToEvent(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seekLocked(c.engine.MilestoneProgress(index))
}

// Step pauses and moves to a neighbouring milestone. Back from between two
// milestones lands on the one just passed.
func (c *Controller) Step(dir model.Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	idx := c.engine.EventIndex(c.progress)
	target := idx + 1
	if dir < 0 {
		target = idx - 1
		if c.progress > c.engine.MilestoneProgress(idx)+stepEpsilon {
			target = idx
		}
	}
	target = max(0, min(target, c.engine.EventCount()-1))

	c.stopTaskLocked()
	c.state = model.Paused
	c.progress = c.engine.MilestoneProgress(target)
	c.log.Debug().Int("event", target).Str("direction", dir.String()).Msg("playback: step")
	c.notifyLocked()
}

// SetSpeed sets the multiplier applied to future ticks. Zero, negative and
// NaN values become MinSpeed; values above MaxSpeed are capped.
func (c *Controller) SetSpeed(m float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.speed = clampSpeed(m)
	c.log.Debug().Float64("speed", c.speed).Msg("playback: speed")
	c.notifyLocked()
}

func clampSpeed(m float64) float64 {
	if math.IsNaN(m) || m <= 0 {
		return model.MinSpeed
	}
	if m > model.MaxSpeed {
		return model.MaxSpeed
	}
	return m
}

// Tick advances progress by one tick while playing and reports whether it
// did. Reaching 1 stops playback.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != model.Playing {
		return false
	}
	c.advanceLocked()
	return true
}

func (c *Controller) advanceLocked() {
	delta := c.speed * c.cfg.StepUnit / c.cfg.TotalUnits
	c.progress = math.Min(1, c.progress+delta)
	if c.progress >= 1 {
		c.progress = 1
		c.stopTaskLocked()
		c.state = model.Stopped
		c.log.Debug().Msg("playback: finished")
	}
	c.notifyLocked()
}

func (c *Controller) startTaskLocked() {
	c.stopTaskLocked()
	task := &tickTask{done: make(chan struct{})}
	c.task = task
	ch, stop := c.newTicker(c.cfg.TickInterval)
	c.wg.Add(1)
	go c.run(task, ch, stop)
}

func (c *Controller) stopTaskLocked() {
	if c.task != nil {
		c.task.stop()
		c.task = nil
	}
}

func (c *Controller) run(task *tickTask, ticks <-chan time.Time, stop func()) {
	defer c.wg.Done()
	defer stop()
	for {
		select {
		case <-task.done:
			return
		case <-ticks:
			c.tickFrom(task)
		}
	}
}

// tickFrom applies a scheduled tick unless task has been cancelled since the
// timer fired.
func (c *Controller) tickFrom(task *tickTask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.task != task || c.state != model.Playing {
		return
	}
	c.advanceLocked()
}

// Snapshot returns the playback state together with a fresh evaluation of
// the current progress.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	pb := model.PlaybackState{
		RunState:        c.state,
		OverallProgress: c.progress,
		IsPlaying:       c.state == model.Playing,
		SpeedMultiplier: c.speed,
	}
	c.mu.Unlock()

	idx := c.engine.EventIndex(pb.OverallProgress)
	return model.Snapshot{
		Playback:   pb,
		State:      c.engine.Evaluate(pb.OverallProgress),
		EventIndex: idx,
		EventCount: c.engine.EventCount(),
		Event:      c.engine.EventAt(pb.OverallProgress),
		Fractions:  c.engine.Fractions(pb.OverallProgress),
	}
}

// Timeline returns the milestone list.
func (c *Controller) Timeline() deploy.Timeline {
	return c.engine.Timeline()
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees at least one pending signal, never a
// backlog. The channel is closed by the returned cancel func or by Close.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan struct{}, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close cancels the tick task, waits for it to exit and closes every
// subscription. Later commands are ignored. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTaskLocked()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.log.Debug().Msg("playback: closed")
}

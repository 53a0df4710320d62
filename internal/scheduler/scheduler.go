// Package scheduler implements lookahead scheduling: a coarse, jittery
// timer wakes the scheduler often, and each wake-up registers every tick
// that falls inside a short window ahead of the audio clock. The audio
// device, not the timer, decides when each sound actually starts.
package scheduler

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cbegin/solfa-go/internal/tempo"
)

const (
	// DefaultLookahead is the timer period.
	DefaultLookahead = 25 * time.Millisecond
	// DefaultScheduleAhead is the window, in seconds, filled on each wake-up.
	DefaultScheduleAhead = 0.1
	// DefaultStartDelay keeps the first tick out of the past.
	DefaultStartDelay = 0.1
)

// Clock is a monotonic time source in seconds.
type Clock interface {
	Now() float64
}

// Event is one scheduled tick.
type Event struct {
	Time      float64
	BeatIndex int
	Role      tempo.Role
	Timbre    tempo.Timbre
}

// Emitter realizes events as sound.
type Emitter interface {
	Emit(ev Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event) error

func (f EmitterFunc) Emit(ev Event) error { return f(ev) }

// State is the position of the scheduler on the audio clock.
type State struct {
	NextEventTime float64
	BeatIndex     int
}

// Fill emits every tick before horizon and returns the advanced state. It
// stops at the first emission error, returning the state of the failed
// tick.
func Fill(st State, cfg tempo.Config, horizon float64, emit func(Event) error) (State, error) {
	for st.NextEventTime < horizon {
		ev := Event{
			Time:      st.NextEventTime,
			BeatIndex: st.BeatIndex,
			Role:      tempo.Classify(st.BeatIndex, cfg),
			Timbre:    cfg.Timbre,
		}
		if err := emit(ev); err != nil {
			return st, err
		}
		st.NextEventTime += cfg.TickSeconds()
		st.BeatIndex = tempo.Advance(st.BeatIndex, cfg)
	}
	return st, nil
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithLookahead sets the timer period.
func WithLookahead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

// WithScheduleAhead sets the window, in seconds, filled on each wake-up.
func WithScheduleAhead(sec float64) Option {
	return func(s *Scheduler) {
		if sec > 0 {
			s.scheduleAhead = sec
		}
	}
}

// WithTicker replaces the wall-clock ticker, mainly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(s *Scheduler) {
		s.newTicker = newTicker
	}
}

// WithObserver registers a callback for every emitted event. It runs on
// the scheduler goroutine with the scheduler locked; it must not call back
// into the scheduler.
func WithObserver(fn func(Event)) Option {
	return func(s *Scheduler) {
		s.observe = fn
	}
}

// WithHaltHandler registers a callback invoked when an emission error
// stops playback.
func WithHaltHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onHalt = fn
	}
}

// Scheduler drives a repeating metronome. One playback session runs at a
// time; Start and Stop are idempotent.
type Scheduler struct {
	clock         Clock
	emitter       Emitter
	logger        *slog.Logger
	lookahead     time.Duration
	scheduleAhead float64
	startDelay    float64
	newTicker     func(time.Duration) Ticker
	observe       func(Event)
	onHalt        func(error)

	mu    sync.Mutex
	cfg   tempo.Config
	state State
	task  *Task
	gen   uint64
	err   error
}

func New(clock Clock, emitter Emitter, cfg tempo.Config, opts ...Option) (*Scheduler, error) {
	if clock == nil || emitter == nil {
		return nil, errors.New("scheduler: clock and emitter are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		clock:         clock,
		emitter:       emitter,
		logger:        slog.Default(),
		lookahead:     DefaultLookahead,
		scheduleAhead: DefaultScheduleAhead,
		startDelay:    DefaultStartDelay,
		newTicker:     NewTimeTicker,
		cfg:           cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) Config() tempo.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the configuration. Ticks already emitted are not
// moved; the next tick is spaced and classified with cfg.
func (s *Scheduler) SetConfig(cfg tempo.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil
}

// Err returns the emission error that last halted playback, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start resets the beat position, fills the first window immediately and
// begins waking every lookahead period. It is a no-op while running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		return nil
	}
	s.err = nil
	s.state = State{NextEventTime: s.clock.Now() + s.startDelay}
	if err := s.fillLocked(); err != nil {
		s.err = err
		return err
	}
	s.gen++
	gen := s.gen
	s.task = Repeat(s.newTicker(s.lookahead), func() bool {
		return s.wake(gen)
	})
	s.logger.Debug("scheduler started", "config", s.cfg.String(), "first_tick", s.state.NextEventTime)
	return nil
}

// Stop cancels future wake-ups. Ticks already handed to the emitter play
// out. When Stop returns no further events are emitted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	task := s.task
	s.task = nil
	s.mu.Unlock()
	if task == nil {
		return
	}
	task.Stop()
	s.logger.Debug("scheduler stopped")
}

// Wake runs one scheduling pass outside the timer, for callers that drive
// time themselves. It does nothing while stopped. An emission error halts
// playback as it would on a timer wake-up.
func (s *Scheduler) Wake() error {
	s.mu.Lock()
	if s.task == nil {
		s.mu.Unlock()
		return nil
	}
	err := s.fillLocked()
	if err == nil {
		s.mu.Unlock()
		return nil
	}
	task := s.haltLocked(err)
	s.mu.Unlock()
	task.Stop()
	s.reportHalt(err)
	return err
}

func (s *Scheduler) wake(gen uint64) bool {
	s.mu.Lock()
	if s.task == nil || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	err := s.fillLocked()
	if err == nil {
		s.mu.Unlock()
		return true
	}
	s.haltLocked(err)
	s.mu.Unlock()
	s.reportHalt(err)
	return false
}

func (s *Scheduler) haltLocked(err error) *Task {
	task := s.task
	s.err = err
	s.task = nil
	return task
}

func (s *Scheduler) reportHalt(err error) {
	s.logger.Error("scheduler halted", "error", err)
	if s.onHalt != nil {
		s.onHalt(err)
	}
}

func (s *Scheduler) fillLocked() error {
	horizon := s.clock.Now() + s.scheduleAhead
	st, err := Fill(s.state, s.cfg, horizon, func(ev Event) error {
		if err := s.emitter.Emit(ev); err != nil {
			return err
		}
		if s.observe != nil {
			s.observe(ev)
		}
		return nil
	})
	s.state = st
	return err
}

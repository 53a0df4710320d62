// Package solfa is an ear-training toolkit: a drift-free metronome and an
// exercise player that share one audio device.
//
// Both are driven by lookahead scheduling. A coarse timer tops up a short
// window of sounds registered against the audio clock, so timer jitter
// never reaches the listener.
package solfa

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cbegin/solfa-go/internal/audio"
	"github.com/cbegin/solfa-go/internal/exercise"
	"github.com/cbegin/solfa-go/internal/scheduler"
	"github.com/cbegin/solfa-go/internal/synth"
	"github.com/cbegin/solfa-go/internal/tempo"
)

type (
	TempoConfig     = tempo.Config
	TimeSignature   = tempo.TimeSignature
	Subdivision     = tempo.Subdivision
	Timbre          = tempo.Timbre
	Role            = tempo.Role
	Exercise        = exercise.Exercise
	ExerciseRequest = exercise.Request
	Playback        = exercise.Playback
)

const (
	Quarter   = tempo.Quarter
	Eighth    = tempo.Eighth
	Triplet   = tempo.Triplet
	Sixteenth = tempo.Sixteenth

	Woodblock = tempo.Woodblock
	Digital   = tempo.Digital
	Snare     = tempo.Snare

	RoleMeasureDownbeat = tempo.RoleMeasureDownbeat
	RoleBeatDownbeat    = tempo.RoleBeatDownbeat
	RoleSubdivision     = tempo.RoleSubdivision
)

var (
	ErrDeviceUnavailable = audio.ErrDeviceUnavailable
	ErrInvalidExercise   = exercise.ErrInvalidExercise
	ErrConfigOutOfRange  = tempo.ErrConfigOutOfRange
	ErrInvalidConfig     = tempo.ErrInvalidConfig
)

// DefaultTempo is 92 BPM in 4/4, quarter notes, woodblock.
func DefaultTempo() TempoConfig { return tempo.DefaultConfig() }

// GenerateExercise builds a random exercise. A nil rng uses a
// time-seeded source.
func GenerateExercise(req ExerciseRequest, rng *rand.Rand) (Exercise, error) {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return exercise.Generate(req, rng)
}

// EventKind identifies a Watch event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventBeat
	EventStopped
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventBeat:
		return "beat"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered on the Watch channel. Time is the scheduled onset of
// a beat on the audio clock, ahead of when it is heard.
type Event struct {
	Kind      EventKind
	Session   string
	Time      float64
	BeatIndex int
	Role      Role
	Err       error
}

type Option func(*trainerConfig)

type trainerConfig struct {
	sampleRate    int
	backend       audio.Backend
	logger        *slog.Logger
	tempo         TempoConfig
	lookahead     time.Duration
	scheduleAhead float64
	newTicker     func(time.Duration) scheduler.Ticker
	graphOpts     []synth.GraphOption
}

func defaultTrainerConfig() trainerConfig {
	return trainerConfig{
		sampleRate:    48000,
		backend:       audio.EbitenBackend{BufferSize: 20 * time.Millisecond},
		logger:        slog.Default(),
		tempo:         tempo.DefaultConfig(),
		lookahead:     scheduler.DefaultLookahead,
		scheduleAhead: scheduler.DefaultScheduleAhead,
		newTicker:     scheduler.NewTimeTicker,
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(cfg *trainerConfig) {
		cfg.sampleRate = sampleRate
	}
}

// WithBackend selects the output device backend. The default is ebiten.
func WithBackend(b audio.Backend) Option {
	return func(cfg *trainerConfig) {
		cfg.backend = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *trainerConfig) {
		cfg.logger = logger
	}
}

// WithTempo sets the initial metronome configuration.
func WithTempo(t TempoConfig) Option {
	return func(cfg *trainerConfig) {
		cfg.tempo = t
	}
}

// WithLookahead sets how often the scheduler wakes (default 25ms).
func WithLookahead(d time.Duration) Option {
	return func(cfg *trainerConfig) {
		cfg.lookahead = d
	}
}

// WithScheduleAhead sets the window, in seconds, filled on each wake-up
// (default 0.1).
func WithScheduleAhead(sec float64) Option {
	return func(cfg *trainerConfig) {
		cfg.scheduleAhead = sec
	}
}

func WithTicker(newTicker func(time.Duration) scheduler.Ticker) Option {
	return func(cfg *trainerConfig) {
		cfg.newTicker = newTicker
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *trainerConfig) {
		cfg.graphOpts = append(cfg.graphOpts, synth.WithSampleTap(tap))
	}
}

// WithNoiseSeed fixes the noise used by snare clicks.
func WithNoiseSeed(seed uint64) Option {
	return func(cfg *trainerConfig) {
		cfg.graphOpts = append(cfg.graphOpts, synth.WithNoiseSeed(seed))
	}
}

// Trainer owns the audio device, the metronome scheduler and the exercise
// driver. One metronome session runs at a time.
type Trainer struct {
	mu        sync.Mutex
	device    *audio.Device
	sched     *scheduler.Scheduler
	driver    *exercise.Driver
	logger    *slog.Logger
	session   atomic.Value // string
	eventCh   chan Event
	eventChMu sync.Mutex
}

// clickEmitter realizes metronome ticks as voices on the device.
type clickEmitter struct {
	device *audio.Device
}

func (e clickEmitter) Emit(ev scheduler.Event) error {
	for _, c := range tempo.Clicks(ev.Timbre, ev.Role) {
		v, err := e.device.NewVoice(c.Kind)
		if err != nil {
			return err
		}
		if err := v.Build(c.Params(ev.Time)); err != nil {
			return err
		}
	}
	return nil
}

func New(opts ...Option) (*Trainer, error) {
	cfg := defaultTrainerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	device, err := audio.NewDevice(cfg.sampleRate, cfg.backend,
		audio.WithLogger(cfg.logger),
		audio.WithGraphOptions(cfg.graphOpts...),
	)
	if err != nil {
		return nil, err
	}
	t := &Trainer{
		device: device,
		driver: exercise.NewDriver(device, exercise.WithDriverLogger(cfg.logger)),
		logger: cfg.logger,
	}
	t.session.Store("")
	sched, err := scheduler.New(device, clickEmitter{device: device}, cfg.tempo,
		scheduler.WithLogger(cfg.logger),
		scheduler.WithLookahead(cfg.lookahead),
		scheduler.WithScheduleAhead(cfg.scheduleAhead),
		scheduler.WithTicker(cfg.newTicker),
		scheduler.WithObserver(t.onBeat),
		scheduler.WithHaltHandler(t.onHalt),
	)
	if err != nil {
		return nil, err
	}
	t.sched = sched
	return t, nil
}

// TempoOption changes one field of the metronome configuration.
type TempoOption func(*tempoUpdate)

type tempoUpdate struct {
	cfg     TempoConfig
	dropped []int
}

// WithBPM sets the tempo. A value outside [20, 300] is dropped and the
// previous tempo kept.
func WithBPM(bpm int) TempoOption {
	return func(u *tempoUpdate) {
		next, err := u.cfg.WithBPM(bpm)
		if err != nil {
			u.dropped = append(u.dropped, bpm)
			return
		}
		u.cfg = next
	}
}

func WithTimeSignature(numerator, denominator int) TempoOption {
	return func(u *tempoUpdate) {
		u.cfg.TimeSignature = TimeSignature{Numerator: numerator, Denominator: denominator}
	}
}

func WithSubdivision(s Subdivision) TempoOption {
	return func(u *tempoUpdate) {
		u.cfg.Subdivision = s
	}
}

func WithTimbre(timbre Timbre) TempoOption {
	return func(u *tempoUpdate) {
		u.cfg.Timbre = timbre
	}
}

// SetTempoConfig applies a partial update. Out-of-range BPM writes are
// dropped silently. Any other malformed field rejects the whole update
// with ErrInvalidConfig. Changes reach the next scheduled tick; ticks
// already queued keep their timing.
func (t *Trainer) SetTempoConfig(opts ...TempoOption) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u := tempoUpdate{cfg: t.sched.Config()}
	for _, opt := range opts {
		opt(&u)
	}
	for _, bpm := range u.dropped {
		t.logger.Debug("tempo write dropped", "bpm", bpm, "error", ErrConfigOutOfRange)
	}
	return t.sched.SetConfig(u.cfg)
}

func (t *Trainer) TempoConfig() TempoConfig {
	return t.sched.Config()
}

// Start begins the metronome. It is a no-op while already playing. If the
// device cannot be opened, Start returns ErrDeviceUnavailable and may be
// retried.
func (t *Trainer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startLocked()
}

func (t *Trainer) startLocked() error {
	if t.sched.Running() {
		return nil
	}
	if err := t.device.Ensure(); err != nil {
		return err
	}
	session := uuid.NewString()
	t.session.Store(session)
	if err := t.sched.Start(); err != nil {
		return err
	}
	t.logger.Debug("metronome started", "session", session, "tempo", t.sched.Config().String())
	t.sendEvent(Event{Kind: EventStarted, Session: session})
	return nil
}

// Stop cancels future ticks. Ticks already scheduled play out. It is a
// no-op while stopped.
func (t *Trainer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Trainer) stopLocked() {
	if !t.sched.Running() {
		return
	}
	t.sched.Stop()
	session := t.session.Load().(string)
	t.logger.Debug("metronome stopped", "session", session)
	t.sendEvent(Event{Kind: EventStopped, Session: session})
}

// Toggle starts a stopped metronome or stops a running one and reports
// whether it is now playing.
func (t *Trainer) Toggle() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sched.Running() {
		t.stopLocked()
		return false, nil
	}
	if err := t.startLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Trainer) IsPlaying() bool {
	return t.sched.Running()
}

// Err returns the error that last halted the metronome, if any.
func (t *Trainer) Err() error {
	return t.sched.Err()
}

// Now returns the audio clock in seconds.
func (t *Trainer) Now() float64 {
	return t.device.Now()
}

// PlayExerciseSequence schedules ex on the shared device starting 0.1s
// from now. It fails with ErrInvalidExercise before touching the device
// when ex has no pitches or an unknown pitch name.
func (t *Trainer) PlayExerciseSequence(ex Exercise) (Playback, error) {
	return t.driver.Play(ex)
}

// Watch returns a channel that receives metronome events:
//   - EventStarted / EventStopped: a session began or ended
//   - EventBeat: a tick was scheduled (Time, BeatIndex, Role set)
//   - EventError: a tick could not be scheduled and playback halted
//
// The channel is buffered (cap 64); events are dropped when it is full.
// Only the most recent Watch() channel receives events.
func (t *Trainer) Watch() <-chan Event {
	ch := make(chan Event, 64)
	t.eventChMu.Lock()
	t.eventCh = ch
	t.eventChMu.Unlock()
	return ch
}

// Close stops the metronome and releases the device.
func (t *Trainer) Close() error {
	t.Stop()
	return t.device.Close()
}

func (t *Trainer) onBeat(ev scheduler.Event) {
	t.sendEvent(Event{
		Kind:      EventBeat,
		Session:   t.session.Load().(string),
		Time:      ev.Time,
		BeatIndex: ev.BeatIndex,
		Role:      ev.Role,
	})
}

func (t *Trainer) onHalt(err error) {
	t.sendEvent(Event{Kind: EventError, Session: t.session.Load().(string), Err: err})
}

func (t *Trainer) sendEvent(ev Event) {
	t.eventChMu.Lock()
	ch := t.eventCh
	t.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

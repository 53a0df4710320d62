package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// EbitenBackend plays through ebiten's process-wide audio context.
type EbitenBackend struct {
	// BufferSize bounds device latency. Zero keeps ebiten's default.
	BufferSize time.Duration
	// ReadyTimeout bounds how long Resume waits for the context to become
	// ready. Zero uses DefaultReadyTimeout.
	ReadyTimeout time.Duration
}

const (
	DefaultReadyTimeout = 500 * time.Millisecond
	readyPoll           = 5 * time.Millisecond
)

var errNotReady = errors.New("audio context not ready (user interaction may be required)")

type readiness interface {
	IsReady() bool
}

// waitReady polls r until it is ready or timeout elapses.
func waitReady(r readiness, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !r.IsReady() {
		if !time.Now().Before(deadline) {
			return errNotReady
		}
		time.Sleep(poll)
	}
	return nil
}

func (EbitenBackend) Name() string { return "ebiten" }

var (
	ebitenMu   sync.Mutex
	ebitenCtx  *ebitaudio.Context
	ebitenRate int
)

// sharedEbitenContext returns the single ebiten context, creating it on
// first call. ebiten allows one context per process, so later callers must
// ask for the same rate.
func sharedEbitenContext(sampleRate int) (ctx *ebitaudio.Context, err error) {
	ebitenMu.Lock()
	defer ebitenMu.Unlock()
	if ebitenCtx != nil {
		if ebitenRate != sampleRate {
			return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", ebitenRate, sampleRate)
		}
		return ebitenCtx, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("create ebiten audio context: %v", r)
		}
	}()
	ebitenCtx = ebitaudio.NewContext(sampleRate)
	ebitenRate = sampleRate
	return ebitenCtx, nil
}

func (b EbitenBackend) Open(sampleRate int, src SampleSource) (Output, error) {
	ctx, err := sharedEbitenContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(NewStreamReader(src))
	if err != nil {
		return nil, err
	}
	if b.BufferSize > 0 {
		pl.SetBufferSize(b.BufferSize)
	}
	timeout := b.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	return &ebitenOutput{ctx: ctx, player: pl, readyTimeout: timeout}, nil
}

type ebitenOutput struct {
	ctx          *ebitaudio.Context
	player       *ebitaudio.Player
	readyTimeout time.Duration
}

func (o *ebitenOutput) Play()           { o.player.Play() }
func (o *ebitenOutput) Pause()          { o.player.Pause() }
func (o *ebitenOutput) IsPlaying() bool { return o.player.IsPlaying() }

// Resume fails while the context is not ready. ebiten reports driver
// failures only through readiness, so this is where they surface.
func (o *ebitenOutput) Resume() error {
	if err := waitReady(o.ctx, o.readyTimeout, readyPoll); err != nil {
		return err
	}
	if !o.player.IsPlaying() {
		o.player.Play()
	}
	return nil
}

func (o *ebitenOutput) Close() error {
	o.player.Pause()
	return o.player.Close()
}

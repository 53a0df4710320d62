package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend plays through a raw oto context, bypassing ebiten. A failed
// driver init is terminal for the process; context errors reported later
// are retried on the next Open or Resume.
type OtoBackend struct {
	BufferSize time.Duration
}

func (OtoBackend) Name() string { return "oto" }

var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int

	// otoErr holds a failed driver init. oto allows one NewContext call per
	// process, so the failure is terminal for this backend.
	otoErr error

	newOtoContext = oto.NewContext
)

func sharedOtoContext(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoErr != nil {
		return nil, otoErr
	}
	if otoCtx != nil {
		if otoRate != sampleRate {
			return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoRate, sampleRate)
		}
		return otoCtx, nil
	}
	ctx, ready, err := newOtoContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		otoErr = fmt.Errorf("oto driver init: %w", err)
		return nil, otoErr
	}
	<-ready
	otoCtx = ctx
	otoRate = sampleRate
	return ctx, nil
}

func (b OtoBackend) Open(sampleRate int, src SampleSource) (Output, error) {
	ctx, err := sharedOtoContext(sampleRate, b.BufferSize)
	if err != nil {
		return nil, err
	}
	// A context error after init is reported per call and may clear.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &otoOutput{ctx: ctx, player: ctx.NewPlayer(NewStreamReader(src))}, nil
}

type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player
}

func (o *otoOutput) Play()           { o.player.Play() }
func (o *otoOutput) Pause()          { o.player.Pause() }
func (o *otoOutput) IsPlaying() bool { return o.player.IsPlaying() }

func (o *otoOutput) Resume() error {
	if err := o.ctx.Err(); err != nil {
		return err
	}
	if err := o.ctx.Resume(); err != nil {
		return err
	}
	if !o.player.IsPlaying() {
		o.player.Play()
	}
	return nil
}

func (o *otoOutput) Close() error {
	o.player.Pause()
	return o.player.Close()
}

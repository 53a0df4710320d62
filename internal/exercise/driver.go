package exercise

import (
	"fmt"
	"log/slog"

	"github.com/cbegin/solfa-go/internal/synth"
)

// StartDelay keeps the first note out of the past.
const StartDelay = 0.1

// VoiceSource is the audio clock and voice allocator notes are built on.
type VoiceSource interface {
	Now() float64
	NewVoice(kind synth.Kind) (*synth.Voice, error)
}

// Playback describes a scheduled exercise on the audio clock.
type Playback struct {
	Start  float64
	Events []PitchEvent
}

// At returns the absolute onset of event i.
func (p Playback) At(i int) float64 { return p.Start + p.Events[i].Onset }

// End is the absolute time the last note stops.
func (p Playback) End() float64 { return p.Start + Duration(p.Events) }

type DriverOption func(*Driver)

func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// Driver schedules exercises as sine tones. Playback is one-shot: once
// scheduled, notes play out and cannot be recalled.
type Driver struct {
	src    VoiceSource
	logger *slog.Logger
}

func NewDriver(src VoiceSource, opts ...DriverOption) *Driver {
	d := &Driver{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Play validates ex and schedules every note relative to the current
// audio time. An invalid exercise schedules nothing.
func (d *Driver) Play(ex Exercise) (Playback, error) {
	events, err := Plan(ex)
	if err != nil {
		return Playback{}, err
	}
	// The first voice opens the device, so read the clock after it.
	first, err := d.src.NewVoice(synth.KindTone)
	if err != nil {
		return Playback{}, err
	}
	pb := Playback{Start: d.src.Now() + StartDelay, Events: events}
	for i, ev := range events {
		v := first
		if i > 0 {
			if v, err = d.src.NewVoice(synth.KindTone); err != nil {
				return pb, err
			}
		}
		p := synth.ToneParams(synth.Sine, ev.Pitch.Frequency(), pb.At(i), ev.Hold)
		if err := v.Build(p); err != nil {
			return pb, fmt.Errorf("schedule %s: %w", ev.Pitch, err)
		}
	}
	d.logger.Debug("exercise scheduled", "kind", ex.Kind().String(), "pitches", len(ex.Pitches), "start", pb.Start, "end", pb.End())
	return pb, nil
}

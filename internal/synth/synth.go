// Package synth renders short one-shot sounds against a frame-accurate
// clock. A Graph owns the clock and the set of live nodes; each node is an
// oscillator or a buffered-noise source feeding an optional high-pass
// filter and an exponential gain envelope. Nodes are scheduled at absolute
// clock times and are dropped by the graph once their stop time has been
// rendered.
package synth

import (
	"errors"
	"math"
)

// Kind selects the source of a one-shot voice.
type Kind int

const (
	KindTone Kind = iota
	KindNoise
)

func (k Kind) String() string {
	switch k {
	case KindTone:
		return "tone"
	case KindNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// Shape is the oscillator waveform of a tone voice.
type Shape int

const (
	Sine Shape = iota
	Square
	Triangle
)

func (s Shape) String() string {
	switch s {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

const (
	// TonePeak and NoisePeak keep tones and noise bursts at a comparable
	// perceived loudness.
	TonePeak  = 0.3
	NoisePeak = 1.0

	ToneFloor  = 0.001
	NoiseFloor = 0.01

	// ToneTail is the gap between the end of a tone's decay and its stop.
	ToneTail = 0.05

	NoiseHighPassHz = 1000.0
	NoiseBufferSec  = 2.0
)

var (
	ErrVoiceReused      = errors.New("synth: voice already built")
	ErrInvalidFrequency = errors.New("synth: frequency must be finite and positive")
	ErrInvalidDuration  = errors.New("synth: duration must be finite and positive")
)

// Params describes one scheduled sound. Times are seconds on the graph
// clock. The envelope starts at Peak at Start and decays exponentially,
// reaching Floor at Start+Duration-Tail; the node stops at Start+Duration.
type Params struct {
	Shape    Shape
	Freq     float64
	Start    float64
	Duration float64
	Peak     float64
	Floor    float64
	Tail     float64
}

// Stop is the clock time at which the node is released.
func (p Params) Stop() float64 { return p.Start + p.Duration }

// ToneParams is a held pitched note: 0.3 peak, 0.001 floor, 50 ms tail.
func ToneParams(shape Shape, freq, start, duration float64) Params {
	return Params{
		Shape:    shape,
		Freq:     freq,
		Start:    start,
		Duration: duration,
		Peak:     TonePeak,
		Floor:    ToneFloor,
		Tail:     ToneTail,
	}
}

// ClickParams is a percussive tone whose decay spans its whole duration.
func ClickParams(shape Shape, freq, start, decay float64) Params {
	p := ToneParams(shape, freq, start, decay)
	p.Tail = 0
	return p
}

// NoiseParams is a high-passed noise burst.
func NoiseParams(start, duration float64) Params {
	return Params{
		Start:    start,
		Duration: duration,
		Peak:     NoisePeak,
		Floor:    NoiseFloor,
	}
}

// ValidFrequency reports whether f can drive an oscillator.
func ValidFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func (p Params) validate(kind Kind) error {
	if p.Duration <= 0 || math.IsNaN(p.Duration) || math.IsInf(p.Duration, 0) || math.IsNaN(p.Start) || math.IsInf(p.Start, 0) {
		return ErrInvalidDuration
	}
	if kind == KindTone && !ValidFrequency(p.Freq) {
		return ErrInvalidFrequency
	}
	return nil
}

// Package tempo holds the metronome configuration and the beat/measure
// state machine that classifies each subdivision tick.
package tempo

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinBPM = 20
	MaxBPM = 300
)

// ErrConfigOutOfRange is returned for a BPM outside [MinBPM, MaxBPM].
var ErrConfigOutOfRange = errors.New("tempo out of range")

// ErrInvalidConfig is returned for a malformed signature, subdivision or
// timbre.
var ErrInvalidConfig = errors.New("invalid tempo config")

// Subdivision is the number of ticks per beat.
type Subdivision int

const (
	Quarter   Subdivision = 1
	Eighth    Subdivision = 2
	Triplet   Subdivision = 3
	Sixteenth Subdivision = 4
)

func (s Subdivision) Valid() bool {
	return s >= Quarter && s <= Sixteenth
}

// NotesPerBeat is the tick count of one beat. A triplet is three even
// ticks; there is no swing.
func (s Subdivision) NotesPerBeat() int { return int(s) }

func (s Subdivision) String() string {
	switch s {
	case Quarter:
		return "quarter"
	case Eighth:
		return "eighth"
	case Triplet:
		return "triplet"
	case Sixteenth:
		return "sixteenth"
	default:
		return fmt.Sprintf("subdivision(%d)", int(s))
	}
}

func ParseSubdivision(s string) (Subdivision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "quarter", "negra":
		return Quarter, nil
	case "2", "eighth", "corchea":
		return Eighth, nil
	case "3", "triplet", "tresillo":
		return Triplet, nil
	case "4", "sixteenth", "semicorchea":
		return Sixteenth, nil
	default:
		return 0, fmt.Errorf("%w: subdivision %q (expected quarter|eighth|triplet|sixteenth)", ErrInvalidConfig, s)
	}
}

// Timbre selects the click sound set.
type Timbre string

const (
	Woodblock Timbre = "woodblock"
	Digital   Timbre = "digital"
	Snare     Timbre = "snare"
)

func (t Timbre) Valid() bool {
	switch t {
	case Woodblock, Digital, Snare:
		return true
	}
	return false
}

func ParseTimbre(s string) (Timbre, error) {
	t := Timbre(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: timbre %q (expected woodblock|digital|snare)", ErrInvalidConfig, s)
	}
	return t, nil
}

type TimeSignature struct {
	Numerator   int
	Denominator int
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

func ParseTimeSignature(s string) (TimeSignature, error) {
	var ts TimeSignature
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d/%d", &ts.Numerator, &ts.Denominator); err != nil {
		return TimeSignature{}, fmt.Errorf("%w: time signature %q", ErrInvalidConfig, s)
	}
	if err := ts.validate(); err != nil {
		return TimeSignature{}, err
	}
	return ts, nil
}

func (ts TimeSignature) validate() error {
	if ts.Numerator <= 0 || ts.Denominator <= 0 {
		return fmt.Errorf("%w: time signature %s must be positive", ErrInvalidConfig, ts)
	}
	return nil
}

// Config is the metronome's user-facing settings.
type Config struct {
	BPM           int
	TimeSignature TimeSignature
	Subdivision   Subdivision
	Timbre        Timbre
}

// DefaultConfig is 92 BPM in 4/4, quarter notes, woodblock.
func DefaultConfig() Config {
	return Config{
		BPM:           92,
		TimeSignature: TimeSignature{Numerator: 4, Denominator: 4},
		Subdivision:   Quarter,
		Timbre:        Woodblock,
	}
}

func ValidateBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return fmt.Errorf("%w: %d BPM (allowed %d-%d)", ErrConfigOutOfRange, bpm, MinBPM, MaxBPM)
	}
	return nil
}

// WithBPM returns c with the new tempo, or c unchanged and
// ErrConfigOutOfRange.
func (c Config) WithBPM(bpm int) (Config, error) {
	if err := ValidateBPM(bpm); err != nil {
		return c, err
	}
	c.BPM = bpm
	return c, nil
}

func (c Config) Validate() error {
	if err := ValidateBPM(c.BPM); err != nil {
		return err
	}
	if err := c.TimeSignature.validate(); err != nil {
		return err
	}
	if !c.Subdivision.Valid() {
		return fmt.Errorf("%w: subdivision %d", ErrInvalidConfig, int(c.Subdivision))
	}
	if !c.Timbre.Valid() {
		return fmt.Errorf("%w: timbre %q", ErrInvalidConfig, string(c.Timbre))
	}
	return nil
}

// MeasureLength is the number of ticks in one measure.
func (c Config) MeasureLength() int {
	return c.TimeSignature.Numerator * c.Subdivision.NotesPerBeat()
}

// TickSeconds is the spacing between consecutive ticks.
func (c Config) TickSeconds() float64 {
	return 60.0 / float64(c.BPM) / float64(c.Subdivision.NotesPerBeat())
}

func (c Config) String() string {
	return fmt.Sprintf("%d BPM %s %s %s", c.BPM, c.TimeSignature, c.Subdivision, c.Timbre)
}

package exercise

import (
	"github.com/cbegin/solfa-go/internal/pitch"
)

// Timing of each playback policy, in seconds.
const (
	ProgressionSlot = 0.8
	ProgressionHold = 0.6

	MelodicStep  = 0.6
	MelodicHold  = 0.5
	HarmonicGap  = 0.5
	HarmonicHold = 1.5

	FallbackHold = 0.5
)

type Voicing int

const (
	Melodic Voicing = iota
	Harmonic
)

func (v Voicing) String() string {
	if v == Harmonic {
		return "harmonic"
	}
	return "melodic"
}

// PitchEvent is one planned note. Onset is measured from the first note.
type PitchEvent struct {
	Pitch   pitch.Placed
	Onset   float64
	Hold    float64
	Voicing Voicing
}

// End is the time, relative to the first note, at which the note stops.
func (e PitchEvent) End() float64 { return e.Onset + e.Hold }

// Plan lays out ex according to its kind. Progressions play one note per
// slot. Intervals and chords play an ascending run and then sound every
// note together. Anything else plays the first pitch only.
func Plan(ex Exercise) ([]PitchEvent, error) {
	classes, err := ex.Classes()
	if err != nil {
		return nil, err
	}
	placed := pitch.PlaceRegisters(classes)

	switch ex.Kind() {
	case KindProgression:
		events := make([]PitchEvent, len(placed))
		for i, p := range placed {
			events[i] = PitchEvent{Pitch: p, Onset: float64(i) * ProgressionSlot, Hold: ProgressionHold}
		}
		return events, nil
	case KindInterval, KindChord:
		events := make([]PitchEvent, 0, 2*len(placed))
		for i, p := range placed {
			events = append(events, PitchEvent{Pitch: p, Onset: float64(i) * MelodicStep, Hold: MelodicHold})
		}
		chordAt := float64(len(placed))*MelodicStep + HarmonicGap
		for _, p := range placed {
			events = append(events, PitchEvent{Pitch: p, Onset: chordAt, Hold: HarmonicHold, Voicing: Harmonic})
		}
		return events, nil
	default:
		return []PitchEvent{{Pitch: placed[0], Hold: FallbackHold}}, nil
	}
}

// Duration is the time from the first onset until the last note stops.
func Duration(events []PitchEvent) float64 {
	var end float64
	for _, e := range events {
		end = max(end, e.End())
	}
	return end
}

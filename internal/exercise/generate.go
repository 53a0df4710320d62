package exercise

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cbegin/solfa-go/internal/pitch"
)

// Interval is a named distance from the root.
type Interval struct {
	Name      string
	Semitones int
}

var Intervals = []Interval{
	{"Unison", 0},
	{"Minor 2nd", 1},
	{"Major 2nd", 2},
	{"Minor 3rd", 3},
	{"Major 3rd", 4},
	{"Perfect 4th", 5},
	{"Tritone", 6},
	{"Perfect 5th", 7},
	{"Minor 6th", 8},
	{"Major 6th", 9},
	{"Minor 7th", 10},
	{"Major 7th", 11},
	{"Octave", 12},
}

// Chord is a named stack of intervals above the root.
type Chord struct {
	Name      string
	Intervals []int
}

var Chords = map[string]Chord{
	"major":      {"Major", []int{0, 4, 7}},
	"minor":      {"Minor", []int{0, 3, 7}},
	"diminished": {"Diminished", []int{0, 3, 6}},
	"augmented":  {"Augmented", []int{0, 4, 8}},
	"maj7":       {"Major 7", []int{0, 4, 7, 11}},
	"min7":       {"Minor 7", []int{0, 3, 7, 10}},
	"dom7":       {"Dominant 7", []int{0, 4, 7, 10}},
}

var progression = []string{"I", "IV", "V", "I"}

// Request selects what Generate produces. Key "" or "Random" picks a
// random root. Range is carried through but does not yet widen intervals
// past the octave.
type Request struct {
	Key        string
	Type       string
	Difficulty int
	Range      string
}

// Generate builds an exercise for req using rng for every random choice.
func Generate(req Request, rng *rand.Rand) (Exercise, error) {
	root, err := pickRoot(req.Key, rng)
	if err != nil {
		return Exercise{}, err
	}
	switch ParseKind(req.Type) {
	case KindInterval:
		return intervalExercise(root, req.Difficulty, rng), nil
	case KindChord:
		return chordExercise(root, req.Difficulty, rng), nil
	case KindProgression:
		return progressionExercise(root, req.Difficulty), nil
	default:
		return Exercise{}, fmt.Errorf("%w: unknown type %q", ErrInvalidExercise, req.Type)
	}
}

func pickRoot(key string, rng *rand.Rand) (pitch.Class, error) {
	if key == "" || strings.EqualFold(key, "random") {
		return pitch.Class(rng.IntN(12)), nil
	}
	c, err := pitch.Parse(key)
	if err != nil {
		return 0, fmt.Errorf("%w: key: %v", ErrInvalidExercise, err)
	}
	return c, nil
}

// AllowedIntervals returns the intervals drawn from at a difficulty.
func AllowedIntervals(difficulty int) []Interval {
	var allowed []int
	switch {
	case difficulty <= 1:
		allowed = []int{0, 4, 5, 7, 12}
	case difficulty <= 2:
		allowed = []int{0, 2, 4, 5, 7, 9, 12}
	case difficulty <= 3:
		allowed = []int{0, 2, 3, 4, 5, 7, 8, 9, 12}
	default:
		return append([]Interval(nil), Intervals...)
	}
	out := make([]Interval, 0, len(allowed))
	for _, n := range allowed {
		out = append(out, Intervals[n])
	}
	return out
}

// AllowedChords returns the chord keys drawn from at a difficulty.
func AllowedChords(difficulty int) []string {
	keys := []string{"major", "minor"}
	if difficulty >= 2 {
		keys = append(keys, "diminished")
	}
	if difficulty >= 3 {
		keys = append(keys, "augmented")
	}
	if difficulty >= 4 {
		keys = append(keys, "dom7")
	}
	if difficulty >= 5 {
		keys = append(keys, "maj7", "min7")
	}
	return keys
}

func intervalExercise(root pitch.Class, difficulty int, rng *rand.Rand) Exercise {
	allowed := AllowedIntervals(difficulty)
	iv := allowed[rng.IntN(len(allowed))]
	second := root.Transpose(iv.Semitones)
	return Exercise{
		Pitches:     []string{root.String(), second.String()},
		Type:        KindInterval.String(),
		Interval:    iv.Name,
		Degree:      fmt.Sprintf("%d semitones", iv.Semitones),
		Difficulty:  difficulty,
		Explanation: fmt.Sprintf("%s interval between %s and %s", iv.Name, root, second),
	}
}

func chordExercise(root pitch.Class, difficulty int, rng *rand.Rand) Exercise {
	keys := AllowedChords(difficulty)
	ch := Chords[keys[rng.IntN(len(keys))]]
	notes := make([]string, len(ch.Intervals))
	for i, n := range ch.Intervals {
		notes[i] = root.Transpose(n).String()
	}
	return Exercise{
		Pitches:     notes,
		Type:        KindChord.String(),
		Interval:    "N/A",
		Degree:      ch.Name,
		Difficulty:  difficulty,
		Explanation: fmt.Sprintf("%s chord on %s: %s", ch.Name, root, strings.Join(notes, ", ")),
	}
}

// progressionExercise names the progression but only sounds the root.
func progressionExercise(root pitch.Class, difficulty int) Exercise {
	degrees := strings.Join(progression, " - ")
	return Exercise{
		Pitches:     []string{root.String()},
		Type:        KindProgression.String(),
		Interval:    "Progression",
		Degree:      degrees,
		Difficulty:  difficulty,
		Explanation: fmt.Sprintf("Basic progression in %s: %s", root, degrees),
	}
}

// Package exercise generates ear-training exercises and plays them as
// melodic runs followed by a harmonic confirmation.
package exercise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbegin/solfa-go/internal/pitch"
)

var ErrInvalidExercise = errors.New("invalid exercise")

// Kind selects the playback policy.
type Kind int

const (
	KindUnknown Kind = iota
	KindInterval
	KindChord
	KindProgression
)

func (k Kind) String() string {
	switch k {
	case KindInterval:
		return "interval"
	case KindChord:
		return "chord"
	case KindProgression:
		return "progression"
	default:
		return "unknown"
	}
}

// ParseKind maps a type tag, Spanish or English, to a Kind. Unrecognized
// tags map to KindUnknown, which plays only the first pitch.
func ParseKind(tag string) Kind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "intervalo", "interval":
		return KindInterval
	case "acorde", "chord":
		return KindChord
	case "progresión", "progresion", "progression":
		return KindProgression
	default:
		return KindUnknown
	}
}

// Exercise is an ordered set of pitch-class names plus its type tag. The
// remaining fields describe generated exercises and do not affect
// playback.
type Exercise struct {
	Pitches     []string `json:"pitches" yaml:"pitches"`
	Type        string   `json:"type" yaml:"type"`
	Interval    string   `json:"interval,omitempty" yaml:"interval,omitempty"`
	Degree      string   `json:"degree,omitempty" yaml:"degree,omitempty"`
	Difficulty  int      `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

func (e Exercise) Kind() Kind { return ParseKind(e.Type) }

// Classes resolves the pitch names. It fails with ErrInvalidExercise when
// the list is empty or holds an unknown name.
func (e Exercise) Classes() ([]pitch.Class, error) {
	if len(e.Pitches) == 0 {
		return nil, fmt.Errorf("%w: no pitches", ErrInvalidExercise)
	}
	out := make([]pitch.Class, len(e.Pitches))
	for i, name := range e.Pitches {
		c, err := pitch.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: pitch %d: %v", ErrInvalidExercise, i, err)
		}
		out[i] = c
	}
	return out, nil
}

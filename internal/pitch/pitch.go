// Package pitch maps pitch-class names to frequencies.
package pitch

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ReferenceFreq is C in register 4 at A4 = 440 Hz.
const ReferenceFreq = 261.63

// ReferenceRegister is the register of the first pitch of a sequence.
const ReferenceRegister = 4

var ErrUnknownPitch = errors.New("unknown pitch class")

// Class is a chromatic pitch class, 0 = C through 11 = B.
type Class int

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flats are accepted on input and normalized to sharps.
var flats = map[string]Class{"Db": 1, "Eb": 3, "Gb": 6, "Ab": 8, "Bb": 10}

// Names returns the twelve pitch-class names in chromatic order.
func Names() []string {
	return append([]string(nil), names[:]...)
}

func (c Class) String() string {
	if c < 0 || c > 11 {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return names[c]
}

// Transpose returns the class n semitones above c, wrapping at the octave.
func (c Class) Transpose(n int) Class {
	return Class(((int(c)+n)%12 + 12) % 12)
}

// Parse resolves a name such as "C", "F#" or "Bb".
func Parse(name string) (Class, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownPitch)
	}
	s = strings.ToUpper(s[:1]) + s[1:]
	for i, n := range names {
		if n == s {
			return Class(i), nil
		}
	}
	if c, ok := flats[s]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPitch, name)
}

// Frequency returns the frequency of c in the given register.
func Frequency(c Class, register int) float64 {
	return ReferenceFreq * math.Pow(2, float64(c)/12) * math.Pow(2, float64(register-ReferenceRegister))
}

// Placed is a pitch class with its register.
type Placed struct {
	Class    Class
	Register int
}

func (p Placed) Frequency() float64 {
	return Frequency(p.Class, p.Register)
}

func (p Placed) String() string {
	return fmt.Sprintf("%s%d", p.Class, p.Register)
}

// PlaceRegisters assigns registers assuming the sequence is built upward
// from its first pitch: the first pitch sits in the reference register and
// any later pitch whose class is below the first one's moves up one
// register.
//
// This only models a single ascending wrap. Sequences spanning more than
// an octave, or descending ones, are voiced incorrectly.
func PlaceRegisters(classes []Class) []Placed {
	if len(classes) == 0 {
		return nil
	}
	root := classes[0]
	out := make([]Placed, len(classes))
	for i, c := range classes {
		reg := ReferenceRegister
		if i > 0 && c < root {
			reg++
		}
		out[i] = Placed{Class: c, Register: reg}
	}
	return out
}

package tempo

import "github.com/cbegin/solfa-go/internal/synth"

// Click is one sound layer of a tick.
type Click struct {
	Kind  synth.Kind
	Shape synth.Shape
	Freq  float64
	Decay float64
}

// Params converts the click into synth parameters starting at t.
func (c Click) Params(t float64) synth.Params {
	if c.Kind == synth.KindNoise {
		return synth.NoiseParams(t, c.Decay)
	}
	return synth.ClickParams(c.Shape, c.Freq, t, c.Decay)
}

type toneSet struct {
	shape synth.Shape
	decay float64
	freqs [3]float64 // indexed by Role
}

var toneTimbres = map[Timbre]toneSet{
	Woodblock: {shape: synth.Sine, decay: 0.1, freqs: [3]float64{1200, 800, 600}},
	Digital:   {shape: synth.Square, decay: 0.05, freqs: [3]float64{880, 440, 220}},
}

var (
	snareKick  = Click{Kind: synth.KindTone, Shape: synth.Triangle, Freq: 400, Decay: 0.1}
	snareNoise = Click{Kind: synth.KindNoise, Decay: 0.1}
)

// Clicks returns the layers to sound for a tick of role r. The table is
// fixed; only the timbre is selectable.
func Clicks(t Timbre, r Role) []Click {
	if t == Snare {
		if r == RoleMeasureDownbeat {
			return []Click{snareKick, snareNoise}
		}
		return []Click{snareNoise}
	}
	set, ok := toneTimbres[t]
	if !ok {
		set = toneTimbres[Woodblock]
	}
	return []Click{{Kind: synth.KindTone, Shape: set.shape, Freq: set.freqs[r], Decay: set.decay}}
}

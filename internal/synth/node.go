package synth

import (
	"math"

	"github.com/cbegin/solfa-go/internal/effects"
)

const twoPi = 2 * math.Pi

type node struct {
	kind       Kind
	shape      Shape
	dt         float64 // phase increment per frame
	startFrame int64
	stopFrame  int64
	noise      []float32
	hp         *effects.HighPass
	env        envelope
}

// envelope is an exponential ramp from peak at start to floor at rampEnd,
// holding floor afterwards.
type envelope struct {
	peak     float64
	floor    float64
	start    int64
	rampEnd  int64
	logRatio float64
}

func newEnvelope(peak, floor float64, start, rampEnd int64) envelope {
	if peak <= 0 {
		peak = floor
	}
	if floor <= 0 {
		floor = peak
	}
	return envelope{
		peak:     peak,
		floor:    floor,
		start:    start,
		rampEnd:  rampEnd,
		logRatio: math.Log(floor / peak),
	}
}

func (e envelope) at(frame int64) float64 {
	if frame >= e.rampEnd {
		return e.floor
	}
	if frame <= e.start {
		return e.peak
	}
	x := float64(frame-e.start) / float64(e.rampEnd-e.start)
	return e.peak * math.Exp(e.logRatio*x)
}

func (n *node) render(frame int64) float64 {
	if frame < n.startFrame || frame >= n.stopFrame {
		return 0
	}
	var s float64
	switch n.kind {
	case KindNoise:
		idx := frame - n.startFrame
		if idx >= int64(len(n.noise)) {
			return 0
		}
		s = float64(n.noise[idx])
		if n.hp != nil {
			s = n.hp.Filter(s)
		}
	default:
		s = n.oscillate(frame - n.startFrame)
	}
	return s * n.env.at(frame)
}

// oscillate derives phase from the elapsed frame count rather than an
// accumulator so a late-started node stays aligned with its nominal start.
func (n *node) oscillate(elapsed int64) float64 {
	cycles := n.dt * float64(elapsed)
	phase := cycles - math.Floor(cycles)
	switch n.shape {
	case Square:
		out := -1.0
		if phase < 0.5 {
			out = 1
		}
		out += polyBLEP(phase, n.dt)
		out -= polyBLEP(math.Mod(phase+0.5, 1), n.dt)
		return out
	case Triangle:
		return 2*math.Abs(2*phase-1) - 1
	default:
		return math.Sin(twoPi * phase)
	}
}

// polyBLEP smooths a unit step at a waveform discontinuity.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

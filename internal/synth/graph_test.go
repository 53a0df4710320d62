package synth

import (
	"errors"
	"math"
	"testing"
)

const testRate = 48000

func render(g *Graph, seconds float64) []float32 {
	buf := make([]float32, int(seconds*testRate)*2)
	g.Process(buf)
	return buf
}

func peakIn(buf []float32, fromFrame, toFrame int) float64 {
	var peak float64
	for f := fromFrame; f < toFrame && 2*f < len(buf); f++ {
		if v := math.Abs(float64(buf[2*f])); v > peak {
			peak = v
		}
	}
	return peak
}

func TestGraphClockAdvancesWithRenderedFrames(t *testing.T) {
	g := NewGraph(testRate)
	if got := g.Now(); got != 0 {
		t.Fatalf("initial clock = %v, want 0", got)
	}
	render(g, 0.5)
	if got := g.Now(); got != 0.5 {
		t.Fatalf("clock after 0.5s = %v, want 0.5", got)
	}
	if got := g.Frames(); got != testRate/2 {
		t.Fatalf("frames = %d, want %d", got, testRate/2)
	}
}

func TestToneStartsAtScheduledFrame(t *testing.T) {
	g := NewGraph(testRate, WithLimiter(false))
	v := g.NewVoice(KindTone)
	if err := v.Build(ClickParams(Sine, 1200, 0.1, 0.1)); err != nil {
		t.Fatalf("build: %v", err)
	}
	buf := render(g, 0.3)
	start := int(0.1 * testRate)
	if p := peakIn(buf, 0, start); p != 0 {
		t.Fatalf("audio before start: peak %v", p)
	}
	if p := peakIn(buf, start, start+40); p < 0.2 {
		t.Fatalf("attack peak = %v, want close to %v", p, TonePeak)
	}
	if p := peakIn(buf, int(0.2*testRate), int(0.3*testRate)); p != 0 {
		t.Fatalf("audio after stop: peak %v", p)
	}
}

func TestToneDecaysToFloorBeforeTail(t *testing.T) {
	g := NewGraph(testRate, WithLimiter(false))
	v := g.NewVoice(KindTone)
	if err := v.Build(ToneParams(Sine, 440, 0, 0.5)); err != nil {
		t.Fatalf("build: %v", err)
	}
	buf := render(g, 0.5)
	tail := peakIn(buf, int(0.45*testRate), int(0.5*testRate))
	if tail > ToneFloor+1e-6 {
		t.Fatalf("tail peak = %v, want <= floor %v", tail, ToneFloor)
	}
	mid := peakIn(buf, int(0.2*testRate), int(0.21*testRate))
	if mid <= tail || mid >= TonePeak {
		t.Fatalf("mid-decay peak = %v, want between %v and %v", mid, tail, TonePeak)
	}
}

func TestEnvelopeHitsFloorAtRampEnd(t *testing.T) {
	e := newEnvelope(0.3, 0.001, 0, 100)
	if got := e.at(0); got != 0.3 {
		t.Fatalf("gain at start = %v, want 0.3", got)
	}
	if got := e.at(100); got != 0.001 {
		t.Fatalf("gain at ramp end = %v, want 0.001", got)
	}
	half := e.at(50)
	want := 0.3 * math.Sqrt(0.001/0.3)
	if math.Abs(half-want) > 1e-9 {
		t.Fatalf("gain at midpoint = %v, want %v", half, want)
	}
}

func TestNodesReleasedAfterStop(t *testing.T) {
	g := NewGraph(testRate)
	for _, kind := range []Kind{KindTone, KindNoise} {
		v := g.NewVoice(kind)
		var p Params
		if kind == KindNoise {
			p = NoiseParams(0.01, 0.1)
		} else {
			p = ClickParams(Triangle, 400, 0.01, 0.1)
		}
		if err := v.Build(p); err != nil {
			t.Fatalf("build %v: %v", kind, err)
		}
	}
	if got := g.Active(); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
	render(g, 0.05)
	if got := g.Active(); got != 2 {
		t.Fatalf("active mid-sound = %d, want 2", got)
	}
	render(g, 0.1)
	if got := g.Active(); got != 0 {
		t.Fatalf("active after stop = %d, want 0", got)
	}
	built, released := g.Stats()
	if built != 2 || released != 2 {
		t.Fatalf("stats = (%d, %d), want (2, 2)", built, released)
	}
}

func TestSilenceDropsPendingNodes(t *testing.T) {
	g := NewGraph(testRate)
	if err := g.NewVoice(KindTone).Build(ToneParams(Sine, 440, 0.1, 1)); err != nil {
		t.Fatalf("build: %v", err)
	}
	render(g, 0.05)
	g.Silence()
	if got := g.Active(); got != 0 {
		t.Fatalf("active after silence = %d, want 0", got)
	}
	buf := render(g, 0.5)
	if p := peakIn(buf, 0, len(buf)/2); p != 0 {
		t.Fatalf("peak after silence = %v, want 0", p)
	}
	if got := g.Now(); got != 0.55 {
		t.Fatalf("clock = %v, want 0.55", got)
	}
	if built, released := g.Stats(); built != 1 || released != 1 {
		t.Fatalf("stats = (%d, %d), want (1, 1)", built, released)
	}
}

func TestNoiseBurstIsAudible(t *testing.T) {
	g := NewGraph(testRate, WithLimiter(false))
	if err := g.NewVoice(KindNoise).Build(NoiseParams(0, 0.1)); err != nil {
		t.Fatalf("build: %v", err)
	}
	buf := render(g, 0.1)
	if p := peakIn(buf, 0, 480); p < 0.1 {
		t.Fatalf("noise onset peak = %v, want audible", p)
	}
}

func TestVoiceBuildsOnce(t *testing.T) {
	g := NewGraph(testRate)
	v := g.NewVoice(KindTone)
	if err := v.Build(ClickParams(Square, 880, 0, 0.05)); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := v.Build(ClickParams(Square, 880, 0, 0.05)); !errors.Is(err, ErrVoiceReused) {
		t.Fatalf("second build err = %v, want ErrVoiceReused", err)
	}
}

func TestBuildRejectsMalformedParams(t *testing.T) {
	g := NewGraph(testRate)
	cases := []struct {
		name string
		kind Kind
		p    Params
		want error
	}{
		{"zero freq", KindTone, ClickParams(Sine, 0, 0, 0.1), ErrInvalidFrequency},
		{"nan freq", KindTone, ClickParams(Sine, math.NaN(), 0, 0.1), ErrInvalidFrequency},
		{"inf freq", KindTone, ClickParams(Sine, math.Inf(1), 0, 0.1), ErrInvalidFrequency},
		{"zero duration", KindNoise, NoiseParams(0, 0), ErrInvalidDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.NewVoice(tc.kind).Build(tc.p)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if got := g.Active(); got != 0 {
		t.Fatalf("rejected params scheduled %d nodes", got)
	}
}

func TestLimiterKeepsStackedChordInRange(t *testing.T) {
	g := NewGraph(testRate)
	for _, f := range []float64{261.63, 329.63, 392.0, 493.88} {
		if err := g.NewVoice(KindTone).Build(ToneParams(Sine, f, 0, 1.5)); err != nil {
			t.Fatalf("build: %v", err)
		}
	}
	buf := render(g, 1.5)
	for i, s := range buf {
		if s > 1 || s < -1 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
}

func TestSampleTapSeesRenderedAudio(t *testing.T) {
	var tapped int
	g := NewGraph(testRate, WithSampleTap(func(buf []float32) { tapped += len(buf) }))
	render(g, 0.01)
	if tapped != 480*2 {
		t.Fatalf("tapped = %d samples, want %d", tapped, 480*2)
	}
}

func BenchmarkGraphProcess(b *testing.B) {
	buf := make([]float32, 2048*2)
	for i := 0; i < b.N; i++ {
		g := NewGraph(testRate)
		_ = g.NewVoice(KindNoise).Build(NoiseParams(0, 0.1))
		_ = g.NewVoice(KindTone).Build(ClickParams(Triangle, 400, 0, 0.1))
		g.Process(buf)
	}
}

package synth

import (
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/cbegin/solfa-go/internal/effects"
)

// GraphOption configures a Graph.
type GraphOption func(*graphConfig)

type graphConfig struct {
	noiseSeed uint64
	limiter   bool
	sampleTap func([]float32)
}

func defaultGraphConfig() graphConfig {
	return graphConfig{noiseSeed: 0x5eed, limiter: true}
}

// WithNoiseSeed fixes the seed of the shared noise buffer.
func WithNoiseSeed(seed uint64) GraphOption {
	return func(cfg *graphConfig) {
		cfg.noiseSeed = seed
	}
}

// WithLimiter enables or disables the master bus limiter (default on).
func WithLimiter(enabled bool) GraphOption {
	return func(cfg *graphConfig) {
		cfg.limiter = enabled
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo
// buffer. It runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) GraphOption {
	return func(cfg *graphConfig) {
		cfg.sampleTap = tap
	}
}

// Graph mixes scheduled one-shot nodes into an interleaved stereo stream.
// Its clock is the number of frames rendered so far, so time only advances
// when the output device pulls audio.
type Graph struct {
	sampleRate int
	frames     atomic.Int64

	mu        sync.Mutex
	nodes     []*node
	noise     []float32
	noiseSeed uint64
	master    *effects.Chain
	sampleTap func([]float32)
	built     uint64
	released  uint64
}

func NewGraph(sampleRate int, opts ...GraphOption) *Graph {
	cfg := defaultGraphConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	master := effects.NewChain()
	if cfg.limiter {
		master.Add(effects.NewLimiter(sampleRate, -1, 80))
	}
	return &Graph{
		sampleRate: sampleRate,
		noiseSeed:  cfg.noiseSeed,
		master:     master,
		sampleTap:  cfg.sampleTap,
	}
}

func (g *Graph) SampleRate() int { return g.sampleRate }

// Now returns the graph clock in seconds.
func (g *Graph) Now() float64 {
	return float64(g.frames.Load()) / float64(g.sampleRate)
}

// Frames returns the number of frames rendered so far.
func (g *Graph) Frames() int64 { return g.frames.Load() }

// Active returns the number of nodes not yet released.
func (g *Graph) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Stats returns how many nodes were built and released over the graph's
// lifetime.
func (g *Graph) Stats() (built, released uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.built, g.released
}

// Voice is a handle for a single one-shot node. It can be built once.
type Voice struct {
	graph *Graph
	kind  Kind
	used  atomic.Bool
}

// NewVoice allocates an unbuilt voice of the given kind.
func (g *Graph) NewVoice(kind Kind) *Voice {
	return &Voice{graph: g, kind: kind}
}

func (v *Voice) Kind() Kind { return v.kind }

// Build constructs the node chain for p and schedules it to start and stop
// at exactly p.Start and p.Stop(). A tone is oscillator -> envelope; noise
// is shared noise buffer -> 1 kHz high-pass -> envelope.
func (v *Voice) Build(p Params) error {
	if err := p.validate(v.kind); err != nil {
		return err
	}
	if !v.used.CompareAndSwap(false, true) {
		return ErrVoiceReused
	}
	g := v.graph
	sr := float64(g.sampleRate)
	start := int64(math.Round(p.Start * sr))
	stop := int64(math.Round(p.Stop() * sr))
	rampEnd := int64(math.Round((p.Stop() - p.Tail) * sr))
	n := &node{
		kind:       v.kind,
		shape:      p.Shape,
		dt:         p.Freq / sr,
		startFrame: start,
		stopFrame:  stop,
		env:        newEnvelope(p.Peak, p.Floor, start, rampEnd),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if v.kind == KindNoise {
		n.noise = g.noiseBufferLocked()
		n.hp = effects.NewHighPass(g.sampleRate, NoiseHighPassHz, math.Sqrt2/2)
	}
	g.nodes = append(g.nodes, n)
	g.built++
	return nil
}

// noiseBufferLocked lazily builds the shared white-noise buffer.
func (g *Graph) noiseBufferLocked() []float32 {
	if g.noise != nil {
		return g.noise
	}
	rng := rand.New(rand.NewPCG(g.noiseSeed, g.noiseSeed^0x9e3779b97f4a7c15))
	buf := make([]float32, int(NoiseBufferSec*float64(g.sampleRate)))
	for i := range buf {
		buf[i] = float32(rng.Float64()*2 - 1)
	}
	g.noise = buf
	return buf
}

// Process renders len(dst)/2 stereo frames and advances the clock.
func (g *Graph) Process(dst []float32) {
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	g.mu.Lock()
	base := g.frames.Load()
	for i := 0; i < frames; i++ {
		f := base + int64(i)
		var sum float64
		for _, n := range g.nodes {
			sum += n.render(f)
		}
		l, r := g.master.Process(float32(sum), float32(sum))
		dst[2*i] = clamp(l)
		dst[2*i+1] = clamp(r)
	}
	end := base + int64(frames)
	g.frames.Store(end)
	g.releaseLocked(end)
	tap := g.sampleTap
	g.mu.Unlock()
	if tap != nil {
		tap(dst)
	}
}

// Silence drops every pending node and clears the master bus state. The
// clock keeps running.
func (g *Graph) Silence() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released += uint64(len(g.nodes))
	clear(g.nodes)
	g.nodes = g.nodes[:0]
	g.master.Reset()
}

// releaseLocked drops nodes whose stop frame has been rendered.
func (g *Graph) releaseLocked(now int64) {
	kept := g.nodes[:0]
	for _, n := range g.nodes {
		if n.stopFrame > now {
			kept = append(kept, n)
			continue
		}
		g.released++
	}
	for i := len(kept); i < len(g.nodes); i++ {
		g.nodes[i] = nil
	}
	g.nodes = kept
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

package effects

import "math"

// Compressor is a feed-forward peak compressor with a shared stereo
// envelope so both channels are reduced by the same amount.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32
}

// NewCompressor creates a compressor.
// thresholdDB: level above which gain reduction starts (e.g. -20)
// ratio: compression ratio (e.g. 4 for 4:1)
// attackMs, releaseMs: envelope follower times
// makeupDB: gain applied after reduction
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: dbToLinear(thresholdDB),
		ratio:     ratio,
		attack:    timeCoeff(sampleRate, attackMs),
		release:   timeCoeff(sampleRate, releaseMs),
		makeup:    dbToLinear(makeupDB),
	}
}

// NewLimiter returns a compressor tuned to hold the summed voice bus under
// ceilingDB: near-instant attack, 20:1 ratio, no makeup gain.
func NewLimiter(sampleRate int, ceilingDB, releaseMs float32) *Compressor {
	return NewCompressor(sampleRate, ceilingDB, 20, 0.5, releaseMs, 0)
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain(c.env) * c.makeup
	return l * g, r * g
}

// GainReduction reports the current gain multiplier (1 = no reduction).
func (c *Compressor) GainReduction() float32 {
	return c.gain(c.env)
}

func (c *Compressor) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.env = 0
}

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func timeCoeff(sampleRate int, ms float32) float32 {
	if ms <= 0 || sampleRate <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(ms)*float64(sampleRate)/1000)))
}

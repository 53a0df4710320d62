package effects

import "math"

// HighPass is a mono second-order (RBJ) high-pass biquad, Direct Form I.
type HighPass struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewHighPass designs a high-pass at cutoffHz with resonance q. A q of
// 1/sqrt(2) gives a Butterworth response.
func NewHighPass(sampleRate int, cutoffHz, q float64) *HighPass {
	h := &HighPass{}
	h.Set(sampleRate, cutoffHz, q)
	return h
}

func (h *HighPass) Set(sampleRate int, cutoffHz, q float64) {
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	nyquist := float64(sampleRate) / 2
	if cutoffHz >= nyquist {
		cutoffHz = nyquist * 0.99
	}
	w := 2 * math.Pi * cutoffHz / float64(sampleRate)
	cosW := math.Cos(w)
	alpha := math.Sin(w) / (2 * q)
	a0 := 1 + alpha
	h.b0 = (1 + cosW) / 2 / a0
	h.b1 = -(1 + cosW) / a0
	h.b2 = (1 + cosW) / 2 / a0
	h.a1 = -2 * cosW / a0
	h.a2 = (1 - alpha) / a0
}

// Filter processes one sample.
func (h *HighPass) Filter(x float64) float64 {
	y := h.b0*x + h.b1*h.x1 + h.b2*h.x2 - h.a1*h.y1 - h.a2*h.y2
	h.x2, h.x1 = h.x1, x
	h.y2, h.y1 = h.y1, y
	return y
}

package audio

import (
	"errors"
	"sync"
)

// ManualBackend is a device without hardware: time advances only when the
// caller renders frames. Offline rendering and tests drive the clock
// through it.
type ManualBackend struct {
	mu      sync.Mutex
	openErr error
	opens   int
	out     *ManualOutput
}

func NewManualBackend() *ManualBackend {
	return &ManualBackend{}
}

func (*ManualBackend) Name() string { return "manual" }

// FailOpens makes every subsequent Open fail with err until it is called
// again with nil.
func (b *ManualBackend) FailOpens(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

// Opens reports how many times Open has succeeded.
func (b *ManualBackend) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

func (b *ManualBackend) Open(sampleRate int, src SampleSource) (Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opens++
	b.out = &ManualOutput{sampleRate: sampleRate, src: src}
	return b.out, nil
}

// Output returns the most recently opened output, or nil.
func (b *ManualBackend) Output() *ManualOutput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out
}

var errNotOpen = errors.New("audio: manual output not open")

// Render pulls frames from the device source. It fails until the device
// has been opened.
func (b *ManualBackend) Render(frames int) ([]float32, error) {
	out := b.Output()
	if out == nil {
		return nil, errNotOpen
	}
	return out.Render(frames), nil
}

// ManualOutput is the Output returned by ManualBackend.
type ManualOutput struct {
	mu         sync.Mutex
	sampleRate int
	src        SampleSource
	playing    bool
	closed     bool
	resumes    int
}

func (o *ManualOutput) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = true
}

func (o *ManualOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
}

func (o *ManualOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *ManualOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumes++
	o.playing = true
	return nil
}

// Resumes reports how many times Resume was called.
func (o *ManualOutput) Resumes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resumes
}

func (o *ManualOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
	o.closed = true
	return nil
}

// Render pulls stereo frames from the source, advancing its clock.
func (o *ManualOutput) Render(frames int) []float32 {
	buf := make([]float32, frames*2)
	o.src.Process(buf)
	return buf
}

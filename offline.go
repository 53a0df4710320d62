package solfa

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/cbegin/solfa-go/internal/audio"
	"github.com/cbegin/solfa-go/internal/scheduler"
)

// offline renders a Trainer against a pull-driven device. The scheduler's
// timer never fires; instead it is woken after every lookahead period of
// rendered audio, which is what a real-time timer would do.
type offline struct {
	trainer    *Trainer
	backend    *audio.ManualBackend
	sampleRate int
	step       int
}

func newOffline(sampleRate int, opts []Option) (*offline, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	backend := audio.NewManualBackend()
	cfg := defaultTrainerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	opts = append(opts,
		WithSampleRate(sampleRate),
		WithBackend(backend),
		WithTicker(func(time.Duration) scheduler.Ticker { return scheduler.NewManualTicker() }),
	)
	t, err := New(opts...)
	if err != nil {
		return nil, err
	}
	step := int(cfg.lookahead.Seconds() * float64(sampleRate))
	if step <= 0 {
		step = 1
	}
	return &offline{trainer: t, backend: backend, sampleRate: sampleRate, step: step}, nil
}

func (o *offline) render(seconds float64) ([]float32, error) {
	frames := int(float64(o.sampleRate) * seconds)
	out := make([]float32, 0, frames*2)
	for frames > 0 {
		n := min(o.step, frames)
		buf, err := o.backend.Render(n)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
		frames -= n
		if err := o.trainer.sched.Wake(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RenderMetronome renders seconds of the metronome playing cfg as
// interleaved stereo float32 samples.
func RenderMetronome(cfg TempoConfig, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	o, err := newOffline(sampleRate, append(opts, WithTempo(cfg)))
	if err != nil {
		return nil, err
	}
	defer o.trainer.Close()
	if err := o.trainer.Start(); err != nil {
		return nil, err
	}
	return o.render(seconds)
}

// RenderExercise renders ex as interleaved stereo float32 samples. When
// seconds is not positive the render stops shortly after the last note.
func RenderExercise(ex Exercise, sampleRate int, seconds float64, opts ...Option) ([]float32, Playback, error) {
	o, err := newOffline(sampleRate, opts)
	if err != nil {
		return nil, Playback{}, err
	}
	defer o.trainer.Close()
	pb, err := o.trainer.PlayExerciseSequence(ex)
	if err != nil {
		return nil, Playback{}, err
	}
	if seconds <= 0 {
		seconds = pb.End() + 0.1
	}
	out, err := o.render(seconds)
	return out, pb, err
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

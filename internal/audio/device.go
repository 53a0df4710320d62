package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cbegin/solfa-go/internal/synth"
)

// ErrDeviceUnavailable reports that the output device could not be opened
// or resumed, typically because the host has not seen a user gesture yet.
// The device stays closed; the next call retries.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

type DeviceOption func(*deviceConfig)

type deviceConfig struct {
	logger    *slog.Logger
	graphOpts []synth.GraphOption
}

func WithLogger(logger *slog.Logger) DeviceOption {
	return func(cfg *deviceConfig) {
		cfg.logger = logger
	}
}

// WithGraphOptions forwards options to the device's synth graph.
func WithGraphOptions(opts ...synth.GraphOption) DeviceOption {
	return func(cfg *deviceConfig) {
		cfg.graphOpts = append(cfg.graphOpts, opts...)
	}
}

// Device is the single output device and clock shared by every player in
// the process. It is opened on first use.
type Device struct {
	mu         sync.Mutex
	backend    Backend
	sampleRate int
	graph      *synth.Graph
	out        Output
	logger     *slog.Logger
}

func NewDevice(sampleRate int, backend Backend, opts ...DeviceOption) (*Device, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if backend == nil {
		return nil, errors.New("audio backend is required")
	}
	cfg := deviceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Device{
		backend:    backend,
		sampleRate: sampleRate,
		graph:      synth.NewGraph(sampleRate, cfg.graphOpts...),
		logger:     cfg.logger,
	}, nil
}

func (d *Device) SampleRate() int { return d.sampleRate }

func (d *Device) Graph() *synth.Graph { return d.graph }

// Now returns the audio clock in seconds. It is monotonic and independent
// of any timer used to drive scheduling.
func (d *Device) Now() float64 { return d.graph.Now() }

// IsOpen reports whether the backend output has been opened.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out != nil
}

// Ensure opens the output on first use and resumes it if it was
// suspended. Failures are wrapped in ErrDeviceUnavailable.
func (d *Device) Ensure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		out, err := d.backend.Open(d.sampleRate, d.graph)
		if err != nil {
			d.logger.Debug("audio device open failed", "backend", d.backend.Name(), "error", err)
			return fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, d.backend.Name(), err)
		}
		d.out = out
		d.out.Play()
		d.logger.Debug("audio device opened", "backend", d.backend.Name(), "sample_rate", d.sampleRate)
	}
	if err := d.out.Resume(); err != nil {
		return fmt.Errorf("%w: resume %s: %v", ErrDeviceUnavailable, d.backend.Name(), err)
	}
	return nil
}

// NewVoice allocates a one-shot voice on the device graph, opening the
// device first if needed.
func (d *Device) NewVoice(kind synth.Kind) (*synth.Voice, error) {
	if err := d.Ensure(); err != nil {
		return nil, err
	}
	return d.graph.NewVoice(kind), nil
}

// Close releases the output. Sounds still queued are cut off.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		return nil
	}
	err := d.out.Close()
	d.out = nil
	d.graph.Silence()
	return err
}

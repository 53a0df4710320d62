package audio

import (
	"fmt"
	"time"
)

// Output is an opened device stream.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	// Resume restarts a suspended device. Hosts that gate audio behind a
	// user gesture queue the request and start once allowed.
	Resume() error
	Close() error
}

// Backend opens an Output that pulls stereo frames from src.
type Backend interface {
	Name() string
	Open(sampleRate int, src SampleSource) (Output, error)
}

// BackendByName returns the hardware backend called name.
func BackendByName(name string, bufferSize time.Duration) (Backend, error) {
	switch name {
	case "", "ebiten":
		return EbitenBackend{BufferSize: bufferSize}, nil
	case "oto":
		return OtoBackend{BufferSize: bufferSize}, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

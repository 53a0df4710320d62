package audio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cbegin/solfa-go/internal/synth"
)

func resetOto(t *testing.T) {
	t.Helper()
	saved := newOtoContext
	reset := func() {
		otoMu.Lock()
		otoCtx, otoRate, otoErr = nil, 0, nil
		otoMu.Unlock()
	}
	reset()
	t.Cleanup(func() {
		newOtoContext = saved
		reset()
	})
}

func TestOtoDriverInitFailureIsCached(t *testing.T) {
	resetOto(t)
	driverErr := errors.New("no sound card")
	var calls int
	newOtoContext = func(*oto.NewContextOptions) (*oto.Context, chan struct{}, error) {
		calls++
		if calls > 1 {
			return nil, nil, errors.New("oto: context is already created")
		}
		return nil, nil, driverErr
	}

	dev, err := NewDevice(48000, OtoBackend{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	for i := 0; i < 3; i++ {
		err := dev.Ensure()
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("attempt %d: got %v, want ErrDeviceUnavailable", i, err)
		}
		if _, err := sharedOtoContext(48000, 0); !errors.Is(err, driverErr) {
			t.Fatalf("attempt %d: got %v, want the first driver error", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("driver init called %d times, want 1", calls)
	}
	if dev.IsOpen() {
		t.Fatal("device should stay closed after a failed init")
	}
}

type fakeReadiness struct {
	readyAfter int32
	calls      atomic.Int32
}

func (f *fakeReadiness) IsReady() bool {
	return f.calls.Add(1) > f.readyAfter
}

func TestWaitReady(t *testing.T) {
	tests := []struct {
		name       string
		readyAfter int32
		timeout    time.Duration
		wantErr    bool
	}{
		{name: "ready", readyAfter: 0, timeout: 10 * time.Millisecond},
		{name: "becomes ready", readyAfter: 3, timeout: time.Second},
		{name: "never ready", readyAfter: 1 << 30, timeout: 20 * time.Millisecond, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReadiness{readyAfter: tt.readyAfter}
			err := waitReady(r, tt.timeout, time.Millisecond)
			if tt.wantErr {
				if !errors.Is(err, errNotReady) {
					t.Fatalf("got %v, want errNotReady", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("waitReady: %v", err)
			}
		})
	}
}

type notReadyBackend struct {
	ready *atomic.Bool
}

func (notReadyBackend) Name() string { return "gated" }

func (b notReadyBackend) Open(int, SampleSource) (Output, error) {
	return &gatedOutput{ready: b.ready}, nil
}

// gatedOutput resumes like the ebiten output: only once ready.
type gatedOutput struct {
	ready   *atomic.Bool
	playing bool
}

func (o *gatedOutput) IsReady() bool   { return o.ready.Load() }
func (o *gatedOutput) Play()           { o.playing = true }
func (o *gatedOutput) Pause()          { o.playing = false }
func (o *gatedOutput) IsPlaying() bool { return o.playing }
func (o *gatedOutput) Close() error    { return nil }

func (o *gatedOutput) Resume() error {
	return waitReady(o, 5*time.Millisecond, time.Millisecond)
}

func TestNotReadyContextSurfacesDeviceUnavailable(t *testing.T) {
	var ready atomic.Bool
	dev, err := NewDevice(8000, notReadyBackend{ready: &ready})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	if _, err := dev.NewVoice(synth.KindTone); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("got %v, want ErrDeviceUnavailable", err)
	}
	ready.Store(true)
	if _, err := dev.NewVoice(synth.KindTone); err != nil {
		t.Fatalf("retry after ready: %v", err)
	}
}

package solfa

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cbegin/solfa-go/internal/audio"
	"github.com/cbegin/solfa-go/internal/scheduler"
)

func newTestTrainer(t *testing.T, opts ...Option) (*Trainer, *audio.ManualBackend) {
	t.Helper()
	backend := audio.NewManualBackend()
	opts = append([]Option{
		WithSampleRate(8000),
		WithBackend(backend),
		WithTicker(func(time.Duration) scheduler.Ticker { return scheduler.NewManualTicker() }),
	}, opts...)
	tr, err := New(opts...)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr, backend
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestDefaultTempo(t *testing.T) {
	tr, _ := newTestTrainer(t)
	got := tr.TempoConfig()
	if got != DefaultTempo() {
		t.Fatalf("tempo = %v, want %v", got, DefaultTempo())
	}
	if got.BPM != 92 || got.Subdivision != Quarter || got.Timbre != Woodblock {
		t.Fatalf("unexpected default %v", got)
	}
}

func TestSetTempoConfigBPMRange(t *testing.T) {
	tr, _ := newTestTrainer(t)
	for bpm := 20; bpm <= 300; bpm++ {
		if err := tr.SetTempoConfig(WithBPM(bpm)); err != nil {
			t.Fatalf("SetTempoConfig(%d): %v", bpm, err)
		}
		if got := tr.TempoConfig().BPM; got != bpm {
			t.Fatalf("bpm = %d, want %d", got, bpm)
		}
	}
	for _, bpm := range []int{19, 301, 0, -5, 1000} {
		if err := tr.SetTempoConfig(WithBPM(bpm)); err != nil {
			t.Fatalf("out-of-range write should be dropped silently, got %v", err)
		}
		if got := tr.TempoConfig().BPM; got != 300 {
			t.Fatalf("bpm changed to %d by write of %d", got, bpm)
		}
	}
}

func TestSetTempoConfigPartialUpdate(t *testing.T) {
	tr, _ := newTestTrainer(t)
	if err := tr.SetTempoConfig(WithBPM(500), WithSubdivision(Triplet), WithTimbre(Snare)); err != nil {
		t.Fatalf("SetTempoConfig: %v", err)
	}
	got := tr.TempoConfig()
	if got.BPM != 92 || got.Subdivision != Triplet || got.Timbre != Snare {
		t.Fatalf("unexpected config %v", got)
	}
	if got.TimeSignature != (TimeSignature{Numerator: 4, Denominator: 4}) {
		t.Fatalf("time signature changed: %v", got.TimeSignature)
	}
}

func TestSetTempoConfigRejectsMalformed(t *testing.T) {
	tr, _ := newTestTrainer(t)
	before := tr.TempoConfig()
	for _, opt := range []TempoOption{
		WithTimeSignature(0, 4),
		WithSubdivision(Subdivision(7)),
		WithTimbre("cowbell"),
	} {
		if err := tr.SetTempoConfig(WithBPM(120), opt); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("err = %v, want ErrInvalidConfig", err)
		}
		if tr.TempoConfig() != before {
			t.Fatalf("rejected update applied: %v", tr.TempoConfig())
		}
	}
}

func TestStartStopIdempotent(t *testing.T) {
	tr, backend := newTestTrainer(t)
	events := tr.Watch()
	tr.Stop()
	if err := tr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !tr.IsPlaying() {
		t.Fatal("expected playing")
	}
	if backend.Opens() != 1 {
		t.Fatalf("opens = %d, want 1", backend.Opens())
	}
	tr.Stop()
	tr.Stop()
	if tr.IsPlaying() {
		t.Fatal("expected stopped")
	}
	got := drain(events)
	if len(got) != 2 || got[0].Kind != EventStarted || got[1].Kind != EventStopped {
		t.Fatalf("events = %+v", got)
	}
	if _, err := uuid.Parse(got[0].Session); err != nil || got[0].Session != got[1].Session {
		t.Fatalf("bad session ids %q %q", got[0].Session, got[1].Session)
	}
}

func TestToggle(t *testing.T) {
	tr, _ := newTestTrainer(t)
	playing, err := tr.Toggle()
	if err != nil || !playing {
		t.Fatalf("toggle on = %v, %v", playing, err)
	}
	playing, err = tr.Toggle()
	if err != nil || playing {
		t.Fatalf("toggle off = %v, %v", playing, err)
	}
}

func TestStartSurfacesDeviceUnavailable(t *testing.T) {
	tr, backend := newTestTrainer(t)
	backend.FailOpens(errors.New("no user gesture"))
	if err := tr.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
	if tr.IsPlaying() {
		t.Fatal("playing without a device")
	}
	backend.FailOpens(nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !tr.IsPlaying() {
		t.Fatal("expected playing after retry")
	}
}

func TestBeatEvents(t *testing.T) {
	tr, backend := newTestTrainer(t)
	if err := tr.SetTempoConfig(WithBPM(120), WithTimeSignature(2, 4), WithSubdivision(Eighth)); err != nil {
		t.Fatal(err)
	}
	events := tr.Watch()
	if err := tr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Wake every 25ms of rendered audio for 0.975s.
	for i := 0; i < 39; i++ {
		if _, err := backend.Render(200); err != nil {
			t.Fatal(err)
		}
		if err := tr.sched.Wake(); err != nil {
			t.Fatal(err)
		}
	}
	tr.Stop()

	var beats []Event
	for _, ev := range drain(events) {
		if ev.Kind == EventBeat {
			beats = append(beats, ev)
		}
	}
	// Ticks at 0.1 + 0.25n up to the 1.075s horizon.
	if len(beats) != 4 {
		t.Fatalf("got %d beats, want 4", len(beats))
	}
	roles := []Role{RoleMeasureDownbeat, RoleSubdivision, RoleBeatDownbeat, RoleSubdivision}
	for i, b := range beats {
		if math.Abs(b.Time-(0.1+0.25*float64(i))) > 1e-9 {
			t.Fatalf("beat %d at %v", i, b.Time)
		}
		if b.Role != roles[i] || b.BeatIndex != i {
			t.Fatalf("beat %d = %+v", i, b)
		}
	}
}

func TestHaltOnEmissionFailure(t *testing.T) {
	tr, backend := newTestTrainer(t)
	events := tr.Watch()
	if err := tr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := backend.Render(200); err != nil {
		t.Fatal(err)
	}
	// Lose the device between wake-ups.
	if err := tr.device.Close(); err != nil {
		t.Fatal(err)
	}
	backend.FailOpens(errors.New("unplugged"))
	if err := tr.sched.Wake(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("wake err = %v", err)
	}
	if tr.IsPlaying() {
		t.Fatal("scheduler kept running after emission failure")
	}
	if !errors.Is(tr.Err(), ErrDeviceUnavailable) {
		t.Fatalf("Err() = %v", tr.Err())
	}
	var sawError bool
	for _, ev := range drain(events) {
		if ev.Kind == EventError && errors.Is(ev.Err, ErrDeviceUnavailable) {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("no EventError published")
	}
}

func TestPlayExerciseSequence(t *testing.T) {
	tr, backend := newTestTrainer(t)
	if err := tr.device.Ensure(); err != nil {
		t.Fatal(err)
	}
	if _, err := backend.Render(4000); err != nil {
		t.Fatal(err)
	}
	now := tr.Now()
	pb, err := tr.PlayExerciseSequence(Exercise{Pitches: []string{"C", "E", "G"}, Type: "acorde"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	want := []float64{0.1, 0.7, 1.3, 2.4, 2.4, 2.4}
	for i, off := range want {
		if math.Abs(pb.At(i)-(now+off)) > 1e-9 {
			t.Fatalf("onset %d = %v, want now+%v", i, pb.At(i), off)
		}
	}
	if pb.Events[3].Hold != 1.5 {
		t.Fatalf("chord hold = %v", pb.Events[3].Hold)
	}
}

func TestPlayExerciseSequenceRejectsEmpty(t *testing.T) {
	tr, backend := newTestTrainer(t)
	if _, err := tr.PlayExerciseSequence(Exercise{Type: "interval"}); !errors.Is(err, ErrInvalidExercise) {
		t.Fatalf("err = %v, want ErrInvalidExercise", err)
	}
	if backend.Opens() != 0 || tr.device.Graph().Active() != 0 {
		t.Fatal("empty exercise scheduled sound")
	}
}

func TestGenerateExercise(t *testing.T) {
	ex, err := GenerateExercise(ExerciseRequest{Key: "G", Type: "acorde", Difficulty: 5}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ex.Pitches[0] != "G" || len(ex.Pitches) < 3 {
		t.Fatalf("unexpected chord %v", ex.Pitches)
	}
}

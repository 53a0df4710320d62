package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbegin/solfa-go/internal/tempo"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	tc, err := cfg.TempoConfig()
	if err != nil {
		t.Fatalf("TempoConfig: %v", err)
	}
	if tc != tempo.DefaultConfig() {
		t.Errorf("tempo = %v, want %v", tc, tempo.DefaultConfig())
	}
	if cfg.Lookahead() != 25*time.Millisecond || cfg.ScheduleAhead() != 0.1 {
		t.Errorf("lookahead = %v, schedule ahead = %v", cfg.Lookahead(), cfg.ScheduleAhead())
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tc := tempo.Config{
		BPM:           140,
		TimeSignature: tempo.TimeSignature{Numerator: 6, Denominator: 8},
		Subdivision:   tempo.Triplet,
		Timbre:        tempo.Snare,
	}
	cfg.SetTempo(tc)
	cfg.Backend = "oto"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %v, want 0600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := again.TempoConfig()
	if err != nil {
		t.Fatalf("TempoConfig: %v", err)
	}
	if got != tc || again.Backend != "oto" {
		t.Errorf("reloaded %v/%s, want %v/oto", got, again.Backend, tc)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "sample_rate: 48000\nbackend: ebiten\nbuffer_ms: 20\nlookahead_ms: 25\nschedule_ahead_ms: 100\nlog_level: info\ntempo:\n  bpm: 999\n  numerator: 4\n  denominator: 4\n  subdivision: quarter\n  timbre: woodblock\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, tempo.ErrConfigOutOfRange) {
		t.Fatalf("Load err = %v, want ErrConfigOutOfRange", err)
	}

	if err := os.WriteFile(path, []byte("tempo: [oops"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSet(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key, value string
		check      func(*Config) bool
	}{
		{"tempo.bpm", "120", func(c *Config) bool { return c.Tempo.BPM == 120 }},
		{"tempo.subdivision", "Corchea", func(c *Config) bool { return c.Tempo.Subdivision == "corchea" }},
		{"tempo.time_signature", "3/4", func(c *Config) bool { return c.Tempo.Numerator == 3 && c.Tempo.Denominator == 4 }},
		{"backend", "OTO", func(c *Config) bool { return c.Backend == "oto" }},
		{"log_level", "debug", func(c *Config) bool { return c.Level().String() == "DEBUG" }},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%s, %s): %v", tt.key, tt.value, err)
		}
		if !tt.check(cfg) {
			t.Errorf("Set(%s, %s) not applied: %+v", tt.key, tt.value, cfg)
		}
	}
	tc, err := cfg.TempoConfig()
	if err != nil || tc.Subdivision != tempo.Eighth {
		t.Errorf("TempoConfig = %v, %v", tc, err)
	}
}

func TestSetRejectsInvalidAndKeepsValue(t *testing.T) {
	cfg := Default()
	for _, kv := range [][2]string{
		{"tempo.bpm", "10"},
		{"tempo.bpm", "fast"},
		{"tempo.timbre", "cowbell"},
		{"backend", "alsa"},
		{"nope", "1"},
	} {
		if err := cfg.Set(kv[0], kv[1]); err == nil {
			t.Errorf("Set(%s, %s) succeeded", kv[0], kv[1])
		}
	}
	if cfg.Tempo.BPM != 92 || cfg.Tempo.Timbre != "woodblock" || cfg.Backend != "ebiten" {
		t.Errorf("failed Set changed config: %+v", cfg)
	}
	if !strings.Contains(strings.Join(Keys(), ","), "tempo.bpm") {
		t.Errorf("Keys() = %v", Keys())
	}
}

// Package config persists user preferences for the solfa CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/cbegin/solfa-go/internal/tempo"
)

const (
	// DefaultBaseDir is the configuration directory under $HOME.
	DefaultBaseDir = ".solfa"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the on-disk preference file.
type Config struct {
	SampleRate      int    `yaml:"sample_rate"`
	Backend         string `yaml:"backend"`
	BufferMs        int    `yaml:"buffer_ms"`
	LookaheadMs     int    `yaml:"lookahead_ms"`
	ScheduleAheadMs int    `yaml:"schedule_ahead_ms"`
	LogLevel        string `yaml:"log_level"`
	Tempo           Tempo  `yaml:"tempo"`

	path string
}

// Tempo is the persisted metronome setting.
type Tempo struct {
	BPM         int    `yaml:"bpm"`
	Numerator   int    `yaml:"numerator"`
	Denominator int    `yaml:"denominator"`
	Subdivision string `yaml:"subdivision"`
	Timbre      string `yaml:"timbre"`
}

func Default() *Config {
	t := tempo.DefaultConfig()
	c := &Config{
		SampleRate:      48000,
		Backend:         "ebiten",
		BufferMs:        20,
		LookaheadMs:     25,
		ScheduleAheadMs: 100,
		LogLevel:        "info",
	}
	c.SetTempo(t)
	return c
}

// DefaultPath returns ~/.solfa/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads the config at path, or at DefaultPath when path is empty. A
// missing file is created with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to its path.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) Path() string { return c.path }

// Validate checks every field a player would consume.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample_rate %d out of range", c.SampleRate)
	}
	switch c.Backend {
	case "ebiten", "oto":
	default:
		return fmt.Errorf("backend %q (expected ebiten|oto)", c.Backend)
	}
	if c.BufferMs <= 0 || c.LookaheadMs <= 0 || c.ScheduleAheadMs <= 0 {
		return fmt.Errorf("buffer_ms, lookahead_ms and schedule_ahead_ms must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	_, err := c.TempoConfig()
	return err
}

// TempoConfig converts the persisted tempo into a validated tempo.Config.
func (c *Config) TempoConfig() (tempo.Config, error) {
	sub, err := tempo.ParseSubdivision(c.Tempo.Subdivision)
	if err != nil {
		return tempo.Config{}, err
	}
	timbre, err := tempo.ParseTimbre(c.Tempo.Timbre)
	if err != nil {
		return tempo.Config{}, err
	}
	t := tempo.Config{
		BPM:           c.Tempo.BPM,
		TimeSignature: tempo.TimeSignature{Numerator: c.Tempo.Numerator, Denominator: c.Tempo.Denominator},
		Subdivision:   sub,
		Timbre:        timbre,
	}
	return t, t.Validate()
}

func (c *Config) SetTempo(t tempo.Config) {
	c.Tempo = Tempo{
		BPM:         t.BPM,
		Numerator:   t.TimeSignature.Numerator,
		Denominator: t.TimeSignature.Denominator,
		Subdivision: t.Subdivision.String(),
		Timbre:      string(t.Timbre),
	}
}

func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func (c *Config) BufferSize() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.LookaheadMs) * time.Millisecond
}

// ScheduleAhead is the lookahead window in seconds.
func (c *Config) ScheduleAhead() float64 {
	return float64(c.ScheduleAheadMs) / 1000
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return l, nil
}

// setters maps dotted keys to field updates for `config set`.
var setters = map[string]func(c *Config, v string) error{
	"sample_rate":       intField(func(c *Config) *int { return &c.SampleRate }),
	"backend":           stringField(func(c *Config) *string { return &c.Backend }),
	"buffer_ms":         intField(func(c *Config) *int { return &c.BufferMs }),
	"lookahead_ms":      intField(func(c *Config) *int { return &c.LookaheadMs }),
	"schedule_ahead_ms": intField(func(c *Config) *int { return &c.ScheduleAheadMs }),
	"log_level":         stringField(func(c *Config) *string { return &c.LogLevel }),
	"tempo.bpm":         intField(func(c *Config) *int { return &c.Tempo.BPM }),
	"tempo.numerator":   intField(func(c *Config) *int { return &c.Tempo.Numerator }),
	"tempo.denominator": intField(func(c *Config) *int { return &c.Tempo.Denominator }),
	"tempo.subdivision": stringField(func(c *Config) *string { return &c.Tempo.Subdivision }),
	"tempo.timbre":      stringField(func(c *Config) *string { return &c.Tempo.Timbre }),
	"tempo.time_signature": func(c *Config, v string) error {
		ts, err := tempo.ParseTimeSignature(v)
		if err != nil {
			return err
		}
		c.Tempo.Numerator, c.Tempo.Denominator = ts.Numerator, ts.Denominator
		return nil
	},
}

func intField(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func stringField(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = strings.ToLower(strings.TrimSpace(v))
		return nil
	}
}

// Keys lists the names accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates one key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

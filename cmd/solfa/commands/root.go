package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go"
	"github.com/cbegin/solfa-go/internal/audio"
	"github.com/cbegin/solfa-go/internal/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	globalConfig *config.Config
	logger       *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "solfa",
	Short: "Ear-training metronome and exercise player",
	Long: `solfa - a metronome and ear-training player.

The metronome schedules clicks against the audio clock a short window
ahead, so ticks stay on time regardless of system load.

Examples:
  # 3/4 at 140 BPM with eighth-note subdivisions
  solfa metronome --bpm 140 --signature 3/4 --subdivision eighth

  # Play a random chord at difficulty 3
  solfa exercise --type acorde --difficulty 3

  # Render a C major chord exercise to a WAV file
  solfa render exercise --pitches C,E,G --type chord -o chord.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.solfa/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(metronomeCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	globalConfig = cfg
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// trainerOptions maps the loaded config onto Trainer options.
func trainerOptions() ([]solfa.Option, error) {
	backend, err := audio.BackendByName(globalConfig.Backend, globalConfig.BufferSize())
	if err != nil {
		return nil, err
	}
	opts, err := timingOptions()
	if err != nil {
		return nil, err
	}
	return append(opts, solfa.WithBackend(backend)), nil
}

// timingOptions is the config without a device: offline renders bring
// their own.
func timingOptions() ([]solfa.Option, error) {
	cfg := globalConfig
	tc, err := cfg.TempoConfig()
	if err != nil {
		return nil, err
	}
	return []solfa.Option{
		solfa.WithSampleRate(cfg.SampleRate),
		solfa.WithLogger(logger),
		solfa.WithTempo(tc),
		solfa.WithLookahead(cfg.Lookahead()),
		solfa.WithScheduleAhead(cfg.ScheduleAhead()),
	}, nil
}

func newTrainer() (*solfa.Trainer, error) {
	opts, err := trainerOptions()
	if err != nil {
		return nil, err
	}
	return solfa.New(opts...)
}

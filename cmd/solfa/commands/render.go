package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render audio to a WAV file",
}

var (
	renderOutput  string
	renderSeconds float64
	renderTempo   tempoFlags
	renderExOpts  exerciseFlags
)

var renderMetronomeCmd = &cobra.Command{
	Use:     "metronome",
	Short:   "Render a click track",
	Example: `  solfa render metronome --bpm 100 --timbre snare --seconds 8 -o click.wav`,
	PreRunE: checkOutput,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := globalConfig.TempoConfig()
		if err != nil {
			return err
		}
		cfg, err := renderTempo.apply(cmd, base)
		if err != nil {
			return err
		}
		seconds := renderSeconds
		if seconds <= 0 {
			seconds = 8
		}
		opts, err := timingOptions()
		if err != nil {
			return err
		}
		samples, err := solfa.RenderMetronome(cfg, globalConfig.SampleRate, seconds, opts...)
		if err != nil {
			return err
		}
		return writeWAV(cmd, samples)
	},
}

var renderExerciseCmd = &cobra.Command{
	Use:     "exercise",
	Short:   "Render an exercise",
	Example: `  solfa render exercise --pitches C,E,G --type chord -o chord.wav`,
	PreRunE: checkOutput,
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, err := renderExOpts.resolve()
		if err != nil {
			return err
		}
		opts, err := timingOptions()
		if err != nil {
			return err
		}
		samples, _, err := solfa.RenderExercise(ex, globalConfig.SampleRate, renderSeconds, opts...)
		if err != nil {
			return err
		}
		if err := writeWAV(cmd, samples); err != nil {
			return err
		}
		if ex.Explanation != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), ex.Explanation)
		}
		return nil
	},
}

func init() {
	renderCmd.PersistentFlags().StringVarP(&renderOutput, "output", "o", "", "output WAV file (required)")
	renderCmd.PersistentFlags().Float64Var(&renderSeconds, "seconds", 0, "length in seconds (metronome default 8; exercise default: until the last note)")
	renderTempo.register(renderMetronomeCmd)
	renderExOpts.register(renderExerciseCmd)
	renderCmd.AddCommand(renderMetronomeCmd)
	renderCmd.AddCommand(renderExerciseCmd)
}

// checkOutput rejects a missing or unwritable --output before rendering.
func checkOutput(cmd *cobra.Command, args []string) error {
	if renderOutput == "" {
		return errors.New("--output is required")
	}
	dir := filepath.Dir(renderOutput)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	return nil
}

func writeWAV(cmd *cobra.Command, samples []float32) error {
	wav := solfa.EncodeWAVFloat32LE(samples, globalConfig.SampleRate, 2)
	if err := os.WriteFile(renderOutput, wav, 0644); err != nil {
		return fmt.Errorf("write %s: %w", renderOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%.2fs)\n", renderOutput, float64(len(samples)/2)/float64(globalConfig.SampleRate))
	return nil
}

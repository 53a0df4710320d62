package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go"
)

var (
	metronomeTempo    tempoFlags
	metronomeDuration time.Duration
	metronomeSave     bool
	metronomeQuiet    bool
)

var metronomeCmd = &cobra.Command{
	Use:   "metronome",
	Short: "Play a click track",
	Long: `Play a metronome until interrupted (Ctrl-C) or until --duration elapses.

Flags override the saved tempo; --save stores them as the new default.`,
	Example: `  solfa metronome --bpm 120 --subdivision triplet --timbre digital
  solfa metronome --signature 6/8 --duration 30s`,
	RunE: runMetronome,
}

func init() {
	metronomeTempo.register(metronomeCmd)
	metronomeCmd.Flags().DurationVar(&metronomeDuration, "duration", 0, "stop after this long (0 = until interrupted)")
	metronomeCmd.Flags().BoolVar(&metronomeSave, "save", false, "save the tempo settings to the config file")
	metronomeCmd.Flags().BoolVarP(&metronomeQuiet, "quiet", "q", false, "do not draw the beat indicator")
}

func runMetronome(cmd *cobra.Command, args []string) error {
	base, err := globalConfig.TempoConfig()
	if err != nil {
		return err
	}
	cfg, err := metronomeTempo.apply(cmd, base)
	if err != nil {
		return err
	}
	if metronomeSave {
		globalConfig.SetTempo(cfg)
		if err := globalConfig.Save(); err != nil {
			return err
		}
	}

	tr, err := newTrainer()
	if err != nil {
		return err
	}
	defer tr.Close()
	if err := tr.SetTempoConfig(
		solfa.WithBPM(cfg.BPM),
		solfa.WithTimeSignature(cfg.TimeSignature.Numerator, cfg.TimeSignature.Denominator),
		solfa.WithSubdivision(cfg.Subdivision),
		solfa.WithTimbre(cfg.Timbre),
	); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if metronomeDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, metronomeDuration)
		defer cancel()
	}

	events := tr.Watch()
	if err := tr.Start(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !metronomeQuiet {
		fmt.Fprintln(out, header(cfg))
	}

	for {
		select {
		case <-ctx.Done():
			tr.Stop()
			if !metronomeQuiet {
				fmt.Fprintln(out)
			}
			return nil
		case ev := <-events:
			switch ev.Kind {
			case solfa.EventBeat:
				if metronomeQuiet {
					continue
				}
				// Beats arrive up to one lookahead window early.
				if wait := ev.Time - tr.Now(); wait > 0 {
					time.Sleep(time.Duration(wait * float64(time.Second)))
				}
				fmt.Fprintf(out, "\r%s", beatBar(cfg.MeasureLength(), ev.BeatIndex, ev.Role))
			case solfa.EventError:
				fmt.Fprintln(out, "\n"+errStyle.Render("playback halted: "+ev.Err.Error()))
				return ev.Err
			}
		}
	}
}

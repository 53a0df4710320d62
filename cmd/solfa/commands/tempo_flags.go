package commands

import (
	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go"
	"github.com/cbegin/solfa-go/internal/tempo"
)

// tempoFlags are the metronome settings shared by `metronome` and
// `render metronome`. Unset flags keep the saved preference.
type tempoFlags struct {
	bpm         int
	signature   string
	subdivision string
	timbre      string
}

func (f *tempoFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.bpm, "bpm", 0, "tempo in beats per minute (20-300)")
	cmd.Flags().StringVar(&f.signature, "signature", "", "time signature, e.g. 3/4")
	cmd.Flags().StringVar(&f.subdivision, "subdivision", "", "quarter|eighth|triplet|sixteenth")
	cmd.Flags().StringVar(&f.timbre, "timbre", "", "woodblock|digital|snare")
}

// apply overlays the flags onto base. BPM goes through the same range check
// as the trainer's setter; an out-of-range value is reported here rather
// than silently ignored.
func (f *tempoFlags) apply(cmd *cobra.Command, base solfa.TempoConfig) (solfa.TempoConfig, error) {
	cfg := base
	if cmd.Flags().Changed("bpm") {
		next, err := cfg.WithBPM(f.bpm)
		if err != nil {
			return base, err
		}
		cfg = next
	}
	if f.signature != "" {
		ts, err := tempo.ParseTimeSignature(f.signature)
		if err != nil {
			return base, err
		}
		cfg.TimeSignature = ts
	}
	if f.subdivision != "" {
		s, err := tempo.ParseSubdivision(f.subdivision)
		if err != nil {
			return base, err
		}
		cfg.Subdivision = s
	}
	if f.timbre != "" {
		t, err := tempo.ParseTimbre(f.timbre)
		if err != nil {
			return base, err
		}
		cfg.Timbre = t
	}
	return cfg, cfg.Validate()
}

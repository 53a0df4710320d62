package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go"
	"github.com/cbegin/solfa-go/internal/pitch"
)

// exerciseFlags select an exercise: explicit --pitches, or a generated one.
type exerciseFlags struct {
	pitches    string
	kind       string
	key        string
	difficulty int
	rangeName  string
}

func (f *exerciseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pitches, "pitches", "", "comma-separated pitch classes, e.g. C,E,G (skips generation)")
	cmd.Flags().StringVarP(&f.kind, "type", "t", "interval", "interval|chord|progression (intervalo|acorde|progresión)")
	cmd.Flags().StringVarP(&f.key, "key", "k", "Random", "root pitch class ("+strings.Join(pitch.Names(), " ")+"), or Random")
	cmd.Flags().IntVarP(&f.difficulty, "difficulty", "d", 1, "difficulty 1-5")
	cmd.Flags().StringVar(&f.rangeName, "range", "", "interval range (reserved)")
}

func (f *exerciseFlags) resolve() (solfa.Exercise, error) {
	if strings.TrimSpace(f.pitches) != "" {
		var names []string
		for _, p := range strings.Split(f.pitches, ",") {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
		return solfa.Exercise{Pitches: names, Type: f.kind}, nil
	}
	return solfa.GenerateExercise(solfa.ExerciseRequest{
		Key:        f.key,
		Type:       f.kind,
		Difficulty: f.difficulty,
		Range:      f.rangeName,
	}, nil)
}

var (
	exerciseOpts   exerciseFlags
	exerciseReveal bool
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Generate and play an ear-training exercise",
	Long: `Play an interval, chord or progression.

Intervals and chords play as an ascending run followed by all notes
together. Progressions play one note per slot.`,
	Example: `  solfa exercise --type acorde --difficulty 4 --reveal
  solfa exercise --pitches A,C#,E --type chord`,
	RunE: runExercise,
}

func init() {
	exerciseOpts.register(exerciseCmd)
	exerciseCmd.Flags().BoolVar(&exerciseReveal, "reveal", false, "print the answer after playback")
}

func runExercise(cmd *cobra.Command, args []string) error {
	ex, err := exerciseOpts.resolve()
	if err != nil {
		return err
	}
	tr, err := newTrainer()
	if err != nil {
		return err
	}
	defer tr.Close()

	pb, err := tr.PlayExerciseSequence(ex)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("solfa")+helpStyle.Render(fmt.Sprintf("[%s, %d notes]", ex.Kind(), len(pb.Events))))

	// Hold the process open until the device has played the last note.
	wait := pb.End() - tr.Now() + 0.2
	time.Sleep(time.Duration(wait * float64(time.Second)))

	if exerciseReveal {
		fmt.Fprintf(out, "%s  %s\n", strings.Join(ex.Pitches, " "), helpStyle.Render(ex.Explanation))
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/cbegin/solfa-go/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved preferences",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(globalConfig)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", globalConfig.Path(), data)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value [key=value...]",
	Short: "Change one or more settings",
	Long:  "Change settings and save them.\n\nKeys: " + strings.Join(config.Keys(), ", "),
	Example: `  solfa config set tempo.bpm=120 tempo.time_signature=3/4
  solfa config set backend=oto`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			if err := globalConfig.Set(strings.TrimSpace(key), value); err != nil {
				return err
			}
		}
		if err := globalConfig.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", globalConfig.Path())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), globalConfig.Path())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

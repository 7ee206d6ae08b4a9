package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trafficsim/trafficsim/sim/stage"
)

var (
	composeFromPaths []string
	composeFormat    string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Merge the waves of several stages onto the first stage's map",
	Long:  "Load multiple stage files, keep the meta and map of the first and merge all waves in start-time order. Output is written to stdout.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(composeFromPaths) == 0 {
			logrus.Fatalf("at least one --from flag is required")
		}

		var stages []*stage.Stage
		for _, path := range composeFromPaths {
			s, err := stage.LoadStage(path)
			if err != nil {
				logrus.Fatalf("Failed to load stage %s: %v", path, err)
			}
			stages = append(stages, s)
		}

		merged, err := stage.Compose(stages)
		if err != nil {
			logrus.Fatalf("Compose failed: %v", err)
		}
		writeStageToStdout(merged, composeFormat)
	},
}

func init() {
	composeCmd.Flags().StringArrayVar(&composeFromPaths, "from", nil, "Path to a stage file (can be repeated)")
	composeCmd.Flags().StringVar(&composeFormat, "format", "yaml", "Output format (yaml, json)")
	_ = composeCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(composeCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trafficsim/trafficsim/sim/stage"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a stage file to another format",
	Long:  "Load a stage file in any supported format (YAML, JSON, HCL), validate it and write it to stdout in the requested format.",
}

var convertFromPath string

// --- trafficsim convert yaml ---

var convertYAMLCmd = &cobra.Command{
	Use:   "yaml",
	Short: "Convert a stage file to YAML",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := stage.LoadStage(convertFromPath)
		if err != nil {
			logrus.Fatalf("Failed to load stage: %v", err)
		}
		writeStageToStdout(s, "yaml")
	},
}

// --- trafficsim convert json ---

var convertJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Convert a stage file to JSON",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := stage.LoadStage(convertFromPath)
		if err != nil {
			logrus.Fatalf("Failed to load stage: %v", err)
		}
		writeStageToStdout(s, "json")
	},
}

// marshalStage encodes a stage as YAML or JSON.
func marshalStage(s *stage.Stage, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(s)
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// writeStageToStdout marshals a stage and writes it to stdout.
func writeStageToStdout(s *stage.Stage, format string) {
	data, err := marshalStage(s, format)
	if err != nil {
		logrus.Fatalf("%s marshal failed: %v", format, err)
	}
	fmt.Print(string(data))
}

func init() {
	convertCmd.PersistentFlags().StringVar(&convertFromPath, "file", "", "Path to the stage file")
	_ = convertCmd.MarkPersistentFlagRequired("file")

	convertCmd.AddCommand(convertYAMLCmd)
	convertCmd.AddCommand(convertJSONCmd)

	rootCmd.AddCommand(convertCmd)
}

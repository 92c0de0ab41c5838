package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcflyhq/contextrank/internal/weights"
)

var weightsCmd = &cobra.Command{
	Use:     "weights",
	Short:   "Inspect the scoring weights",
	GroupID: groupConfig,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the weights currently in effect",
	RunE:  runWeightsShow,
}

var weightsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path mcfly reads for weights overrides",
	RunE:  runWeightsPath,
}

func init() {
	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsPathCmd)
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	path, err := weights.DefaultPath()
	if err != nil {
		return err
	}
	w, err := weights.Load(path)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runWeightsPath(cmd *cobra.Command, args []string) error {
	path, err := weights.DefaultPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

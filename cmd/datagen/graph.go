package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph [run-id]",
	Short: "Print the pipeline as a Mermaid flowchart",
	Long:  `Draws the generate, merge, validate and fix conversations. With a run ID the thinkers that run went through are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		runID := ""
		if len(args) == 1 {
			runID = args[0]
		}
		return cli.Graph(ctx, rt.Config, rt.Engine.Audit(), runID, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

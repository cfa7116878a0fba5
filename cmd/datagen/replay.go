package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/tui"
)

var replayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "Show the audit trail of a run",
	Long: `Prints every prompt and response recorded for a run. Without a run ID the recorded
runs are listed. On a terminal the trail is rendered as Markdown; otherwise, or with
--raw, entries are printed as JSON lines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		audit := rt.Engine.Audit()
		if len(args) == 0 {
			return cli.ListRuns(ctx, audit, os.Stdout)
		}

		raw, _ := cmd.Flags().GetBool("raw")
		var render func(string) (string, error)
		if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
			render = tui.NewRenderer()
		}
		return cli.Replay(ctx, audit, args[0], os.Stdout, render)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("raw", false, "Print JSON lines even on a terminal")
}

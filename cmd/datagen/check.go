package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration",
	Long:  `Loads the configuration, resolves every conversation, thinker, template and model binding, and prints a summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.Check(cmd.Context(), rt, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

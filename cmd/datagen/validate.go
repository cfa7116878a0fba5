package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Run the configured validator on a candidate",
	Long:  `Reads a candidate from the file, or stdin when no file is given, and prints the validator's verdict.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}

		out, err := rt.Engine.Validate(cmd.Context(), string(data))
		if err != nil {
			return err
		}
		if out.Passed {
			fmt.Println(tui.Status(os.Stdout, true, "valid"))
			return nil
		}
		fmt.Println(tui.Status(os.Stdout, false, "invalid: "+out.ErrorMessage))
		_ = rt.Close()
		os.Exit(2)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

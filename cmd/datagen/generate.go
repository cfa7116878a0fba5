package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
)

var generateCmd = &cobra.Command{
	Use:   "generate [target...]",
	Short: "Generate validated records for one or more targets",
	Long: `Runs the generate, validate, repair loop for each target and prints the final
candidate. Targets come from the arguments and from --targets, a YAML or JSON file.
Exits non-zero when any target ends without a valid candidate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := cli.GenerateOptions{Targets: args}
		opts.Specification, _ = cmd.Flags().GetString("spec")
		opts.SpecificationFile, _ = cmd.Flags().GetString("spec-file")
		opts.TargetsFile, _ = cmd.Flags().GetString("targets")
		opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		_, err = cli.Generate(ctx, rt, opts, os.Stdout)
		if errors.Is(err, cli.ErrInvalidResult) {
			// Reports already describe the failures.
			_ = rt.Close()
			os.Exit(2)
		}
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("spec", "", "Specification text passed to the thinkers")
	generateCmd.Flags().String("spec-file", "", "File holding the specification text")
	generateCmd.Flags().String("targets", "", "YAML or JSON file listing targets")
	generateCmd.Flags().Int("concurrency", 0, "Targets generated in parallel (default from config)")
	generateCmd.Flags().Bool("json", false, "Print reports as JSON")
	generateCmd.Flags().BoolP("quiet", "q", false, "Print only the candidates")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes generation, audit trails, validation and Prometheus metrics over HTTP.
With --validator-only the configured validator alone is served, so another datagen
instance can point its http validator at this one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := cli.ServeOptions{}
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.ValidatorOnly, _ = cmd.Flags().GetBool("validator-only")

		tui.PrintBanner(cmd.ErrOrStderr())
		if err := cli.Serve(ctx, rt, opts); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		if sig := ctx.Signal(); sig != nil {
			rt.Logger.Info("Server stopped gracefully", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().Bool("validator-only", false, "Serve only the configured validator")
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tqwhite/unity-data-generator-sub000/internal/cli"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "datagen",
	Short: "datagen generates validated synthetic records with chained AI prompts",
	Long: `datagen drives conversations of AI Thinkers to produce synthetic structured data
for a target object, validates each candidate and feeds validator errors back until
the candidate passes or the iteration budget is spent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "datagen.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
}

// loadRuntime reads the configuration named by --config and wires the engine.
func loadRuntime(ctx context.Context, cmd *cobra.Command) (*cli.Runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = cfg.LogLevel
	}
	logger, err := cli.CreateLogger(level, jsonLogs)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing datagen: %w", err)
	}
	return rt, nil
}

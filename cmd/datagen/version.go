package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of datagen",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("datagen version %s\n", strings.TrimSpace(datagen.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"

	"github.com/aretw0/textremind"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of textremind",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "textremind version %s\n", textremind.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

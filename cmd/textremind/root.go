package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/textremind/internal/cli"
	"github.com/aretw0/textremind/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "textremind",
	Short: "TextRemind schedules text messages to verified numbers",
	Long: `TextRemind runs the verification and scheduling API, delivers scheduled
text messages when their time comes, and offers an interactive form to
schedule one from the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and environment, then applies the flags
// shared by every command.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cfg, cli.NewLogger(cfg.Log, debug), nil
}

package main

import (
	"fmt"
	"os"

	"github.com/aretw0/textremind"
	"github.com/aretw0/textremind/internal/cli"
	"github.com/aretw0/textremind/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a text message interactively",
	Long: `Asks for the message, the phone number and the delivery time, verifies
the number with a texted code or a password, and schedules the message on the
server given by client.base_url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("server") {
			cfg.Client.BaseURL, _ = cmd.Flags().GetString("server")
		}
		if cmd.Flags().Changed("policy") {
			cfg.Client.Policy, _ = cmd.Flags().GetString("policy")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg, logger, debug)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.SessionOptions{
			In:           os.Stdin,
			Out:          cmd.OutOrStdout(),
			ReadPassword: cli.TerminalPassword(os.Stdin),
		}
		if cli.IsTerminal(os.Stdout) {
			opts.Renderer = tui.NewRenderer()
			opts.Version = textremind.Version
		}

		err = cli.NewSession(app, opts).Run(sigCtx)
		if cli.IsInterrupted(err) {
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().StringP("server", "s", "", "Base URL of the TextRemind API")
	scheduleCmd.Flags().String("policy", "", "Verification policy: code or password")
}

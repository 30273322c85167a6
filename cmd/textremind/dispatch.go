package main

import (
	"fmt"

	"github.com/aretw0/textremind/internal/cli"
	"github.com/spf13/cobra"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send every message that is due, once",
	Long: `Runs a single dispatch pass over the shared store and exits. Useful from
cron when serve runs with --no-dispatch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := cli.NewBackend(cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		report, err := b.Dispatcher().DispatchDue(cmd.Context())
		if err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d, failed %d, left %d\n", report.Sent, report.Failed, report.Left)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

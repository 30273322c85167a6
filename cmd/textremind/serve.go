package main

import (
	"fmt"

	"github.com/aretw0/textremind/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the message dispatcher",
	Long: `Starts the JSON API used by the form (check, send_verification,
check_verification, check_password, set_password, schedule) and, unless
disabled, the dispatcher that sends due messages at every minute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("store") {
			cfg.Store.Driver, _ = cmd.Flags().GetString("store")
		}
		if noDispatch, _ := cmd.Flags().GetBool("no-dispatch"); noDispatch {
			cfg.Dispatch.Enabled = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		err = cli.Serve(sigCtx, cfg, logger)
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("stopped", "signal", sig.String())
		}
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8000)")
	serveCmd.Flags().String("store", "", "Store driver: memory or redis")
	serveCmd.Flags().Bool("no-dispatch", false, "Do not send scheduled messages from this process")
}

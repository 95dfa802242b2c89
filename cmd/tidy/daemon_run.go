package main

import (
	"strings"

	"github.com/spf13/cobra"

	"tidy/internal/daemonrun"
)

// newDaemonRunCommand runs the daemon in the foreground. `tidy start`
// launches this subcommand detached when no daemon is reachable.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the tidy daemon in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := daemonrun.Options{
				ConfigPath: ctx.configPath,
				LogLevel:   strings.TrimSpace(logLevel),
			}
			if ctx.socketFlag != nil {
				opts.SocketPath = strings.TrimSpace(*ctx.socketFlag)
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

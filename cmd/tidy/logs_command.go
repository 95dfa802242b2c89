package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Lines: lines})
				if err != nil {
					return fmt.Errorf("read logs: %w", err)
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				if !follow {
					return nil
				}

				offset := resp.Offset
				for {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					next, err := client.LogTail(ipc.LogTailRequest{
						Offset: offset,
						Follow: true,
						WaitMs: 2000,
					})
					if err != nil {
						return fmt.Errorf("read logs: %w", err)
					}
					for _, line := range next.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
					offset = next.Offset
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show first")

	return cmd
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newWatchedCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watched",
		Short: "Show the monitored folder and active routing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Watched()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Watching:  %s\n", resp.Root)
				fmt.Fprintf(stdout, "Debounce:  %s\n", time.Duration(resp.DebounceMs)*time.Millisecond)
				fmt.Fprintf(stdout, "Fallback:  %s\n", resp.Fallback)
				fmt.Fprintf(stdout, "Categories: %s\n", strings.Join(resp.Categories, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit as JSON")
	return cmd
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Re-hash every file in the library into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rescan()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rescan complete, indexed %d files\n", resp.Indexed)
				return nil
			})
		},
	}
}

func newReloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the config file and apply routes and ignore rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				if !resp.Reloaded {
					return fmt.Errorf("reload failed: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Configuration reloaded")
				return nil
			})
		},
	}
}

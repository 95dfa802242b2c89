package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tidy/internal/daemonctl"
	"tidy/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tidy daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				launchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tidy daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the tidy daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			_, stopErr := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if stopErr != nil && !errors.Is(stopErr, daemonctl.ErrDaemonNotRunning) {
				return stopErr
			}
			if stopErr == nil {
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, launchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			default:
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(ctx, cmd, statusJSON)
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit status as JSON")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func runStatus(ctx *commandContext, cmd *cobra.Command, asJSON bool) error {
	return ctx.withClient(func(client *ipc.Client) error {
		status, err := client.Status()
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd, status)
		}

		stdout := cmd.OutOrStdout()
		colorize := shouldColorize(stdout)

		for _, line := range renderSectionHeader("Daemon", colorize) {
			fmt.Fprintln(stdout, line)
		}
		if status.Running {
			detail := fmt.Sprintf("Running (pid %d)", status.PID)
			if status.StartedAt != "" {
				if started, err := time.Parse(time.RFC3339, status.StartedAt); err == nil {
					detail += ", up " + time.Since(started).Round(time.Second).String()
				}
			}
			fmt.Fprintln(stdout, renderStatusLine("Tidy", statusOK, detail, colorize))
		} else {
			fmt.Fprintln(stdout, renderStatusLine("Tidy", statusWarn, "Not running (run `tidy start`)", colorize))
		}
		fmt.Fprintln(stdout, renderStatusLine("Watching", statusInfo, status.WatchDir, colorize))
		fmt.Fprintln(stdout, renderStatusLine("Library", statusInfo, status.LibraryDir, colorize))
		fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
		if status.DBRecovered {
			fmt.Fprintln(stdout, renderStatusLine("Database health", statusWarn, "corrupt database was discarded and rebuilt", colorize))
		}

		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Session", colorize) {
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintln(stdout, renderStatusLine("Organized", statusInfo, fmt.Sprintf("%d", status.Organized), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Skipped", statusInfo, fmt.Sprintf("%d", status.Skipped), colorize))
		failedKind := statusInfo
		if status.Failed > 0 {
			failedKind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", status.Failed), colorize))

		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Index", colorize) {
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintln(stdout, renderStatusLine("Files indexed", statusInfo, fmt.Sprintf("%d", status.FileRecords), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Distinct contents", statusInfo, fmt.Sprintf("%d", status.HashEntries), colorize))
		dupKind := statusOK
		dupDetail := "none"
		if status.DuplicateGroups > 0 {
			dupKind = statusWarn
			dupDetail = fmt.Sprintf("%d (run `tidy dupes list`)", status.DuplicateGroups)
		}
		fmt.Fprintln(stdout, renderStatusLine("Duplicate groups", dupKind, dupDetail, colorize))
		fmt.Fprintln(stdout, renderStatusLine("Moves logged", statusInfo, fmt.Sprintf("%d", status.OrganizedTotal), colorize))

		if len(status.CategoryCounts) > 0 {
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Categories", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := make([][]string, 0, len(status.CategoryCounts))
			for _, category := range sortedKeys(status.CategoryCounts) {
				rows = append(rows, []string{category, fmt.Sprintf("%d", status.CategoryCounts[category])})
			}
			fmt.Fprintln(stdout, renderTable([]string{"Category", "Organized"}, rows, []columnAlignment{alignLeft, alignRight}))
		}
		return nil
	})
}

func launchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.Bytes(uint64(size))
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var category string
	var since string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently organized files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.HistoryRequest{Limit: limit, Category: category}
			if since != "" {
				parsed, err := parseSince(since)
				if err != nil {
					return err
				}
				req.Since = parsed.Format(time.RFC3339)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "No organize history")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					rows = append(rows, []string{
						rec.OrganizedAt.Local().Format(time.DateTime),
						rec.Category,
						formatSize(rec.Size),
						rec.OriginalPath,
						rec.DestinationPath,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"When", "Category", "Size", "From", "To"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to return (default 100)")
	cmd.Flags().StringVar(&category, "category", "", "Only show moves into this category")
	cmd.Flags().StringVar(&since, "since", "", "Only show moves after this time (RFC 3339 or duration like 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit history as JSON")
	return cmd
}

// parseSince accepts either an absolute RFC 3339 timestamp or a relative
// duration such as "24h" or "30m".
func parseSince(value string) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --since %q: want RFC 3339 timestamp or duration", value)
	}
	return t, nil
}

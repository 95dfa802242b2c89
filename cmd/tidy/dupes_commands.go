package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tidy/internal/api"
	"tidy/internal/ipc"
)

func newDupesCommand(ctx *commandContext) *cobra.Command {
	dupesCmd := &cobra.Command{
		Use:   "dupes",
		Short: "Inspect and resolve duplicate files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	dupesCmd.AddCommand(newDupesListCommand(ctx))
	dupesCmd.AddCommand(newDupesResolveCommand(ctx))
	return dupesCmd
}

func newDupesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var showFiles bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups of files with identical content",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DupesList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Groups) == 0 {
					fmt.Fprintln(stdout, "No duplicates found")
					return nil
				}

				rows := make([][]string, 0, len(resp.Groups))
				for _, group := range resp.Groups {
					rows = append(rows, []string{
						api.ShortDigest(group.Digest),
						fmt.Sprintf("%d", len(group.Files)),
						formatSize(group.TotalSize),
						formatSize(group.WastedSize),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Digest", "Copies", "Total", "Wasted"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				))

				if showFiles {
					for _, group := range resp.Groups {
						fmt.Fprintf(stdout, "\n%s:\n", api.ShortDigest(group.Digest))
						for _, file := range group.Files {
							fmt.Fprintf(stdout, "  %s  %s  %s\n",
								file.ModifiedAt.Local().Format(time.DateTime),
								formatSize(file.Size),
								file.Path)
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit groups as JSON")
	cmd.Flags().BoolVar(&showFiles, "files", false, "List the files in each group")
	return cmd
}

func newDupesResolveCommand(ctx *commandContext) *cobra.Command {
	var policy string
	var deletePaths []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <digest>",
		Short: "Delete redundant copies from one duplicate group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy == "delete-paths" && len(deletePaths) == 0 {
				return errors.New("--path is required with the delete-paths policy")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DupesResolve(ipc.DupesResolveRequest{
					Digest: args[0],
					Policy: policy,
					Paths:  deletePaths,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				res := resp.Resolution
				fmt.Fprintln(stdout, res.Summary)
				for _, path := range res.Deleted {
					fmt.Fprintf(stdout, "  deleted %s\n", path)
				}
				for _, path := range res.Kept {
					fmt.Fprintf(stdout, "  kept    %s\n", path)
				}
				for path, reason := range res.Failed {
					fmt.Fprintf(stdout, "  failed  %s: %s\n", path, reason)
				}
				if len(res.Failed) > 0 {
					return fmt.Errorf("%d copies could not be deleted", len(res.Failed))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "keep-newest", "Resolution policy: keep-newest, keep-largest, delete-all, delete-paths")
	cmd.Flags().StringArrayVar(&deletePaths, "path", nil, "Path to delete (repeatable, delete-paths policy)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the resolution as JSON")
	return cmd
}

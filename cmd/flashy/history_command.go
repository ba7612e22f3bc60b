package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var serial string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past flash attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(ipc.HistoryRequest{Serial: serial, Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(out, "No flash history.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					exit := ""
					if rec.ExitCode != nil {
						exit = strconv.Itoa(*rec.ExitCode)
					}
					detail := rec.Error
					if detail == "" {
						detail = rec.BundleDir
					}
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.Serial,
						rec.State,
						rec.Storage,
						exit,
						rec.FinishedAt,
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(historyColumns, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&serial, "serial", "", "Only show attempts for this device serial")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records (0 for all)")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	cmd.AddCommand(newHistoryStatsCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all flash history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.HistoryClear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			})
		},
	}
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate flash history counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.HistoryStats()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "total:     %d\n", stats.Total)
				fmt.Fprintf(out, "succeeded: %d\n", stats.Succeeded)
				fmt.Fprintf(out, "failed:    %d\n", stats.Failed)
				fmt.Fprintf(out, "cancelled: %d\n", stats.Cancelled)
				return nil
			})
		},
	}
}

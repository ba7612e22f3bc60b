package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var jobID string
	var follow bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print output of the current (or a specific) flash job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				offset := 0
				for {
					resp, err := client.JobLog(ipc.JobLogRequest{JobID: jobID, Offset: offset, Wait: follow})
					if err != nil {
						return err
					}
					for _, line := range resp.Lines {
						fmt.Fprintln(out, line)
					}
					offset = resp.Offset

					if !follow {
						return nil
					}
					if resp.Done && len(resp.Lines) == 0 {
						return nil
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Job id (default: the current job)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream output until the job finishes")
	return cmd
}

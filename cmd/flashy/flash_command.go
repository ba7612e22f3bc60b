package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newFlashCommand(ctx *commandContext) *cobra.Command {
	var bundleDir string
	var storage string
	var noFollow bool

	cmd := &cobra.Command{
		Use:   "flash <serial>",
		Short: "Flash firmware onto the device with the given EDL serial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Flash(ipc.FlashRequest{
					Serial:    args[0],
					BundleDir: bundleDir,
					Storage:   storage,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "flash job %s started for %s (bundle %s, storage %s)\n",
					resp.Job.ID, resp.Job.Serial, resp.Job.BundleDir, resp.Job.Storage)

				if noFollow {
					return nil
				}
				return followJob(cmd, client, resp.Job.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&bundleDir, "dir", "d", "", "Firmware bundle directory (default from config)")
	cmd.Flags().StringVarP(&storage, "storage", "s", "", "Storage medium: emmc or ufs (default from config)")
	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "Start the job without streaming its output")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running flash job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Cancel(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cancellation requested")
				return nil
			})
		},
	}
}

// followJob streams job output until the job reaches a terminal state. The
// command's exit status reflects the job outcome.
func followJob(cmd *cobra.Command, client *ipc.Client, jobID string) error {
	out := cmd.OutOrStdout()
	offset := 0
	for {
		resp, err := client.JobLog(ipc.JobLogRequest{JobID: jobID, Offset: offset, Wait: true})
		if err != nil {
			return err
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(out, line)
		}
		offset = resp.Offset

		if resp.Done && len(resp.Lines) == 0 {
			job := resp.Job
			switch job.State {
			case "succeeded":
				fmt.Fprintf(out, "flash succeeded for %s\n", job.Serial)
				return nil
			case "cancelled":
				return fmt.Errorf("flash cancelled for %s", job.Serial)
			default:
				if job.ExitCode != nil {
					return fmt.Errorf("flash failed for %s (exit %d)", job.Serial, *job.ExitCode)
				}
				if job.Error != "" {
					return fmt.Errorf("flash failed for %s: %s", job.Serial, job.Error)
				}
				return fmt.Errorf("flash failed for %s", job.Serial)
			}
		}
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and flash job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				w := newStatusWriter(cmd.OutOrStdout())

				w.section("Daemon")
				runKind := statusError
				if status.Running {
					runKind = statusOK
				}
				w.line("Running", runKind, yesNo(status.Running))
				w.line("Socket", statusInfo, status.SocketPath)
				w.line("History DB", statusInfo, status.HistoryDBPath)

				w.section("Devices")
				scanKind := statusOK
				scanMsg := fmt.Sprintf("%d connected", status.DeviceCount)
				if !status.ScanHealthy {
					scanKind = statusWarn
					scanMsg = fmt.Sprintf("%d connected (last scan failed: %s)", status.DeviceCount, status.ScanError)
				}
				w.line("Scan", scanKind, scanMsg)
				if status.LastScan != "" {
					w.line("Last scan", statusInfo, status.LastScan)
				}

				w.section("Flash job")
				w.line("State", jobStateKind(status.Job.State), describeJob(status.Job))
				return nil
			})
		},
	}
}

func jobStateKind(state string) statusKind {
	switch state {
	case "succeeded":
		return statusOK
	case "running":
		return statusInfo
	case "failed":
		return statusError
	case "cancelled":
		return statusWarn
	default:
		return statusInfo
	}
}

func describeJob(job ipc.JobInfo) string {
	if job.State == "" || job.State == "idle" {
		return "idle"
	}
	parts := []string{job.State, "serial " + job.Serial}
	if job.ExitCode != nil {
		parts = append(parts, fmt.Sprintf("exit %d", *job.ExitCode))
	}
	if job.Error != "" {
		parts = append(parts, job.Error)
	}
	return strings.Join(parts, ", ")
}

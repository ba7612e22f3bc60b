package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List detected Qualcomm USB devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Devices()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				if !resp.ScanHealthy {
					fmt.Fprintf(out, "warning: last scan failed (%s); showing last known devices\n", resp.ScanError)
				}
				if len(resp.Devices) == 0 {
					fmt.Fprintln(out, "No devices detected.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Devices))
				for _, dev := range resp.Devices {
					serial := dev.Serial
					if serial == "" {
						serial = "(no serial)"
					}
					rows = append(rows, []string{
						serial,
						dev.VendorID + ":" + dev.ProductID,
						dev.Mode,
						strconv.Itoa(dev.Bus),
						strconv.Itoa(dev.Address),
						yesNo(dev.Targetable),
						dev.Description,
					})
				}
				fmt.Fprintln(out, renderTable(deviceColumns, rows))
				return nil
			})
		},
	}
}

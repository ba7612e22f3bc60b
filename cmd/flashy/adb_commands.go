package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flashy/internal/ipc"
)

func newADBDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "adb-devices",
		Short: "List devices visible to adb with their transport ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ADBDevices()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Devices) == 0 {
					fmt.Fprintln(out, "No adb devices.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Devices))
				for _, dev := range resp.Devices {
					rows = append(rows, []string{
						dev.Serial,
						dev.State,
						dev.TransportID,
						dev.Model,
						dev.Product,
						dev.USB,
					})
				}
				fmt.Fprintln(out, renderTable(adbColumns, rows))
				return nil
			})
		},
	}
}

func newRebootEDLCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reboot-edl <transport-id>",
		Short: "Reboot an adb device into emergency download mode",
		Long: "Reboot the adb device behind the given transport id into EDL mode.\n" +
			"Use `flashy adb-devices` to find transport ids. The device drops off\n" +
			"adb and reappears as a 05c6:9008 USB device shortly after.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.RebootEDL(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reboot to EDL requested for transport %s\n", args[0])
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flashy/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}

			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point firmware_dir at your firmware bundles before flashing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "log_dir:            %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "firmware_dir:       %s\n", cfg.Paths.FirmwareDir)
			fmt.Fprintf(out, "socket:             %s\n", cfg.Socket())
			fmt.Fprintf(out, "history_db:         %s\n", filepath.Join(cfg.Paths.LogDir, "history.db"))
			fmt.Fprintf(out, "lsusb_binary:       %s\n", cfg.Scanner.LsusbBinary)
			fmt.Fprintf(out, "poll_interval:      %ds\n", cfg.Scanner.PollInterval)
			fmt.Fprintf(out, "enumerate_timeout:  %ds\n", cfg.Scanner.EnumerateTimeout)
			fmt.Fprintf(out, "vendor_ids:         %s\n", strings.Join(cfg.Scanner.VendorIDs, ", "))
			fmt.Fprintf(out, "qdl_binary:         %s\n", cfg.Flasher.QDLBinary)
			fmt.Fprintf(out, "storage:            %s\n", cfg.Flasher.Storage)
			fmt.Fprintf(out, "cancel_grace:       %ds\n", cfg.Flasher.CancelGraceSecs)
			fmt.Fprintf(out, "run_with_privilege: %s\n", yesNo(cfg.Flasher.RunWithPrivilege))
			fmt.Fprintf(out, "adb_enabled:        %s\n", yesNo(cfg.ADB.Enabled))
			fmt.Fprintf(out, "adb_binary:         %s\n", cfg.ADB.Binary)
			fmt.Fprintf(out, "log_format:         %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "log_level:          %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

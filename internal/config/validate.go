package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateFlasher(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScanner() error {
	for _, id := range c.Scanner.VendorIDs {
		if !isHex4(id) {
			return fmt.Errorf("scanner.vendor_ids: %q is not a 4-digit hex vendor id", id)
		}
	}
	return nil
}

func (c *Config) validateFlasher() error {
	switch c.Flasher.Storage {
	case "emmc", "ufs":
		return nil
	default:
		return fmt.Errorf("flasher.storage must be \"emmc\" or \"ufs\", got %q", c.Flasher.Storage)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func isHex4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

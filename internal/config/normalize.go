package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScanner()
	c.normalizeFlasher()
	c.normalizeADB()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.FirmwareDir, err = expandPath(c.Paths.FirmwareDir); err != nil {
		return fmt.Errorf("paths.firmware_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScanner() {
	c.Scanner.LsusbBinary = strings.TrimSpace(c.Scanner.LsusbBinary)
	if c.Scanner.LsusbBinary == "" {
		c.Scanner.LsusbBinary = defaultLsusbBinary
	}
	if c.Scanner.PollInterval <= 0 {
		c.Scanner.PollInterval = defaultPollInterval
	}
	if c.Scanner.EnumerateTimeout <= 0 {
		c.Scanner.EnumerateTimeout = defaultEnumerateTimeout
	}
	if len(c.Scanner.VendorIDs) == 0 {
		c.Scanner.VendorIDs = []string{qualcommVendorID}
	}
	for i, id := range c.Scanner.VendorIDs {
		c.Scanner.VendorIDs[i] = strings.ToLower(strings.TrimSpace(id))
	}
}

func (c *Config) normalizeFlasher() {
	c.Flasher.QDLBinary = strings.TrimSpace(c.Flasher.QDLBinary)
	if c.Flasher.QDLBinary == "" {
		c.Flasher.QDLBinary = defaultQDLBinary
	}
	c.Flasher.Storage = strings.ToLower(strings.TrimSpace(c.Flasher.Storage))
	if c.Flasher.Storage == "" {
		c.Flasher.Storage = defaultStorage
	}
	if c.Flasher.CancelGraceSecs <= 0 {
		c.Flasher.CancelGraceSecs = defaultCancelGraceSecs
	}
	if c.Flasher.HistoryLogLimit <= 0 {
		c.Flasher.HistoryLogLimit = defaultHistoryLogLimit
	}
}

func (c *Config) normalizeADB() {
	c.ADB.Binary = strings.TrimSpace(c.ADB.Binary)
	if c.ADB.Binary == "" {
		c.ADB.Binary = defaultADBBinary
	}
	if c.ADB.Timeout <= 0 {
		c.ADB.Timeout = defaultADBTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

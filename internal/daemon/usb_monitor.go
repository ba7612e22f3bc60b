package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"flashy/internal/config"
	"flashy/internal/logging"
)

// usbMonitor listens for udev netlink events and triggers an immediate scan
// when a USB device is attached or removed. This narrows the window between
// plugging a device in and it showing up, without shortening the poll
// interval.
type usbMonitor struct {
	cfg    *config.Config
	logger *slog.Logger
	onUSB  func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newUSBMonitor(cfg *config.Config, logger *slog.Logger, onUSB func()) *usbMonitor {
	if cfg == nil || onUSB == nil {
		return nil
	}
	return &usbMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "usb-monitor"),
		onUSB:  onUSB,
	}
}

// Start begins listening for udev netlink events.
func (m *usbMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; device detection will rely on polling",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "hotplug events delayed up to one poll interval"),
		)
		return nil // Non-fatal - the poll loop still covers detection
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("usb hotplug monitor started",
		logging.String(logging.FieldEventType, "usb_monitor_started"),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *usbMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("usb hotplug monitor stopped",
		logging.String(logging.FieldEventType, "usb_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *usbMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *usbMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// buildMatcher matches USB attach and detach events.
func (m *usbMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
		},
	})
	return rules
}

func (m *usbMonitor) handleEvent(uevent netlink.UEvent) {
	// Interface-level uevents arrive alongside device-level ones; a single
	// kick coalesces them because the trigger channel is buffered at one.
	m.logger.Debug("usb hotplug event",
		logging.String("action", string(uevent.Action)),
		logging.String("kobj", strings.TrimSpace(uevent.KObj)),
	)
	m.onUSB()
}
